// Package disk provides an on-disk block.Adapter: one file per hash,
// written atomically via tempfile-fsync-rename.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shazhou-ww/hstore/internal/block"
)

// Adapter persists blocks as files under dir, one file per hash.
type Adapter struct {
	dir string
}

// New creates an Adapter rooted at dir, creating the directory if needed.
func New(dir string) (*Adapter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("disk: create dir: %w", err)
	}
	return &Adapter{dir: dir}, nil
}

// filenameFor maps a Hash onto a filesystem-safe filename. Hashes produced
// by canhash.SHA256/BLAKE3 are already a base32 multibase alphabet (safe
// as-is); the reserved head key and any other caller-supplied hash string
// is defended against path separators by escaping them.
func filenameFor(hash string) string {
	escaped := strings.ReplaceAll(hash, string(filepath.Separator), "__")
	if filepath.Separator != '/' {
		escaped = strings.ReplaceAll(escaped, "/", "__")
	}
	return escaped
}

func (a *Adapter) Read(_ context.Context, hash string) (block.StoredBlock, bool, error) {
	path := filepath.Join(a.dir, filenameFor(hash))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return block.StoredBlock{}, false, nil
		}
		return block.StoredBlock{}, false, fmt.Errorf("disk: read %s: %w", hash, err)
	}
	return block.StoredBlock{Hash: hash, Bytes: data}, true, nil
}

func (a *Adapter) Write(_ context.Context, b block.StoredBlock) error {
	path := filepath.Join(a.dir, filenameFor(b.Hash))
	if b.Hash != block.ReservedHeadKey {
		if _, err := os.Stat(path); err == nil {
			// Idempotent: same hash already has a block on disk (§6.1).
			// The head record is the exception: it is replaced on every
			// write, atomically through the rename below.
			return nil
		}
	}
	if err := writeFileAtomic(a.dir, path, b.Bytes); err != nil {
		return fmt.Errorf("disk: write %s: %w", b.Hash, err)
	}
	return nil
}

// writeFileAtomic makes a block durable before it becomes visible under
// path: the bytes land in a sibling temp file (same directory, so the
// final rename stays on one filesystem and is atomic), get fsynced and
// closed, and only then get their permissions fixed up and renamed into
// place by path rather than by the now-closed file handle. A reader can
// never observe a partially-written block, and a crash between the write
// and the rename leaves only an orphaned temp file, never a corrupt one.
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	stage, err := tmp.Name(), writeSyncClose(tmp, data)
	if err == nil {
		err = os.Chmod(stage, 0644)
	}
	if err == nil {
		err = os.Rename(stage, path)
	}
	if err != nil {
		os.Remove(stage)
	}
	return err
}

func writeSyncClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}

// Clear removes every block file. Exercises block.Clearer; used by tests
// to reset an adapter between runs.
func (a *Adapter) Clear(_ context.Context) error {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return fmt.Errorf("disk: clear: list: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(a.dir, e.Name())); err != nil {
			return fmt.Errorf("disk: clear: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
