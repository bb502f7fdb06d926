package browsefs

import (
	"context"
	"encoding/json"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/shazhou-ww/hstore/internal/version"
)

const maxVersionsListed = 256

// VersionsDir lists the chain reachable from head, one directory per
// version hash.
type VersionsDir struct {
	fs.Inode
	store *version.Store
}

var _ = (fs.NodeLookuper)((*VersionsDir)(nil))
var _ = (fs.NodeReaddirer)((*VersionsDir)(nil))
var _ = (fs.NodeGetattrer)((*VersionsDir)(nil))

func (d *VersionsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0755
	out.Ino = stableIno("versions")
	return fs.OK
}

func (d *VersionsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	chain, err := d.store.Log(ctx, maxVersionsListed)
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, len(chain))
	for i, v := range chain {
		entries[i] = fuse.DirEntry{
			Name: v.Hash,
			Mode: syscall.S_IFDIR,
			Ino:  ino("versions", v.Hash),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *VersionsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	v, ok, err := d.store.Get(ctx, name)
	if err != nil || !ok {
		return nil, syscall.ENOENT
	}
	dir := &VersionDir{version: v}
	child := d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  ino("versions", name),
	})
	return child, fs.OK
}

// VersionDir exposes one version's value.json, previous, and timestamp as
// files.
type VersionDir struct {
	fs.Inode
	version version.StateVersion
}

var _ = (fs.NodeLookuper)((*VersionDir)(nil))
var _ = (fs.NodeReaddirer)((*VersionDir)(nil))
var _ = (fs.NodeGetattrer)((*VersionDir)(nil))

func (d *VersionDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0755
	out.Ino = ino("versions", d.version.Hash)
	return fs.OK
}

func (d *VersionDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names := []string{"value.json", "previous", "timestamp"}
	entries := make([]fuse.DirEntry, len(names))
	for i, name := range names {
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFREG,
			Ino:  ino("versions", d.version.Hash, name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *VersionDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	var data []byte
	switch name {
	case "value.json":
		raw, err := json.MarshalIndent(d.version.Value.ToGo(), "", "  ")
		if err != nil {
			return nil, syscall.EIO
		}
		data = append(raw, '\n')
	case "previous":
		data = []byte(d.version.Previous + "\n")
	case "timestamp":
		raw, err := json.Marshal(d.version.Timestamp)
		if err != nil {
			return nil, syscall.EIO
		}
		data = append(raw, '\n')
	default:
		return nil, syscall.ENOENT
	}

	f := &staticFile{data: data, inoPath: []string{"versions", d.version.Hash, name}}
	child := d.NewInode(ctx, f, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  ino("versions", d.version.Hash, name),
	})
	return child, fs.OK
}
