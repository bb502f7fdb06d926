// Package browsefs mounts a read-only FUSE inspection filesystem over a
// hstore version store: /head, /versions/<hash>/{value.json,previous,
// timestamp}, and /blocks/<hash> for raw block bytes. There is no write
// path — the store underneath is write-once content-addressed storage,
// so a block, once written, is never rewritten and there is nothing a
// filesystem mutation could mean.
package browsefs

import (
	"context"
	"hash/fnv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/version"
)

// stableIno returns a stable inode number for a given path string.
func stableIno(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

// RootNode is the mountpoint directory: head, versions/, blocks/.
type RootNode struct {
	fs.Inode
	store   *version.Store
	adapter block.Adapter
}

var _ = (fs.NodeOnAdder)((*RootNode)(nil))
var _ = (fs.NodeGetattrer)((*RootNode)(nil))

// New builds the root node for a browse mount over store/adapter.
func New(store *version.Store, adapter block.Adapter) *RootNode {
	return &RootNode{store: store, adapter: adapter}
}

func (r *RootNode) OnAdd(ctx context.Context) {
	headFile := &HeadFile{store: r.store}
	headInode := r.NewPersistentInode(ctx, headFile, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("head"),
	})
	r.AddChild("head", headInode, true)

	versionsDir := &VersionsDir{store: r.store}
	versionsInode := r.NewPersistentInode(ctx, versionsDir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("versions"),
	})
	r.AddChild("versions", versionsInode, true)

	blocksDir := &BlocksDir{adapter: r.adapter}
	blocksInode := r.NewPersistentInode(ctx, blocksDir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("blocks"),
	})
	r.AddChild("blocks", blocksInode, true)
}

func (r *RootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0755
	out.Ino = stableIno("/")
	return fs.OK
}

// HeadFile is a read-only file whose contents are the current head hash
// followed by a newline, or just a newline if the store has no commits
// yet.
type HeadFile struct {
	fs.Inode
	store *version.Store
}

var _ = (fs.NodeGetattrer)((*HeadFile)(nil))
var _ = (fs.NodeReader)((*HeadFile)(nil))
var _ = (fs.NodeOpener)((*HeadFile)(nil))

func (f *HeadFile) bytes(ctx context.Context) []byte {
	head, ok, err := f.store.Head(ctx)
	if err != nil || !ok {
		return []byte("\n")
	}
	return []byte(head.Hash + "\n")
}

func (f *HeadFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(f.bytes(ctx)))
	out.Ino = stableIno("head")
	return fs.OK
}

func (f *HeadFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (f *HeadFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return readSlice(f.bytes(ctx), dest, off), fs.OK
}

// readSlice implements the common [off, off+len(dest)) windowing every
// synthetic read-only file in this package needs.
func readSlice(data []byte, dest []byte, off int64) fuse.ReadResult {
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil)
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end])
}

func ino(parts ...string) uint64 {
	path := ""
	for i, p := range parts {
		if i > 0 {
			path += "/"
		}
		path += p
	}
	return stableIno(path)
}
