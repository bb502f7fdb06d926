package browsefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/shazhou-ww/hstore/internal/block"
)

// BlocksDir exposes raw block bytes by hash. It has no Readdir — the
// block namespace is unbounded and not meaningfully enumerable without
// walking every reachable version's value DAG, so only Lookup is
// supported (matching a content-addressed store's access pattern: you
// always arrive at a hash from somewhere, not by listing).
type BlocksDir struct {
	fs.Inode
	adapter block.Adapter
}

var _ = (fs.NodeLookuper)((*BlocksDir)(nil))
var _ = (fs.NodeGetattrer)((*BlocksDir)(nil))

func (d *BlocksDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0755
	out.Ino = stableIno("blocks")
	return fs.OK
}

func (d *BlocksDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	blk, ok, err := d.adapter.Read(ctx, name)
	if err != nil {
		return nil, syscall.EIO
	}
	if !ok {
		return nil, syscall.ENOENT
	}
	f := &staticFile{data: blk.Bytes, inoPath: []string{"blocks", name}}
	child := d.NewInode(ctx, f, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  ino("blocks", name),
	})
	return child, fs.OK
}
