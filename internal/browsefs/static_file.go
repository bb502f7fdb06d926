package browsefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// staticFile serves a fixed byte slice computed once at Lookup time —
// every synthetic leaf file in this package (value.json, previous,
// timestamp, a raw block) is one of these.
type staticFile struct {
	fs.Inode
	data    []byte
	inoPath []string
}

var _ = (fs.NodeGetattrer)((*staticFile)(nil))
var _ = (fs.NodeReader)((*staticFile)(nil))
var _ = (fs.NodeOpener)((*staticFile)(nil))

func (f *staticFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(f.data))
	out.Ino = ino(f.inoPath...)
	return fs.OK
}

func (f *staticFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (f *staticFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return readSlice(f.data, dest, off), fs.OK
}
