package browsefs

import (
	"github.com/hanwen/go-fuse/v2/fs"
	gofuse "github.com/hanwen/go-fuse/v2/fuse"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/version"
)

// Mount mounts the inspection filesystem at mountpoint, backed by store
// and adapter. Call server.Wait() to block until unmounted, or
// server.Unmount() to stop it.
func Mount(mountpoint string, store *version.Store, adapter block.Adapter, debug bool) (*gofuse.Server, error) {
	root := New(store, adapter)

	opts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			FsName:        "hstore",
			Name:          "hstore",
			DisableXAttrs: true,
			AllowOther:    false,
			Debug:         debug,
		},
	}

	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, err
	}
	return server, nil
}
