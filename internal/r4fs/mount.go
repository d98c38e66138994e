//go:build linux
// +build linux

package r4fs

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Mount mounts the projection at mountPoint and blocks until the process
// receives SIGINT/SIGTERM or the server otherwise exits.
func Mount(mountPoint string, handle *FS) error {
	return MountWithAllowOther(mountPoint, handle, false)
}

// MountWithAllowOther mounts the projection, optionally enabling FUSE
// allow_other so other local users can see the mount.
func MountWithAllowOther(mountPoint string, handle *FS, allowOther bool) error {
	root := &Node{FS: handle, Path: "/"}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug:      false,
			AllowOther: allowOther,
			FsName:     "r4fuse",
			Name:       "r4fuse",
		},
	}
	server, err := fs.Mount(mountPoint, root, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		log.Println("r4fs: unmounting...")
		_ = server.Unmount()
	}()

	server.Wait()
	stop()
	return nil
}

// MountBackground mounts the projection without blocking; the returned func
// unmounts it. ctx cancellation also triggers unmount.
func MountBackground(ctx context.Context, mountPoint string, handle *FS, allowOther bool) (unmount func(), err error) {
	root := &Node{FS: handle, Path: "/"}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug:      false,
			AllowOther: allowOther,
			FsName:     "r4fuse",
			Name:       "r4fuse",
		},
	}
	server, err := fs.Mount(mountPoint, root, opts)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = server.Unmount()
	}()

	return func() { _ = server.Unmount() }, nil
}
