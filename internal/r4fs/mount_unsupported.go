//go:build !linux
// +build !linux

package r4fs

import (
	"context"
	"fmt"
)

// Mount is unavailable on non-Linux builds because r4fs depends on go-fuse's
// Linux-only kernel binding.
func Mount(mountPoint string, handle *FS) error {
	return fmt.Errorf("r4fs mount is only supported on linux builds")
}

// MountWithAllowOther is unavailable on non-Linux builds.
func MountWithAllowOther(mountPoint string, handle *FS, allowOther bool) error {
	return fmt.Errorf("r4fs mount is only supported on linux builds")
}

// MountBackground is unavailable on non-Linux builds.
func MountBackground(ctx context.Context, mountPoint string, handle *FS, allowOther bool) (func(), error) {
	return nil, fmt.Errorf("r4fs mount is only supported on linux builds")
}
