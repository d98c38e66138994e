// Package r4fs is the go-fuse binding for the radio4000 projection. It is a
// thin dispatch layer: every Lookup/Getattr/Readdir/Read call classifies its
// virtual path with internal/projection and delegates to its producers.
// Nothing here decides what a path means; that lives in internal/projection.
package r4fs

import (
	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rconfig"
)

// FS is the shared, owned state every inode in the tree reaches back into.
// It is the "owned handle" the design notes call for in place of
// module-level globals (spec.md §9): one value, constructed once by the
// caller (internal/app) and threaded through every node.
type FS struct {
	Catalog        catalog.Catalog
	Favorites      *rconfig.SlugList
	Downloads      *rconfig.SlugList
	StorageBaseURL string

	// Enqueue is called with the trimmed slug written to /control. It is a
	// function value, not a queue reference, so this package never needs to
	// import the download queue.
	Enqueue func(slug string) error
}
