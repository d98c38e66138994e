//go:build linux
// +build linux

package r4fs

import (
	"context"
	"hash/fnv"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/radio4000/r4fuse/internal/projection"
)

// Node is every inode in the tree: directories, synthetic files, and the
// control file all share this one type, keyed by their virtual path.
// Behavior is entirely a function of Classify(Path) — there is no per-kind
// Go type, mirroring the way internal/projection has no notion of FUSE.
type Node struct {
	fs.Inode
	FS   *FS
	Path string
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeWriter    = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
)

func ino(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte("r4fuse:" + path))
	return h.Sum64()
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func isDirKind(k projection.Kind) bool {
	switch k {
	case projection.KindRoot, projection.KindChannelsDir, projection.KindFavoritesDir, projection.KindDownloadsDir,
		projection.KindChannelDir, projection.KindFavoriteAliasDir, projection.KindDownloadAliasDir,
		projection.KindTracksDir, projection.KindTagsDir, projection.KindTagDir:
		return true
	default:
		return false
	}
}

// errno translates a *projection.Error (or any other error) to the syscall
// code it surfaces as — the single FUSE-boundary translation point called
// for in spec.md §9.
func errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	perr, ok := err.(*projection.Error)
	if !ok {
		return syscall.EIO
	}
	switch perr.Kind {
	case projection.ErrNotFound:
		return syscall.ENOENT
	case projection.ErrReadOnly:
		return syscall.EROFS
	default:
		return syscall.EIO
	}
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := joinPath(n.Path, name)
	node, ok := projection.Classify(childPath)
	if !ok {
		return nil, syscall.ENOENT
	}

	attr, err := projection.Stat(ctx, n.FS.Catalog, n.FS.StorageBaseURL, node)
	if err != nil {
		return nil, errno(err)
	}

	child := &Node{FS: n.FS, Path: childPath}
	mode := uint32(fuse.S_IFREG)
	if isDirKind(node.Kind) {
		mode = fuse.S_IFDIR
	}
	stable := fs.StableAttr{Mode: mode, Ino: ino(childPath)}
	inode := n.NewInode(ctx, child, stable)

	out.Mode = mode | attr.Mode
	out.Size = attr.Size
	setTimes(out, attr)
	out.SetEntryTimeout(time.Second)
	out.SetAttrTimeout(time.Second)
	return inode, 0
}

func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	node, ok := projection.Classify(n.Path)
	if !ok {
		return syscall.ENOENT
	}
	attr, err := projection.Stat(ctx, n.FS.Catalog, n.FS.StorageBaseURL, node)
	if err != nil {
		return errno(err)
	}
	mode := uint32(fuse.S_IFREG)
	if isDirKind(node.Kind) {
		mode = fuse.S_IFDIR
	}
	out.Mode = mode | attr.Mode
	out.Size = attr.Size
	setTimes(&out.Attr, attr)
	return 0
}

func setTimes(out interface{ SetTimes(*time.Time, *time.Time, *time.Time) }, attr projection.Attr) {
	out.SetTimes(&attr.Atime, &attr.Mtime, &attr.Ctime)
}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	node, ok := projection.Classify(n.Path)
	if !ok {
		return nil, syscall.ENOENT
	}
	entries, err := projection.List(ctx, n.FS.Catalog, n.FS.Favorites, n.FS.Downloads, node)
	if err != nil {
		return nil, errno(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		childPath := joinPath(n.Path, e.Name)
		mode := uint32(fuse.S_IFREG)
		if e.IsDir {
			mode = fuse.S_IFDIR
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Ino: ino(childPath), Mode: mode})
	}
	return fs.NewListDirStream(out), 0
}

// Open never materializes content itself; Read re-derives it from the
// catalog each call, matching internal/projection's stateless contract.
// Direct IO skips the kernel page cache, which would otherwise serve stale
// bytes after the catalog changes underneath a still-open file handle.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *Node) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	node, ok := projection.Classify(n.Path)
	if !ok {
		return nil, syscall.ENOENT
	}
	body, err := projection.Content(ctx, n.FS.Catalog, n.FS.StorageBaseURL, node)
	if err != nil {
		return nil, errno(err)
	}
	if off >= int64(len(body)) {
		return fuse.ReadResultData(dest[:0]), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(body)) {
		end = int64(len(body))
	}
	return fuse.ReadResultData(body[off:end]), 0
}

// Write implements the control file's sole writable behavior: a trimmed
// non-empty write enqueues its content as a channel slug. Every other path
// returns EROFS, matching spec.md §6's control-surface contract.
func (n *Node) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	node, ok := projection.Classify(n.Path)
	if !ok || node.Kind != projection.KindControl {
		return 0, syscall.EROFS
	}
	slug := trimSlug(data)
	if slug != "" && n.FS.Enqueue != nil {
		if err := n.FS.Enqueue(slug); err != nil {
			return 0, syscall.EIO
		}
	}
	return uint32(len(data)), 0
}

func trimSlug(data []byte) string {
	start, end := 0, len(data)
	for start < end && isSpace(data[start]) {
		start++
	}
	for end > start && isSpace(data[end-1]) {
		end--
	}
	return string(data[start:end])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// Setattr implements spec.md §6's blanket rule: truncate/chmod/chown return
// EROFS on every path, including the control file (writing via Write is the
// only permitted mutation).
func (n *Node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}
