// Package projection is the path-driven state machine that turns kernel VFS
// requests into catalog queries and synthesizes directory listings, file
// content, and POSIX attributes. It knows nothing about FUSE: every function
// here is pure (given the catalog snapshot and config it observes) and is
// unit-testable without mounting anything.
package projection

import "strings"

// Kind identifies a virtual path's node kind (spec.md §3).
type Kind int

const (
	KindRoot Kind = iota
	KindHelp
	KindControl
	KindChannelsDir
	KindChannelDir
	KindChannelAbout
	KindChannelImage
	KindChannelM3U
	KindTracksDir
	KindTracksJSON
	KindTrackText
	KindTagsDir
	KindTagDir
	KindTagTrackText
	KindFavoritesDir
	KindFavoriteAliasDir
	KindDownloadsDir
	KindDownloadAliasDir
)

// Alias marks which top-level alias (if any) a node was reached through.
// Favorites and downloads are the same underlying channel tree, aliased at
// /favorites/{slug}/... and /downloads/{slug}/... (spec.md §4.1).
type Alias int

const (
	AliasNone Alias = iota
	AliasFavorite
	AliasDownload
)

// Node is the classified result of a virtual path. Zero-value fields are
// irrelevant for the node's Kind (e.g. Tag is empty for anything that isn't
// a tag/tag-track node).
type Node struct {
	Kind  Kind
	Alias Alias
	Slug  string // channel slug
	Tag   string // tag name (tag dir / tag track text)
	Stem  string // requested track stem (track text / tag track text)
}

// Classify splits path on "/", drops empty segments, and classifies the
// result into one of the node kinds in spec.md §3. It returns ok=false for
// any path shape that matches no known node — callers must report ENOENT.
//
// Classification is positional, not regex-based, per spec.md §4.1.
func Classify(path string) (Node, bool) {
	segs := splitPath(path)

	if len(segs) == 0 {
		return Node{Kind: KindRoot}, true
	}

	if len(segs) == 1 {
		switch segs[0] {
		case "HELP.txt":
			return Node{Kind: KindHelp}, true
		case "control":
			return Node{Kind: KindControl}, true
		case "channels":
			return Node{Kind: KindChannelsDir}, true
		case "favorites":
			return Node{Kind: KindFavoritesDir}, true
		case "downloads":
			return Node{Kind: KindDownloadsDir}, true
		default:
			return Node{}, false
		}
	}

	switch segs[0] {
	case "channels":
		return classifyChannelSubtree(segs[1:], AliasNone)
	case "favorites":
		return classifyAlias(segs[1:], AliasFavorite, KindFavoriteAliasDir)
	case "downloads":
		return classifyAlias(segs[1:], AliasDownload, KindDownloadAliasDir)
	default:
		return Node{}, false
	}
}

// classifyAlias handles /favorites/{slug}[...] and /downloads/{slug}[...].
// At exactly the alias directory level (rest == [slug]) it returns a bare
// directory node with no further classification; deeper paths rewrite into
// the channels subtree and recurse (spec.md §4.1).
func classifyAlias(rest []string, alias Alias, bareDirKind Kind) (Node, bool) {
	if len(rest) == 0 {
		return Node{}, false
	}
	slug := rest[0]
	if len(rest) == 1 {
		return Node{Kind: bareDirKind, Alias: alias, Slug: slug}, true
	}
	node, ok := classifyChannelSubtree(rest, alias)
	return node, ok
}

// classifyChannelSubtree classifies everything under /channels/{slug}[...]
// (rest[0] is the slug). alias records which top-level alias (if any) this
// was reached through, so producers can still answer "which list does this
// path belong to" without re-parsing the original path.
func classifyChannelSubtree(rest []string, alias Alias) (Node, bool) {
	if len(rest) == 0 {
		return Node{}, false
	}
	slug := rest[0]
	tail := rest[1:]

	if len(tail) == 0 {
		return Node{Kind: KindChannelDir, Alias: alias, Slug: slug}, true
	}

	switch tail[0] {
	case "ABOUT.txt":
		if len(tail) == 1 {
			return Node{Kind: KindChannelAbout, Alias: alias, Slug: slug}, true
		}
	case "image.url":
		if len(tail) == 1 {
			return Node{Kind: KindChannelImage, Alias: alias, Slug: slug}, true
		}
	case "tracks.m3u":
		if len(tail) == 1 {
			return Node{Kind: KindChannelM3U, Alias: alias, Slug: slug}, true
		}
	case "tracks":
		switch len(tail) {
		case 1:
			return Node{Kind: KindTracksDir, Alias: alias, Slug: slug}, true
		case 2:
			if tail[1] == "tracks.json" {
				return Node{Kind: KindTracksJSON, Alias: alias, Slug: slug}, true
			}
			if stem, ok := trimTxt(tail[1]); ok {
				return Node{Kind: KindTrackText, Alias: alias, Slug: slug, Stem: stem}, true
			}
		}
	case "tags":
		switch len(tail) {
		case 1:
			return Node{Kind: KindTagsDir, Alias: alias, Slug: slug}, true
		case 2:
			return Node{Kind: KindTagDir, Alias: alias, Slug: slug, Tag: tail[1]}, true
		case 3:
			if stem, ok := trimTxt(tail[2]); ok {
				return Node{Kind: KindTagTrackText, Alias: alias, Slug: slug, Tag: tail[1], Stem: stem}, true
			}
		}
	}
	return Node{}, false
}

func trimTxt(name string) (stem string, ok bool) {
	const suffix = ".txt"
	if !strings.HasSuffix(name, suffix) || len(name) <= len(suffix) {
		return "", false
	}
	return strings.TrimSuffix(name, suffix), true
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CanonicalPath rewrites an alias node back to its /channels/{slug}/...
// form, for producers that only know how to operate on the canonical tree.
func CanonicalPath(n Node) string {
	var b strings.Builder
	b.WriteString("/channels/")
	b.WriteString(n.Slug)
	switch n.Kind {
	case KindChannelAbout:
		b.WriteString("/ABOUT.txt")
	case KindChannelImage:
		b.WriteString("/image.url")
	case KindChannelM3U:
		b.WriteString("/tracks.m3u")
	case KindTracksDir:
		b.WriteString("/tracks")
	case KindTracksJSON:
		b.WriteString("/tracks/tracks.json")
	case KindTrackText:
		b.WriteString("/tracks/" + n.Stem + ".txt")
	case KindTagsDir:
		b.WriteString("/tags")
	case KindTagDir:
		b.WriteString("/tags/" + n.Tag)
	case KindTagTrackText:
		b.WriteString("/tags/" + n.Tag + "/" + n.Stem + ".txt")
	}
	return b.String()
}
