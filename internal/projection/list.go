package projection

import (
	"context"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rconfig"
)

// Entry is one readdir result: a name and whether it denotes a directory.
// "." and ".." are never included — internal/r4fs synthesizes those at the
// FUSE boundary the way every inode-tree filesystem does.
type Entry struct {
	Name  string
	IsDir bool
}

// List enumerates a directory node's children per spec.md §4.2. favorites
// and downloads are the on-disk slug lists from internal/rconfig; they are
// consulted only for the two top-level alias directories.
func List(ctx context.Context, cat catalog.Catalog, favorites, downloads *rconfig.SlugList, n Node) ([]Entry, error) {
	switch n.Kind {
	case KindRoot:
		return []Entry{
			{Name: "HELP.txt"},
			{Name: "channels", IsDir: true},
			{Name: "favorites", IsDir: true},
			{Name: "downloads", IsDir: true},
		}, nil

	case KindChannelsDir:
		channels, err := cat.Channels(ctx)
		if err != nil {
			return nil, catalogErr(err)
		}
		out := make([]Entry, 0, len(channels))
		for _, ch := range channels {
			out = append(out, Entry{Name: ch.Slug, IsDir: true})
		}
		return out, nil

	case KindFavoritesDir:
		return slugEntries(favorites), nil

	case KindDownloadsDir:
		return slugEntries(downloads), nil

	case KindChannelDir, KindFavoriteAliasDir, KindDownloadAliasDir:
		return []Entry{
			{Name: "ABOUT.txt"},
			{Name: "image.url"},
			{Name: "tracks.m3u"},
			{Name: "tracks", IsDir: true},
			{Name: "tags", IsDir: true},
		}, nil

	case KindTracksDir:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		out := make([]Entry, 0, len(tracks)+1)
		out = append(out, Entry{Name: "tracks.json"})
		for _, t := range reversed(tracks) {
			out = append(out, Entry{Name: sanitizedStem(t) + ".txt"})
		}
		return out, nil

	case KindTagsDir:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		tags := allTags(tracks)
		out := make([]Entry, 0, len(tags))
		for _, tag := range tags {
			out = append(out, Entry{Name: tag, IsDir: true})
		}
		return out, nil

	case KindTagDir:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return nil, catalogErr(err)
		}
		matching := tracksWithTag(tracks, n.Tag)
		out := make([]Entry, 0, len(matching))
		for _, t := range matching {
			out = append(out, Entry{Name: sanitizedStem(t) + ".txt"})
		}
		return out, nil

	default:
		return nil, notFound()
	}
}

func slugEntries(list *rconfig.SlugList) []Entry {
	if list == nil {
		return nil
	}
	slugs := list.Slugs()
	out := make([]Entry, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, Entry{Name: slug, IsDir: true})
	}
	return out
}
