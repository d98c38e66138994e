package projection

import (
	"context"
	"errors"
	"time"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rdate"
)

// Mode bits, named to match the stat contract in spec.md §4.1. The projection
// layer never imports syscall; internal/r4fs maps these onto the real
// S_IFDIR/S_IFREG constants at the FUSE boundary.
const (
	ModeDir    = 0o755
	ModeFileRO = 0o444
	ModeFileRW = 0o644
)

// Attr is a POSIX attribute triple plus size, kind-agnostic so both
// directories and files share one result type.
type Attr struct {
	IsDir bool
	Mode  uint32
	Size  uint64
	Mtime time.Time
	Ctime time.Time
	Atime time.Time
}

func dirAttr() Attr {
	now := rdate.Now()
	return Attr{IsDir: true, Mode: ModeDir, Mtime: now, Ctime: now, Atime: now}
}

func fileAttr(mode uint32, size int, t time.Time) Attr {
	return Attr{Mode: mode, Size: uint64(size), Mtime: t, Ctime: t, Atime: t}
}

// Stat computes the attribute for a classified node. It may call the catalog
// (to size a track text file or date a channel directory), so it takes a
// context and can fail with ErrCatalog or ErrNotFound. storageBaseURL mirrors
// Content's parameter so image.url sizes match its rendered bytes exactly.
func Stat(ctx context.Context, cat catalog.Catalog, storageBaseURL string, n Node) (Attr, error) {
	switch n.Kind {
	case KindRoot, KindChannelsDir, KindFavoritesDir, KindDownloadsDir,
		KindFavoriteAliasDir, KindDownloadAliasDir:
		return dirAttr(), nil

	case KindChannelDir:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return Attr{}, wrapLookup(err)
		}
		t := channelTime(ch)
		return Attr{IsDir: true, Mode: ModeDir, Mtime: t, Ctime: t, Atime: t}, nil

	case KindTracksDir, KindTagsDir:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		return dirAttrForTracks(tracks), nil

	case KindTagDir:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		return dirAttrForTracks(tracksWithTag(tracks, n.Tag)), nil

	case KindControl:
		return fileAttr(ModeFileRW, 0, rdate.Now()), nil

	case KindHelp:
		return fileAttr(ModeFileRO, len(helpText()), rdate.Now()), nil

	case KindChannelAbout:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return Attr{}, wrapLookup(err)
		}
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		body := channelAboutText(ch, tracks)
		return fileAttr(ModeFileRO, len(body), channelTime(ch)), nil

	case KindChannelImage:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return Attr{}, wrapLookup(err)
		}
		return fileAttr(ModeFileRO, len(imageURLText(ch, storageBaseURL)), channelTime(ch)), nil

	case KindChannelM3U:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return Attr{}, wrapLookup(err)
		}
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		body := m3uText(tracks)
		return fileAttr(ModeFileRO, len(body), channelTime(ch)), nil

	case KindTracksJSON:
		ch, err := cat.Channel(ctx, n.Slug)
		if err != nil {
			return Attr{}, wrapLookup(err)
		}
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		body, err := tracksJSONText(tracks)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		return fileAttr(ModeFileRO, len(body), channelTime(ch)), nil

	case KindTrackText:
		t, err := ResolveTrack(ctx, cat, n.Slug, n.Stem)
		if err != nil {
			return Attr{}, err
		}
		return trackFileAttr(t), nil

	case KindTagTrackText:
		tracks, err := cat.Tracks(ctx, n.Slug)
		if err != nil {
			return Attr{}, catalogErr(err)
		}
		for _, t := range tracksWithTag(tracks, n.Tag) {
			if sanitizedStem(t) == n.Stem {
				return trackFileAttr(t), nil
			}
		}
		return Attr{}, notFound()

	default:
		return Attr{}, notFound()
	}
}

func trackFileAttr(t catalog.Track) Attr {
	body := trackText(t)
	attr := fileAttr(ModeFileRO, len(body), trackMtime(t))
	attr.Ctime = trackCtime(t)
	attr.Atime = trackCtime(t)
	return attr
}

// trackMtime and trackCtime implement spec.md §4.1's inverted assignment for
// track text files: mtime tracks created_at, ctime/atime track updated_at.
func trackMtime(t catalog.Track) time.Time {
	if v, ok := rdate.TryParseDate(t.CreatedAt); ok {
		return v
	}
	return rdate.Now()
}

func trackCtime(t catalog.Track) time.Time {
	if v, ok := rdate.TryParseDate(t.UpdatedAt); ok {
		return v
	}
	return rdate.Now()
}

func channelTime(ch catalog.Channel) time.Time {
	if v, ok := rdate.TryParseDate(ch.UpdatedAt); ok {
		return v
	}
	if v, ok := rdate.TryParseDate(ch.CreatedAt); ok {
		return v
	}
	return rdate.Now()
}

// dirAttrForTracks dates a tracks/tags/tag directory by the earliest
// created_at and latest updated_at across the relevant tracks (spec.md
// §4.1), following the same mtime=created/ctime=atime=updated inversion as
// track text files. Falls back to wall-clock "now" for an empty or
// dateless set.
func dirAttrForTracks(tracks []catalog.Track) Attr {
	earliest, latest, ok := dateRange(tracks)
	if !ok {
		return dirAttr()
	}
	if earliest.IsZero() {
		earliest = rdate.Now()
	}
	if latest.IsZero() {
		latest = rdate.Now()
	}
	return Attr{IsDir: true, Mode: ModeDir, Mtime: earliest, Ctime: latest, Atime: latest}
}

func wrapLookup(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return notFound()
	}
	return catalogErr(err)
}
