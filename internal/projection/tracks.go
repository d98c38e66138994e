package projection

import (
	"context"
	"sort"
	"time"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rdate"
	"github.com/radio4000/r4fuse/internal/sanitize"
)

// reversed returns a copy of tracks in reverse order. The catalog delivers
// tracks newest-first; the projected view uses oldest-first for all
// positional semantics except tracks.m3u (spec.md §3, §4.3).
func reversed(tracks []catalog.Track) []catalog.Track {
	out := make([]catalog.Track, len(tracks))
	for i, t := range tracks {
		out[len(tracks)-1-i] = t
	}
	return out
}

func titleOrUntitled(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// ResolveTrack fetches slug's tracks, reverses them, and returns the first
// record whose sanitized title equals stem (spec.md §4.4). ErrNotFound if no
// track matches.
func ResolveTrack(ctx context.Context, cat catalog.Catalog, slug, stem string) (catalog.Track, error) {
	tracks, err := cat.Tracks(ctx, slug)
	if err != nil {
		return catalog.Track{}, catalogErr(err)
	}
	for _, t := range reversed(tracks) {
		if sanitize.Sanitize(titleOrUntitled(t.Title)) == stem {
			return t, nil
		}
	}
	return catalog.Track{}, notFound()
}

// tracksWithTag returns, in reversed order, the tracks whose effective
// (derived-or-untagged) tag set includes tag.
func tracksWithTag(tracks []catalog.Track, tag string) []catalog.Track {
	var out []catalog.Track
	for _, t := range reversed(tracks) {
		if sanitize.HasTag(t.Description, t.Tags, tag) {
			out = append(out, t)
		}
	}
	return out
}

// allTags returns the sorted union of derived tags across tracks, with
// "untagged" included iff at least one track has an empty derived set
// (spec.md §4.2).
func allTags(tracks []catalog.Track) []string {
	seen := make(map[string]struct{})
	for _, t := range tracks {
		for _, tag := range sanitize.EffectiveTags(t.Description, t.Tags) {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// dateRange returns the earliest valid created_at and latest valid
// updated_at across tracks, skipping records whose date strings fail to
// parse (spec.md §4.1). ok is false if no track yields a valid date; when
// only one of the two is found, the other is returned as the zero time.
func dateRange(tracks []catalog.Track) (earliest, latest time.Time, ok bool) {
	for _, t := range tracks {
		if created, cok := rdate.TryParseDate(t.CreatedAt); cok {
			if earliest.IsZero() || created.Before(earliest) {
				earliest = created
			}
			ok = true
		}
		if updated, uok := rdate.TryParseDate(t.UpdatedAt); uok {
			if latest.IsZero() || updated.After(latest) {
				latest = updated
			}
			ok = true
		}
	}
	return earliest, latest, ok
}
