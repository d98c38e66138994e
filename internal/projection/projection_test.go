package projection

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/radio4000/r4fuse/internal/catalog"
)

type fakeCatalog struct {
	channels []catalog.Channel
	tracks   map[string][]catalog.Track
}

func (f *fakeCatalog) Channels(ctx context.Context) ([]catalog.Channel, error) {
	return f.channels, nil
}

func (f *fakeCatalog) Channel(ctx context.Context, slug string) (catalog.Channel, error) {
	for _, c := range f.channels {
		if c.Slug == slug {
			return c, nil
		}
	}
	return catalog.Channel{}, catalog.ErrNotFound
}

func (f *fakeCatalog) Tracks(ctx context.Context, slug string) ([]catalog.Track, error) {
	return f.tracks[slug], nil
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{
		channels: []catalog.Channel{
			{Slug: "deep-house", Name: "Deep House", Description: "late night #chill vibes", CreatedAt: "2022-01-01T00:00:00Z"},
		},
		tracks: map[string][]catalog.Track{
			"deep-house": {
				{ID: "1", Title: "First Track", URL: "https://example.com/1", Description: "#house classic", CreatedAt: "2023-01-01T00:00:00Z", UpdatedAt: "2023-01-02T00:00:00Z"},
				{ID: "2", Title: "Second Track", URL: "https://example.com/2", CreatedAt: "", UpdatedAt: "not a date"},
				{ID: "3", Title: "First Track", URL: "https://example.com/3", Tags: []string{"Rare"}, CreatedAt: "2023-03-01T00:00:00Z", UpdatedAt: "2023-03-02T00:00:00Z"},
			},
		},
	}
}

func TestClassifyRoutes(t *testing.T) {
	cases := []struct {
		path string
		kind Kind
	}{
		{"/", KindRoot},
		{"/HELP.txt", KindHelp},
		{"/control", KindControl},
		{"/channels", KindChannelsDir},
		{"/channels/deep-house", KindChannelDir},
		{"/channels/deep-house/ABOUT.txt", KindChannelAbout},
		{"/channels/deep-house/image.url", KindChannelImage},
		{"/channels/deep-house/tracks.m3u", KindChannelM3U},
		{"/channels/deep-house/tracks", KindTracksDir},
		{"/channels/deep-house/tracks/tracks.json", KindTracksJSON},
		{"/channels/deep-house/tracks/first-track.txt", KindTrackText},
		{"/channels/deep-house/tags", KindTagsDir},
		{"/channels/deep-house/tags/house", KindTagDir},
		{"/channels/deep-house/tags/house/first-track.txt", KindTagTrackText},
		{"/favorites", KindFavoritesDir},
		{"/favorites/deep-house", KindFavoriteAliasDir},
		{"/favorites/deep-house/tracks", KindTracksDir},
		{"/downloads", KindDownloadsDir},
		{"/downloads/deep-house", KindDownloadAliasDir},
	}
	for _, c := range cases {
		n, ok := Classify(c.path)
		if !ok {
			t.Errorf("Classify(%q) ok=false, want true", c.path)
			continue
		}
		if n.Kind != c.kind {
			t.Errorf("Classify(%q).Kind = %v, want %v", c.path, n.Kind, c.kind)
		}
	}
}

func TestClassifyRejectsUnknownShapes(t *testing.T) {
	for _, path := range []string{"/nope", "/channels/deep-house/unknown.txt", "/channels/deep-house/tracks/tracks.json/extra"} {
		if _, ok := Classify(path); ok {
			t.Errorf("Classify(%q) ok=true, want false", path)
		}
	}
}

func TestListTracksDirReversedWithTracksJSONFirst(t *testing.T) {
	cat := sampleCatalog()
	entries, err := List(context.Background(), cat, nil, nil, Node{Kind: KindTracksDir, Slug: "deep-house"})
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Name != "tracks.json" {
		t.Fatalf("entries[0] = %q, want tracks.json", entries[0].Name)
	}
	// catalog order is [First Track, Second Track, First Track]; reversed is
	// [First Track(3), Second Track, First Track(1)] by position, so the
	// first track.txt entry after tracks.json corresponds to id 3.
	if entries[1].Name != "first-track.txt" {
		t.Fatalf("entries[1] = %q, want first-track.txt", entries[1].Name)
	}
}

func TestListTagsDirIncludesUntagged(t *testing.T) {
	cat := sampleCatalog()
	entries, err := List(context.Background(), cat, nil, nil, Node{Kind: KindTagsDir, Slug: "deep-house"})
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = true
	}
	for _, want := range []string{"house", "rare", "untagged"} {
		if !names[want] {
			t.Errorf("tags dir missing %q, got %v", want, entries)
		}
	}
}

func TestListTagDirOnlyIncludesMatchingTracks(t *testing.T) {
	cat := sampleCatalog()
	entries, err := List(context.Background(), cat, nil, nil, Node{Kind: KindTagDir, Slug: "deep-house", Tag: "untagged"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("untagged entries = %v, want exactly the one untagged track", entries)
	}
}

func TestResolveTrackFirstMatchWins(t *testing.T) {
	cat := sampleCatalog()
	track, err := ResolveTrack(context.Background(), cat, "deep-house", "first-track")
	if err != nil {
		t.Fatal(err)
	}
	if track.ID != "3" {
		t.Fatalf("resolved track ID = %q, want 3 (first match in reversed order)", track.ID)
	}
}

func TestResolveTrackNotFound(t *testing.T) {
	cat := sampleCatalog()
	if _, err := ResolveTrack(context.Background(), cat, "deep-house", "missing"); err == nil {
		t.Fatal("expected error for unresolved stem")
	}
}

func TestSyntheticFileStatSizeMatchesContent(t *testing.T) {
	cat := sampleCatalog()
	ctx := context.Background()
	nodes := []Node{
		{Kind: KindHelp},
		{Kind: KindChannelAbout, Slug: "deep-house"},
		{Kind: KindChannelM3U, Slug: "deep-house"},
		{Kind: KindTracksJSON, Slug: "deep-house"},
		{Kind: KindTrackText, Slug: "deep-house", Stem: "first-track"},
	}
	for _, n := range nodes {
		attr, err := Stat(ctx, cat, "https://supabase.example.co", n)
		if err != nil {
			t.Fatalf("Stat(%v): %v", n, err)
		}
		body, err := Content(ctx, cat, "https://supabase.example.co", n)
		if err != nil {
			t.Fatalf("Content(%v): %v", n, err)
		}
		if attr.Size != uint64(len(body)) {
			t.Errorf("node %v: stat.Size = %d, len(content) = %d", n, attr.Size, len(body))
		}
	}
}

func TestTrackTextInvalidDatesFallBackToWallClock(t *testing.T) {
	cat := sampleCatalog()
	ctx := context.Background()
	n := Node{Kind: KindTrackText, Slug: "deep-house", Stem: "second-track"}

	body, err := Content(ctx, cat, "", n)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), "Added:") || strings.Contains(string(body), "Updated:") {
		t.Errorf("track with invalid dates should omit Added/Updated lines, got %q", body)
	}

	attr, err := Stat(ctx, cat, "", n)
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(attr.Mtime) > time.Minute {
		t.Errorf("expected wall-clock fallback mtime, got %v", attr.Mtime)
	}
}

func TestChannelDirStatUsesChannelDates(t *testing.T) {
	cat := sampleCatalog()
	attr, err := Stat(context.Background(), cat, "", Node{Kind: KindChannelDir, Slug: "deep-house"})
	if err != nil {
		t.Fatal(err)
	}
	// sampleCatalog's channel has only CreatedAt set; channelTime falls back
	// to it when UpdatedAt is absent.
	if attr.Mtime.Year() != 2022 {
		t.Errorf("Mtime = %v, want channel's created_at (2022)", attr.Mtime)
	}
}

func TestTracksDirStatUsesEarliestCreatedLatestUpdated(t *testing.T) {
	cat := sampleCatalog()
	attr, err := Stat(context.Background(), cat, "", Node{Kind: KindTracksDir, Slug: "deep-house"})
	if err != nil {
		t.Fatal(err)
	}
	// Valid dates across the three tracks: created 2023-01-01/2023-03-01,
	// updated 2023-01-02/2023-03-02 (id 2 has no valid dates and is skipped).
	if attr.Mtime.Month() != time.January || attr.Mtime.Day() != 1 {
		t.Errorf("Mtime = %v, want earliest created_at (2023-01-01)", attr.Mtime)
	}
	if attr.Ctime.Month() != time.March || attr.Ctime.Day() != 2 {
		t.Errorf("Ctime = %v, want latest updated_at (2023-03-02)", attr.Ctime)
	}
}

func TestTagDirStatUsesOnlyMatchingTrackDates(t *testing.T) {
	cat := sampleCatalog()
	attr, err := Stat(context.Background(), cat, "", Node{Kind: KindTagDir, Slug: "deep-house", Tag: "rare"})
	if err != nil {
		t.Fatal(err)
	}
	// Only id 3 carries "rare": created/updated 2023-03-01/2023-03-02.
	if attr.Mtime.Month() != time.March || attr.Mtime.Day() != 1 {
		t.Errorf("Mtime = %v, want the rare-tagged track's created_at (2023-03-01)", attr.Mtime)
	}
}

func TestChannelM3UAndTracksJSONUseChannelDates(t *testing.T) {
	cat := sampleCatalog()
	ctx := context.Background()
	for _, n := range []Node{
		{Kind: KindChannelM3U, Slug: "deep-house"},
		{Kind: KindTracksJSON, Slug: "deep-house"},
	} {
		attr, err := Stat(ctx, cat, "", n)
		if err != nil {
			t.Fatalf("Stat(%v): %v", n, err)
		}
		if attr.Mtime.Year() != 2022 {
			t.Errorf("node %v: Mtime = %v, want channel's created_at (2022), not a track-derived date", n, attr.Mtime)
		}
	}
}

func TestTrackTextTimestampsUseCreatedAndUpdated(t *testing.T) {
	cat := sampleCatalog()
	attr, err := Stat(context.Background(), cat, "", Node{Kind: KindTrackText, Slug: "deep-house", Stem: "first-track"})
	if err != nil {
		t.Fatal(err)
	}
	// Two tracks sanitize to "first-track"; the resolver picks id 3's record
	// (reversed-order first match), created 2023-03-01, updated 2023-03-02.
	if attr.Mtime.Year() != 2023 || attr.Mtime.Month() != time.March || attr.Mtime.Day() != 1 {
		t.Errorf("Mtime = %v, want 2023-03-01 (created_at)", attr.Mtime)
	}
	if attr.Ctime.Day() != 2 {
		t.Errorf("Ctime = %v, want day 2 (updated_at)", attr.Ctime)
	}
}
