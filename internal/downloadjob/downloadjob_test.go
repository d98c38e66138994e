package downloadjob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/rconfig"
	"github.com/radio4000/r4fuse/internal/ytdlp"
)

type fakeCatalog struct {
	tracks []catalog.Track
}

func (f *fakeCatalog) Channels(ctx context.Context) ([]catalog.Channel, error) { return nil, nil }
func (f *fakeCatalog) Channel(ctx context.Context, slug string) (catalog.Channel, error) {
	return catalog.Channel{Slug: slug}, nil
}
func (f *fakeCatalog) Tracks(ctx context.Context, slug string) ([]catalog.Track, error) {
	return f.tracks, nil
}

const argParsePrefix = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift 2;;
    *) shift;;
  esac
done
dest=$(echo "$out" | sed 's/%(ext)s/mp3/')
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-yt-dlp")
	if err := os.WriteFile(path, []byte(argParsePrefix+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func successScript(t *testing.T) string {
	return writeScript(t, `echo "data" > "$dest"
echo "[download] Destination: $dest"
exit 0
`)
}

func alreadyDownloadedScript(t *testing.T) string {
	return writeScript(t, `echo "data" > "$dest"
echo "[download] $dest has already been downloaded"
exit 1
`)
}

func failureScript(t *testing.T) string {
	return writeScript(t, `echo "Unsupported URL" 1>&2
exit 1
`)
}

func slowScript(t *testing.T) string {
	return writeScript(t, `sleep 5
echo "data" > "$dest"
echo "[download] Destination: $dest"
exit 0
`)
}

func threeTracks() []catalog.Track {
	return []catalog.Track{
		{ID: "1", Title: "First Track", URL: "https://example.com/a"},
		{ID: "2", Title: "Second Track", URL: "https://example.com/b"},
		{ID: "3", Title: "Third Track", URL: "https://example.com/c"},
	}
}

func newRunner(binary, root string) *Runner {
	return &Runner{
		Catalog:      nil,
		Supervisor:   ytdlp.NewSupervisor(),
		DownloadRoot: root,
		Downloader:   binary,
		YTDLP:        rconfig.YTDLP{Format: "bestaudio", ExtractAudio: true, AudioFormat: "mp3"},
	}
}

func TestFreshChannelDownloadsAllTracks(t *testing.T) {
	root := t.TempDir()
	bin := successScript(t)
	r := newRunner(bin, root)
	r.Catalog = &fakeCatalog{tracks: threeTracks()}

	counts := r.Run(context.Background(), "deep-house", nil)
	if counts.Downloaded != 3 || counts.Skipped != 0 || counts.Failed != 0 {
		t.Fatalf("counts = %+v, want 3/0/0", counts)
	}

	entries, err := os.ReadDir(filepath.Join(root, "deep-house", "tracks"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("tracks dir has %d entries, want 3", len(entries))
	}

	playlist, err := os.ReadFile(filepath.Join(root, "deep-house", "playlist.m3u"))
	if err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"First Track", "Second Track", "Third Track"} {
		if !strings.Contains(string(playlist), "#EXTINF:-1,"+title) {
			t.Errorf("playlist missing EXTINF for %q:\n%s", title, playlist)
		}
	}
}

func TestResumeSkipsAlreadyPresentTracks(t *testing.T) {
	root := t.TempDir()
	bin := successScript(t)
	r := newRunner(bin, root)
	tracks := threeTracks()
	r.Catalog = &fakeCatalog{tracks: tracks}

	tracksDir := filepath.Join(root, "deep-house", "tracks")
	if err := os.MkdirAll(tracksDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"1", "2"} {
		path := filepath.Join(tracksDir, "existing ["+id+"].mp3")
		if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	counts := r.Run(context.Background(), "deep-house", nil)
	if counts.Downloaded != 1 || counts.Skipped != 2 || counts.Failed != 0 {
		t.Fatalf("counts = %+v, want 1/2/0", counts)
	}
}

func TestAlreadyDownloadedMarkerCountsAsSkipped(t *testing.T) {
	root := t.TempDir()
	bin := alreadyDownloadedScript(t)
	r := newRunner(bin, root)
	r.Catalog = &fakeCatalog{tracks: []catalog.Track{{ID: "1", Title: "Solo Track", URL: "https://example.com/a"}}}

	counts := r.Run(context.Background(), "chan", nil)
	if counts.Skipped != 1 || counts.Downloaded != 0 || counts.Failed != 0 {
		t.Fatalf("counts = %+v, want 0/1/0", counts)
	}
}

func TestSubprocessFailureCountsAsFailedAndContinues(t *testing.T) {
	root := t.TempDir()
	bin := failureScript(t)
	r := newRunner(bin, root)
	r.Catalog = &fakeCatalog{tracks: []catalog.Track{
		{ID: "1", Title: "Bad Track", URL: "https://example.com/a"},
		{ID: "2", Title: "Good Track Too", URL: "https://example.com/b"},
	}}

	counts := r.Run(context.Background(), "chan", nil)
	if counts.Failed != 2 {
		t.Fatalf("counts = %+v, want 2 failed (both tracks use the failing script)", counts)
	}
}

func TestShutdownCancelsInFlightDownloadWithoutPostProcessing(t *testing.T) {
	root := t.TempDir()
	bin := slowScript(t)
	r := newRunner(bin, root)
	r.Catalog = &fakeCatalog{tracks: []catalog.Track{{ID: "1", Title: "Long Track", URL: "https://example.com/a"}}}

	cancel := make(chan struct{})
	done := make(chan Counts, 1)
	go func() {
		done <- r.Run(context.Background(), "chan", cancel)
	}()

	time.Sleep(100 * time.Millisecond)
	close(cancel)

	select {
	case counts := <-done:
		if counts.Downloaded != 0 {
			t.Fatalf("counts = %+v, want 0 downloaded after cancellation", counts)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("job did not respect cancellation")
	}
}
