// Package downloadjob implements the per-channel download job (spec.md
// §4.7): fetch tracks, reconcile against what's already on disk, download
// what's missing, post-process, and emit a playlist.
package downloadjob

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/metadata"
	"github.com/radio4000/r4fuse/internal/rconfig"
	"github.com/radio4000/r4fuse/internal/sanitize"
	"github.com/radio4000/r4fuse/internal/ytdlp"
)

// audioExtensions are the extensions the playlist step and presence
// detection recognize as downloaded audio (spec.md §4.7).
var audioExtensions = []string{".mp3", ".opus", ".m4a", ".webm"}

// Recorder persists one run's outcome, keyed by channel slug. Satisfied by
// *internal/status.Store; nil disables history recording.
type Recorder interface {
	RecordRun(slug string, downloaded, skipped, failed int, finishedAt time.Time) error
}

// Runner executes the per-channel job against a catalog and a downloader
// supervisor, honoring the organize-by-tags feature flag.
type Runner struct {
	Catalog        catalog.Catalog
	Supervisor     *ytdlp.Supervisor
	DownloadRoot   string
	YTDLP          rconfig.YTDLP
	Downloader     string // "yt-dlp" or "youtube-dl", resolved to a binary name
	OrganizeByTags bool
	Recorder       Recorder
}

// Counts summarizes one job's outcome (spec.md §4.7's final log line).
type Counts struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Run executes the job for slug. cancel, if closed, short-circuits the
// in-flight subprocess (spec.md §5 cooperative shutdown) and aborts
// remaining tracks without further downloads.
func (r *Runner) Run(ctx context.Context, slug string, cancel <-chan struct{}) Counts {
	var counts Counts

	tracks, err := r.Catalog.Tracks(ctx, slug)
	if err != nil {
		log.Printf("downloadjob[%s]: fetch tracks: %v", slug, err)
		return counts
	}
	if len(tracks) == 0 {
		return counts
	}

	channelDir := filepath.Join(r.DownloadRoot, slug)
	tracksDir := filepath.Join(channelDir, "tracks")
	if err := os.MkdirAll(tracksDir, 0755); err != nil {
		log.Printf("downloadjob[%s]: ensure layout: %v", slug, err)
		return counts
	}

	present, err := existingFiles(tracksDir)
	if err != nil {
		log.Printf("downloadjob[%s]: list existing files: %v", slug, err)
		return counts
	}

	// A missing downloader binary ends the whole job (ytdlp.ErrDownloaderMissing)
	// instead of failing every track one by one.
	if _, err := exec.LookPath(r.Downloader); err != nil {
		log.Printf("downloadjob[%s]: downloader not installed: %v", slug, err)
		return counts
	}

	cancelled := watchCancel(ctx, cancel, r.Supervisor)
	defer cancelled.stop()

	filenames := make(map[string]string, len(tracks)) // track.ID -> resulting filename, for the playlist step
	for i, t := range tracks {
		if cancelled.fired() {
			break
		}

		stem := sanitize.Sanitize(titleOrUntitled(t.Title))
		if existing, ok := findPresent(present, t, stem); ok {
			counts.Skipped++
			filenames[t.ID] = existing
			continue
		}

		dest, skipped, ok := r.downloadOne(ctx, tracksDir, t, stem, i)
		switch {
		case !ok:
			counts.Failed++
		case skipped:
			counts.Skipped++
			if dest != "" {
				filenames[t.ID] = filepath.Base(dest)
			}
		default:
			counts.Downloaded++
			filenames[t.ID] = filepath.Base(dest)
		}
	}

	if err := writePlaylist(channelDir, tracks, filenames); err != nil {
		log.Printf("downloadjob[%s]: write playlist: %v", slug, err)
	}

	log.Printf("downloadjob[%s]: downloaded=%d skipped=%d failed=%d", slug, counts.Downloaded, counts.Skipped, counts.Failed)

	if r.Recorder != nil {
		if err := r.Recorder.RecordRun(slug, counts.Downloaded, counts.Skipped, counts.Failed, time.Now()); err != nil {
			log.Printf("downloadjob[%s]: record history: %v", slug, err)
		}
	}

	return counts
}

// downloadOne invokes the downloader for one track and post-processes the
// result. ok reports whether the track completed (downloaded or skipped via
// the already-downloaded marker); skipped distinguishes the latter from a
// fresh download. dest is the resulting audio file path, if known.
func (r *Runner) downloadOne(ctx context.Context, tracksDir string, t catalog.Track, stem string, index int) (dest string, skipped, ok bool) {
	id := t.ID
	if yid, found := ytdlp.ExtractYouTubeID(t.URL); found {
		id = yid
	}
	outputTemplate := filepath.Join(tracksDir, fmt.Sprintf("%s [%s].%%(ext)s", stem, id))

	opts := ytdlp.Options{
		Binary:             r.Downloader,
		Format:             r.YTDLP.Format,
		ExtractAudio:       r.YTDLP.ExtractAudio,
		AudioFormat:        r.YTDLP.AudioFormat,
		AudioQuality:       r.YTDLP.AudioQuality,
		OutputTemplate:     outputTemplate,
		CookiesFile:        r.YTDLP.CookiesFile,
		CookiesFromBrowser: r.YTDLP.CookiesFromBrowser,
		EmbedThumbnail:     r.YTDLP.EmbedThumbnail,
		WriteThumbnail:     r.YTDLP.WriteThumbnail,
	}

	result := r.Supervisor.Download(ctx, opts, t.URL)
	switch {
	case result.Cancelled:
		return "", false, false
	case result.Err != nil:
		log.Printf("downloadjob: track %q: %v", t.Title, result.Err)
		return "", false, false
	}

	path := result.Destination
	if path == "" {
		path = mostRecentMatch(tracksDir, stem)
	}
	if path == "" {
		return "", false, false
	}
	if _, err := os.Stat(path); err != nil {
		time.Sleep(200 * time.Millisecond)
		if _, err := os.Stat(path); err != nil {
			log.Printf("downloadjob: track %q: file missing after settle retry: %v", t.Title, err)
			return "", false, false
		}
	}

	r.postProcess(tracksDir, path, t, index)
	return path, result.Skipped, true
}

func (r *Runner) postProcess(tracksDir, path string, t catalog.Track, index int) {
	metadata.WriteID3(path, t, index)
	metadata.StampTimes(path, t)
	if r.OrganizeByTags {
		tagsDir := filepath.Join(filepath.Dir(tracksDir), "tags")
		metadata.LinkTags(tagsDir, path, t)
	}
}

// existingFiles lists the basenames currently in tracksDir.
func existingFiles(tracksDir string) ([]string, error) {
	entries, err := os.ReadDir(tracksDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// findPresent reports whether t is already represented among the existing
// filenames (spec.md §4.7 step 3): a match starts with sanitize(title), or
// contains "[{track.id}]", or contains "[{youtube_id(url)}]".
func findPresent(existing []string, t catalog.Track, stem string) (filename string, ok bool) {
	idMarker := "[" + t.ID + "]"
	var ytMarker string
	if yid, found := ytdlp.ExtractYouTubeID(t.URL); found {
		ytMarker = "[" + yid + "]"
	}
	for _, name := range existing {
		if strings.HasPrefix(name, stem) || strings.Contains(name, idMarker) || (ytMarker != "" && strings.Contains(name, ytMarker)) {
			return name, true
		}
	}
	return "", false
}

// mostRecentMatch scans dir for the most recently modified file whose name
// starts with stem, used when the downloader's "already downloaded" line
// didn't capture a path.
func mostRecentMatch(dir, stem string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), stem) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, e.Name())
			bestTime = info.ModTime()
		}
	}
	return best
}

// writePlaylist emits {channelDir}/playlist.m3u in original (unreversed)
// catalog order. Each track references the audio file this run recorded for
// it, or else the first on-disk audio filename containing sanitize(title)
// (spec.md §4.7 step 5); tracks with neither are left out.
func writePlaylist(channelDir string, tracks []catalog.Track, filenames map[string]string) error {
	tracksDir := filepath.Join(channelDir, "tracks")
	entries, err := existingFiles(tracksDir)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, t := range tracks {
		stem := sanitize.Sanitize(titleOrUntitled(t.Title))
		name := filenames[t.ID]
		if name == "" || !isAudioFile(name) {
			name = firstContaining(entries, stem)
		}
		if name == "" {
			continue
		}
		fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", titleOrUntitled(t.Title), filepath.Join("tracks", name))
	}

	return os.WriteFile(filepath.Join(channelDir, "playlist.m3u"), []byte(b.String()), 0644)
}

func firstContaining(names []string, stem string) string {
	for _, name := range names {
		if isAudioFile(name) && strings.Contains(name, stem) {
			return name
		}
	}
	return ""
}

func isAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range audioExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func titleOrUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}

// cancelWatcher bridges a context/cancel-channel pair to the supervisor's
// Cancel, and records whether cancellation fired so the track loop can stop
// early.
type cancelWatcher struct {
	done  chan struct{}
	stopC chan struct{}
}

func watchCancel(ctx context.Context, cancel <-chan struct{}, sup *ytdlp.Supervisor) *cancelWatcher {
	w := &cancelWatcher{done: make(chan struct{}), stopC: make(chan struct{})}
	go func() {
		select {
		case <-cancel:
			close(w.done)
			sup.Cancel()
		case <-ctx.Done():
			close(w.done)
			sup.Cancel()
		case <-w.stopC:
		}
	}()
	return w
}

func (w *cancelWatcher) fired() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *cancelWatcher) stop() {
	select {
	case <-w.stopC:
	default:
		close(w.stopC)
	}
}
