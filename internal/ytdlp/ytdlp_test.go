package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeFakeDownloader writes a shell script that mimics yt-dlp's scraped
// output lines, so Supervisor.Download can be exercised without the real
// binary.
func writeFakeDownloader(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDownloadCapturesDestination(t *testing.T) {
	bin := writeFakeDownloader(t, `echo "[download] Destination: /tmp/track.mp3"
exit 0
`)
	s := NewSupervisor()
	result := s.Download(context.Background(), Options{Binary: bin, OutputTemplate: "%(title)s.%(ext)s"}, "https://example.com/track")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Destination != "/tmp/track.mp3" {
		t.Fatalf("Destination = %q, want /tmp/track.mp3", result.Destination)
	}
}

func TestDownloadDetectsAlreadyDownloaded(t *testing.T) {
	bin := writeFakeDownloader(t, `echo "[download] /tmp/track.mp3 has already been downloaded"
exit 1
`)
	s := NewSupervisor()
	result := s.Download(context.Background(), Options{Binary: bin}, "https://example.com/track")
	if !result.Skipped {
		t.Fatalf("expected Skipped=true, got %+v", result)
	}
	if result.Destination != "/tmp/track.mp3" {
		t.Fatalf("Destination = %q, want /tmp/track.mp3", result.Destination)
	}
}

func TestDownloadReportsStderrOnFailure(t *testing.T) {
	bin := writeFakeDownloader(t, `echo "Unsupported URL" 1>&2
exit 1
`)
	s := NewSupervisor()
	result := s.Download(context.Background(), Options{Binary: bin}, "https://example.com/track")
	if result.Err == nil {
		t.Fatal("expected error")
	}
	if result.Err.Error() != "Unsupported URL" {
		t.Fatalf("Err = %q, want %q", result.Err.Error(), "Unsupported URL")
	}
}

func TestDownloadMissingBinary(t *testing.T) {
	s := NewSupervisor()
	result := s.Download(context.Background(), Options{Binary: filepath.Join(t.TempDir(), "does-not-exist")}, "https://example.com/track")
	if result.Err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestCancelTerminatesInFlightDownload(t *testing.T) {
	bin := writeFakeDownloader(t, `sleep 5
echo "[download] Destination: /tmp/track.mp3"
`)
	s := NewSupervisor()
	ctx := context.Background()

	done := make(chan Result, 1)
	go func() {
		done <- s.Download(ctx, Options{Binary: bin}, "https://example.com/track")
	}()

	time.Sleep(100 * time.Millisecond)
	s.Cancel()

	select {
	case result := <-done:
		if result.Err == nil && !result.Cancelled && result.Destination != "" {
			t.Fatalf("expected cancellation to prevent normal completion, got %+v", result)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("download did not terminate after Cancel")
	}
}

func TestOptionsArgsOrder(t *testing.T) {
	o := Options{
		Format:         "bestaudio",
		ExtractAudio:   true,
		AudioFormat:    "mp3",
		AudioQuality:   "0",
		OutputTemplate: "%(title)s.%(ext)s",
	}
	args := o.args("https://example.com/track")
	want := "--format bestaudio --extract-audio --audio-format mp3 --audio-quality 0 --output %(title)s.%(ext)s --no-playlist --newline https://example.com/track"
	got := joinArgs(args)
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
