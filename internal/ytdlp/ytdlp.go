// Package ytdlp supervises the downloader subprocess (yt-dlp or youtube-dl):
// it spawns the binary, scrapes its stdout for the destination filename and
// the "already downloaded" marker, and terminates it on demand by killing
// its whole process group.
package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/radio4000/r4fuse/internal/procgroup"
	"golang.org/x/time/rate"
)

// ErrDownloaderMissing is returned when the configured downloader binary is
// not found on PATH. It is job-fatal, not per-track (spec.md §7).
var ErrDownloaderMissing = errors.New("ytdlp: downloader binary not found")

var (
	destinationRe      = regexp.MustCompile(`\[download\] Destination: (.+)`)
	alreadyDownloadedRe = regexp.MustCompile(`\[download\] (.+) has already been downloaded`)
)

// Options configures one invocation (spec.md §6 subprocess contract).
type Options struct {
	Binary              string // "yt-dlp" or "youtube-dl"
	Format              string
	ExtractAudio        bool
	AudioFormat         string
	AudioQuality        string
	OutputTemplate      string
	CookiesFile         string
	CookiesFromBrowser  string
	EmbedThumbnail      bool
	WriteThumbnail      bool
}

func (o Options) args(url string) []string {
	args := []string{}
	if o.Format != "" {
		args = append(args, "--format", o.Format)
	}
	if o.ExtractAudio {
		args = append(args, "--extract-audio")
	}
	if o.AudioFormat != "" {
		args = append(args, "--audio-format", o.AudioFormat)
	}
	if o.AudioQuality != "" {
		args = append(args, "--audio-quality", o.AudioQuality)
	}
	args = append(args, "--output", o.OutputTemplate, "--no-playlist", "--newline")
	if o.CookiesFile != "" {
		args = append(args, "--cookies", o.CookiesFile)
	} else if o.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", o.CookiesFromBrowser)
	}
	if o.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if o.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	args = append(args, url)
	return args
}

// Result is the outcome of one download attempt.
type Result struct {
	Skipped     bool   // "already downloaded" marker observed
	Cancelled   bool   // terminated by Supervisor.Cancel
	Destination string // best-known output path, may be empty
	Err         error  // non-nil on failure (not set for Skipped/Cancelled)
}

// Supervisor runs at most one downloader child at a time and exposes a
// Cancel that terminates it by process group (spec.md §4.8).
type Supervisor struct {
	mu      sync.Mutex
	current *exec.Cmd

	// Limiter paces successive spawn attempts, e.g. after a transient spawn
	// failure, so a misbehaving queue can't hammer the binary lookup.
	Limiter *rate.Limiter
}

// NewSupervisor returns a Supervisor whose spawn rate defaults to at most
// one attempt per 250ms, bursting to 1.
func NewSupervisor() *Supervisor {
	return &Supervisor{Limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1)}
}

// Download spawns the downloader for one URL and waits for it to finish or
// ctx to be cancelled.
func (s *Supervisor) Download(ctx context.Context, opts Options, url string) Result {
	if s.Limiter != nil {
		_ = s.Limiter.Wait(ctx)
	}

	cmd := exec.CommandContext(ctx, opts.Binary, opts.args(url)...)
	procgroup.Set(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Err: fmt.Errorf("ytdlp: stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Err: fmt.Errorf("ytdlp: stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{Err: ErrDownloaderMissing}
		}
		return Result{Err: fmt.Errorf("ytdlp: start: %w", err)}
	}

	s.mu.Lock()
	s.current = cmd
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}()

	var (
		destination string
		already     string
		scanWG      sync.WaitGroup
		stderrTail  []string
		stdoutTail  []string
	)
	scanWG.Add(2)
	go func() {
		defer scanWG.Done()
		scanLines(stdout, func(line string) {
			if m := destinationRe.FindStringSubmatch(line); m != nil {
				destination = m[1]
			}
			if m := alreadyDownloadedRe.FindStringSubmatch(line); m != nil {
				already = m[1]
			}
			stdoutTail = appendTail(stdoutTail, line)
		})
	}()
	go func() {
		defer scanWG.Done()
		scanLines(stderr, func(line string) {
			stderrTail = appendTail(stderrTail, line)
		})
	}()

	waitErr := cmd.Wait()
	scanWG.Wait()

	if already != "" {
		return Result{Skipped: true, Destination: already}
	}
	if waitErr == nil {
		if destination == "" && len(stdoutTail) > 0 {
			destination = stdoutTail[len(stdoutTail)-1]
		}
		return Result{Destination: destination}
	}
	s.mu.Lock()
	cancelledByCancel := s.current != cmd
	s.mu.Unlock()
	if ctx.Err() != nil || cancelledByCancel {
		return Result{Cancelled: true}
	}
	return Result{Err: errors.New(firstNonEmpty(joinLines(stderrTail), joinLines(stdoutTail), waitErr.Error()))}
}

// Cancel terminates the in-flight download per spec.md §4.8: SIGTERM to the
// process group, wait ~500ms, then SIGKILL. No-op if nothing is running.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	cmd := s.current
	s.current = nil // tells Download this child was cancelled
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	_ = procgroup.Signal(cmd, syscall.SIGTERM)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cmd.Process.Signal(syscall.Signal(0)) != nil {
			return // already exited
		}
		time.Sleep(25 * time.Millisecond)
	}
	_ = procgroup.Signal(cmd, syscall.SIGKILL)
}

func scanLines(r io.Reader, each func(string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		each(sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Printf("ytdlp: scan error: %v", err)
	}
}

func appendTail(tail []string, line string) []string {
	const maxTail = 20
	tail = append(tail, line)
	if len(tail) > maxTail {
		tail = tail[len(tail)-maxTail:]
	}
	return tail
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return "unknown error"
}
