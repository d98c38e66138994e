package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/radio4000/r4fuse/internal/app"
	"github.com/radio4000/r4fuse/internal/r4fs"
)

var allowOther bool

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Initialize config, create on-disk directories, connect the catalog, and mount.",
	RunE:  runMount,
}

func init() {
	mountCmd.Flags().BoolVar(&allowOther, "allow-other", false, "enable FUSE allow_other so other local users can see the mount")
}

func runMount(cmd *cobra.Command, _ []string) error {
	if err := validateDisjoint(cfg.MountPoint, cfg.DownloadDir); err != nil {
		return err
	}
	for _, dir := range []string{cfg.MountPoint, cfg.DownloadDir, cfg.StateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unmount, err := r4fs.MountBackground(ctx, cfg.MountPoint, a.FS, allowOther)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	if err := writePIDFile(pidFilePath(cfg), os.Getpid()); err != nil {
		log.Printf("mount: write pid file: %v", err)
	}
	defer os.Remove(pidFilePath(cfg))

	log.Printf("r4fuse mounted at %s (downloads -> %s)", cfg.MountPoint, cfg.DownloadDir)

	<-ctx.Done()
	log.Println("r4fuse: shutting down downloads...")
	a.Shutdown()
	unmount()
	log.Println("r4fuse: unmounted")
	return nil
}

// validateDisjoint enforces spec.md §5's "the download root and the mount
// point must not overlap" invariant.
func validateDisjoint(mountPoint, downloadDir string) error {
	mp := filepath.Clean(mountPoint)
	dd := filepath.Clean(downloadDir)
	if mp == dd || strings.HasPrefix(dd+string(filepath.Separator), mp+string(filepath.Separator)) || strings.HasPrefix(mp+string(filepath.Separator), dd+string(filepath.Separator)) {
		return fmt.Errorf("mount point %q and download root %q must not overlap", mountPoint, downloadDir)
	}
	return nil
}

func writePIDFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
