package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/radio4000/r4fuse/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report mount state, mount point, download root, and recent download history.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	path := pidFilePath(cfg)
	pid, err := readPIDFile(path)
	if err != nil {
		fmt.Println("mounted: false")
	} else {
		fmt.Printf("mounted: %t\n", processAlive(pid))
		fmt.Printf("pid: %d\n", pid)
	}
	fmt.Printf("mount point: %s\n", cfg.MountPoint)
	fmt.Printf("download root: %s\n", cfg.DownloadDir)

	printRecentHistory(cfg.StateDir)
	return nil
}

// printRecentHistory opens the history store (status.Open creates the file
// and its schema if absent; no runs are recorded here) and reports the last
// run per channel. Unreadable history
// is not an error: it's an optional enhancement (spec.md §4.7).
func printRecentHistory(stateDir string) {
	store, err := status.Open(filepath.Join(stateDir, "history.db"))
	if err != nil {
		return
	}
	defer store.Close()

	runs, err := store.RecentRuns(20)
	if err != nil || len(runs) == 0 {
		return
	}
	fmt.Println("recent downloads:")
	for _, r := range runs {
		fmt.Printf("  %s: downloaded=%d skipped=%d failed=%d (%s)\n",
			r.Slug, r.Downloaded, r.Skipped, r.Failed, r.FinishedAt.Format("2006-01-02 15:04"))
	}
}
