//go:build !windows

package main

import (
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var unmountCmd = &cobra.Command{
	Use:   "unmount",
	Short: "Gracefully stop downloads and unmount.",
	RunE:  runUnmount,
}

func runUnmount(cmd *cobra.Command, _ []string) error {
	path := pidFilePath(cfg)
	pid, err := readPIDFile(path)
	if err != nil {
		return fmt.Errorf("not mounted (no pid file at %s): %w", path, err)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal mount process (pid %d): %w", pid, err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, syscall.Signal(0)) != nil {
			fmt.Println("unmounted")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount process (pid %d) did not exit within 10s", pid)
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}
