//go:build windows

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unmountCmd = &cobra.Command{
	Use:   "unmount",
	Short: "Gracefully stop downloads and unmount.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return fmt.Errorf("r4fuse unmount is only supported on POSIX platforms")
	},
}

func processAlive(pid int) bool {
	return false
}
