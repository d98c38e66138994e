package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the r4fuse version.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println("r4fuse " + version)
		return nil
	},
}
