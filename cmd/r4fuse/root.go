// Command r4fuse mounts radio4000 channels and tracks as a read-only FUSE
// filesystem, with a companion download pipeline driven by writes to a
// control file under the mount.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/radio4000/r4fuse/internal/rconfig"
)

var (
	// homeOverride lets tests and advanced users point Config resolution at
	// a directory other than $HOME.
	homeOverride string

	// cfg is loaded once in PersistentPreRunE and shared by every subcommand.
	cfg *rconfig.Config

	rootCmd = &cobra.Command{
		Use:   "r4fuse",
		Short: "Mount radio4000 channels as a filesystem, with an optional download pipeline.",
		Long: `r4fuse projects radio4000 channels and tracks as a read-only FUSE
filesystem and runs a background download pipeline triggered by writing a
channel slug to the mount's control file.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&homeOverride, "home", "", "override the home directory used to resolve default paths")
	rootCmd.AddCommand(mountCmd, unmountCmd, statusCmd, versionCmd)
}

// Execute runs the root command and returns its exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := rconfig.Load(homeOverride)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}

func pidFilePath(c *rconfig.Config) string {
	return filepath.Join(c.StateDir, "r4fuse.pid")
}
