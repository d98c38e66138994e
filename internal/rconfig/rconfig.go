// Package rconfig is the Config collaborator: settings, favorites/downloads
// lists, default paths, and environment overrides, consumed by the
// projection layer, the download pipeline, and the CLI.
package rconfig

import (
	"os"
	"path/filepath"
)

// Config is the single owned handle for everything the spec calls the
// "Config collaborator": on-disk settings, favorites/downloads lists, and
// resolved paths/credentials. Construct one with Load and pass it explicitly
// rather than reaching for package-level state.
type Config struct {
	Settings Settings

	ConfigDir   string
	MountPoint  string
	DownloadDir string
	CacheDir    string
	StateDir    string
	ConfigFile  string

	SupabaseURL string
	SupabaseKey string
}

// Load builds a Config from environment variables and the on-disk settings
// file, creating the settings file with defaults if it is absent (the
// favorites/downloads files are created by LoadSlugList, not here). home is
// the user's home directory, used to derive defaults; pass "" to let Load
// resolve it from $HOME.
func Load(home string) (*Config, error) {
	if home == "" {
		home = os.Getenv("HOME")
	}

	c := &Config{
		MountPoint:  getEnv("R4_MOUNT_POINT", filepath.Join(home, "mnt", "radio4000")),
		DownloadDir: getEnv("R4_DOWNLOAD_DIR", filepath.Join(home, "r4fuse", "downloads")),
		CacheDir:    getEnv("R4_CACHE_DIR", filepath.Join(home, ".cache", "r4fuse")),
		StateDir:    getEnv("R4_STATE_DIR", filepath.Join(home, ".local", "state", "r4fuse")),
		SupabaseURL: getEnvAlias("SUPABASE_URL", "VITE_SUPABASE_URL", ""),
		SupabaseKey: getEnvAlias("SUPABASE_KEY", "VITE_SUPABASE_KEY", ""),
	}
	c.ConfigFile = getEnv("R4_CONFIG_FILE", filepath.Join(home, ".config", "r4fuse", "settings.json"))
	c.ConfigDir = filepath.Dir(c.ConfigFile)

	if err := os.MkdirAll(c.ConfigDir, 0755); err != nil {
		return nil, err
	}

	settings, err := LoadSettings(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	c.Settings = settings

	if c.Settings.Paths.MountPoint != "" {
		c.MountPoint = c.Settings.Paths.MountPoint
	}
	if c.Settings.Paths.DownloadDir != "" {
		c.DownloadDir = c.Settings.Paths.DownloadDir
	}

	return c, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAlias checks key, then alias, then falls back to defaultVal.
func getEnvAlias(key, alias, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := os.Getenv(alias); v != "" {
		return v
	}
	return defaultVal
}

// FavoritesPath is the on-disk location of the favorites list.
func (c *Config) FavoritesPath() string {
	return filepath.Join(c.ConfigDir, "favorites.txt")
}

// DownloadsPath is the on-disk location of the downloads list.
func (c *Config) DownloadsPath() string {
	return filepath.Join(c.ConfigDir, "downloads.txt")
}
