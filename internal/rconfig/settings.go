package rconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings is the on-disk settings.json shape (spec.md §6). Unknown keys in
// the file are ignored by viper's decode; the file is decoded over
// DefaultSettings, so fields missing from it keep their default values.
type Settings struct {
	Downloader string        `json:"downloader" mapstructure:"downloader"`
	YTDLP      YTDLP         `json:"ytdlp" mapstructure:"ytdlp"`
	Paths      Paths         `json:"paths" mapstructure:"paths"`
	Features   Features      `json:"features" mapstructure:"features"`
	Mount      MountSettings `json:"mount" mapstructure:"mount"`
}

// YTDLP mirrors the subset of yt-dlp/youtube-dl flags the download job
// passes through (spec.md §4.7, §6).
type YTDLP struct {
	Format             string `json:"format" mapstructure:"format"`
	ExtractAudio       bool   `json:"extractAudio" mapstructure:"extractAudio"`
	AudioFormat        string `json:"audioFormat" mapstructure:"audioFormat"`
	AudioQuality       string `json:"audioQuality" mapstructure:"audioQuality"`
	AddMetadata        bool   `json:"addMetadata" mapstructure:"addMetadata"`
	EmbedThumbnail     bool   `json:"embedThumbnail" mapstructure:"embedThumbnail"`
	WriteThumbnail     bool   `json:"writeThumbnail" mapstructure:"writeThumbnail"`
	CookiesFile        string `json:"cookiesFile" mapstructure:"cookiesFile"`
	CookiesFromBrowser string `json:"cookiesFromBrowser" mapstructure:"cookiesFromBrowser"`
}

// Paths overrides the process-wide mount point and download directory from
// within settings.json. A non-empty field takes precedence over both the
// built-in defaults and the R4_MOUNT_POINT/R4_DOWNLOAD_DIR environment values.
type Paths struct {
	MountPoint  string `json:"mountPoint" mapstructure:"mountPoint"`
	DownloadDir string `json:"downloadDir" mapstructure:"downloadDir"`
}

// Features toggles optional pipeline behavior.
type Features struct {
	OrganizeByTags bool `json:"organizeByTags" mapstructure:"organizeByTags"`
	RsyncEnabled   bool `json:"rsyncEnabled" mapstructure:"rsyncEnabled"`
}

// MountSettings controls the FUSE mount itself.
type MountSettings struct {
	Debug bool `json:"debug" mapstructure:"debug"`
}

// DefaultSettings is written to disk the first time LoadSettings finds no
// settings.json (any r4fuse subcommand loads it).
func DefaultSettings() Settings {
	return Settings{
		Downloader: "yt-dlp",
		YTDLP: YTDLP{
			Format:       "bestaudio/best",
			ExtractAudio: true,
			AudioFormat:  "mp3",
			AudioQuality: "0",
			AddMetadata:  true,
		},
		Features: Features{
			OrganizeByTags: true,
		},
	}
}

// LoadSettings reads settings.json at path, creating it with DefaultSettings
// if it does not exist.
func LoadSettings(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaults := DefaultSettings()
		if err := SaveSettings(path, defaults); err != nil {
			return Settings{}, fmt.Errorf("rconfig: create default settings: %w", err)
		}
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("rconfig: read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("rconfig: unmarshal settings: %w", err)
	}
	return settings, nil
}

// SaveSettings writes settings to path atomically (temp file in the same
// directory, then rename), so a reader never observes a partially written
// file.
func SaveSettings(path string, settings Settings) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("downloader", settings.Downloader)
	v.Set("ytdlp", settings.YTDLP)
	v.Set("paths", settings.Paths)
	v.Set("features", settings.Features)
	v.Set("mount", settings.Mount)

	dir := filepath.Dir(filepath.Clean(path))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("rconfig: create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json.tmp")
	if err != nil {
		return fmt.Errorf("rconfig: create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := v.WriteConfigAs(tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rconfig: write settings: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rconfig: chmod settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rconfig: rename settings: %w", err)
	}
	return nil
}
