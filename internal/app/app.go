// Package app owns the process-wide handles the spec's design notes call
// for (§9 "module-level globals → owned handles"): the catalog client, the
// favorites/downloads lists, the download queue, and the FUSE filesystem
// they all feed. Nothing here is a package-level variable; callers
// construct one App and pass it around explicitly.
package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/radio4000/r4fuse/internal/catalog"
	"github.com/radio4000/r4fuse/internal/downloadjob"
	"github.com/radio4000/r4fuse/internal/queue"
	"github.com/radio4000/r4fuse/internal/r4fs"
	"github.com/radio4000/r4fuse/internal/rconfig"
	"github.com/radio4000/r4fuse/internal/status"
	"github.com/radio4000/r4fuse/internal/ytdlp"
)

// App wires the Config collaborator, the catalog, the download queue and
// job runner, and the FUSE binding into one owned handle.
type App struct {
	Config     *rconfig.Config
	Catalog    catalog.Catalog
	Favorites  *rconfig.SlugList
	Downloads  *rconfig.SlugList
	Supervisor *ytdlp.Supervisor
	Queue      *queue.Queue
	FS         *r4fs.FS
	History    *status.Store

	runner *downloadjob.Runner
}

// New constructs an App from cfg. It does not start the queue worker or
// mount the filesystem; call Start and r4fs.Mount for that.
func New(cfg *rconfig.Config) (*App, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("app: SUPABASE_URL/SUPABASE_KEY (or VITE_ equivalents) are required")
	}

	favorites, err := rconfig.LoadSlugList(cfg.FavoritesPath())
	if err != nil {
		return nil, fmt.Errorf("app: load favorites: %w", err)
	}
	downloads, err := rconfig.LoadSlugList(cfg.DownloadsPath())
	if err != nil {
		return nil, fmt.Errorf("app: load downloads: %w", err)
	}

	httpClient := catalog.NewHTTPClient(strings.TrimSuffix(cfg.SupabaseURL, "/")+"/rest/v1", cfg.SupabaseKey)
	cachePath := ""
	if cfg.CacheDir != "" {
		cachePath = cfg.CacheDir + "/catalog.json"
	}
	cat := catalog.NewCache(httpClient, cachePath)

	// History is an optional enhancement (spec.md §4.7): a missing or
	// unopenable store disables recording rather than failing the mount.
	var history *status.Store
	if store, err := status.Open(filepath.Join(cfg.StateDir, "history.db")); err != nil {
		log.Printf("app: download history disabled: %v", err)
	} else {
		history = store
	}

	sup := ytdlp.NewSupervisor()
	runner := &downloadjob.Runner{
		Catalog:        cat,
		Supervisor:     sup,
		DownloadRoot:   cfg.DownloadDir,
		YTDLP:          cfg.Settings.YTDLP,
		Downloader:     cfg.Settings.Downloader,
		OrganizeByTags: cfg.Settings.Features.OrganizeByTags,
	}
	if history != nil {
		runner.Recorder = history
	}

	a := &App{
		Config:     cfg,
		Catalog:    cat,
		Favorites:  favorites,
		Downloads:  downloads,
		Supervisor: sup,
		History:    history,
		runner:     runner,
	}

	a.Queue = queue.New(func(slug string, cancel <-chan struct{}) {
		runner.Run(context.Background(), slug, cancel)
	})

	a.FS = &r4fs.FS{
		Catalog:        cat,
		Favorites:      favorites,
		Downloads:      downloads,
		StorageBaseURL: cfg.SupabaseURL,
		Enqueue: func(slug string) error {
			a.Queue.Enqueue(slug)
			return nil
		},
	}

	return a, nil
}

// Start launches the queue worker and auto-enqueues every slug already
// listed in downloads.txt (spec.md §6's "mount" contract).
func (a *App) Start() {
	a.Queue.Start()
	for _, slug := range a.Downloads.Slugs() {
		a.Queue.Enqueue(slug)
	}
}

// Shutdown drains the queue, cancels any in-flight job (spec.md §5), and
// closes the history store.
func (a *App) Shutdown() {
	a.Queue.Shutdown()
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			log.Printf("app: close history store: %v", err)
		}
	}
}
