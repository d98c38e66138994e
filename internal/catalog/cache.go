package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// snapshot is the on-disk shape written by Cache.persist and read back by
// NewCache. It mirrors a flattened view of the upstream catalog.
type snapshot struct {
	Channels []Channel          `json:"channels"`
	Tracks   map[string][]Track `json:"tracks"` // keyed by channel slug
	SavedAt  string             `json:"saved_at"`
}

// Cache wraps a Catalog with a best-effort disk snapshot of the last
// successful response, so a mount started while the upstream API is
// unreachable can still serve whatever was last seen (spec.md's offline-
// start resilience). It is not a TTL read-through cache: every Channels/
// Channel/Tracks call re-queries upstream, matching SPEC_FULL.md §4's "no
// caching layer" invariant. When the upstream call errors, the last
// snapshot for that request is returned instead; the error reaches the
// caller (and surfaces as EIO) only when no snapshot exists.
type Cache struct {
	upstream Catalog
	path     string

	mu         sync.RWMutex
	channels   []Channel
	tracksByID map[string][]Track
}

// NewCache wraps upstream with a disk-backed snapshot persisted at path (if
// path is non-empty).
func NewCache(upstream Catalog, path string) *Cache {
	c := &Cache{
		upstream:   upstream,
		path:       path,
		tracksByID: make(map[string][]Track),
	}
	if path != "" {
		_ = c.load(path)
	}
	return c
}

// Channels implements Catalog. It always queries upstream; on error it
// falls back to the last snapshot seen (disk-loaded or previously fetched),
// if any.
func (c *Cache) Channels(ctx context.Context) ([]Channel, error) {
	fetched, err := c.upstream.Channels(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.channels
		c.mu.RUnlock()
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.channels = fetched
	c.mu.Unlock()
	c.persist()
	return fetched, nil
}

// Channel implements Catalog by scanning the (possibly snapshot-fallback)
// channel list.
func (c *Cache) Channel(ctx context.Context, slug string) (Channel, error) {
	channels, err := c.Channels(ctx)
	if err != nil {
		return Channel{}, err
	}
	for _, ch := range channels {
		if ch.Slug == slug {
			return ch, nil
		}
	}
	return Channel{}, ErrNotFound
}

// Tracks implements Catalog. It always queries upstream; on error it falls
// back to the last snapshot seen for slug, if any.
func (c *Cache) Tracks(ctx context.Context, slug string) ([]Track, error) {
	fetched, err := c.upstream.Tracks(ctx, slug)
	if err != nil {
		c.mu.RLock()
		stale, ok := c.tracksByID[slug]
		c.mu.RUnlock()
		if ok {
			return stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.tracksByID[slug] = fetched
	c.mu.Unlock()
	c.persist()
	return fetched, nil
}

// persist writes the current in-memory view to disk using a temp-file-then-
// rename strategy so a reader never observes a partially written snapshot.
func (c *Cache) persist() {
	if c.path == "" {
		return
	}
	c.mu.RLock()
	snap := snapshot{
		Channels: c.channels,
		Tracks:   c.tracksByID,
		SavedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	dir := filepath.Dir(filepath.Clean(c.path))
	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		return
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return
	}
	_ = os.Rename(tmpName, c.path)
}

// load populates the in-memory snapshot from a previous persist, used only
// as a fallback when upstream errors before any in-process fetch succeeds.
func (c *Cache) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("catalog cache: decode %s: %w", path, err)
	}
	c.mu.Lock()
	c.channels = snap.Channels
	if snap.Tracks != nil {
		c.tracksByID = snap.Tracks
	}
	c.mu.Unlock()
	return nil
}
