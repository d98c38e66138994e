package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radio4000/r4fuse/internal/rconfig"
)

func loadTestConfig(t *testing.T) *rconfig.Config {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("R4_CONFIG_FILE", filepath.Join(home, "settings.json"))
	t.Setenv("R4_MOUNT_POINT", filepath.Join(home, "mnt"))
	t.Setenv("R4_DOWNLOAD_DIR", filepath.Join(home, "downloads"))
	t.Setenv("R4_CACHE_DIR", filepath.Join(home, "cache"))
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	cfg, err := rconfig.Load(home)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewRequiresSupabaseCredentials(t *testing.T) {
	cfg := loadTestConfig(t)
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error without SUPABASE_URL/SUPABASE_KEY")
	}
}

func TestNewWiresQueueAndFS(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.SupabaseURL = "https://example.supabase.co"
	cfg.SupabaseKey = "test-key"
	os.MkdirAll(cfg.CacheDir, 0755)

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.FS == nil || a.FS.Catalog == nil {
		t.Fatal("FS not wired with a catalog")
	}
	if a.FS.Enqueue == nil {
		t.Fatal("FS.Enqueue not wired")
	}
	if err := a.FS.Enqueue("some-channel"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if pending := a.Queue.Pending(); len(pending) != 1 || pending[0] != "some-channel" {
		t.Fatalf("Pending() = %v, want [some-channel]", pending)
	}
}
