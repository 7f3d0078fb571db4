package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	platformconfig "mediascribe-server-go/internal/platform/config"
)

func TestBuildStoreMemory(t *testing.T) {
	cfg := platformconfig.Default()
	s, err := buildStore(cfg)
	if err != nil {
		t.Fatalf("buildStore error: %v", err)
	}
	defer s.Close(context.Background())

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["type"] != "memory" {
		t.Fatalf("unexpected driver: %v", stats["type"])
	}
}

func TestBuildStoreSQLite(t *testing.T) {
	cfg := platformconfig.Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLite = &platformconfig.SQLiteStoreConfig{
		DSN: filepath.Join(t.TempDir(), "transcripts.db"),
	}
	cfg.Store.TTL = time.Hour

	s, err := buildStore(cfg)
	if err != nil {
		t.Fatalf("buildStore error: %v", err)
	}
	defer s.Close(context.Background())

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["type"] != "sqlite" {
		t.Fatalf("unexpected driver: %v", stats["type"])
	}
}

func TestBuildStoreUnknownDriver(t *testing.T) {
	cfg := platformconfig.Default()
	cfg.Store.Driver = "etcd"
	if _, err := buildStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
