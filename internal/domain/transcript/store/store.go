package store

import (
	"context"
	"time"

	"mediascribe-server-go/internal/domain/transcript/model"
)

// Store persists finished transcripts.
type Store interface {
	Save(ctx context.Context, rec model.Record) error
	Get(ctx context.Context, taskID string) (model.Record, error)
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, taskID string) error
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig provides the database location.
type SQLiteConfig struct {
	Path string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
