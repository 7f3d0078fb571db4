package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mediascribe-server-go/internal/domain/transcript/model"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed transcript store.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "transcript:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{client: client, ttl: ttl, prefix: prefix}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Save(ctx context.Context, rec model.Record) error {
	if rec.TaskID == "" {
		return fmt.Errorf("task id required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	expiry := s.ttl
	if rec.ExpiresAt != nil {
		expiry = time.Until(*rec.ExpiresAt)
	}
	return s.client.Set(ctx, s.key(rec.TaskID), data, expiry).Err()
}

func (s *redisStore) Get(ctx context.Context, taskID string) (model.Record, error) {
	raw, err := s.client.Get(ctx, s.key(taskID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.Record{}, fmt.Errorf("transcript not found: %s", taskID)
		}
		return model.Record{}, err
	}
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Record{}, err
	}
	if rec.ExpiresAt != nil && time.Now().After(*rec.ExpiresAt) {
		_ = s.Remove(ctx, taskID)
		return model.Record{}, fmt.Errorf("transcript expired: %s", taskID)
	}
	return rec, nil
}

func (s *redisStore) Remove(ctx context.Context, taskID string) error {
	return s.client.Del(ctx, s.key(taskID)).Err()
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	ids := make([]string, 0)
	pattern := s.prefix + "*"
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, s.prefix))
		}
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return ids, nil
}

func (s *redisStore) CleanupExpired(context.Context) error {
	// Redis handles expiration via TTL.
	return nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        "redis",
		"total":       size,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
