package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mediascribe-server-go/internal/domain/transcript/model"
)

type memoryStore struct {
	items       map[string]model.Record
	mutex       sync.RWMutex
	ttl         time.Duration
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory builds an in-memory transcript store.
func NewMemory(cfg Config) Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		cleanup = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:       make(map[string]model.Record),
		ttl:         ttl,
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Save(_ context.Context, rec model.Record) error {
	if rec.TaskID == "" {
		return fmt.Errorf("task id required")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.ExpiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		rec.ExpiresAt = &exp
	}

	s.mutex.Lock()
	s.items[rec.TaskID] = rec
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, taskID string) (model.Record, error) {
	s.mutex.RLock()
	rec, ok := s.items[taskID]
	s.mutex.RUnlock()
	if !ok {
		return model.Record{}, fmt.Errorf("transcript not found: %s", taskID)
	}
	if rec.ExpiresAt != nil && time.Now().After(*rec.ExpiresAt) {
		return model.Record{}, fmt.Errorf("transcript expired: %s", taskID)
	}
	return rec, nil
}

func (s *memoryStore) Remove(_ context.Context, taskID string) error {
	s.mutex.Lock()
	delete(s.items, taskID)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.items))
	for id, rec := range s.items {
		if rec.ExpiresAt == nil || now.Before(*rec.ExpiresAt) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mutex.Lock()
	for id, rec := range s.items {
		if rec.ExpiresAt != nil && now.After(*rec.ExpiresAt) {
			delete(s.items, id)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total := len(s.items)
	active := 0
	for _, rec := range s.items {
		if rec.ExpiresAt == nil || now.Before(*rec.ExpiresAt) {
			active++
		}
	}
	return map[string]any{
		"type":        "memory",
		"total":       total,
		"active":      active,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
