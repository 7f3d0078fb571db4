package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mediascribe-server-go/internal/domain/transcript/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// transcriptRow is the GORM model backing the sqlite driver. Fragments and
// metadata go into JSON columns since their shape varies per engine.
type transcriptRow struct {
	ID              uint   `gorm:"primaryKey"`
	TaskID          string `gorm:"uniqueIndex;size:64"`
	Source          string
	Mode            string `gorm:"size:16"`
	Status          string `gorm:"size:16"`
	Text            string
	Fragments       datatypes.JSON
	Metadata        datatypes.JSON
	DurationSeconds float64
	CreatedAt       time.Time
	FinishedAt      *time.Time
	ExpiresAt       *time.Time `gorm:"index"`
}

func (transcriptRow) TableName() string { return "transcripts" }

// OpenSQLite opens (creating directories as needed) and migrates the
// transcript database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = filepath.Join("data", "transcripts.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&transcriptRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite builds a sqlite-backed transcript store around an open handle.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db, ttl: cfg.TTL}, nil
}

func (s *sqliteStore) Save(ctx context.Context, rec model.Record) error {
	if rec.TaskID == "" {
		return fmt.Errorf("task id required")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.ExpiresAt == nil && s.ttl > 0 {
		exp := rec.CreatedAt.Add(s.ttl)
		rec.ExpiresAt = &exp
	}
	fragments, _ := json.Marshal(rec.Fragments)
	meta, _ := json.Marshal(rec.Metadata)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", rec.TaskID).Delete(&transcriptRow{}).Error; err != nil {
			return err
		}
		row := &transcriptRow{
			TaskID:          rec.TaskID,
			Source:          rec.Source,
			Mode:            rec.Mode,
			Status:          rec.Status,
			Text:            rec.Text,
			Fragments:       fragments,
			Metadata:        meta,
			DurationSeconds: rec.DurationSeconds,
			CreatedAt:       rec.CreatedAt,
			FinishedAt:      rec.FinishedAt,
			ExpiresAt:       rec.ExpiresAt,
		}
		return tx.Create(row).Error
	})
}

func (s *sqliteStore) Get(ctx context.Context, taskID string) (model.Record, error) {
	var row transcriptRow
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Record{}, fmt.Errorf("transcript not found: %s", taskID)
	}
	if err != nil {
		return model.Record{}, err
	}
	if row.ExpiresAt != nil && time.Now().After(*row.ExpiresAt) {
		return model.Record{}, fmt.Errorf("transcript expired: %s", taskID)
	}

	rec := model.Record{
		TaskID:          row.TaskID,
		Source:          row.Source,
		Mode:            row.Mode,
		Status:          row.Status,
		Text:            row.Text,
		DurationSeconds: row.DurationSeconds,
		CreatedAt:       row.CreatedAt,
		FinishedAt:      row.FinishedAt,
		ExpiresAt:       row.ExpiresAt,
	}
	if len(row.Fragments) > 0 {
		_ = json.Unmarshal(row.Fragments, &rec.Fragments)
	}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &rec.Metadata)
	}
	return rec, nil
}

func (s *sqliteStore) Remove(ctx context.Context, taskID string) error {
	return s.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&transcriptRow{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var rows []transcriptRow
	if err := s.db.WithContext(ctx).Select("task_id", "expires_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ExpiresAt == nil || now.Before(*r.ExpiresAt) {
			ids = append(ids, r.TaskID)
		}
	}
	return ids, nil
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&transcriptRow{}).
		Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&transcriptRow{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        "sqlite",
		"total":       total,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
