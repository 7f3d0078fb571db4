package store

import (
	"context"
	"testing"
	"time"

	"mediascribe-server-go/internal/domain/transcript/model"
)

func sampleRecord(id string) model.Record {
	return model.Record{
		TaskID:          id,
		Source:          "clip.mp4",
		Mode:            model.ModeStream,
		Status:          "completed",
		Text:            "hello world",
		Fragments:       []model.Fragment{{Index: 0, Start: 0, End: 60, Text: "hello world"}},
		DurationSeconds: 60,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = s.Close(ctx) })

	rec := sampleRecord("mem-task")
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := s.Get(ctx, rec.TaskID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Text != rec.Text || got.Mode != model.ModeStream {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Fragments) != 1 || got.Fragments[0].End != 60 {
		t.Fatalf("unexpected fragments: %+v", got.Fragments)
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ids) != 1 || ids[0] != rec.TaskID {
		t.Fatalf("unexpected list: %v", ids)
	}

	if err := s.Remove(ctx, rec.TaskID); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := s.Get(ctx, rec.TaskID); err == nil {
		t.Fatal("expected missing record after removal")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{TTL: 10 * time.Millisecond})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if err := s.Save(ctx, sampleRecord("short-lived")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := s.Get(ctx, "short-lived"); err == nil {
		t.Fatal("expected expired record")
	}
	if err := s.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"].(int) != 0 {
		t.Fatalf("unexpected stats after cleanup: %v", stats)
	}
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	s := NewMemory(Config{})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	if err := s.Save(context.Background(), model.Record{}); err == nil {
		t.Fatal("expected error for empty task id")
	}
}
