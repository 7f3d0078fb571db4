package store

import (
	"context"
	"testing"
)

func TestFactoryDefaultsToMemory(t *testing.T) {
	s, err := New(Config{}, Dependencies{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["type"] != "memory" {
		t.Fatalf("unexpected driver: %v", stats["type"])
	}
}

func TestFactoryRejectsUnknownDriver(t *testing.T) {
	if _, err := New(Config{Driver: "etcd"}, Dependencies{}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFactorySQLiteRequiresHandle(t *testing.T) {
	if _, err := New(Config{Driver: DriverSQLite}, Dependencies{}); err == nil {
		t.Fatal("expected error without database handle")
	}
}
