package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediascribe-server-go/internal/domain/engine"
)

type fakeProber struct {
	duration float64
	err      error
}

func (f fakeProber) Duration(string) (float64, error) { return f.duration, f.err }

type fakeSlicer struct {
	failIndex int // start second whose slice fails; -1 for none
	calls     []float64
}

func (f *fakeSlicer) Slice(_ context.Context, _ string, start, duration float64, dst string) error {
	f.calls = append(f.calls, start)
	if f.failIndex >= 0 && int(start) == f.failIndex {
		return fmt.Errorf("slice failed at %v", start)
	}
	return os.WriteFile(dst, []byte("RIFF"), 0o644)
}

// segmentEngine recognizes each slice as its file name.
func segmentEngine() *engine.Stub {
	return &engine.Stub{
		FileFunc: func(path string) (any, error) {
			return []any{map[string]any{"text": "text:" + filepath.Base(path)}}, nil
		},
	}
}

func TestBatchRunHappyPath(t *testing.T) {
	pipeline := NewBatchPipeline(
		fakeProber{duration: 125},
		&fakeSlicer{failIndex: -1},
		segmentEngine(),
		t.TempDir(), nil)

	// 1-minute windows over 125s -> 3 segments.
	result, err := pipeline.Run(context.Background(), "input.wav", 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.TotalSegments != 3 {
		t.Fatalf("total segments = %d, want 3", result.TotalSegments)
	}
	if len(strings.Fields(result.JoinedText)) != 3 {
		t.Errorf("joined text = %q, want 3 parts", result.JoinedText)
	}
	for i, seg := range result.Segments {
		if seg.Text == "" {
			t.Errorf("segment %d empty", i)
		}
	}
}

func TestBatchSingleSegmentFailureIsIsolated(t *testing.T) {
	// The slice starting at t=60 fails; the other two still contribute.
	pipeline := NewBatchPipeline(
		fakeProber{duration: 125},
		&fakeSlicer{failIndex: 60},
		segmentEngine(),
		t.TempDir(), nil)

	result, err := pipeline.Run(context.Background(), "input.wav", 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.TotalSegments != 3 {
		t.Fatalf("total segments = %d, want 3", result.TotalSegments)
	}
	if result.Segments[1].Text != "" {
		t.Errorf("failed segment text = %q, want empty", result.Segments[1].Text)
	}
	if parts := strings.Fields(result.JoinedText); len(parts) != 2 {
		t.Errorf("joined text = %q, want 2 parts", result.JoinedText)
	}
}

func TestBatchAllSegmentsFailedIsDegradedNotFatal(t *testing.T) {
	failing := &engine.Stub{
		FileFunc: func(string) (any, error) { return nil, fmt.Errorf("engine down") },
	}
	pipeline := NewBatchPipeline(
		fakeProber{duration: 125},
		&fakeSlicer{failIndex: -1},
		failing,
		t.TempDir(), nil)

	result, err := pipeline.Run(context.Background(), "input.wav", 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.JoinedText != "" {
		t.Errorf("joined text = %q, want empty", result.JoinedText)
	}
	if result.TotalSegments != 3 {
		t.Errorf("total segments = %d, want 3", result.TotalSegments)
	}
}

func TestBatchUnknownDurationRunsWholeFilePass(t *testing.T) {
	slicer := &fakeSlicer{failIndex: -1}
	pipeline := NewBatchPipeline(
		fakeProber{err: fmt.Errorf("probe failed")},
		slicer,
		segmentEngine(),
		t.TempDir(), nil)

	result, err := pipeline.Run(context.Background(), "input.wav", 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.TotalSegments != 1 {
		t.Fatalf("total segments = %d, want 1", result.TotalSegments)
	}
	if len(slicer.calls) != 1 || slicer.calls[0] != 0 {
		t.Errorf("slice calls = %v, want one at 0", slicer.calls)
	}
	if result.JoinedText == "" {
		t.Error("expected text from whole-file pass")
	}
}

func TestBatchCleansUpSlices(t *testing.T) {
	tempDir := t.TempDir()
	pipeline := NewBatchPipeline(
		fakeProber{duration: 125},
		&fakeSlicer{failIndex: -1},
		segmentEngine(),
		tempDir, nil)

	if _, err := pipeline.Run(context.Background(), "input.wav", 1); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("slice artifacts left behind: %v", entries)
	}
}

func TestBatchMarkupStripped(t *testing.T) {
	tagged := &engine.Stub{
		FileFunc: func(string) (any, error) {
			return []any{map[string]any{"text": "<|zh|><|NEUTRAL|>clean text"}}, nil
		},
	}
	pipeline := NewBatchPipeline(
		fakeProber{duration: 61},
		&fakeSlicer{failIndex: -1},
		tagged,
		t.TempDir(), nil)

	result, err := pipeline.Run(context.Background(), "input.wav", 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.JoinedText != "clean text" {
		t.Errorf("joined = %q, want %q", result.JoinedText, "clean text")
	}
}
