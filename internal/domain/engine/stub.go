package engine

import (
	"context"
	"fmt"

	"mediascribe-server-go/internal/platform/logging"
)

func init() {
	Register("stub", func(cfg Config, _ *logging.Logger) (Engine, error) {
		return &Stub{}, nil
	})
}

// Stub is a deterministic engine used by tests and local development. The
// function fields, when set, override the default echo behavior.
type Stub struct {
	FileFunc    func(path string) (any, error)
	SamplesFunc func(samples []float32) (any, error)
}

func (s *Stub) RecognizeFile(_ context.Context, path string) (any, error) {
	if s.FileFunc != nil {
		return s.FileFunc(path)
	}
	return []any{map[string]any{"key": path, "text": fmt.Sprintf("stub transcript for %s", path)}}, nil
}

func (s *Stub) RecognizeBatch(ctx context.Context, paths []string) ([]any, error) {
	results := make([]any, 0, len(paths))
	for _, path := range paths {
		res, err := s.RecognizeFile(ctx, path)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Stub) RecognizeSamples(_ context.Context, samples []float32) (any, error) {
	if s.SamplesFunc != nil {
		return s.SamplesFunc(samples)
	}
	return map[string]any{"text": fmt.Sprintf("stub transcript for %d samples", len(samples))}, nil
}

func (s *Stub) Close() error { return nil }
