package engine

import (
	"context"
	"fmt"
	"sync"

	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

// Engine is the recognition boundary. Implementations return engine-native
// results of unspecified shape; callers must pass them through Normalize.
type Engine interface {
	// RecognizeFile transcribes a complete audio file on disk.
	RecognizeFile(ctx context.Context, path string) (any, error)
	// RecognizeBatch transcribes several slices in one submission so engine
	// warm-up cost is paid once. The result holds one entry per slice.
	RecognizeBatch(ctx context.Context, paths []string) ([]any, error)
	// RecognizeSamples transcribes an in-memory window of normalized samples.
	RecognizeSamples(ctx context.Context, samples []float32) (any, error)
	Close() error
}

// Factory builds an Engine for an already device-resolved Config.
type Factory func(cfg Config, logger *logging.Logger) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider available under the given name. Provider packages
// call this from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Acquire validates the config, resolves the device selector, and constructs
// the named provider. Failure here is the engine-unavailable case: it is
// reported once and the task must not start.
func Acquire(cfg Config, logger *logging.Logger) (Engine, Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, cfg, errors.Wrap(errors.KindEngine, "acquire", "invalid recognition config", err)
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, cfg, errors.New(errors.KindEngine, "acquire",
			fmt.Sprintf("unknown engine provider: %s", cfg.Provider))
	}

	cfg.Device = ResolveDevice(cfg.Device, cfg.MinGPUMemoryGB, logger)

	eng, err := factory(cfg, logger)
	if err != nil {
		return nil, cfg, errors.Wrap(errors.KindEngine, "acquire", "engine construction failed", err)
	}
	logger.InfoTag("ASR", "engine ready: provider=%s model=%s device=%s",
		cfg.Provider, cfg.Model, cfg.Device)
	return eng, cfg, nil
}
