package engine

import (
	"fmt"

	platformcfg "mediascribe-server-go/internal/platform/config"
)

// Config is the immutable recognition configuration for one task. It is
// resolved once (including the device) before an engine is acquired and never
// mutated afterwards.
type Config struct {
	Provider        string
	BaseURL         string
	Model           string
	Device          string
	MinGPUMemoryGB  float64
	VADMaxSegmentMS int
	BatchSizeS      int
	MergeVAD        bool
	MergeLengthS    int
	UseITN          bool
}

// FromPlatform builds an engine Config from the server configuration.
func FromPlatform(cfg platformcfg.ASRConfig) Config {
	return Config{
		Provider:        cfg.Provider,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		Device:          cfg.Device,
		MinGPUMemoryGB:  cfg.MinGPUMemoryGB,
		VADMaxSegmentMS: cfg.VADMaxSegmentMS,
		BatchSizeS:      cfg.BatchSizeS,
		MergeVAD:        cfg.MergeVAD,
		MergeLengthS:    cfg.MergeLengthS,
		UseITN:          cfg.UseITN,
	}
}

// Validate rejects configurations no provider could serve.
func (c Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.BatchSizeS <= 0 {
		return fmt.Errorf("invalid batch_size_s: %d", c.BatchSizeS)
	}
	if c.MergeLengthS < 0 {
		return fmt.Errorf("invalid merge_length_s: %d", c.MergeLengthS)
	}
	if c.VADMaxSegmentMS <= 0 {
		return fmt.Errorf("invalid vad_max_segment_ms: %d", c.VADMaxSegmentMS)
	}
	return nil
}
