package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "mediascribe-server-go/internal/platform/errors"
)

// Loader reads configuration from a YAML file layered over Default, with a
// final pass of environment-variable overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path. An empty path
// falls back to "config.yaml".
func NewLoader(path string) *Loader {
	if path == "" {
		path = "config.yaml"
	}
	return &Loader{path: path, useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the file if present, otherwise serves defaults. A missing file
// is not an error; a malformed one is.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Absence of .env is fine, the process env is used as-is.
		_ = godotenv.Load()
	}

	cfg := Default()
	path := l.path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "load", "parse "+path, err)
		}
	case os.IsNotExist(err):
		path = ""
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "load", "read "+path, err)
	}

	applyEnvOverrides(cfg)
	return &Result{Config: cfg, Path: path}, nil
}

// applyEnvOverrides mirrors the original server's environment surface: each
// RecognitionConfig field is independently overridable.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASR_MODEL"); v != "" {
		cfg.ASR.Model = v
	}
	if v := os.Getenv("ASR_DEVICE"); v != "" {
		cfg.ASR.Device = v
	}
	if v := os.Getenv("ASR_BASE_URL"); v != "" {
		cfg.ASR.BaseURL = v
	}
	if v := os.Getenv("ASR_USE_ITN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ASR.UseITN = b
		}
	}
	if v := os.Getenv("ASR_MERGE_VAD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ASR.MergeVAD = b
		}
	}
	if v := os.Getenv("ASR_BATCH_SIZE_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ASR.BatchSizeS = n
		}
	}
	if v := os.Getenv("ASR_MERGE_LENGTH_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ASR.MergeLengthS = n
		}
	}
	if v := os.Getenv("ASR_VAD_MAX_SEGMENT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ASR.VADMaxSegmentMS = n
		}
	}
	if v := os.Getenv("TRANSLATE_API_KEY"); v != "" {
		cfg.Translate.APIKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
}
