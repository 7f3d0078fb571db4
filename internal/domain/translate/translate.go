package translate

import (
	"context"
	"fmt"
	"strings"

	"mediascribe-server-go/internal/domain/transcript/model"
	"mediascribe-server-go/internal/platform/logging"
)

// Translator renders text into the configured target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	Close() error
}

// Provider identifiers.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// Config selects and parameterizes a translation provider.
type Config struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

func (c Config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return "You are a professional subtitle translator. Translate the following " +
		"text naturally and concisely into Simplified Chinese for video subtitles. " +
		"Return only the translated text with no extra commentary."
}

// New constructs the configured translation provider.
func New(cfg Config, logger *logging.Logger) (Translator, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return newOllama(cfg, logger)
	case ProviderOpenAI, ProviderDeepSeek:
		return newOpenAI(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported translate provider: %s", cfg.Provider)
	}
}

// Fragments translates each fragment's text in order, filling the Translated
// field. A fragment that fails keeps an empty translation; the first error is
// returned alongside the partial result.
func Fragments(ctx context.Context, tr Translator, fragments []model.Fragment) ([]model.Fragment, error) {
	out := make([]model.Fragment, len(fragments))
	var firstErr error
	for i, frag := range fragments {
		out[i] = frag
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		translated, err := tr.Translate(ctx, text)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[i].Translated = strings.TrimSpace(translated)
	}
	return out, firstErr
}
