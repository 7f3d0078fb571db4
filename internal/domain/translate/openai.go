package translate

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

type openaiTranslator struct {
	client *openai.Client
	cfg    Config
	logger *logging.Logger
}

// newOpenAI builds a chat-completion translator. The deepseek provider is the
// same protocol behind a different base URL and default model.
func newOpenAI(cfg Config, logger *logging.Logger) (Translator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "translate", "api key required for "+cfg.Provider)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientCfg.BaseURL = cfg.BaseURL
	case cfg.Provider == ProviderDeepSeek:
		clientCfg.BaseURL = deepseekBaseURL
	}
	if cfg.Model == "" {
		if cfg.Provider == ProviderDeepSeek {
			cfg.Model = "deepseek-chat"
		} else {
			cfg.Model = openai.GPT4oMini
		}
	}

	return &openaiTranslator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (t *openaiTranslator) Translate(ctx context.Context, text string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: t.cfg.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.KindTransport, "translate", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindTransport, "translate", "no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (t *openaiTranslator) Close() error { return nil }
