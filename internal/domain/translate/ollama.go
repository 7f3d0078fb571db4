package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

type ollamaTranslator struct {
	host   string
	cfg    Config
	http   *http.Client
	logger *logging.Logger
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// newOllama builds a translator backed by a local Ollama daemon. The model is
// verified up front so a missing pull fails at startup, not mid-request.
func newOllama(cfg Config, logger *logging.Logger) (Translator, error) {
	host := strings.TrimRight(cfg.BaseURL, "/")
	if host == "" {
		host = defaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = "gemma3:12b"
	}

	t := &ollamaTranslator{
		host:   host,
		cfg:    cfg,
		http:   &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}
	if err := t.checkModel(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ollamaTranslator) checkModel() error {
	body, _ := sonic.Marshal(map[string]string{"model": t.cfg.Model})
	resp, err := t.http.Post(t.host+"/api/show", "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.KindTransport, "translate", "ollama unreachable at "+t.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.KindConfig, "translate",
			fmt.Sprintf("ollama model %s unavailable (status %d)", t.cfg.Model, resp.StatusCode))
	}
	t.logger.InfoTag("TRANSLATE", "ollama model %s ready at %s", t.cfg.Model, t.host)
	return nil
}

func (t *ollamaTranslator) Translate(ctx context.Context, text string) (string, error) {
	payload, err := sonic.Marshal(ollamaChatRequest{
		Model: t.cfg.Model,
		Messages: []ollamaMessage{
			{Role: "system", Content: t.cfg.systemPrompt()},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.KindTransport, "translate", "ollama chat failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var answer ollamaChatResponse
	if err := sonic.Unmarshal(raw, &answer); err != nil {
		return "", errors.Wrap(errors.KindTransport, "translate", "decode ollama response", err)
	}
	if answer.Error != "" {
		return "", errors.New(errors.KindTransport, "translate", "ollama: "+answer.Error)
	}
	return strings.TrimSpace(answer.Message.Content), nil
}

func (t *ollamaTranslator) Close() error { return nil }
