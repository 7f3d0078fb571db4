package funasr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"mediascribe-server-go/internal/domain/engine"
	"mediascribe-server-go/internal/platform/logging"
)

func init() {
	engine.Register("funasr", func(cfg engine.Config, logger *logging.Logger) (engine.Engine, error) {
		return New(cfg, logger)
	})
}

// Provider talks to a FunASR-style recognition runtime over HTTP. The runtime
// owns the model and the GPU; this client only ships audio and the
// RecognitionConfig parameters, and hands raw JSON back to the normalizer.
type Provider struct {
	cfg    engine.Config
	client *http.Client
	logger *logging.Logger
}

// New constructs the provider and verifies the runtime is reachable. A failed
// health check means the engine is unavailable and the task must not start.
func New(cfg engine.Config, logger *logging.Logger) (*Provider, error) {
	p := &Provider{
		cfg: cfg,
		// Recognition of a long window on CPU can be slow; no request
		// timeout here, cancellation comes from the caller's context.
		client: &http.Client{},
		logger: logger,
	}
	if err := p.healthCheck(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine runtime unreachable at %s: %w", p.cfg.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine runtime health check: status %d", resp.StatusCode)
	}
	return nil
}

// formParams carries the recognition parameters every request includes.
func (p *Provider) formParams() map[string]string {
	return map[string]string{
		"model":                   p.cfg.Model,
		"device":                  p.cfg.Device,
		"language":                "auto",
		"use_itn":                 strconv.FormatBool(p.cfg.UseITN),
		"batch_size_s":            strconv.Itoa(p.cfg.BatchSizeS),
		"merge_vad":               strconv.FormatBool(p.cfg.MergeVAD),
		"merge_length_s":          strconv.Itoa(p.cfg.MergeLengthS),
		"max_single_segment_time": strconv.Itoa(p.cfg.VADMaxSegmentMS),
	}
}

func (p *Provider) postMultipart(ctx context.Context, endpoint string, paths []string) (any, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("open slice %s: %w", path, err)
		}
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		file.Close()
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("attach slice %s: %w", path, err)
		}
	}
	for key, value := range p.formParams() {
		if err := writer.WriteField(key, value); err != nil {
			writer.Close()
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return p.do(req)
}

func (p *Provider) do(req *http.Request) (any, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, truncate(data, 200))
	}

	// The payload shape is not guaranteed; decode into a generic value and
	// let the normalizer sort it out.
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		// Some runtimes answer with plain text.
		return string(data), nil
	}
	return raw, nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

func (p *Provider) RecognizeFile(ctx context.Context, path string) (any, error) {
	return p.postMultipart(ctx, "/recognize", []string{path})
}

// RecognizeBatch submits all slices in a single request. If the runtime does
// not answer with one entry per slice, the whole payload is returned as a
// single entry and the caller pads the remainder.
func (p *Provider) RecognizeBatch(ctx context.Context, paths []string) ([]any, error) {
	raw, err := p.postMultipart(ctx, "/recognize", paths)
	if err != nil {
		return nil, err
	}
	if list, ok := raw.([]any); ok {
		return list, nil
	}
	return []any{raw}, nil
}

func (p *Provider) RecognizeSamples(ctx context.Context, samples []float32) (any, error) {
	payload := map[string]any{
		"samples":     samples,
		"sample_rate": 16000,
	}
	for key, value := range p.formParams() {
		payload[key] = value
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/recognize_samples", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req)
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
