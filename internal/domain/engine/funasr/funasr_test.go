package funasr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mediascribe-server-go/internal/domain/engine"
)

func testConfig(baseURL string) engine.Config {
	return engine.Config{
		Provider:        "funasr",
		BaseURL:         baseURL,
		Model:           "iic/SenseVoiceSmall",
		Device:          "cpu",
		BatchSizeS:      30,
		MergeVAD:        true,
		MergeLengthS:    5,
		UseITN:          true,
		VADMaxSegmentMS: 6000000,
	}
}

func TestNewFailsWhenRuntimeUnreachable(t *testing.T) {
	if _, err := New(testConfig("http://127.0.0.1:1"), nil); err == nil {
		t.Fatal("expected health check failure")
	}
}

func TestRecognizeSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/recognize_samples":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"text":"<|zh|>hello"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer p.Close()

	raw, err := p.RecognizeSamples(context.Background(), []float32{0, 0.5, -0.5})
	if err != nil {
		t.Fatalf("RecognizeSamples error: %v", err)
	}
	if got := engine.Normalize(raw); got != "<|zh|>hello" {
		t.Errorf("normalized = %q", got)
	}
}

func TestRecognizeBatchShapes(t *testing.T) {
	var response string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("use_itn"); got != "true" {
			t.Errorf("use_itn = %q, want true", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer p.Close()

	dir := t.TempDir()
	paths := make([]string, 2)
	for i := range paths {
		paths[i] = filepath.Join(dir, "slice.wav")
		if err := os.WriteFile(paths[i], []byte("RIFF"), 0o644); err != nil {
			t.Fatalf("write slice: %v", err)
		}
	}

	response = `[{"text":"a"},{"text":"b"}]`
	results, err := p.RecognizeBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("RecognizeBatch error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	// A non-list answer is wrapped as a single entry.
	response = `{"text":"combined"}`
	results, err = p.RecognizeBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("RecognizeBatch error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestNonJSONAnswerBecomesString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte("plain transcript"))
	}))
	defer srv.Close()

	p, err := New(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer p.Close()

	raw, err := p.RecognizeSamples(context.Background(), []float32{0})
	if err != nil {
		t.Fatalf("RecognizeSamples error: %v", err)
	}
	if got := engine.Normalize(raw); got != "plain transcript" {
		t.Errorf("normalized = %q", got)
	}
}
