package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"mediascribe-server-go/internal/domain/engine"
)

// fakeDecoder serves a fixed byte payload as the decoded stream.
type fakeDecoder struct {
	data []byte
	err  error
}

func (d fakeDecoder) OpenPCMStream(context.Context, string) (io.ReadCloser, error) {
	if d.err != nil {
		return nil, d.err
	}
	return io.NopCloser(bytes.NewReader(d.data)), nil
}

// slowDecoder trickles chunks forever until the reader is closed.
type slowDecoder struct{}

type slowReader struct {
	closed chan struct{}
	once   sync.Once
}

func (r *slowReader) Read(p []byte) (int, error) {
	select {
	case <-r.closed:
		return 0, io.EOF
	case <-time.After(5 * time.Millisecond):
	}
	for i := range p {
		p[i] = 1
	}
	return len(p), nil
}

func (r *slowReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func (slowDecoder) OpenPCMStream(context.Context, string) (io.ReadCloser, error) {
	return &slowReader{closed: make(chan struct{})}, nil
}

// recordingSink captures events for assertions.
type recordingSink struct {
	mu       sync.Mutex
	created  int
	partials []string
	ends     []Status
	errors   int
}

func (s *recordingSink) StreamCreated(string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
}

func (s *recordingSink) Partial(_ string, _ int, text, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partials = append(s.partials, text)
}

func (s *recordingSink) Progress(string, float64) {}

func (s *recordingSink) StreamEnd(_ string, status Status, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends = append(s.ends, status)
}

func (s *recordingSink) StreamError(string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *recordingSink) snapshot() (int, []string, []Status, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, append([]string(nil), s.partials...), append([]Status(nil), s.ends...), s.errors
}

// pcmSeconds builds a silent payload of the given length.
func pcmSeconds(seconds float64) []byte {
	return make([]byte, int(seconds*SampleRate*BytesPerSample))
}

// countingEngine labels each chunk by arrival order.
func countingEngine() *engine.Stub {
	var mu sync.Mutex
	n := 0
	return &engine.Stub{
		SamplesFunc: func([]float32) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			return map[string]any{"text": fmt.Sprintf("part%d", n)}, nil
		},
	}
}

func testOptions() Options {
	return Options{ChunkSeconds: 1, QueueCapacity: 5}
}

func TestStreamCompletes(t *testing.T) {
	sink := &recordingSink{}
	// 3.5s of audio in 1s chunks: three full chunks plus a partial tail.
	o := NewOrchestrator(fakeDecoder{data: pcmSeconds(3.5)}, countingEngine(), sink, testOptions(), nil)

	id, err := o.Start("clip.mp4")
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	o.Wait(id)

	snap, ok := o.Status(id)
	if !ok {
		t.Fatal("status missing")
	}
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", snap.Status)
	}
	if snap.Chunks != 4 {
		t.Errorf("chunks = %d, want 4", snap.Chunks)
	}
	if want := "part1 part2 part3 part4"; snap.Text != want {
		t.Errorf("text = %q, want %q", snap.Text, want)
	}
	if snap.ProcessedSeconds < 3.4 || snap.ProcessedSeconds > 3.6 {
		t.Errorf("processed = %v, want ~3.5", snap.ProcessedSeconds)
	}

	created, partials, ends, _ := sink.snapshot()
	if created != 1 {
		t.Errorf("created events = %d, want 1", created)
	}
	if len(partials) != 4 {
		t.Errorf("partial events = %d, want 4", len(partials))
	}
	if len(ends) != 1 || ends[0] != StatusCompleted {
		t.Errorf("end events = %v, want exactly one completed", ends)
	}
}

func TestStreamChunkFailureIsIsolated(t *testing.T) {
	var mu sync.Mutex
	n := 0
	eng := &engine.Stub{
		SamplesFunc: func([]float32) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			if n == 2 {
				return nil, fmt.Errorf("recognizer glitch")
			}
			return map[string]any{"text": fmt.Sprintf("part%d", n)}, nil
		},
	}
	sink := &recordingSink{}
	o := NewOrchestrator(fakeDecoder{data: pcmSeconds(3)}, eng, sink, testOptions(), nil)

	id, _ := o.Start("clip.mp4")
	o.Wait(id)

	snap, _ := o.Status(id)
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", snap.Status)
	}
	if want := "part1 part3"; snap.Text != want {
		t.Errorf("text = %q, want %q", snap.Text, want)
	}
	// All three chunks were consumed, but only two produced fragments.
	if snap.Chunks != 3 {
		t.Errorf("chunks = %d, want 3", snap.Chunks)
	}
	if snap.Fragments != 2 {
		t.Errorf("fragments = %d, want 2", snap.Fragments)
	}
	if _, _, _, errs := sink.snapshot(); errs != 1 {
		t.Errorf("error events = %d, want 1", errs)
	}
}

func TestStreamMarkupStrippedFromPartials(t *testing.T) {
	eng := &engine.Stub{
		SamplesFunc: func([]float32) (any, error) {
			return map[string]any{"text": "<|en|><|HAPPY|>hello there"}, nil
		},
	}
	o := NewOrchestrator(fakeDecoder{data: pcmSeconds(1)}, eng, NopSink{}, testOptions(), nil)

	id, _ := o.Start("clip.mp4")
	o.Wait(id)

	snap, _ := o.Status(id)
	if snap.Text != "hello there" {
		t.Errorf("text = %q, want %q", snap.Text, "hello there")
	}
}

func TestStreamStop(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(slowDecoder{}, countingEngine(), sink, testOptions(), nil)

	id, err := o.Start("endless.mp4")
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	o.Stop(id)

	snap, ok := o.Status(id)
	if !ok {
		t.Fatal("status missing after stop")
	}
	if snap.Status != StatusStopped {
		t.Fatalf("status = %s, want stopped", snap.Status)
	}

	// Repeated stop keeps the same terminal state and emits nothing extra.
	o.Stop(id)
	_, _, ends, _ := sink.snapshot()
	if len(ends) != 1 || ends[0] != StatusStopped {
		t.Errorf("end events = %v, want exactly one stopped", ends)
	}
}

func TestStopUnknownStreamIsNoop(t *testing.T) {
	o := NewOrchestrator(fakeDecoder{}, &engine.Stub{}, NopSink{}, testOptions(), nil)
	o.Stop("no-such-stream")
}

func TestStreamDecodeFailure(t *testing.T) {
	sink := &recordingSink{}
	o := NewOrchestrator(fakeDecoder{err: fmt.Errorf("codec not found")}, countingEngine(), sink, testOptions(), nil)

	id, _ := o.Start("broken.mp4")
	o.Wait(id)

	snap, _ := o.Status(id)
	if snap.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if !strings.Contains(snap.Error, "codec not found") {
		t.Errorf("error = %q, want decode cause", snap.Error)
	}
}

func TestResultReturnsPartialTextMidStream(t *testing.T) {
	o := NewOrchestrator(slowDecoder{}, countingEngine(), NopSink{}, testOptions(), nil)

	id, _ := o.Start("endless.mp4")
	defer o.Stop(id)

	// Pollers must see the transcript grow while recognition is running.
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap, ok := o.Result(id)
		if !ok {
			t.Fatal("result missing for live stream")
		}
		if snap.Text != "" {
			if snap.Status != StatusProcessing {
				t.Fatalf("status = %s, want processing", snap.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no partial text accumulated")
		}
		time.Sleep(5 * time.Millisecond)
	}

	o.Stop(id)
	if snap, ok := o.Result(id); !ok || snap.Status != StatusStopped {
		t.Errorf("result after stop = (%+v, %v)", snap, ok)
	}
	if _, ok := o.Result("no-such-stream"); ok {
		t.Error("result for unknown id")
	}
}

func TestRemoveAndClear(t *testing.T) {
	o := NewOrchestrator(fakeDecoder{data: pcmSeconds(1)}, countingEngine(), NopSink{}, testOptions(), nil)

	id, _ := o.Start("clip.mp4")
	o.Wait(id)
	if !o.Remove(id) {
		t.Fatal("Remove returned false for known id")
	}
	if _, ok := o.Status(id); ok {
		t.Fatal("status still present after Remove")
	}
	if o.Remove(id) {
		t.Fatal("Remove returned true for deleted id")
	}

	a, _ := o.Start("a.mp4")
	b, _ := o.Start("b.mp4")
	o.Wait(a)
	o.Wait(b)
	if got := len(o.List()); got != 2 {
		t.Fatalf("list = %d sessions, want 2", got)
	}
	o.Clear()
	if got := len(o.List()); got != 0 {
		t.Errorf("list after clear = %d sessions, want 0", got)
	}
}
