package stream

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Status is a stream's lifecycle state. processing is the only non-terminal
// state; a session transitions out of it exactly once.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusStopped    Status = "stopped"
	StatusFailed     Status = "failed"
)

// Session is one live or finished streaming run. Recognized text accumulates
// per chunk, in arrival order.
type Session struct {
	ID     string
	Source string

	mu               sync.Mutex
	status           Status
	parts            []string
	chunks           int
	processedSeconds float64
	errMsg           string
	createdAt        time.Time
	updatedAt        time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	endOnce sync.Once
	stopReq atomic.Bool
}

// Snapshot is the external, immutable view of a session.
type Snapshot struct {
	ID               string    `json:"stream_id"`
	Source           string    `json:"source"`
	Status           Status    `json:"status"`
	Chunks           int       `json:"chunks"`
	Fragments        int       `json:"fragments_count"`
	ProcessedSeconds float64   `json:"processed_seconds"`
	Text             string    `json:"text"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newSession(id, source string, cancel context.CancelFunc) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Source:    source,
		status:    StatusProcessing,
		cancel:    cancel,
		done:      make(chan struct{}),
		createdAt: now,
		updatedAt: now,
	}
}

// nextChunk accounts for one consumed chunk and returns its index.
func (s *Session) nextChunk(seconds float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.chunks
	s.chunks++
	s.processedSeconds += seconds
	s.updatedAt = time.Now()
	return index
}

// addPart appends recognized text and returns the accumulated transcript.
func (s *Session) addPart(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = append(s.parts, text)
	s.updatedAt = time.Now()
	return strings.Join(s.parts, " ")
}

// Text returns the transcript accumulated so far.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.parts, " ")
}

// ProcessedSeconds returns the audio time consumed so far.
func (s *Session) ProcessedSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processedSeconds
}

// markStopRequested records that cancellation came from an explicit stop, so
// the terminal status becomes stopped rather than failed or completed.
func (s *Session) markStopRequested() { s.stopReq.Store(true) }

func (s *Session) stopRequested() bool { return s.stopReq.Load() }

// finish moves the session to a terminal status. Only the first call wins;
// it reports whether this call performed the transition.
func (s *Session) finish(status Status, errMsg string) bool {
	transitioned := false
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.status = status
		s.errMsg = errMsg
		s.updatedAt = time.Now()
		s.mu.Unlock()
		transitioned = true
	})
	return transitioned
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:               s.ID,
		Source:           s.Source,
		Status:           s.status,
		Chunks:           s.chunks,
		Fragments:        len(s.parts),
		ProcessedSeconds: s.processedSeconds,
		Text:             strings.Join(s.parts, " "),
		Error:            s.errMsg,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

// Done is closed when the session's pipeline goroutines have exited.
func (s *Session) Done() <-chan struct{} { return s.done }
