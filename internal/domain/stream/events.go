package stream

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Event topics published on the shared bus. The websocket bridge relays them
// to connected clients verbatim.
const (
	TopicStreamCreated = "stream.created"
	TopicPartial       = "stream.partial"
	TopicProgress      = "stream.progress"
	TopicStreamEnd     = "stream.end"
	TopicStreamError   = "stream.error"
)

// Event is the payload for every stream topic; unused fields stay zero.
type Event struct {
	StreamID         string    `json:"stream_id"`
	Source           string    `json:"source,omitempty"`
	ChunkIndex       int       `json:"chunk_index,omitempty"`
	Text             string    `json:"text,omitempty"`
	Accumulated      string    `json:"accumulated,omitempty"`
	ProcessedSeconds float64   `json:"processed_seconds,omitempty"`
	Status           Status    `json:"status,omitempty"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Sink receives stream lifecycle notifications. Implementations must be safe
// for concurrent use; calls may come from consumer goroutines.
type Sink interface {
	StreamCreated(id, source string)
	Partial(id string, chunkIndex int, text, accumulated string)
	Progress(id string, processedSeconds float64)
	StreamEnd(id string, status Status, finalText string)
	StreamError(id string, chunkIndex int, err error)
}

// BusSink publishes events on an event bus.
type BusSink struct {
	bus evbus.Bus
}

func NewBusSink(bus evbus.Bus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) StreamCreated(id, source string) {
	s.bus.Publish(TopicStreamCreated, Event{StreamID: id, Source: source, Timestamp: time.Now()})
}

func (s *BusSink) Partial(id string, chunkIndex int, text, accumulated string) {
	s.bus.Publish(TopicPartial, Event{
		StreamID:    id,
		ChunkIndex:  chunkIndex,
		Text:        text,
		Accumulated: accumulated,
		Timestamp:   time.Now(),
	})
}

func (s *BusSink) Progress(id string, processedSeconds float64) {
	s.bus.Publish(TopicProgress, Event{
		StreamID:         id,
		ProcessedSeconds: processedSeconds,
		Timestamp:        time.Now(),
	})
}

func (s *BusSink) StreamEnd(id string, status Status, finalText string) {
	s.bus.Publish(TopicStreamEnd, Event{
		StreamID:  id,
		Status:    status,
		Text:      finalText,
		Timestamp: time.Now(),
	})
}

func (s *BusSink) StreamError(id string, chunkIndex int, err error) {
	s.bus.Publish(TopicStreamError, Event{
		StreamID:   id,
		ChunkIndex: chunkIndex,
		Error:      err.Error(),
		Timestamp:  time.Now(),
	})
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) StreamCreated(string, string)        {}
func (NopSink) Partial(string, int, string, string) {}
func (NopSink) Progress(string, float64)            {}
func (NopSink) StreamEnd(string, Status, string)    {}
func (NopSink) StreamError(string, int, error)      {}
