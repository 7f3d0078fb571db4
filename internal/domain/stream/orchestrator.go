package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediascribe-server-go/internal/domain/engine"
	"mediascribe-server-go/internal/platform/logging"
)

// Decoder opens a continuous decoded sample stream for a media source.
type Decoder interface {
	OpenPCMStream(ctx context.Context, src string) (io.ReadCloser, error)
}

// Options tunes a stream pipeline; zero values take the package defaults.
type Options struct {
	ChunkSeconds  int
	QueueCapacity int
}

// stopWait bounds how long Stop waits for the pipeline goroutines to exit.
const stopWait = 5 * time.Second

// Orchestrator owns the registry of streaming sessions and runs one
// producer/consumer pair per session.
type Orchestrator struct {
	decoder Decoder
	eng     engine.Engine
	sink    Sink
	opts    Options
	logger  *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewOrchestrator(decoder Decoder, eng engine.Engine, sink Sink, opts Options, logger *logging.Logger) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	return &Orchestrator{
		decoder:  decoder,
		eng:      eng,
		sink:     sink,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start begins streaming recognition of source and returns the stream id.
// The pipeline runs until the source is exhausted, Stop is called, or
// decoding fails.
func (o *Orchestrator) Start(source string) (string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(uuid.NewString(), source, cancel)

	o.mu.Lock()
	o.sessions[sess.ID] = sess
	o.mu.Unlock()

	o.logger.InfoTag("STREAM", "stream %s started: %s", sess.ID, source)
	o.sink.StreamCreated(sess.ID, source)

	queue := NewQueue(o.opts.QueueCapacity)
	producer := NewProducer(queue, func(ctx context.Context) (io.ReadCloser, error) {
		return o.decoder.OpenPCMStream(ctx, source)
	}, o.opts.ChunkSeconds, o.logger)
	consumer := NewConsumer(queue, o.eng, o.sink, o.logger)

	go func() {
		defer close(sess.done)

		var produceErr error
		prodDone := make(chan struct{})
		go func() {
			defer close(prodDone)
			produceErr = producer.Run(ctx)
		}()

		consumer.Run(ctx, sess)
		cancel()
		<-prodDone
		o.finalize(sess, produceErr)
	}()

	return sess.ID, nil
}

func (o *Orchestrator) finalize(sess *Session, produceErr error) {
	status := StatusCompleted
	var errMsg string
	switch {
	case produceErr != nil && !errors.Is(produceErr, context.Canceled):
		status = StatusFailed
		errMsg = produceErr.Error()
	case sess.stopRequested():
		status = StatusStopped
	}
	if sess.finish(status, errMsg) {
		o.sink.StreamEnd(sess.ID, status, sess.Text())
		o.logger.InfoTag("STREAM", "stream %s ended: %s", sess.ID, status)
	}
}

// Stop cancels a running stream and waits briefly for its pipeline to wind
// down. Stopping an unknown or already-finished stream is a no-op.
func (o *Orchestrator) Stop(id string) {
	o.mu.Lock()
	sess := o.sessions[id]
	o.mu.Unlock()
	if sess == nil {
		return
	}

	sess.markStopRequested()
	sess.cancel()
	select {
	case <-sess.done:
	case <-time.After(stopWait):
		o.logger.WarnTag("STREAM", "stream %s slow to stop", id)
	}
}

// Status returns the current snapshot of a stream.
func (o *Orchestrator) Status(id string) (Snapshot, bool) {
	o.mu.Lock()
	sess := o.sessions[id]
	o.mu.Unlock()
	if sess == nil {
		return Snapshot{}, false
	}
	return sess.Snapshot(), true
}

// Result returns the transcript accumulated so far. A live stream yields its
// partial text, so callers may poll while recognition runs; ok is false only
// for unknown ids.
func (o *Orchestrator) Result(id string) (Snapshot, bool) {
	return o.Status(id)
}

// List returns snapshots of every registered session.
func (o *Orchestrator) List() []Snapshot {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		sessions = append(sessions, sess)
	}
	o.mu.Unlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		snaps = append(snaps, sess.Snapshot())
	}
	return snaps
}

// Remove stops a stream if needed and deletes it from the registry.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	sess := o.sessions[id]
	o.mu.Unlock()
	if sess == nil {
		return false
	}

	o.Stop(id)
	o.mu.Lock()
	delete(o.sessions, id)
	o.mu.Unlock()
	return true
}

// Clear stops every stream and empties the registry.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	for _, id := range ids {
		o.Remove(id)
	}
}

// Wait blocks until the stream's pipeline has exited; it returns immediately
// for unknown ids.
func (o *Orchestrator) Wait(id string) {
	o.mu.Lock()
	sess := o.sessions[id]
	o.mu.Unlock()
	if sess == nil {
		return
	}
	<-sess.done
}
