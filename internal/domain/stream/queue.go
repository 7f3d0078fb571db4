package stream

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// SampleRate is the canonical decode rate; every chunk carries mono
	// 16 kHz signed 16-bit samples.
	SampleRate     = 16000
	BytesPerSample = 2

	// DefaultChunkSeconds is the audio span of one queue chunk.
	DefaultChunkSeconds = 120
	// DefaultQueueCapacity bounds producer lead over the consumer.
	DefaultQueueCapacity = 5

	pushTimeout = time.Second
	popTimeout  = time.Second
)

// Queue is the bounded hand-off between the decode producer and the
// recognition consumer. When the consumer falls behind for longer than the
// push timeout, the offered chunk is dropped and counted rather than stalling
// the decoder. Close marks the end of the stream and may only be called by
// the producer, after its final Push.
type Queue struct {
	ch        chan []byte
	dropped   atomic.Int64
	closeOnce sync.Once
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan []byte, capacity)}
}

// Push offers a chunk, waiting at most timeout for queue space. It reports
// whether the chunk was accepted; a rejected chunk is lost.
func (q *Queue) Push(chunk []byte, timeout time.Duration) bool {
	select {
	case q.ch <- chunk:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- chunk:
		return true
	case <-timer.C:
		q.dropped.Add(1)
		return false
	}
}

// Pop waits up to timeout for the next chunk. done reports that the producer
// closed the queue and no more chunks will arrive; a nil chunk with done
// false means the wait timed out and the caller should poll again.
func (q *Queue) Pop(timeout time.Duration) (chunk []byte, done bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case chunk, open := <-q.ch:
		if !open {
			return nil, true
		}
		return chunk, false
	case <-timer.C:
		return nil, false
	}
}

// Close signals end of stream. Unlike Push it cannot be lost or delayed, so
// the consumer always terminates.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}

// Len returns the number of buffered chunks.
func (q *Queue) Len() int { return len(q.ch) }

// Dropped returns how many chunks were rejected for lack of space.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }
