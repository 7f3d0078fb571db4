package stream

import (
	"context"

	"mediascribe-server-go/internal/domain/engine"
	"mediascribe-server-go/internal/platform/logging"
)

// Consumer drains the queue and recognizes each chunk. One chunk failing
// never ends the stream; the failure is reported and the next chunk is
// processed.
type Consumer struct {
	queue  *Queue
	eng    engine.Engine
	sink   Sink
	logger *logging.Logger
}

func NewConsumer(queue *Queue, eng engine.Engine, sink Sink, logger *logging.Logger) *Consumer {
	return &Consumer{queue: queue, eng: eng, sink: sink, logger: logger}
}

// Run processes chunks until the queue is closed or ctx is canceled.
func (c *Consumer) Run(ctx context.Context, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, done := c.queue.Pop(popTimeout)
		if done {
			return
		}
		if chunk == nil {
			continue
		}
		c.process(ctx, sess, chunk)
	}
}

func (c *Consumer) process(ctx context.Context, sess *Session, chunk []byte) {
	samples := SamplesFromPCM(chunk)
	seconds := float64(len(samples)) / SampleRate
	index := sess.nextChunk(seconds)

	raw, err := c.eng.RecognizeSamples(ctx, samples)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.WarnTag("STREAM", "chunk %d of %s failed: %v", index, sess.ID, err)
		c.sink.StreamError(sess.ID, index, err)
		c.sink.Progress(sess.ID, sess.ProcessedSeconds())
		return
	}

	text := engine.StripMarkup(engine.Normalize(raw))
	if text != "" {
		accumulated := sess.addPart(text)
		c.sink.Partial(sess.ID, index, text, accumulated)
	}
	c.sink.Progress(sess.ID, sess.ProcessedSeconds())
}
