package stream

import (
	"context"
	"io"

	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

// OpenFunc opens the decoded sample stream for a source.
type OpenFunc func(ctx context.Context) (io.ReadCloser, error)

// Producer reads the decoded byte stream in fixed-size chunks and enqueues
// them. It never blocks indefinitely on a slow consumer: a chunk that cannot
// be queued within the push timeout is dropped.
type Producer struct {
	queue      *Queue
	open       OpenFunc
	chunkBytes int
	logger     *logging.Logger
}

func NewProducer(queue *Queue, open OpenFunc, chunkSeconds int, logger *logging.Logger) *Producer {
	if chunkSeconds <= 0 {
		chunkSeconds = DefaultChunkSeconds
	}
	return &Producer{
		queue:      queue,
		open:       open,
		chunkBytes: chunkSeconds * SampleRate * BytesPerSample,
		logger:     logger,
	}
}

// Run decodes and enqueues chunks until the source is exhausted or ctx is
// canceled. The queue is closed on every exit path, so the consumer always
// terminates.
func (p *Producer) Run(ctx context.Context) error {
	defer p.queue.Close()

	src, err := p.open(ctx)
	if err != nil {
		return errors.Wrap(errors.KindDecode, "produce", "open decoded stream", err)
	}
	defer src.Close()

	for index := 0; ; {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		buf := make([]byte, p.chunkBytes)
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if !p.queue.Push(buf[:n], pushTimeout) {
				p.logger.WarnTag("STREAM", "queue full, dropped chunk %d (%d bytes)", index, n)
			}
			index++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			p.logger.DebugTag("STREAM", "source exhausted after %d chunks", index)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(errors.KindStream, "produce", "read decoded samples", err)
		}
	}
}
