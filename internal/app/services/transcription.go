package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"mediascribe-server-go/internal/domain/media"
	"mediascribe-server-go/internal/domain/stream"
	"mediascribe-server-go/internal/domain/transcribe"
	"mediascribe-server-go/internal/domain/transcript/model"
	"mediascribe-server-go/internal/domain/transcript/store"
	"mediascribe-server-go/internal/domain/translate"
	"mediascribe-server-go/internal/platform/logging"
)

// Transcription coordinates the batch and streaming pipelines, persists
// finished transcripts and exposes translation.
type Transcription struct {
	ffmpeg     *media.FFmpeg
	batch      *transcribe.BatchPipeline
	orch       *stream.Orchestrator
	transcript store.Store
	translator translate.Translator
	bus        evbus.Bus
	tempDir    string
	segmentMin int
	logger     *logging.Logger
}

// Deps carries the constructed domain components. Translator may be nil when
// no translation provider is reachable; the translate operations then fail
// with a clear error while transcription keeps working.
type Deps struct {
	FFmpeg     *media.FFmpeg
	Batch      *transcribe.BatchPipeline
	Orch       *stream.Orchestrator
	Transcript store.Store
	Translator translate.Translator
	Bus        evbus.Bus
	TempDir    string
	// SegmentMinutes is the window used when a request does not choose one.
	SegmentMinutes int
	Logger         *logging.Logger
}

func NewTranscription(deps Deps) (*Transcription, error) {
	if deps.FFmpeg == nil || deps.Batch == nil || deps.Orch == nil || deps.Transcript == nil {
		return nil, fmt.Errorf("transcription service missing required dependencies")
	}
	s := &Transcription{
		ffmpeg:     deps.FFmpeg,
		batch:      deps.Batch,
		orch:       deps.Orch,
		transcript: deps.Transcript,
		translator: deps.Translator,
		bus:        deps.Bus,
		tempDir:    deps.TempDir,
		segmentMin: deps.SegmentMinutes,
		logger:     deps.Logger,
	}
	if s.segmentMin <= 0 {
		s.segmentMin = 5
	}
	if s.bus != nil {
		if err := s.bus.SubscribeAsync(stream.TopicStreamEnd, s.onStreamEnd, false); err != nil {
			return nil, fmt.Errorf("subscribe stream end: %w", err)
		}
	}
	return s, nil
}

// onStreamEnd persists the finished stream so its transcript survives
// registry cleanup.
func (s *Transcription) onStreamEnd(evt stream.Event) {
	snap, ok := s.orch.Status(evt.StreamID)
	if !ok {
		return
	}
	now := time.Now()
	rec := model.Record{
		TaskID:          snap.ID,
		Source:          snap.Source,
		Mode:            model.ModeStream,
		Status:          string(snap.Status),
		Text:            snap.Text,
		DurationSeconds: snap.ProcessedSeconds,
		CreatedAt:       snap.CreatedAt,
		FinishedAt:      &now,
	}
	if snap.Error != "" {
		rec.Metadata = map[string]any{"error": snap.Error}
	}
	if err := s.transcript.Save(context.Background(), rec); err != nil {
		s.logger.WarnTag("STORE", "persist stream %s failed: %v", snap.ID, err)
	}
}

// StartStream begins streaming recognition of a media source.
func (s *Transcription) StartStream(source string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("source not accessible: %w", err)
	}
	return s.orch.Start(source)
}

func (s *Transcription) StopStream(id string) { s.orch.Stop(id) }

func (s *Transcription) StreamStatus(id string) (stream.Snapshot, bool) { return s.orch.Status(id) }

func (s *Transcription) StreamResult(id string) (stream.Snapshot, bool) { return s.orch.Result(id) }

func (s *Transcription) RemoveStream(id string) bool { return s.orch.Remove(id) }

func (s *Transcription) ListStreams() []stream.Snapshot { return s.orch.List() }

// TranscribeFile runs the batch pipeline over a media file and persists the
// result. The source is first decoded to a canonical wav; the intermediate
// file never outlives the call.
func (s *Transcription) TranscribeFile(ctx context.Context, source string, segmentMinutes int) (model.Record, error) {
	if _, err := os.Stat(source); err != nil {
		return model.Record{}, fmt.Errorf("source not accessible: %w", err)
	}
	if segmentMinutes <= 0 {
		segmentMinutes = s.segmentMin
	}

	wavPath := filepath.Join(s.tempDir, fmt.Sprintf("extract_%s.wav", uuid.NewString()))
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return model.Record{}, err
	}
	if err := s.ffmpeg.ExtractAudio(ctx, source, wavPath); err != nil {
		return model.Record{}, err
	}
	defer os.Remove(wavPath)

	started := time.Now()
	result, err := s.batch.Run(ctx, wavPath, segmentMinutes)
	if err != nil {
		return model.Record{}, err
	}

	fragments := make([]model.Fragment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		fragments = append(fragments, model.Fragment{
			Index: seg.Index,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	now := time.Now()
	rec := model.Record{
		TaskID:          uuid.NewString(),
		Source:          source,
		Mode:            model.ModeBatch,
		Status:          "completed",
		Text:            result.JoinedText,
		Fragments:       fragments,
		DurationSeconds: result.SpeechSeconds,
		CreatedAt:       started,
		FinishedAt:      &now,
	}
	if err := s.transcript.Save(ctx, rec); err != nil {
		s.logger.WarnTag("STORE", "persist batch result failed: %v", err)
	}
	return rec, nil
}

// GetTranscript fetches a persisted transcript by task id.
func (s *Transcription) GetTranscript(ctx context.Context, taskID string) (model.Record, error) {
	return s.transcript.Get(ctx, taskID)
}

// TranslateText translates free text with the configured provider.
func (s *Transcription) TranslateText(ctx context.Context, text string) (string, error) {
	if s.translator == nil {
		return "", fmt.Errorf("no translation provider configured")
	}
	return s.translator.Translate(ctx, text)
}

// TranslateFragments translates a transcript fragment list in place order.
func (s *Transcription) TranslateFragments(ctx context.Context, fragments []model.Fragment) ([]model.Fragment, error) {
	if s.translator == nil {
		return nil, fmt.Errorf("no translation provider configured")
	}
	return translate.Fragments(ctx, s.translator, fragments)
}

// Close releases the service's bus subscription and stops running streams.
func (s *Transcription) Close() {
	if s.bus != nil {
		_ = s.bus.Unsubscribe(stream.TopicStreamEnd, s.onStreamEnd)
	}
	s.orch.Clear()
}
