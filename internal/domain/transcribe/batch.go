package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mediascribe-server-go/internal/domain/engine"
	"mediascribe-server-go/internal/platform/logging"
)

// Prober reports a file's audio duration.
type Prober interface {
	Duration(path string) (float64, error)
}

// Slicer cuts a time-bounded slice of an audio file into the canonical
// sample format. durationSeconds of 0 means "to the end of the file".
type Slicer interface {
	Slice(ctx context.Context, src string, startSeconds, durationSeconds float64, dst string) error
}

// SegmentText is one segment's recognized text. Source keeps the slice path
// (or the input path for the synthetic whole-file segment).
type SegmentText struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Text   string  `json:"text"`
}

// BatchResult is immutable after Run returns.
type BatchResult struct {
	TotalSegments int           `json:"total_segments"`
	Segments      []SegmentText `json:"segments"`
	JoinedText    string        `json:"joined_text"`
	SpeechSeconds float64       `json:"speech_seconds"`
}

// maxConcurrentSlices bounds parallel ffmpeg slice processes.
const maxConcurrentSlices = 4

// BatchPipeline produces one final transcript per audio file: plan fixed
// windows, cut a slice per window, submit all slices to the engine in one
// batch, normalize each result, join. A failing segment contributes an empty
// string; only a failure to produce any slice at all aborts the run.
type BatchPipeline struct {
	prober  Prober
	slicer  Slicer
	eng     engine.Engine
	logger  *logging.Logger
	tempDir string
}

func NewBatchPipeline(prober Prober, slicer Slicer, eng engine.Engine, tempDir string, logger *logging.Logger) *BatchPipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &BatchPipeline{prober: prober, slicer: slicer, eng: eng, logger: logger, tempDir: tempDir}
}

// Run transcribes the decoded audio file at audioPath using windows of
// segmentMinutes.
func (p *BatchPipeline) Run(ctx context.Context, audioPath string, segmentMinutes int) (*BatchResult, error) {
	segments := p.plan(audioPath, segmentMinutes)
	return p.RunSegments(ctx, audioPath, segments)
}

// plan probes the duration and divides it; an unprobeable file degrades to
// the synthetic whole-file segment so downstream code never special-cases
// unknown duration.
func (p *BatchPipeline) plan(audioPath string, segmentMinutes int) []Segment {
	duration, err := p.prober.Duration(audioPath)
	if err != nil || duration <= 0 {
		p.logger.WarnTag("ASR", "duration unknown for %s, running single whole-file pass", audioPath)
		return []Segment{SyntheticWholeFile()}
	}
	segments := Plan(duration, segmentMinutes)
	if len(segments) == 0 {
		return []Segment{SyntheticWholeFile()}
	}
	p.logger.InfoTag("ASR", "planned %d segments over %.1fs", len(segments), duration)
	return segments
}

// RunSegments executes the batch over an explicit plan.
func (p *BatchPipeline) RunSegments(ctx context.Context, audioPath string, segments []Segment) (*BatchResult, error) {
	if len(segments) == 0 {
		segments = []Segment{SyntheticWholeFile()}
	}

	workDir, err := os.MkdirTemp(p.tempDir, "segments-")
	if err != nil {
		return nil, fmt.Errorf("create slice dir: %w", err)
	}
	// Scoped cleanup: slices never outlive the run, error paths included.
	defer os.RemoveAll(workDir)

	slicePaths := make([]string, len(segments))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentSlices)
	for i, seg := range segments {
		i, seg := i, seg
		group.Go(func() error {
			dst := filepath.Join(workDir, fmt.Sprintf("segment_%04d.wav", seg.Index))
			if err := p.slicer.Slice(groupCtx, audioPath, seg.StartTime, seg.Duration, dst); err != nil {
				// Isolated: the segment contributes empty text below.
				p.logger.WarnTag("ASR", "slice %d failed: %v", seg.Index, err)
				return nil
			}
			slicePaths[i] = dst
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	texts := p.recognize(ctx, slicePaths)

	result := &BatchResult{
		TotalSegments: len(segments),
		Segments:      make([]SegmentText, len(segments)),
	}
	var joined []string
	for i, seg := range segments {
		source := slicePaths[i]
		if source == "" {
			source = audioPath
		}
		text := engine.StripMarkup(texts[i])
		result.Segments[i] = SegmentText{
			Source: source,
			Index:  seg.Index,
			Start:  seg.StartTime,
			End:    seg.EndTime,
			Text:   text,
		}
		result.SpeechSeconds += seg.Duration
		if text != "" {
			joined = append(joined, text)
		}
	}
	result.JoinedText = strings.Join(joined, " ")
	if result.JoinedText == "" {
		p.logger.WarnTag("ASR", "batch produced no text for %s (%d segments)", audioPath, len(segments))
	}
	return result, nil
}

// recognize submits every produced slice in one engine batch and maps the
// normalized answers back by position. If the batch call itself fails, it
// falls back to per-slice recognition so one engine hiccup cannot void the
// whole file.
func (p *BatchPipeline) recognize(ctx context.Context, slicePaths []string) []string {
	texts := make([]string, len(slicePaths))

	produced := make([]string, 0, len(slicePaths))
	indexes := make([]int, 0, len(slicePaths))
	for i, path := range slicePaths {
		if path != "" {
			produced = append(produced, path)
			indexes = append(indexes, i)
		}
	}
	if len(produced) == 0 {
		return texts
	}

	results, err := p.eng.RecognizeBatch(ctx, produced)
	if err != nil {
		p.logger.WarnTag("ASR", "batch recognition failed, retrying per segment: %v", err)
		for pos, path := range produced {
			raw, err := p.eng.RecognizeFile(ctx, path)
			if err != nil {
				p.logger.WarnTag("ASR", "segment %s failed: %v", path, err)
				continue
			}
			texts[indexes[pos]] = engine.Normalize(raw)
		}
		return texts
	}

	for pos := range produced {
		if pos < len(results) {
			texts[indexes[pos]] = engine.Normalize(results[pos])
		}
	}
	return texts
}
