package media

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

// FFmpeg invokes the external decoder. Every output it produces is forced to
// mono 16 kHz signed 16-bit PCM regardless of the source codec.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *logging.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string, logger *logging.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// CheckAvailable verifies the decoder binary can run.
func (f *FFmpeg) CheckAvailable() error {
	if err := exec.Command(f.ffmpegPath, "-version").Run(); err != nil {
		return errors.Wrap(errors.KindDecode, "check", f.ffmpegPath+" not available", err)
	}
	return nil
}

// pcmArgs is the canonical sample format every consumer expects.
var pcmArgs = []string{"-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1"}

// ExtractAudio decodes the full media file into a wav on disk.
func (f *FFmpeg) ExtractAudio(ctx context.Context, src, dst string) error {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-y", "-i", src}
	args = append(args, pcmArgs...)
	args = append(args, dst)
	return f.run(ctx, args)
}

// Slice cuts a time-bounded wav slice. A duration of 0 means "to the end of
// the file" and is used for the synthetic unknown-duration segment.
func (f *FFmpeg) Slice(ctx context.Context, src string, startSeconds, durationSeconds float64, dst string) error {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(startSeconds),
	}
	if durationSeconds > 0 {
		args = append(args, "-t", formatSeconds(durationSeconds))
	}
	args = append(args, "-i", src)
	args = append(args, pcmArgs...)
	args = append(args, dst)
	return f.run(ctx, args)
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(errors.KindDecode, "ffmpeg",
			fmt.Sprintf("decode failed: %s", truncate(output, 300)), err)
	}
	return nil
}

// pcmStream wraps the decoder's stdout; Close force-terminates the process so
// shutdown latency stays bounded.
type pcmStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *pcmStream) Close() error {
	_ = s.ReadCloser.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}

// OpenPCMStream starts continuous decoding of src to stdout and returns the
// raw s16le byte stream. The stream ends when the source is exhausted; Close
// (or ctx cancellation) kills the decoder process rather than waiting on it.
func (f *FFmpeg) OpenPCMStream(ctx context.Context, src string) (io.ReadCloser, error) {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-i", src}
	args = append(args, pcmArgs...)
	args = append(args, "-f", "s16le", "pipe:1")

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(errors.KindDecode, "stream", "open decoder pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.KindDecode, "stream", "start decoder", err)
	}
	f.logger.InfoTag("FFMPEG", "continuous decode started: %s", src)
	return &pcmStream{ReadCloser: stdout, cmd: cmd}, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
