package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"mediascribe-server-go/internal/platform/errors"
)

// Duration reports the audio duration in seconds. Wav files are read from
// their header directly; everything else goes through ffprobe. Callers must
// treat a returned error as "duration unknown" and fall back to the synthetic
// whole-file segment, not abort.
func (f *FFmpeg) Duration(path string) (float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if d, err := wavDuration(path); err == nil {
			return d, nil
		}
	}
	return f.ffprobeDuration(path)
}

// wavDuration walks the RIFF chunk list for the fmt byte rate and the data
// chunk size.
func wavDuration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var byteRate uint32
	var dataSize uint32
	chunk := make([]byte, 8)
	for {
		// A short read means the file is truncated; fall through to the
		// incomplete-header check instead of parsing a stale buffer.
		if _, err := io.ReadFull(file, chunk); err != nil {
			break
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			fmtData := make([]byte, size)
			if _, err := io.ReadFull(file, fmtData); err != nil {
				return 0, err
			}
			if len(fmtData) >= 12 {
				byteRate = binary.LittleEndian.Uint32(fmtData[8:12])
			}
		case "data":
			dataSize = size
			// The data chunk is typically last; no need to read it.
			if byteRate > 0 {
				return float64(dataSize) / float64(byteRate), nil
			}
			if _, err := file.Seek(int64(size), 1); err != nil {
				return 0, err
			}
		default:
			if _, err := file.Seek(int64(size), 1); err != nil {
				return 0, err
			}
		}
	}
	if byteRate == 0 || dataSize == 0 {
		return 0, fmt.Errorf("incomplete wav header")
	}
	return float64(dataSize) / float64(byteRate), nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFmpeg) ffprobeDuration(path string) (float64, error) {
	out, err := exec.Command(f.ffprobePath,
		"-v", "quiet", "-print_format", "json", "-show_format", path).Output()
	if err != nil {
		return 0, errors.Wrap(errors.KindDecode, "probe", "ffprobe failed for "+path, err)
	}

	var probed ffprobeOutput
	if err := sonic.Unmarshal(out, &probed); err != nil {
		return 0, errors.Wrap(errors.KindDecode, "probe", "parse ffprobe output", err)
	}
	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrap(errors.KindDecode, "probe", "no duration in ffprobe output", err)
	}
	return duration, nil
}
