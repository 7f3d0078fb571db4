package transcribe

// Segment is one fixed-length window of the source audio. Segments are
// contiguous and non-overlapping: segment i+1 starts exactly where segment i
// ends.
type Segment struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// Plan divides a total duration into fixed windows of segmentMinutes. A
// trailing window shorter than one second is dropped; a non-positive duration
// yields an empty plan, which callers must treat as "run one pass over the
// whole file".
func Plan(durationSeconds float64, segmentMinutes int) []Segment {
	if durationSeconds <= 0 || segmentMinutes <= 0 {
		return nil
	}

	segmentSeconds := float64(segmentMinutes * 60)
	totalSegments := int(durationSeconds/segmentSeconds) + 1

	segments := make([]Segment, 0, totalSegments)
	for i := 0; i < totalSegments; i++ {
		start := float64(i) * segmentSeconds
		end := min(start+segmentSeconds, durationSeconds)
		if end-start < 1 {
			break
		}
		segments = append(segments, Segment{
			Index:     i,
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
		})
	}
	return segments
}

// SyntheticWholeFile is the segment substituted when the duration cannot be
// determined: start and end both zero, meaning "the entire file" downstream.
func SyntheticWholeFile() Segment {
	return Segment{Index: 0, StartTime: 0, EndTime: 0, Duration: 0}
}
