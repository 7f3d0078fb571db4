package model

import "time"

// Mode distinguishes how a transcript was produced.
const (
	ModeStream = "stream"
	ModeBatch  = "batch"
)

// Fragment is one timed piece of a transcript.
type Fragment struct {
	Index      int     `json:"index"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Translated string  `json:"translated_text,omitempty"`
}

// Record is a finished transcription persisted by the store.
type Record struct {
	TaskID          string         `json:"task_id"`
	Source          string         `json:"source"`
	Mode            string         `json:"mode"`
	Status          string         `json:"status"`
	Text            string         `json:"text"`
	Fragments       []Fragment     `json:"fragments,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	CreatedAt       time.Time      `json:"created_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
