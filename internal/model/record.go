package model

import "time"

// Record is one normalized buysheet row. Field order is the output order.
// ReleaseDate and Season hold whatever JSON value the model produced, nil when absent.
type Record struct {
	ReleaseDate any     `json:"Release Date"`
	Season      any     `json:"Season"`
	Confidence  float64 `json:"confidence"`
}

// ResultSet is the ordered output of one run: chunk order, then record order within a chunk
type ResultSet []Record

// RunStats summarizes one pipeline run
type RunStats struct {
	RunID          string        `json:"run_id"`
	Source         string        `json:"source"`
	Lines          int           `json:"lines"`
	Chunks         int           `json:"chunks"`
	SkippedChunks  int           `json:"skipped_chunks"`  // blank model replies
	FallbackChunks int           `json:"fallback_chunks"` // no JSON array found, treated as []
	Records        int           `json:"records"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration"`
}
