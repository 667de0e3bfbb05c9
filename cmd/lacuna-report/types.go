//nolint:tagliatelle
package main

// Record is a single line in the JSONL report file.
type Record struct {
	File     string         `json:"file,omitempty"`
	Format   string         `json:"format,omitempty"`
	Profile  string         `json:"profile,omitempty"`
	Analysis map[string]any `json:"analysis,omitempty"`
	Error    string         `json:"error,omitempty"`
	Timing   *RecordTiming  `json:"timing,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	ReadMs  float64 `json:"read_ms"`
	TotalMs float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string          `json:"file,omitempty"`
	Analysis *digestAnalysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary digestSummary     `json:"summary"`
	Counts  map[string]uint64 `json:"counts"`
	Bursts  digestBursts      `json:"bursts"`
}

type digestSummary struct {
	Frames      uint64  `json:"frames"`
	Clean       uint64  `json:"clean"`
	Lost        uint64  `json:"lost"`
	LossPercent float64 `json:"loss_percent"`
}

type digestBursts struct {
	Count   uint64  `json:"count"`
	Longest uint64  `json:"longest"`
	Mean    float64 `json:"mean"`
	P95     float64 `json:"p95"`
}

// classificationTotal tracks the frames lost to one classification across sessions.
type classificationTotal struct {
	Classification string
	Frames         uint64
	Sessions       int
}
