// Package types holds the frame layout and the result structures shared by the audit stages.
package types

const (
	// FrameLength is the size of one H2-wrapped mSBC frame as delivered by the SCO transport.
	FrameLength = 60

	// PadIndex is the trailing padding byte. Transmitters do not reliably zero it, so the pattern and
	// conflict stages ignore it.
	PadIndex = FrameLength - 1
)

// BurstStats summarizes runs of consecutive non-clean frames.
type BurstStats struct {
	Count   uint64  // number of loss bursts
	Frames  uint64  // frames inside bursts
	Longest uint64  // longest burst, in frames
	Mean    float64 // mean burst length
	StdDev  float64 // standard deviation of burst length
	P95     float64 // 95th percentile burst length
}

// Event records a single non-clean frame, for per-frame traces.
type Event struct {
	Frame          uint64 `json:"frame"`
	BurstIndex     uint   `json:"burst_index"`
	Classification string `json:"classification"`
}
