package lacuna

import "github.com/farcloser/lacuna/internal/types"

// Input describes a capture handed to Analyze.
type Input struct {
	// Format is the capture layout: raw, indexed or rtp (default: raw).
	Format string

	// BurstIndex is reported for every frame of raw and rtp captures.
	// Indexed captures carry their own.
	BurstIndex uint

	// Trace records every non-clean frame in Result.Events.
	Trace bool
}

// CaptureStats describes the transport side of a capture.
type CaptureStats struct {
	Format      string
	Packets     uint64 // rtp packets decoded
	PacketsLost uint64 // rtp packets missing, replayed as mute frames
	Replayed    uint64 // mute frames synthesized for those packets
	Restarts    uint64 // sequence jumps too large to replay
}

// Result is what Analyze returns for one capture.
type Result struct {
	Report  Report
	Capture CaptureStats

	// Events lists non-clean frames in capture order (nil unless Input.Trace).
	Events []types.Event
}
