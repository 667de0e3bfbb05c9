//nolint:wrapcheck
package lacuna

import (
	"errors"
	"io"

	"github.com/farcloser/lacuna/internal/capture"
	"github.com/farcloser/lacuna/internal/types"
)

/*
Usage:

file, _ := os.Open("headset.rtp")
result, err := lacuna.Analyze(file, lacuna.Input{Format: "rtp"}, lacuna.DefaultOptions())
fmt.Println(result.Report)

// Keep a trace of every lost frame
result, err := lacuna.Analyze(file, lacuna.Input{Format: "indexed", Trace: true}, opts)
for _, event := range result.Events {
    fmt.Printf("%d: %s\n", event.Frame, event.Classification)
}

*/

// Analyze classifies every frame of a capture with a fresh Detector.
func Analyze(src io.Reader, input Input, opts Options) (*Result, error) {
	format, err := capture.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	det := New(opts)
	reader := capture.NewReader(src, format, capture.Options{
		BurstIndex: input.BurstIndex,
		Filler:     det.Options().MutePattern,
	})

	result := &Result{}

	for frameNumber := uint64(0); ; frameNumber++ {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		kind, err := det.Process(frame.Data, frame.BurstIndex)
		if err != nil {
			return nil, err
		}

		if input.Trace && kind != Pass {
			result.Events = append(result.Events, types.Event{
				Frame:          frameNumber,
				BurstIndex:     frame.BurstIndex,
				Classification: kind.String(),
			})
		}
	}

	stats := reader.Stats()

	result.Report = det.Report()
	result.Capture = CaptureStats{
		Format:      format.String(),
		Packets:     stats.Packets,
		PacketsLost: stats.PacketsLost,
		Replayed:    stats.Replayed,
		Restarts:    stats.Restarts,
	}

	return result, nil
}
