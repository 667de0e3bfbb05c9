//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/lacuna"
	"github.com/farcloser/lacuna/internal/output"
)

// lossCause groups classifications by the part of the link that lost the frame.
//
//nolint:gochecknoglobals // configuration data, effectively const
var lossCause = map[lacuna.Classification]string{
	lacuna.ControllerMute:        "controller",
	lacuna.TransmitterOffset:     "transmitter",
	lacuna.DataMissing:           "transmitter",
	lacuna.RadioConflict:         "radio",
	lacuna.HeaderError:           "corruption",
	lacuna.ChecksumError:         "corruption",
	lacuna.SequenceDiscontinuity: "continuity",
	lacuna.DecoderError:          "decoder",
}

func outputResult(filePath string, result *lacuna.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ReportToMap(result.Report)
		meta["capture"] = captureToMap(result.Capture)
	} else {
		meta = buildFriendlyOutput(result)
	}

	if result.Events != nil {
		meta["frames"] = output.EventsToList(result.Events)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the session.
func buildFriendlyOutput(result *lacuna.Result) map[string]any {
	report := result.Report

	meta := map[string]any{
		"summary": report.String(),
	}

	losses := make(map[string]any)

	for _, count := range report.Counts {
		if count.Classification == lacuna.Pass || count.Frames == 0 {
			continue
		}

		losses[count.Classification.String()] = fmt.Sprintf("%d frames (%.2f%%, %s)",
			count.Frames, percentOf(count.Frames, report.Frames), lossCause[count.Classification])
	}

	if len(losses) > 0 {
		meta["losses"] = losses
	}

	if bursts := report.Bursts; bursts.Count > 0 {
		meta["bursts"] = fmt.Sprintf("%d bursts, mean %.1f frames (stddev %.1f, p95 %.0f, longest %d)",
			bursts.Count, bursts.Mean, bursts.StdDev, bursts.P95, bursts.Longest)
	}

	if stats := result.Capture; stats.Packets > 0 {
		meta["transport"] = fmt.Sprintf("%d rtp packets, %d lost in transit, %d restarts",
			stats.Packets, stats.PacketsLost, stats.Restarts)
	}

	return meta
}

func captureToMap(stats lacuna.CaptureStats) map[string]any {
	return map[string]any{
		"format":       stats.Format,
		"packets":      stats.Packets,
		"packets_lost": stats.PacketsLost,
		"replayed":     stats.Replayed,
		"restarts":     stats.Restarts,
	}
}

func percentOf(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return 100 * float64(part) / float64(total)
}
