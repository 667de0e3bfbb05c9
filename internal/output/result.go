// Package output provides shared report serialization for lacuna JSON output.
package output

import (
	"github.com/farcloser/lacuna"
	"github.com/farcloser/lacuna/internal/types"
)

// ReportToMap converts a session report into the canonical map structure
// used for JSON and JSONL serialization.
func ReportToMap(report lacuna.Report) map[string]any {
	counts := make(map[string]any, len(report.Counts))
	for _, count := range report.Counts {
		counts[count.Classification.String()] = count.Frames
	}

	return map[string]any{
		"summary": map[string]any{
			"frames":       report.Frames,
			"clean":        report.Clean,
			"lost":         report.Lost,
			"loss_percent": report.LossPercent(),
		},
		"counts": counts,
		"bursts": BurstsToMap(report.Bursts),
	}
}

// BurstsToMap converts burst statistics.
func BurstsToMap(stats types.BurstStats) map[string]any {
	return map[string]any{
		"count":   stats.Count,
		"frames":  stats.Frames,
		"longest": stats.Longest,
		"mean":    stats.Mean,
		"stddev":  stats.StdDev,
		"p95":     stats.P95,
	}
}

// EventsToList converts a per-frame trace. Clean frames are expected to have been filtered out by the
// caller.
func EventsToList(events []types.Event) []any {
	list := make([]any, 0, len(events))

	for _, event := range events {
		list = append(list, map[string]any{
			"frame":          event.Frame,
			"burst_index":    event.BurstIndex,
			"classification": event.Classification,
		})
	}

	return list
}
