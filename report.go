package lacuna

import (
	"fmt"
	"log/slog"

	"github.com/farcloser/lacuna/internal/types"
)

// Histogram counts frames per classification.
type Histogram struct {
	counts [classificationCount]uint64
}

// Count returns the number of frames classified as kind (0 for invalid values).
func (h Histogram) Count(kind Classification) uint64 {
	if !kind.Valid() {
		return 0
	}

	return h.counts[kind]
}

// Total returns the number of frames processed.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, count := range h.counts {
		total += count
	}

	return total
}

// Clean returns the number of frames that passed.
func (h Histogram) Clean() uint64 {
	return h.counts[Pass]
}

func (h *Histogram) add(kind Classification) {
	h.counts[kind]++
}

func (h *Histogram) reclassify(kind Classification) {
	if !kind.Valid() || kind == Pass {
		slog.Warn("ignoring histogram update", "classification", int(kind))

		return
	}

	if h.counts[Pass] == 0 {
		slog.Warn("ignoring histogram update, no clean frame to reclassify", "classification", kind.String())

		return
	}

	h.counts[Pass]--
	h.counts[kind]++
}

// Count pairs a classification with its number of frames.
type Count struct {
	Classification Classification
	Frames         uint64
}

// Report summarizes a session.
type Report struct {
	Frames uint64 // frames processed
	Clean  uint64 // frames that passed
	Lost   uint64 // everything else

	// LossPercentX10000 is 10000 * Lost / Frames, i.e. the loss percentage with two decimals.
	LossPercentX10000 uint64

	Counts []Count // every classification, in declaration order

	// Bursts describes runs of lost frames as Process classified them. Frames later moved out of Pass
	// by UpdateHistogram are counted in Lost and Counts only.
	Bursts types.BurstStats
}

func newReport(hist Histogram, bursts types.BurstStats) Report {
	report := Report{
		Frames: hist.Total(),
		Clean:  hist.Clean(),
		Counts: make([]Count, 0, classificationCount),
		Bursts: bursts,
	}

	report.Lost = report.Frames - report.Clean

	if report.Frames > 0 {
		report.LossPercentX10000 = 10000 * report.Lost / report.Frames
	}

	for kind, frames := range hist.counts {
		report.Counts = append(report.Counts, Count{Classification: Classification(kind), Frames: frames})
	}

	return report
}

// LossPercent returns the loss rate in percent.
func (r Report) LossPercent() float64 {
	return float64(r.LossPercentX10000) / 100
}

// Count returns the frames counted for kind.
func (r Report) Count(kind Classification) uint64 {
	for _, count := range r.Counts {
		if count.Classification == kind {
			return count.Frames
		}
	}

	return 0
}

func (r Report) String() string {
	return fmt.Sprintf("%d frames, %d clean, %d.%02d%% lost, %d bursts (longest %d)",
		r.Frames, r.Clean, r.LossPercentX10000/100, r.LossPercentX10000%100, r.Bursts.Count, r.Bursts.Longest)
}
