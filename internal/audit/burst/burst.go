// Package burst measures runs of consecutive lost frames. Concealment quality degrades with burst
// length far more than with the raw loss rate, so the distribution is reported alongside it.
package burst

import (
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/lacuna/internal/types"
)

// Buckets bounds the length histogram; longer bursts land in the last bucket.
const Buckets = 64

// Tracker accumulates burst lengths in fixed storage. The zero value is ready to use.
type Tracker struct {
	counts  [Buckets]uint64 // counts[n-1] = bursts of length n
	run     uint64          // current open burst
	frames  uint64
	longest uint64
}

// Observe records one frame outcome.
func (t *Tracker) Observe(lost bool) {
	if lost {
		t.run++
		t.frames++

		return
	}

	if t.run > 0 {
		t.counts[min(t.run, Buckets)-1]++
		t.longest = max(t.longest, t.run)
		t.run = 0
	}
}

// Reset clears all bursts.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

// Stats summarizes the bursts seen so far, the open one included. It does not modify the tracker.
func (t *Tracker) Stats() types.BurstStats {
	counts := t.counts
	result := types.BurstStats{Frames: t.frames, Longest: t.longest}

	if t.run > 0 {
		counts[min(t.run, Buckets)-1]++
		result.Longest = max(result.Longest, t.run)
	}

	var lengths, weights []float64

	for idx, count := range counts {
		if count == 0 {
			continue
		}

		lengths = append(lengths, float64(idx+1))
		weights = append(weights, float64(count))
		result.Count += count
	}

	if result.Count == 0 {
		return result
	}

	result.Mean = stat.Mean(lengths, weights)
	result.P95 = stat.Quantile(0.95, stat.Empirical, lengths, weights)

	if result.Count > 1 {
		result.StdDev = stat.StdDev(lengths, weights)
	}

	return result
}
