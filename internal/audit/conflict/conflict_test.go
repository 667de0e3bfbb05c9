package conflict

import (
	"testing"

	"github.com/farcloser/lacuna/internal/types"
)

const filler = 0x55

func frameOf(seed byte) []byte {
	frame := make([]byte, types.FrameLength)
	for i := range frame {
		frame[i] = seed + byte(i)
	}

	return frame
}

func observeAll(det *Detector, frames ...[]byte) []bool {
	results := make([]bool, 0, len(frames))
	for _, frame := range frames {
		results = append(results, det.Observe(frame, filler))
	}

	return results
}

func assertResults(t *testing.T, got, want []bool) {
	t.Helper()

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: Observe() = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestFirstFrameIsNeverAConflict(t *testing.T) {
	var det Detector

	// Identical to the zeroed window, but nothing has been seen yet.
	if det.Observe(make([]byte, types.FrameLength), filler) {
		t.Error("first frame reported as conflict")
	}
}

func TestRepeatCountedOnce(t *testing.T) {
	var det Detector

	a := frameOf(1)
	got := observeAll(&det, a, a, a, a)

	assertResults(t, got, []bool{false, true, false, false})
}

func TestPadByteIgnored(t *testing.T) {
	var det Detector

	a := frameOf(1)
	b := append([]byte(nil), a...)
	b[types.PadIndex] ^= 0xFF

	assertResults(t, observeAll(&det, a, b), []bool{false, true})
}

func TestAlternatingCollisions(t *testing.T) {
	var det Detector

	a, b := frameOf(1), frameOf(2)
	got := observeAll(&det, a, a, b, b, a, a)

	assertResults(t, got, []bool{false, true, false, true, false, true})
}

func TestCollisionRearmsAfterCleanFrame(t *testing.T) {
	var det Detector

	a, b := frameOf(1), frameOf(2)
	got := observeAll(&det, a, a, a, b, b)

	assertResults(t, got, []bool{false, true, false, false, true})
}

func TestMuteRepeatsAreNotCandidates(t *testing.T) {
	var det Detector

	mute := make([]byte, types.FrameLength)
	for i := range mute {
		mute[i] = filler
	}

	assertResults(t, observeAll(&det, mute, mute, mute), []bool{false, false, false})
}

func TestReset(t *testing.T) {
	var det Detector

	a := frameOf(1)
	det.Observe(a, filler)
	det.Reset()

	if det.Observe(a, filler) {
		t.Error("frame after Reset compared against stale history")
	}
}
