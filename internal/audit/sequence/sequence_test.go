package sequence

import "testing"

func TestAcceptFromUnknown(t *testing.T) {
	for seq := range uint8(Modulus) {
		var tracker Tracker

		if !tracker.Accept(seq) {
			t.Errorf("Accept(%d) from unknown = false", seq)
		}

		if last, known := tracker.Last(); !known || last != seq {
			t.Errorf("Last() = %d, %v, want %d, true", last, known, seq)
		}
	}
}

func TestFullCycle(t *testing.T) {
	var tracker Tracker

	for i, seq := range []uint8{2, 3, 0, 1, 2, 3, 0} {
		if !tracker.Accept(seq) {
			t.Fatalf("step %d: Accept(%d) = false", i, seq)
		}
	}
}

func TestDiscontinuity(t *testing.T) {
	tests := []struct {
		name string
		last uint8
		next uint8
	}{
		{"repeat", 1, 1},
		{"skip one", 1, 3},
		{"backwards", 2, 1},
		{"wrap skip", 3, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tracker Tracker

			tracker.Accept(tc.last)

			if tracker.Accept(tc.next) {
				t.Fatalf("Accept(%d) after %d = true", tc.next, tc.last)
			}

			if _, known := tracker.Last(); known {
				t.Error("tracker still known after a discontinuity")
			}

			// First value after the break always passes.
			if !tracker.Accept(tc.last) {
				t.Errorf("Accept(%d) after reset = false", tc.last)
			}
		})
	}
}

func TestInvalidate(t *testing.T) {
	var tracker Tracker

	tracker.Accept(0)
	tracker.Invalidate()

	if !tracker.Accept(3) {
		t.Error("Accept(3) after Invalidate = false")
	}
}
