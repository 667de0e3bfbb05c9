// Package sequence tracks the 2-bit H2 frame counter.
package sequence

// Modulus is the counter period.
const Modulus = 4

// Tracker remembers the last in-sequence counter value. The zero value is in the unknown state.
type Tracker struct {
	last  uint8
	known bool
}

// Accept feeds a parsed counter value. It reports whether seq continues the sequence; a break sends the
// tracker back to the unknown state. Any value is accepted from the unknown state.
func (t *Tracker) Accept(seq uint8) bool {
	if t.known && seq != (t.last+1)%Modulus {
		t.Invalidate()

		return false
	}

	t.last = seq % Modulus
	t.known = true

	return true
}

// Invalidate forgets the last value; continuity cannot be trusted across a gap.
func (t *Tracker) Invalidate() {
	t.last = 0
	t.known = false
}

// Last returns the last in-sequence value, and false when unknown.
func (t *Tracker) Last() (uint8, bool) {
	return t.last, t.known
}
