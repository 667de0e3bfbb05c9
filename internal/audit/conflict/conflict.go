// Package conflict flags frames overwritten by a coexisting radio transmitting into the same slot.
// The overwritten slot then carries a copy of the previous frame.
package conflict

import (
	"bytes"

	"github.com/farcloser/lacuna/internal/audit/pattern"
	"github.com/farcloser/lacuna/internal/types"
)

// Detector holds a two-frame window and a two-entry candidate history. The zero value is ready to use.
type Detector struct {
	frames [2][types.FrameLength]byte // [0] previous, [1] most recent
	seen   int                        // frames observed, saturating at len(frames)
	flags  [2]bool                    // [0] preceding call, [1] this call
}

// Observe slides frame into the window and reports whether it is a newly detected conflict.
//
// A frame equal to its predecessor (pad byte excluded) is a candidate. Mute fills repeat by nature and
// are left to the pattern matcher. A candidate only counts when the preceding call was not one itself,
// so a collision whose copy persists over several slots is reported once.
func (d *Detector) Observe(frame []byte, filler byte) bool {
	candidate := d.seen > 0 &&
		!pattern.IsMute(frame, filler) &&
		bytes.Equal(frame[:types.PadIndex], d.frames[1][:types.PadIndex])

	d.frames[0] = d.frames[1]
	copy(d.frames[1][:], frame)

	if d.seen < len(d.frames) {
		d.seen++
	}

	d.flags[0] = d.flags[1]
	d.flags[1] = candidate

	return d.flags[1] && !d.flags[0]
}

// Reset clears the window and the candidate history.
func (d *Detector) Reset() {
	*d = Detector{}
}
