package lacuna

import (
	"errors"
	"fmt"

	"github.com/farcloser/lacuna/internal/audit/burst"
	"github.com/farcloser/lacuna/internal/audit/conflict"
	"github.com/farcloser/lacuna/internal/audit/header"
	"github.com/farcloser/lacuna/internal/audit/pattern"
	"github.com/farcloser/lacuna/internal/audit/sequence"
	"github.com/farcloser/lacuna/internal/types"
)

// FrameLength is the size of one mSBC frame as delivered by the SCO transport.
const FrameLength = types.FrameLength

// ErrInvalidFrameLength is returned by Process for buffers that are not exactly FrameLength bytes.
var ErrInvalidFrameLength = errors.New("invalid frame length")

// Detector classifies the frames of one audio link. It keeps the state continuity and conflict checks
// depend on, so a Detector must not be shared between links. It is not safe for concurrent use.
type Detector struct {
	opts   Options
	parser *header.Parser

	conflict  conflict.Detector
	sequence  sequence.Tracker
	bursts    burst.Tracker
	histogram Histogram
}

// New returns a Detector in its initial state. A zero opts.Checks selects ChecksDefault, the other
// fields are used as given.
func New(opts Options) *Detector {
	if opts.Checks == 0 {
		opts.Checks = ChecksDefault
	}

	return &Detector{
		opts: opts,
		parser: header.NewParser(header.Options{
			CRC:        opts.Checks&CheckCRC != 0,
			Padding:    opts.Checks&CheckPadding != 0,
			SyncHacker: opts.SyncHacker,
			Table:      opts.CRCTable,
		}),
	}
}

// Options returns the options the Detector runs with.
func (d *Detector) Options() Options {
	return d.opts
}

// Reset returns the Detector to its initial state, as for a new link.
func (d *Detector) Reset() {
	d.conflict.Reset()
	d.sequence.Invalidate()
	d.bursts.Reset()
	d.histogram = Histogram{}
}

// Process classifies one frame. index is the frame's position within its reassembly burst.
// The only error is ErrInvalidFrameLength, in which case nothing is recorded and the returned
// classification is meaningless.
func (d *Detector) Process(frame []byte, index uint) (Classification, error) {
	if len(frame) != types.FrameLength {
		return Pass, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidFrameLength, len(frame), types.FrameLength)
	}

	kind := d.classify(frame, index)

	if kind != Pass {
		d.sequence.Invalidate()
	}

	d.histogram.add(kind)
	d.bursts.Observe(kind != Pass)

	return kind, nil
}

// Stages run in priority order. Fills and collisions destroy the header, so they are recognized
// before the header is parsed.
func (d *Detector) classify(frame []byte, index uint) Classification {
	filler := d.opts.MutePattern

	if d.opts.Checks&CheckConflict != 0 && d.conflict.Observe(frame, filler) {
		return RadioConflict
	}

	if d.opts.Checks&CheckPatterns != 0 {
		if pattern.IsMute(frame, filler) {
			return ControllerMute
		}

		if pattern.IsOffset(frame, filler, index) {
			return TransmitterOffset
		}
	}

	if d.opts.Checks&CheckTrailingZero != 0 && pattern.IsDataMissing(frame) {
		return DataMissing
	}

	hdr, err := d.parser.Parse(frame)

	switch {
	case errors.Is(err, header.ErrChecksum):
		return ChecksumError
	case err != nil:
		return HeaderError
	}

	if d.opts.Checks&CheckSequence != 0 && !d.sequence.Accept(hdr.Sequence) {
		return SequenceDiscontinuity
	}

	return Pass
}

// UpdateHistogram reclassifies one frame previously counted as Pass, typically as DecoderError once the
// decoder rejected it. Invalid values and updates with no Pass frame left are logged and ignored.
func (d *Detector) UpdateHistogram(kind Classification) {
	d.histogram.reclassify(kind)
}

// LastSequence returns the counter of the last in-sequence frame, and false when continuity is unknown.
func (d *Detector) LastSequence() (uint8, bool) {
	return d.sequence.Last()
}

// Histogram returns a copy of the per-classification counters.
func (d *Detector) Histogram() Histogram {
	return d.histogram
}

// Report summarizes the session so far. It does not modify the Detector.
func (d *Detector) Report() Report {
	return newReport(d.histogram, d.bursts.Stats())
}
