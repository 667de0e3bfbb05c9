package lacuna

import (
	"fmt"
	"strings"

	"github.com/sigurn/crc8"
)

/*
Usage:

det := lacuna.New(lacuna.DefaultOptions())

for frame, index := range frames {
    kind, err := det.Process(frame, index)
    if err != nil {
        return err // not a 60-byte frame
    }

    if kind != lacuna.Pass {
        conceal()
        continue
    }

    if decodeFails(frame) {
        det.UpdateHistogram(lacuna.DecoderError)
    }
}

fmt.Println(det.Report())

// Controller filling muted slots with zeros instead of 0x55
det := lacuna.New(lacuna.OptionsForProfile(lacuna.ProfileZeroFill))

// Every optional check, including padding and trailing zeros
opts := lacuna.DefaultOptions()
opts.Checks = lacuna.ChecksAll
det := lacuna.New(opts)

*/

// Classification is the verdict for one frame.
type Classification int

const (
	Pass                  Classification = iota // clean frame
	ControllerMute                              // local controller filled the slot with the mute pattern
	TransmitterOffset                           // transmitter fill shifted by the burst index
	RadioConflict                               // slot overwritten by a coexisting radio
	HeaderError                                 // malformed synchronization header
	ChecksumError                               // header CRC mismatch
	SequenceDiscontinuity                       // frame counter did not advance by one
	DataMissing                                 // payload truncated into trailing zeros
	DecoderError                                // reported after the fact by the decoder, never by Process

	classificationCount
)

func (c Classification) String() string {
	switch c {
	case Pass:
		return "pass"
	case ControllerMute:
		return "controller-mute"
	case TransmitterOffset:
		return "transmitter-offset"
	case RadioConflict:
		return "radio-conflict"
	case HeaderError:
		return "header-error"
	case ChecksumError:
		return "checksum-error"
	case SequenceDiscontinuity:
		return "sequence-discontinuity"
	case DataMissing:
		return "data-missing"
	case DecoderError:
		return "decoder-error"
	case classificationCount:
	}

	return "unknown"
}

// Valid reports whether c is one of the declared classifications.
func (c Classification) Valid() bool {
	return c >= Pass && c < classificationCount
}

// Classifications lists every classification in declaration order.
func Classifications() []Classification {
	all := make([]Classification, 0, classificationCount)
	for c := range classificationCount {
		all = append(all, c)
	}

	return all
}

// ParseClassification converts a name as returned by String back to a Classification.
func ParseClassification(s string) (Classification, error) {
	for c := range classificationCount {
		if c.String() == s {
			return c, nil
		}
	}

	return 0, fmt.Errorf("unknown classification %q", s)
}

// Check selects an optional classification stage.
type Check int

const (
	CheckCRC Check = 1 << iota
	CheckPadding
	CheckTrailingZero
	CheckSequence
	CheckConflict
	CheckPatterns

	// Presets.
	ChecksDefault = CheckCRC | CheckSequence | CheckConflict | CheckPatterns
	ChecksAll     = ChecksDefault | CheckPadding | CheckTrailingZero
)

// ChecksNone turns every optional stage off, leaving header validation alone. Unlike a zero Checks,
// it is not replaced by ChecksDefault.
const ChecksNone Check = 1 << 30

//nolint:gochecknoglobals // lookup table, effectively const
var checkNames = [...]struct {
	check Check
	name  string
}{
	{CheckCRC, "crc"},
	{CheckPadding, "padding"},
	{CheckTrailingZero, "trailing-zero"},
	{CheckSequence, "sequence"},
	{CheckConflict, "conflict"},
	{CheckPatterns, "patterns"},
}

// String lists the enabled stages, joined with "|", or "none".
func (c Check) String() string {
	names := make([]string, 0, len(checkNames))

	for _, entry := range checkNames {
		if c&entry.check != 0 {
			names = append(names, entry.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}

// DefaultMutePattern is the filler most controllers substitute for muted or missing slots.
const DefaultMutePattern = 0x55

// Options configures a Detector.
type Options struct {
	Checks Check // which optional stages run (zero = ChecksDefault)

	MutePattern byte        // filler used by muted and offset fills (chip dependent)
	SyncHacker  bool        // accept the alternate H2 sync byte some transmitters send
	CRCTable    *crc8.Table // checksum lookup table (nil = SBC)
}

// DefaultOptions returns the options of ProfileDefault.
func DefaultOptions() Options {
	return Options{
		Checks:      ChecksDefault,
		MutePattern: DefaultMutePattern,
	}
}

// Profile names a known combination of controller and transmitter behaviors.
type Profile int

const (
	ProfileDefault  Profile = iota // 0x55 filler, CRC, sequence and conflict checks.
	ProfileZeroFill                // Controllers muting with 0x00.
	ProfileStrict                  // Every check. Transmitters known to zero-pad.
)

func (p Profile) String() string {
	switch p {
	case ProfileDefault:
		return "default"
	case ProfileZeroFill:
		return "zero-fill"
	case ProfileStrict:
		return "strict"
	}

	return "unknown"
}

// ParseProfile converts a string to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "default", "":
		return ProfileDefault, nil
	case "zero-fill":
		return ProfileZeroFill, nil
	case "strict":
		return ProfileStrict, nil
	default:
		return 0, fmt.Errorf("unknown profile %q (valid: default, zero-fill, strict)", s)
	}
}

// OptionsForProfile returns the Options for the given profile.
func OptionsForProfile(profile Profile) Options {
	opts := DefaultOptions()

	switch profile {
	case ProfileZeroFill:
		opts.MutePattern = 0x00
	case ProfileStrict:
		opts.Checks = ChecksAll
	case ProfileDefault:
	}

	return opts
}
