// Package header validates the H2 synchronization header of an mSBC frame and its CRC.
//
// Layout of the first bytes of a 60-byte frame:
//
//	byte 0   H2 sync (0x01)
//	byte 1   low nibble 0x8, bits 4-5 = sn1, bits 6-7 = sn2 (each 00 or 11)
//	byte 2   SBC syncword (0xAD)
//	byte 3-4 mSBC reserved header bytes, always zero
//	byte 5   CRC-8
//	byte 6-9 scale factors, all 32 bits of which are covered by the CRC
package header

import (
	"errors"
	"fmt"

	"github.com/sigurn/crc8"

	"github.com/farcloser/lacuna/internal/types"
)

const (
	SyncByte    = 0x01
	AltSyncByte = 0x00 // accepted in sync hacker mode only
	Marker      = 0x08
	SBCSync     = 0xAD

	markerMask    = 0x0F
	checksumIndex = 5
)

var (
	ErrFrameLength   = errors.New("frame length")
	ErrSync          = errors.New("bad sync byte")
	ErrMarker        = errors.New("bad header marker")
	ErrSequenceField = errors.New("inconsistent sequence field")
	ErrReserved      = errors.New("reserved header bytes not zero")
	ErrPadding       = errors.New("padding byte not zero")
	ErrChecksum      = errors.New("checksum mismatch")
)

// Options selects the optional header checks.
type Options struct {
	CRC        bool        // verify the CRC
	Padding    bool        // require the trailing pad byte to be zero
	SyncHacker bool        // also accept AltSyncByte as byte 0
	Table      *crc8.Table // nil = SBC table
}

// Header is what a successful parse yields.
type Header struct {
	Sequence uint8 // 0-3
	Checksum uint8 // checksum carried by the frame
}

// Parser validates frame headers. It holds no per-frame state.
type Parser struct {
	opts Options
}

// NewParser returns a parser for the given options.
func NewParser(opts Options) *Parser {
	if opts.Table == nil {
		opts.Table = DefaultTable()
	}

	return &Parser{opts: opts}
}

// Parse validates the header of frame. Errors other than ErrChecksum and ErrFrameLength describe
// a malformed header.
func (p *Parser) Parse(frame []byte) (Header, error) {
	if len(frame) != types.FrameLength {
		return Header{}, fmt.Errorf("%w: %d", ErrFrameLength, len(frame))
	}

	if frame[0] != SyncByte && (!p.opts.SyncHacker || frame[0] != AltSyncByte) {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrSync, frame[0])
	}

	if frame[1]&markerMask != Marker {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrMarker, frame[1])
	}

	seq, ok := DecodeSequence(frame[1])
	if !ok {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrSequenceField, frame[1])
	}

	if frame[2] != SBCSync {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrSync, frame[2])
	}

	if frame[3] != 0 || frame[4] != 0 {
		return Header{}, fmt.Errorf("%w: 0x%02x 0x%02x", ErrReserved, frame[3], frame[4])
	}

	if p.opts.Padding && frame[types.PadIndex] != 0 {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrPadding, frame[types.PadIndex])
	}

	hdr := Header{Sequence: seq, Checksum: frame[checksumIndex]}

	if p.opts.CRC {
		if crc := Checksum(frame, p.opts.Table); crc != hdr.Checksum {
			return hdr, fmt.Errorf("%w: computed 0x%02x, carried 0x%02x", ErrChecksum, crc, hdr.Checksum)
		}
	}

	return hdr, nil
}

// DecodeSequence extracts the 2-bit sequence number from header byte 1. Each sub-field carries one
// bit twice; anything but 00 or 11 is rejected.
func DecodeSequence(b byte) (uint8, bool) {
	sn1 := (b >> 4) & 0x03
	sn2 := (b >> 6) & 0x03

	if (sn1 != 0x00 && sn1 != 0x03) || (sn2 != 0x00 && sn2 != 0x03) {
		return 0, false
	}

	return (sn1 & 0x01) | (sn2&0x01)<<1, true
}

// EncodeSequence returns header byte 1 for a sequence number (0x08, 0x38, 0xC8, 0xF8).
func EncodeSequence(seq uint8) byte {
	var b byte = Marker

	if seq&0x01 != 0 {
		b |= 0x30
	}

	if seq&0x02 != 0 {
		b |= 0xC0
	}

	return b
}

// Stamp writes a valid header for seq into frame and seals it with its checksum. Payload bytes from
// 6 onwards are left untouched.
func Stamp(frame []byte, seq uint8, table *crc8.Table) {
	if table == nil {
		table = DefaultTable()
	}

	frame[0] = SyncByte
	frame[1] = EncodeSequence(seq)
	frame[2] = SBCSync
	frame[3] = 0
	frame[4] = 0
	frame[checksumIndex] = Checksum(frame, table)
}
