// Package capture reads recorded SCO traffic back as a stream of 60-byte frames.
//
// Three layouts are supported:
//
//	raw      frames back to back, the burst index is supplied by the caller
//	indexed  one burst index byte followed by the frame
//	rtp      RFC 4571 framing (16-bit big-endian length, then an RTP packet carrying whole frames)
//
// RTP sequence gaps are replayed as mute-filled frames, which is what a controller delivers for slots
// it never received.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/farcloser/primordium/fault"
	"github.com/pion/rtp"

	"github.com/farcloser/lacuna/internal/types"
)

const (
	// IndexedRecordLength is the size of one record of an indexed capture.
	IndexedRecordLength = types.FrameLength + 1

	// MaxGapPackets is the largest RTP sequence gap replayed as mute frames. Larger jumps are
	// treated as the sender restarting its stream.
	MaxGapPackets = 64

	lengthPrefix = 2
)

var (
	ErrUnknownFormat   = errors.New("unknown capture format")
	ErrTruncatedRecord = errors.New("truncated record")
	ErrInvalidPacket   = errors.New("invalid rtp packet")
	ErrInvalidPayload  = errors.New("rtp payload is not a whole number of frames")
)

// Format identifies a capture layout.
type Format int

const (
	FormatRaw Format = iota
	FormatIndexed
	FormatRTP
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatIndexed:
		return "indexed"
	case FormatRTP:
		return "rtp"
	}

	return "unknown"
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "raw", "":
		return FormatRaw, nil
	case "indexed":
		return FormatIndexed, nil
	case "rtp":
		return FormatRTP, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: raw, indexed, rtp)", ErrUnknownFormat, s)
	}
}

// FormatForPath guesses the layout from a file extension: .msbc, .h2 or .rtp.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msbc":
		return FormatRaw, nil
	case ".h2":
		return FormatIndexed, nil
	case ".rtp":
		return FormatRTP, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Options configures a Reader.
type Options struct {
	BurstIndex uint // burst index reported for raw and rtp frames
	Filler     byte // byte used for frames replayed over RTP gaps
}

// Frame is one frame read from a capture. Data is only valid until the next call to Next.
type Frame struct {
	Data       []byte
	BurstIndex uint
}

// Stats describes what a Reader went through.
type Stats struct {
	Frames      uint64 // frames returned, replayed ones included
	Packets     uint64 // rtp packets decoded
	Replayed    uint64 // mute frames synthesized for sequence gaps
	Restarts    uint64 // sequence jumps beyond MaxGapPackets
	PacketsLost uint64 // packets missing across replayed gaps
}

// Reader returns the frames of a capture one at a time.
type Reader struct {
	src    *bufio.Reader
	format Format
	opts   Options

	frame  [types.FrameLength]byte
	record []byte

	// rtp state
	payload   []byte // frames of the current packet not yet returned
	mutes     int    // replayed frames still owed
	perPacket int    // frames per packet, from the last non-empty payload
	loss      lossDetector

	stats Stats
}

// NewReader returns a Reader decoding src as format.
func NewReader(src io.Reader, format Format, opts Options) *Reader {
	return &Reader{
		src:       bufio.NewReader(src),
		format:    format,
		opts:      opts,
		perPacket: 1,
	}
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next frame, or io.EOF once the capture is exhausted.
func (r *Reader) Next() (Frame, error) {
	var (
		frame Frame
		err   error
	)

	switch r.format {
	case FormatRaw:
		frame, err = r.nextRaw()
	case FormatIndexed:
		frame, err = r.nextIndexed()
	case FormatRTP:
		frame, err = r.nextRTP()
	default:
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownFormat, r.format)
	}

	if err == nil {
		r.stats.Frames++
	}

	return frame, err
}

func (r *Reader) nextRaw() (Frame, error) {
	if err := r.read(r.frame[:]); err != nil {
		return Frame{}, err
	}

	return Frame{Data: r.frame[:], BurstIndex: r.opts.BurstIndex}, nil
}

func (r *Reader) nextIndexed() (Frame, error) {
	var index [1]byte

	if err := r.read(index[:]); err != nil {
		return Frame{}, err
	}

	if err := r.read(r.frame[:]); err != nil {
		return Frame{}, truncated(err)
	}

	return Frame{Data: r.frame[:], BurstIndex: uint(index[0])}, nil
}

func (r *Reader) nextRTP() (Frame, error) {
	for {
		if r.mutes > 0 {
			r.mutes--

			for i := range r.frame {
				r.frame[i] = r.opts.Filler
			}

			return Frame{Data: r.frame[:], BurstIndex: r.opts.BurstIndex}, nil
		}

		if len(r.payload) > 0 {
			copy(r.frame[:], r.payload[:types.FrameLength])
			r.payload = r.payload[types.FrameLength:]

			return Frame{Data: r.frame[:], BurstIndex: r.opts.BurstIndex}, nil
		}

		if err := r.readPacket(); err != nil {
			return Frame{}, err
		}
	}
}

func (r *Reader) readPacket() error {
	var prefix [lengthPrefix]byte

	if err := r.read(prefix[:]); err != nil {
		return err
	}

	size := int(binary.BigEndian.Uint16(prefix[:]))
	if cap(r.record) < size {
		r.record = make([]byte, size)
	}

	buf := r.record[:size]
	if err := r.read(buf); err != nil {
		return truncated(err)
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(buf); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}

	if len(pkt.Payload)%types.FrameLength != 0 {
		return fmt.Errorf("%w: %d bytes in packet %d", ErrInvalidPayload, len(pkt.Payload), pkt.SequenceNumber)
	}

	r.stats.Packets++

	if frames := len(pkt.Payload) / types.FrameLength; frames > 0 {
		r.perPacket = frames
	}

	switch lost := r.loss.process(pkt.SequenceNumber); {
	case lost == 0:
	case lost <= MaxGapPackets:
		r.mutes = int(lost) * r.perPacket
		r.stats.Replayed += uint64(r.mutes) //nolint:gosec // bounded by MaxGapPackets
		r.stats.PacketsLost += uint64(lost)

		slog.Debug("capture.readPacket", "sequence", pkt.SequenceNumber, "lost", lost, "stage", "gap")
	default:
		r.stats.Restarts++

		slog.Debug("capture.readPacket", "sequence", pkt.SequenceNumber, "jump", lost, "stage", "restart")
	}

	r.payload = pkt.Payload

	return nil
}

// read fills buf entirely. A clean end of input before the first byte is io.EOF.
func (r *Reader) read(buf []byte) error {
	n, err := io.ReadFull(r.src, buf)

	switch {
	case err == nil:
		return nil
	case err == io.EOF: //nolint:errorlint // ReadFull returns it unwrapped
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %d of %d bytes", ErrTruncatedRecord, n, len(buf))
	default:
		return fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
}

// truncated turns an end of input in the middle of a record into ErrTruncatedRecord.
func truncated(err error) error {
	if err == io.EOF { //nolint:errorlint // sentinel from read
		return fmt.Errorf("%w: record ends after its header", ErrTruncatedRecord)
	}

	return err
}

// lossDetector counts the packets missing between consecutive sequence numbers.
type lossDetector struct {
	initialized bool
	expected    uint16
}

func (d *lossDetector) process(seq uint16) uint16 {
	if !d.initialized {
		d.initialized = true
		d.expected = seq + 1

		return 0
	}

	lost := seq - d.expected
	d.expected = seq + 1

	return lost
}

// WriteRTP appends pkt to w with its RFC 4571 length prefix.
func WriteRTP(w io.Writer, pkt *rtp.Packet) error {
	raw, err := pkt.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}

	var prefix [lengthPrefix]byte

	binary.BigEndian.PutUint16(prefix[:], uint16(len(raw))) //nolint:gosec // rtp packets fit in 16 bits

	if _, err = w.Write(prefix[:]); err == nil {
		_, err = w.Write(raw)
	}

	if err != nil {
		return fmt.Errorf("writing packet: %w", err)
	}

	return nil
}
