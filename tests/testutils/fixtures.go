package testutils

import (
	"bytes"

	"github.com/pion/rtp"

	"github.com/farcloser/lacuna/internal/audit/header"
	"github.com/farcloser/lacuna/internal/capture"
	"github.com/farcloser/lacuna/internal/types"
)

// SessionSummary is the report line of Session, whatever the capture layout.
const SessionSummary = "8 frames, 5 clean, 37.50% lost, 3 bursts (longest 1)"

// Frame returns a well-formed frame. Different salts give different payloads.
func Frame(seq uint8, salt int) []byte {
	frame := make([]byte, types.FrameLength)
	for k := 6; k < types.PadIndex; k++ {
		frame[k] = byte(k*37 + 11 + salt*13)
	}

	header.Stamp(frame, seq, nil)

	return frame
}

// Session returns eight frames: a controller mute, a radio conflict and a sequence discontinuity
// among clean frames.
func Session() [][]byte {
	repeated := Frame(3, 3)

	return [][]byte{
		Frame(0, 0),
		Frame(1, 1),
		bytes.Repeat([]byte{0x55}, types.FrameLength),
		repeated,
		bytes.Clone(repeated),
		Frame(1, 5),
		Frame(3, 6),
		Frame(0, 7),
	}
}

// Raw lays frames out back to back.
func Raw(frames [][]byte) []byte {
	return bytes.Join(frames, nil)
}

// Indexed prefixes every frame with a zero burst index.
func Indexed(frames [][]byte) []byte {
	var out []byte

	for _, frame := range frames {
		out = append(out, 0)
		out = append(out, frame...)
	}

	return out
}

// RTP sends one frame per packet, without gaps.
func RTP(frames [][]byte) []byte {
	var buf bytes.Buffer

	for i, frame := range frames {
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    96,
				SequenceNumber: uint16(1000 + i), //nolint:gosec // small fixture
				Timestamp:      uint32(120 * i),  //nolint:gosec // small fixture
			},
			Payload: frame,
		}

		if err := capture.WriteRTP(&buf, pkt); err != nil {
			panic(err)
		}
	}

	return buf.Bytes()
}
