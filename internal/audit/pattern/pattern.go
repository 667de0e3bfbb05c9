// Package pattern recognizes the synthetic fills a controller or transmitter substitutes for audio it
// could not deliver.
package pattern

import "github.com/farcloser/lacuna/internal/types"

// TrailingZeroLimit is the longest run of trailing zero bytes a genuine frame is expected to carry.
const TrailingZeroLimit = 10

// IsMute reports whether every byte but the pad byte equals filler.
func IsMute(frame []byte, filler byte) bool {
	return isFill(frame[:types.PadIndex], filler)
}

// IsOffset reports whether frame carries the transmitter's fill shifted by index bytes: either the
// front (FrameLength - index) bytes or, when the first byte is genuine audio, the trailing index bytes.
func IsOffset(frame []byte, filler byte, index uint) bool {
	if index == 0 || index >= types.FrameLength {
		return false
	}

	// A lone zero byte is indistinguishable from the normal pad.
	if index == 1 && filler == 0x00 {
		return false
	}

	offset := int(index) //nolint:gosec // bounded by FrameLength above

	if frame[0] == filler {
		return isFill(frame[:types.FrameLength-offset], filler)
	}

	if frame[types.PadIndex] == filler {
		return isFill(frame[types.FrameLength-offset:], filler)
	}

	return false
}

// TrailingZeros counts the zero bytes at the end of frame.
func TrailingZeros(frame []byte) int {
	count := 0

	for i := len(frame) - 1; i >= 0 && frame[i] == 0; i-- {
		count++
	}

	return count
}

// IsDataMissing reports whether the trailing zero run is too long for genuine audio.
func IsDataMissing(frame []byte) bool {
	return TrailingZeros(frame) > TrailingZeroLimit
}

func isFill(region []byte, filler byte) bool {
	for _, b := range region {
		if b != filler {
			return false
		}
	}

	return true
}
