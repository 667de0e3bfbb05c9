package header

import "github.com/sigurn/crc8"

// SBC is the CRC-8 used by the SBC frame header: generator x^8+x^4+x^3+x^2+1, initial value 0x0F,
// most significant bit first, no final xor.
//
//nolint:gochecknoglobals // parameter set, effectively const
var SBC = crc8.Params{
	Poly:   0x1D,
	Init:   0x0F,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0x1E,
	Name:   "CRC-8/SBC",
}

// CoveredBits is the length of the region the mSBC checksum protects: the two reserved header bytes
// followed by eight 4-bit mono scale factors.
const CoveredBits = 48

// leftoverFeedback is folded in for each trailing bit of a region that does not end on a byte boundary,
// whenever the incoming bit differs from the checksum's top bit.
const leftoverFeedback = 0x1C

// Covered header bytes, in fold order. Byte 5 holds the checksum itself and is skipped.
//
//nolint:gochecknoglobals // layout table, effectively const
var coveredBytes = [...]int{3, 4, 6, 7, 8, 9}

// DefaultTable returns the SBC lookup table.
func DefaultTable() *crc8.Table {
	return crc8.MakeTable(SBC)
}

// Checksum computes the frame checksum over the covered header region.
// The frame must be at least 10 bytes long.
func Checksum(frame []byte, table *crc8.Table) uint8 {
	var covered [len(coveredBytes)]byte

	for i, pos := range coveredBytes {
		covered[i] = frame[pos]
	}

	return ChecksumBits(covered[:], CoveredBits, table)
}

// ChecksumBits computes the SBC checksum over the first bits bits of data. Whole bytes go through the
// table, the remaining bits of the last byte are folded in one at a time, most significant first.
// data must hold at least (bits+7)/8 bytes.
func ChecksumBits(data []byte, bits int, table *crc8.Table) uint8 {
	whole := bits / 8

	crc := crc8.Update(crc8.Init(table), data[:whole], table)

	if bits%8 == 0 {
		return crc
	}

	octet := data[whole]
	for range bits % 8 {
		bit := (octet ^ crc) & 0x80

		crc = (crc & 0x7f) << 1
		if bit != 0 {
			crc ^= leftoverFeedback
		}

		octet <<= 1
	}

	return crc
}
