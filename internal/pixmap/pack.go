package pixmap

import "bytes"

const (
	// PreambleByte is the sentinel value the controller watches for.
	PreambleByte = '#'
	// PreambleLen is the number of sentinel bytes marking frame start.
	PreambleLen = 11

	// RowDataBytes is the number of packed data bytes per physical row
	// (64 pixels at one bit each).
	RowDataBytes = 8
	// RowUnitBytes is a full row unit on the wire: the data bytes plus
	// one zero pad byte.
	RowUnitBytes = RowDataBytes + 1
)

// thresholdMid is the binarization cut: samples strictly above it are lit.
const thresholdMid = 127

// Threshold binarizes an intensity sample against the mid-scale value,
// optionally inverted. The result is the bit value, 0 or 1.
func Threshold(sample byte, invert bool) byte {
	if (sample > thresholdMid) != invert {
		return 1
	}
	return 0
}

// Preamble returns a fresh copy of the frame sync preamble.
func Preamble() []byte {
	return bytes.Repeat([]byte{PreambleByte}, PreambleLen)
}

// Packer converts a rotated sample sequence into wire row units. Eight
// consecutive thresholded bits pack into one byte least significant
// bit first: the first sample of a group occupies bit 0.
type Packer struct {
	src    *Rotation
	invert bool
}

// NewPacker returns a packer over the given sample sequence.
func NewPacker(src *Rotation, invert bool) *Packer {
	return &Packer{src: src, invert: invert}
}

// NextRow returns the next row unit: up to RowDataBytes packed data
// bytes, followed by one zero pad byte when the row is complete. nil
// signals the end of the sequence.
//
// When the sample count is not a multiple of 64 the tail is truncated:
// a trailing group of fewer than eight samples is dropped outright, and
// a final short row carries no pad byte. The fixed 64x64 panel never
// exercises either path.
func (p *Packer) NextRow() []byte {
	row := make([]byte, 0, RowUnitBytes)
	for len(row) < RowDataBytes {
		b, ok := p.nextByte()
		if !ok {
			break
		}
		row = append(row, b)
	}
	if len(row) == 0 {
		return nil
	}
	if len(row) == RowDataBytes {
		row = append(row, 0x00)
	}
	return row
}

func (p *Packer) nextByte() (byte, bool) {
	var b byte
	for bit := 0; bit < 8; bit++ {
		s, ok := p.src.Next()
		if !ok {
			// Partial byte: dropped, not zero-padded.
			return 0, false
		}
		b |= Threshold(s, p.invert) << bit
	}
	return b, true
}

// EncodeFrame packs an entire rotated sequence into one wire frame:
// the sync preamble followed by one row unit per display row. For a
// 64x64 panel that is 11 + 64*9 = 587 bytes.
func EncodeFrame(src *Rotation, invert bool) []byte {
	frame := Preamble()
	p := NewPacker(src, invert)
	for {
		row := p.NextRow()
		if row == nil {
			return frame
		}
		frame = append(frame, row...)
	}
}
