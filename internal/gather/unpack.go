package gather

import (
	"encoding/binary"
	"math"
)

// Unpack decodes a raw gather buffer into one column of values per item.
// Incomplete trailing lines are discarded, matching a buffer snapshot taken
// mid-write. All values are widened to float64; 24-bit integers are
// extended out of the 32-bit word they are stored in, and bitfield elements
// are shifted and masked out of their register per their descriptor.
func Unpack(types []uint16, order binary.ByteOrder, raw []byte) ([][]float64, error) {
	lineSize := LineSize(types)
	if lineSize == 0 {
		return make([][]float64, len(types)), nil
	}
	lines := len(raw) / lineSize

	cols := make([][]float64, len(types))
	for i := range cols {
		cols[i] = make([]float64, lines)
	}

	for line := 0; line < lines; line++ {
		off := line * lineSize
		for i, code := range types {
			sz := ElementSize(code)
			cols[i][line] = decodeElement(code, order, raw[off:off+sz])
			off += sz
		}
	}
	return cols, nil
}

func decodeElement(code uint16, order binary.ByteOrder, b []byte) float64 {
	if code == TypeDouble {
		return math.Float64frombits(order.Uint64(b))
	}

	word := order.Uint32(b)
	switch code {
	case TypeUint32, TypeUBits, TypeSBits:
		return float64(word)
	case TypeInt32:
		return float64(int32(word))
	case TypeUint24:
		return float64(word & 0xFFFFFF)
	case TypeInt24:
		// Sign-extend from bit 23 of the stored word.
		return float64(int32(word<<8) >> 8)
	case TypeFloat:
		return float64(math.Float32frombits(word))
	default:
		start, count := BitField(code)
		v := word >> start
		if count < 32 {
			v &= (1 << count) - 1
		}
		return float64(v)
	}
}
