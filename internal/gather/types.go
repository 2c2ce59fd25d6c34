// Package gather defines the data model of the controller's gather
// subsystem: sampling channels, buffer snapshots, and the 16-bit type
// codes describing how each gathered item is encoded on a sample line.
package gather

import "fmt"

// Channel selects one of the controller's two independent sampling feeds.
type Channel int

const (
	// Servo is the servo-loop sampling channel.
	Servo Channel = iota
	// Phase is the phase-loop sampling channel.
	Phase
)

func (c Channel) String() string {
	switch c {
	case Servo:
		return "servo"
	case Phase:
		return "phase"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Snapshot is a read-only view of one channel's gather state, captured at
// request time. The controller may keep writing while a snapshot is taken;
// no atomicity is guaranteed and a torn buffer is acceptable.
type Snapshot struct {
	Items     uint8    // number of gathered items per line
	Types     []uint16 // one type code per item, in shared-memory order
	Samples   uint32   // number of sample lines in the buffer
	LineBytes uint32   // width of one sample line in bytes
	Buffer    []byte   // raw samples, LineBytes*Samples bytes
}

// Primitive gather type codes. Codes at or above NumPrimitiveTypes encode a
// packed sub-word bitfield descriptor instead (see BitField).
const (
	TypeUint32 uint16 = iota
	TypeInt32
	TypeUint24
	TypeInt24
	TypeFloat
	TypeDouble
	TypeUBits
	TypeSBits

	NumPrimitiveTypes = 8
)

var typeNames = [NumPrimitiveTypes]string{
	"uint32", "int32", "uint24", "int24", "float", "double", "ubits", "sbits",
}

// TypeName returns a human-readable name for a type code.
func TypeName(code uint16) string {
	if code < NumPrimitiveTypes {
		return typeNames[code]
	}
	start, count := BitField(code)
	return fmt.Sprintf("bits(start=%d count=%d)", start, count)
}

// ElementSize returns the on-wire size in bytes of one element of the given
// type. Doubles occupy 8 bytes; everything else, including the 24-bit
// integers and bitfield elements, is stored in a full 32-bit word.
func ElementSize(code uint16) int {
	if code == TypeDouble {
		return 8
	}
	return 4
}

// LineSize returns the width in bytes of one sample line for a set of
// per-item type codes.
func LineSize(types []uint16) int {
	n := 0
	for _, code := range types {
		n += ElementSize(code)
	}
	return n
}

// Packed bitfield descriptor layout. When a type code is not a primitive,
// the high 5 bits give the starting (low) bit number of the partial-word
// element inside its 32-bit register, and bits 6-10 hold 32 minus the
// element's bit width. The gathered value is always the full register; the
// descriptor only says which part of it the element occupies.
const (
	bitStartMask = 0xF800
	bitCountMask = 0x07FF
)

// IsBitField reports whether a type code is a packed bitfield descriptor.
func IsBitField(code uint16) bool {
	return code >= NumPrimitiveTypes
}

// BitField decodes a packed bitfield descriptor into the element's starting
// bit and bit width.
func BitField(code uint16) (start, count uint) {
	start = uint(code&bitStartMask) >> 11
	count = 32 - (uint(code&bitCountMask) >> 6)
	return start, count
}
