// Package wire implements the gather stream wire format: length-prefixed,
// tag-typed binary reply packets and the line-oriented request commands.
//
// A reply packet is laid out as
//
//	length  uint32  byte count of everything that follows
//	tag     byte    'K' ack, 'T' types, 'D' data
//	payload bytes   length-1 bytes
//
// Integer byte order is configurable per Framer. The original deployment
// writes raw host memory, so the default elsewhere in this module is
// little-endian, which is host order on every supported controller target.
package wire

// Reply packet tags.
const (
	TagAck   byte = 'K'
	TagTypes byte = 'T'
	TagData  byte = 'D'
	TagError byte = 'E' // reserved; the server never emits it
)

// Packet is one decoded reply packet.
type Packet struct {
	Tag     byte
	Payload []byte
}

// Command is a decoded client request line.
type Command int

const (
	CmdUnknown Command = iota
	CmdPhase
	CmdServo
	CmdTypes
	CmdData
	CmdAll
)

func (c Command) String() string {
	switch c {
	case CmdPhase:
		return "phase"
	case CmdServo:
		return "servo"
	case CmdTypes:
		return "types"
	case CmdData:
		return "data"
	case CmdAll:
		return "all"
	default:
		return "unknown"
	}
}
