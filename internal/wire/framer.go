package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/motionctl/gatherd/internal/gather"
)

// MaxPacket bounds the length field a reader will accept. Generous: the
// largest legitimate packet is a data reply for a full gather buffer.
const MaxPacket = 1 << 28

// Framer encodes reply packets and frames them for the wire. It carries no
// business logic and no connection state.
type Framer struct {
	Order binary.ByteOrder
}

// EncodeAck builds the 'K' acknowledgement packet (empty payload).
func (f Framer) EncodeAck() []byte {
	buf := make([]byte, 5)
	f.Order.PutUint32(buf[0:4], 1)
	buf[4] = TagAck
	return buf
}

// EncodeTypes builds the 'T' packet for a channel snapshot: item count as a
// single byte followed by one 16-bit type code per item, in shared-memory
// order. The boolean reports whether the channel has any items; callers of
// the combined query use it to decide whether a data packet follows.
func (f Framer) EncodeTypes(snap gather.Snapshot) ([]byte, bool) {
	n := int(snap.Items)
	length := uint32(1 + 1 + 2*n)

	buf := make([]byte, 4+length)
	f.Order.PutUint32(buf[0:4], length)
	buf[4] = TagTypes
	buf[5] = snap.Items
	for i := 0; i < n; i++ {
		f.Order.PutUint16(buf[6+2*i:], snap.Types[i])
	}
	return buf, n > 0
}

// EncodeData builds the 'D' packet for a channel snapshot: the sample count
// as a 32-bit integer followed by the raw buffer, copied verbatim.
func (f Framer) EncodeData(snap gather.Snapshot) []byte {
	body := snap.LineBytes * snap.Samples
	length := uint32(1 + 4 + body)

	buf := make([]byte, 4+length)
	f.Order.PutUint32(buf[0:4], length)
	buf[4] = TagData
	f.Order.PutUint32(buf[5:9], snap.Samples)
	copy(buf[9:], snap.Buffer)
	return buf
}

// ReadPacket reads one length-prefixed packet from r and splits it into tag
// and payload. A zero or oversized length field is a framing error.
func (f Framer) ReadPacket(r io.Reader) (Packet, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Packet{}, errors.Wrap(err, "read packet length")
	}
	length := f.Order.Uint32(head[:])
	if length == 0 {
		return Packet{}, errors.New("packet length 0: missing tag")
	}
	if length > MaxPacket {
		return Packet{}, errors.Errorf("packet length %d exceeds limit", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, errors.Wrap(err, "read packet body")
	}
	return Packet{Tag: body[0], Payload: body[1:]}, nil
}

// DecodeCommand interprets one raw read as a request line. The line ends at
// the first CR, LF, or NUL; a read with no terminator is force-terminated
// at its last byte. Surrounding whitespace is trimmed and the result is
// matched case-sensitively. Anything unrecognized is CmdUnknown.
func DecodeCommand(raw []byte) Command {
	line := raw
	if i := bytes.IndexAny(raw, "\r\n\x00"); i >= 0 {
		line = raw[:i]
	} else if len(raw) > 0 {
		line = raw[:len(raw)-1]
	}

	switch string(bytes.TrimSpace(line)) {
	case "phase":
		return CmdPhase
	case "servo":
		return CmdServo
	case "types":
		return CmdTypes
	case "data":
		return CmdData
	case "all":
		return CmdAll
	default:
		return CmdUnknown
	}
}
