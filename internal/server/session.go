package server

import (
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/motionctl/gatherd/internal/gather"
	"github.com/motionctl/gatherd/internal/source"
	"github.com/motionctl/gatherd/internal/wire"
)

// readBufSize caps the significant bytes of one request line. A read with
// no terminator inside this window is force-truncated by the decoder.
const readBufSize = 99

// session owns one client connection. Its only state beyond the connection
// is the mode flag selecting which channel replies are served from.
type session struct {
	conn   net.Conn
	src    source.Source
	framer wire.Framer
	mode   gather.Channel
	log    logrus.FieldLogger
}

func newSession(conn net.Conn, src source.Source, framer wire.Framer) *session {
	return &session{
		conn:   conn,
		src:    src,
		framer: framer,
		mode:   gather.Servo,
		log: logger.WithFields(logrus.Fields{
			"session": uuid.New().String(),
			"remote":  conn.RemoteAddr().String(),
		}),
	}
}

// run reads and serves commands until the peer disconnects or an I/O error
// ends the session. At most one command is decoded per physical read;
// partial lines split across reads are not reassembled.
func (s *session) run() {
	defer s.conn.Close()

	buf := make([]byte, readBufSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil || n == 0 {
			s.log.WithError(err).Debug("session closed")
			return
		}
		if !s.handle(wire.DecodeCommand(buf[:n])) {
			return
		}
	}
}

// handle applies exactly one transition/reply for a decoded command. It
// returns false when a send failed and the session must end; protocol and
// data errors never reach the client, so everything else continues.
func (s *session) handle(cmd wire.Command) bool {
	switch cmd {
	case wire.CmdPhase:
		s.mode = gather.Phase
		s.log.Info("phase mode")
		return s.send(s.framer.EncodeAck())

	case wire.CmdServo:
		s.mode = gather.Servo
		s.log.Info("servo mode")
		return s.send(s.framer.EncodeAck())

	case wire.CmdTypes:
		snap, ok := s.snapshot()
		if !ok {
			return true
		}
		pkt, _ := s.framer.EncodeTypes(snap)
		s.log.WithFields(logrus.Fields{
			"mode": s.mode.String(), "items": snap.Items,
		}).Info("types request")
		return s.send(pkt)

	case wire.CmdData:
		snap, ok := s.snapshot()
		if !ok {
			return true
		}
		s.log.WithFields(logrus.Fields{
			"mode": s.mode.String(), "items": snap.Items,
			"samples": snap.Samples, "line_bytes": snap.LineBytes,
		}).Info("data request")
		return s.send(s.framer.EncodeData(snap))

	case wire.CmdAll:
		// Types and data come from the same snapshot; the data packet is
		// omitted entirely when the channel has no items.
		snap, ok := s.snapshot()
		if !ok {
			return true
		}
		pkt, hasItems := s.framer.EncodeTypes(snap)
		s.log.WithFields(logrus.Fields{
			"mode": s.mode.String(), "items": snap.Items, "samples": snap.Samples,
		}).Info("all request")
		if !s.send(pkt) {
			return false
		}
		if !hasItems {
			return true
		}
		return s.send(s.framer.EncodeData(snap))

	default:
		// Unrecognized input is silently ignored; the protocol has no
		// error packet.
		return true
	}
}

func (s *session) snapshot() (gather.Snapshot, bool) {
	snap, err := s.src.Snapshot(s.mode)
	if err != nil {
		s.log.WithError(err).WithField("mode", s.mode.String()).Warn("snapshot failed")
		return gather.Snapshot{}, false
	}
	return snap, true
}

// send writes one reply packet. A failed or partial send aborts the
// session; nothing is buffered or retried.
func (s *session) send(pkt []byte) bool {
	if _, err := s.conn.Write(pkt); err != nil {
		s.log.WithError(err).Warn("send failed")
		return false
	}
	return true
}
