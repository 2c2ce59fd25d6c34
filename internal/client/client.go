// Package client implements a gather stream client: it connects to a
// gather server, selects the servo or phase channel, and fetches type
// codes and raw sample data.
//
// Requesting types and data separately costs a Nagle round trip per
// packet; QueryAll asks for both in one request and is the efficient path.
package client

import (
	"bufio"
	"encoding/binary"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/motionctl/gatherd/internal/wire"
)

// Client is a connected gather stream client. Not safe for concurrent use;
// the protocol is strictly request/reply on one connection.
type Client struct {
	conn   net.Conn
	r      *bufio.Reader
	framer wire.Framer

	dialTimeout time.Duration
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithByteOrder sets the wire byte order. Must match the server's; the
// default is little-endian.
func WithByteOrder(order binary.ByteOrder) Cfg {
	return func(c *Client) error {
		c.framer.Order = order
		return nil
	}
}

// WithDialTimeout bounds the initial connect.
func WithDialTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.dialTimeout = d
		return nil
	}
}

// Dial connects to a gather server.
func Dial(addr string, cfgs ...Cfg) (*Client, error) {
	c := &Client{
		framer: wire.Framer{Order: binary.LittleEndian},
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}

	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s failed", addr)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return c, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetServoMode switches the session to the servo channel.
func (c *Client) SetServoMode() error {
	return c.command("servo")
}

// SetPhaseMode switches the session to the phase channel.
func (c *Client) SetPhaseMode() error {
	return c.command("phase")
}

// QueryTypes fetches the per-item type codes of the selected channel.
func (c *Client) QueryTypes() ([]uint16, error) {
	if err := c.sendLine("types"); err != nil {
		return nil, err
	}
	pkt, err := c.recvExpect(wire.TagTypes)
	if err != nil {
		return nil, err
	}
	return c.parseTypes(pkt)
}

// QueryRawData fetches the selected channel's sample count and raw buffer.
func (c *Client) QueryRawData() (uint32, []byte, error) {
	if err := c.sendLine("data"); err != nil {
		return 0, nil, err
	}
	pkt, err := c.recvExpect(wire.TagData)
	if err != nil {
		return 0, nil, err
	}
	return c.parseData(pkt)
}

// QueryAll fetches types and raw data in one request. When the channel has
// no items the server sends types only and the returned buffer is nil.
func (c *Client) QueryAll() ([]uint16, uint32, []byte, error) {
	if err := c.sendLine("all"); err != nil {
		return nil, 0, nil, err
	}
	pkt, err := c.recvExpect(wire.TagTypes)
	if err != nil {
		return nil, 0, nil, err
	}
	types, err := c.parseTypes(pkt)
	if err != nil {
		return nil, 0, nil, err
	}
	if len(types) == 0 {
		return types, 0, nil, nil
	}

	pkt, err = c.recvExpect(wire.TagData)
	if err != nil {
		return nil, 0, nil, err
	}
	samples, raw, err := c.parseData(pkt)
	if err != nil {
		return nil, 0, nil, err
	}
	return types, samples, raw, nil
}

func (c *Client) command(name string) error {
	if err := c.sendLine(name); err != nil {
		return err
	}
	_, err := c.recvExpect(wire.TagAck)
	return err
}

func (c *Client) sendLine(name string) error {
	if _, err := c.conn.Write([]byte(name + "\n")); err != nil {
		return errors.Wrapf(err, "send %s failed", name)
	}
	return nil
}

// recvExpect reads one packet and checks its tag. A server-side error
// packet, reserved in the protocol, surfaces as ErrServer.
func (c *Client) recvExpect(tag byte) (wire.Packet, error) {
	pkt, err := c.framer.ReadPacket(c.r)
	if err != nil {
		return wire.Packet{}, errors.Wrap(err, "receive packet failed")
	}
	if pkt.Tag == wire.TagError && len(pkt.Payload) >= 4 {
		code := c.framer.Order.Uint32(pkt.Payload[:4])
		return wire.Packet{}, errors.Wrapf(ErrServer, "code %d", code)
	}
	if pkt.Tag != tag {
		return wire.Packet{}, errors.Wrapf(ErrUnexpectedTag, "got %q, want %q", pkt.Tag, tag)
	}
	return pkt, nil
}

func (c *Client) parseTypes(pkt wire.Packet) ([]uint16, error) {
	if len(pkt.Payload) < 1 {
		return nil, errors.New("types packet missing item count")
	}
	n := int(pkt.Payload[0])
	if len(pkt.Payload) < 1+2*n {
		return nil, errors.Errorf("types packet truncated: %d items, %d payload bytes", n, len(pkt.Payload))
	}
	types := make([]uint16, n)
	for i := 0; i < n; i++ {
		types[i] = c.framer.Order.Uint16(pkt.Payload[1+2*i:])
	}
	return types, nil
}

func (c *Client) parseData(pkt wire.Packet) (uint32, []byte, error) {
	if len(pkt.Payload) < 4 {
		return 0, nil, errors.New("data packet missing sample count")
	}
	samples := c.framer.Order.Uint32(pkt.Payload[:4])
	return samples, pkt.Payload[4:], nil
}
