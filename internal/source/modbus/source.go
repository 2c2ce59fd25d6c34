// internal/source/modbus/source.go
package modbus

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	gomodbus "github.com/goburrow/modbus"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/motionctl/gatherd/internal/gather"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// regReader is the exact Modbus surface the source uses. Register payloads
// are raw big-endian bytes, two per register, as Modbus defines them.
// goburrow's modbus.Client satisfies this.
type regReader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error) // FC 3
	ReadInputRegisters(address, quantity uint16) ([]byte, error)   // FC 4
}

// BlockConfig describes one channel's read geometry: which registers make
// up a sample line and how many lines the ring retains.
type BlockConfig struct {
	FC       uint8 // 3 = holding, 4 = input
	Address  uint16
	Quantity uint16 // items per line, one register each
	Depth    uint32 // ring depth in lines
}

// Config is the runtime config for a Modbus-backed gather source.
type Config struct {
	Endpoint string
	UnitID   byte
	Timeout  time.Duration
	Interval time.Duration
	Order    binary.ByteOrder // byte order of the produced gather buffer

	// Per-channel geometry; a nil block leaves that channel empty.
	Servo *BlockConfig
	Phase *BlockConfig
}

// Source polls a Modbus device at a fixed period and exposes the sampled
// registers as gather channels. Each poll cycle appends one line per
// configured channel; every item is served as a 32-bit unsigned word
// (gather type code 0) holding the zero-extended register value.
//
// Bench rigs and simulators run this in place of controller shared memory;
// the wire protocol upstream is identical either way.
type Source struct {
	cfg    Config
	client regReader
	closer func() error

	rings map[gather.Channel]*ring

	cancel context.CancelFunc
	done   chan struct{}
}

// New dials the device and starts the poll loop. Connection failure is
// fatal here: the daemon fails fast at startup rather than serving a
// source that never produced a sample.
func New(cfg Config) (*Source, error) {
	handler := gomodbus.NewTCPClientHandler(cfg.Endpoint)
	handler.Timeout = cfg.Timeout
	handler.SlaveId = cfg.UnitID

	if err := handler.Connect(); err != nil {
		return nil, errors.Wrapf(err, "modbus source: connect %s", cfg.Endpoint)
	}

	s, err := newSource(cfg, gomodbus.NewClient(handler), handler.Close)
	if err != nil {
		handler.Close()
		return nil, err
	}
	s.start()
	return s, nil
}

func newSource(cfg Config, client regReader, closer func() error) (*Source, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus source: endpoint required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("modbus source: interval must be > 0")
	}
	if cfg.Servo == nil && cfg.Phase == nil {
		return nil, errors.New("modbus source: at least one channel block required")
	}
	if cfg.Order == nil {
		cfg.Order = binary.LittleEndian
	}

	rings := make(map[gather.Channel]*ring)
	for ch, blk := range map[gather.Channel]*BlockConfig{
		gather.Servo: cfg.Servo,
		gather.Phase: cfg.Phase,
	} {
		if blk == nil {
			continue
		}
		if blk.FC != 3 && blk.FC != 4 {
			return nil, errors.Errorf("modbus source: unsupported function code %d", blk.FC)
		}
		if blk.Quantity == 0 || blk.Quantity > 125 {
			return nil, errors.Errorf("modbus source: quantity %d out of range", blk.Quantity)
		}
		if blk.Depth == 0 {
			return nil, errors.New("modbus source: ring depth must be > 0")
		}
		rings[ch] = newRing(blk.Quantity, blk.Depth)
	}

	return &Source{
		cfg:    cfg,
		client: client,
		closer: closer,
		rings:  rings,
	}, nil
}

func (s *Source) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

// run is the ticker loop. One goroutine, no overlap, no retries: a failed
// cycle is logged and the next tick tries again.
func (s *Source) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pollOnce(); err != nil {
				logger.WithError(err).Warn("modbus poll cycle failed")
			}
		}
	}
}

// pollOnce performs exactly one poll cycle. All-or-nothing: a failed read
// aborts the cycle without committing any channel's line.
func (s *Source) pollOnce() error {
	type sample struct {
		r    *ring
		line []byte
	}
	var samples []sample

	for ch, blk := range map[gather.Channel]*BlockConfig{
		gather.Servo: s.cfg.Servo,
		gather.Phase: s.cfg.Phase,
	} {
		if blk == nil {
			continue
		}

		var (
			raw []byte
			err error
		)
		switch blk.FC {
		case 3:
			raw, err = s.client.ReadHoldingRegisters(blk.Address, blk.Quantity)
		case 4:
			raw, err = s.client.ReadInputRegisters(blk.Address, blk.Quantity)
		}
		if err != nil {
			return errors.Wrapf(err, "read fc=%d addr=%d qty=%d", blk.FC, blk.Address, blk.Quantity)
		}
		if len(raw) < 2*int(blk.Quantity) {
			return errors.Errorf("short register payload: got %d bytes, want %d", len(raw), 2*blk.Quantity)
		}

		samples = append(samples, sample{r: s.rings[ch], line: s.packLine(raw, blk.Quantity)})
	}

	// Commit only if all reads succeeded.
	for _, sm := range samples {
		sm.r.push(sm.line)
	}
	return nil
}

// packLine widens big-endian registers into 32-bit gather words in the
// source's byte order.
func (s *Source) packLine(raw []byte, quantity uint16) []byte {
	line := make([]byte, 4*int(quantity))
	for i := 0; i < int(quantity); i++ {
		reg := uint32(raw[2*i])<<8 | uint32(raw[2*i+1])
		s.cfg.Order.PutUint32(line[4*i:], reg)
	}
	return line
}

// Snapshot implements source.Source. Unconfigured channels snapshot as
// empty, the same as a controller with gathering disabled.
func (s *Source) Snapshot(ch gather.Channel) (gather.Snapshot, error) {
	r, ok := s.rings[ch]
	if !ok {
		return gather.Snapshot{}, nil
	}
	return r.snapshot(), nil
}

// Close stops the poll loop and closes the transport.
func (s *Source) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// ---- ring buffer ----

// ring retains the most recent depth lines for one channel.
type ring struct {
	mu    sync.Mutex
	types []uint16
	width uint32 // bytes per line
	depth int
	lines [][]byte // oldest first
}

func newRing(items uint16, depth uint32) *ring {
	types := make([]uint16, items)
	for i := range types {
		types[i] = gather.TypeUint32
	}
	return &ring{
		types: types,
		width: 4 * uint32(items),
		depth: int(depth),
	}
}

func (r *ring) push(line []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == r.depth {
		copy(r.lines, r.lines[1:])
		r.lines[len(r.lines)-1] = line
		return
	}
	r.lines = append(r.lines, line)
}

func (r *ring) snapshot() gather.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, 0, len(r.lines)*int(r.width))
	for _, line := range r.lines {
		buf = append(buf, line...)
	}
	return gather.Snapshot{
		Items:     uint8(len(r.types)),
		Types:     r.types,
		Samples:   uint32(len(r.lines)),
		LineBytes: r.width,
		Buffer:    buf,
	}
}
