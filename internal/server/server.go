// Package server implements the gather stream TCP server: a listener that
// runs one isolated session goroutine per accepted connection. The listener
// holds no per-connection state; a client's failure or slow input affects
// only its own session.
package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/motionctl/gatherd/internal/source"
	"github.com/motionctl/gatherd/internal/wire"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultPort is the port gather clients expect.
const DefaultPort = 2332

// Config configures a Server.
type Config struct {
	// Port to listen on. 0 picks an ephemeral port (tests).
	Port int
	// Order is the wire byte order. Defaults to little-endian, host order
	// on every supported controller target.
	Order binary.ByteOrder
}

// Server accepts gather stream connections and serves each from its own
// goroutine against a shared read-only data source.
type Server struct {
	cfg Config
	src source.Source

	ln net.Listener
	wg sync.WaitGroup
}

// New creates a Server around an already-opened data source. The source is
// shared read-only with every session and stays owned by the caller.
func New(cfg Config, src source.Source) (*Server, error) {
	if src == nil {
		return nil, errors.New("server: data source required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, errors.Errorf("server: port %d out of range", cfg.Port)
	}
	if cfg.Order == nil {
		cfg.Order = binary.LittleEndian
	}
	return &Server{cfg: cfg, src: src}, nil
}

// Listen binds the wildcard address, dual-stack where the platform allows.
// The runtime sets SO_REUSEADDR on TCP listeners.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return errors.Wrapf(ErrBind, "listen :%d: %v", s.cfg.Port, err)
	}
	s.ln = ln
	logger.WithField("addr", ln.Addr().String()).Info("listening")
	return nil
}

// Addr returns the bound address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then waits for live
// sessions to drain. A failed accept is logged and the loop continues.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	framer := wire.Framer{Order: s.cfg.Order}
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			logger.WithError(err).Warn("accept failed")
			continue
		}

		logger.WithField("remote", conn.RemoteAddr().String()).Info("connection accepted")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newSession(conn, s.src, framer).run()
		}()
	}
}

// ListenAndServe binds and serves in one call.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}
