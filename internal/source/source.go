// Package source defines the data source the gather server reads from and
// provides the in-memory implementation used by simulators and tests. The
// real controller shared-memory source and the Modbus-backed source plug in
// behind the same interface.
package source

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/motionctl/gatherd/internal/gather"
)

// Source provides read-only snapshots of gather state, one per channel.
// Snapshots are views: the producer may keep mutating the underlying buffer
// while a snapshot is held, with no atomicity guarantee. The server does
// not lock around reads, matching the controller's own contract.
type Source interface {
	// Snapshot returns the current state of the given channel.
	Snapshot(ch gather.Channel) (gather.Snapshot, error)
	// Close releases the source. Called once on server shutdown.
	Close() error
}

// ErrNoChannel is returned when a source has no state for a channel.
var ErrNoChannel = errors.New("source: no such channel")

// MemorySource is a process-local Source with settable channel state.
// Setting a channel swaps the whole snapshot value; readers holding an
// earlier snapshot keep the buffer they saw.
type MemorySource struct {
	mu    sync.RWMutex
	chans map[gather.Channel]gather.Snapshot
}

// NewMemorySource creates an empty MemorySource. Channels that were never
// set snapshot as empty (zero items, zero samples) rather than erroring,
// mirroring a controller with gathering disabled.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		chans: make(map[gather.Channel]gather.Snapshot),
	}
}

// SetChannel installs the current state for a channel.
func (s *MemorySource) SetChannel(ch gather.Channel, snap gather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chans[ch] = snap
}

// Snapshot implements Source.
func (s *MemorySource) Snapshot(ch gather.Channel) (gather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chans[ch], nil
}

// Close implements Source. A MemorySource holds no external resources.
func (s *MemorySource) Close() error {
	return nil
}
