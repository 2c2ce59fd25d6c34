package client_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motionctl/gatherd/internal/client"
	"github.com/motionctl/gatherd/internal/gather"
	"github.com/motionctl/gatherd/internal/server"
	"github.com/motionctl/gatherd/internal/source"
)

func startServer(t *testing.T, src source.Source) string {
	t.Helper()

	srv, err := server.New(server.Config{Port: 0, Order: binary.LittleEndian}, src)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-served)
	})

	return fmt.Sprintf("127.0.0.1:%d", srv.Addr().(*net.TCPAddr).Port)
}

func TestQueryAll(t *testing.T) {
	src := source.NewMemorySource()
	src.SetChannel(gather.Servo, gather.Snapshot{
		Items:     2,
		Types:     []uint16{0, 0x67C6},
		Samples:   2,
		LineBytes: 8,
		Buffer:    []byte{1, 0, 0, 0, 0, 0x10, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0},
	})
	addr := startServer(t, src)

	c, err := client.Dial(addr, client.WithDialTimeout(2*time.Second))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetServoMode())

	types, samples, raw, err := c.QueryAll()
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 0x67C6}, types)
	require.Equal(t, uint32(2), samples)
	require.Len(t, raw, 16)

	// The raw buffer decodes with the fetched type codes: the second item
	// is a 1-bit element at bit 12.
	cols, err := gather.Unpack(types, binary.LittleEndian, raw)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, cols[0])
	require.Equal(t, []float64{1, 0}, cols[1])
}

func TestQueryAllEmptyChannel(t *testing.T) {
	addr := startServer(t, source.NewMemorySource())

	c, err := client.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetPhaseMode())

	types, samples, raw, err := c.QueryAll()
	require.NoError(t, err)
	require.Empty(t, types)
	require.Zero(t, samples)
	require.Nil(t, raw)

	// The session is still usable after a types-only reply.
	require.NoError(t, c.SetServoMode())
}

func TestQueryTypesAndRawDataSeparately(t *testing.T) {
	src := source.NewMemorySource()
	src.SetChannel(gather.Phase, gather.Snapshot{
		Items:     1,
		Types:     []uint16{4},
		Samples:   1,
		LineBytes: 4,
		Buffer:    []byte{0, 0, 0xC0, 0x3F}, // float32 1.5
	})
	addr := startServer(t, src)

	c, err := client.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetPhaseMode())

	types, err := c.QueryTypes()
	require.NoError(t, err)
	require.Equal(t, []uint16{4}, types)

	samples, raw, err := c.QueryRawData()
	require.NoError(t, err)
	require.Equal(t, uint32(1), samples)
	require.Equal(t, []byte{0, 0, 0xC0, 0x3F}, raw)
}
