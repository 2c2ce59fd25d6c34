package source

import (
	"testing"

	"github.com/motionctl/gatherd/internal/gather"
)

func TestMemorySourceUnsetChannelIsEmpty(t *testing.T) {
	src := NewMemorySource()

	snap, err := src.Snapshot(gather.Phase)
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if snap.Items != 0 || snap.Samples != 0 || len(snap.Buffer) != 0 {
		t.Fatalf("unset channel not empty: %+v", snap)
	}
}

func TestMemorySourceSetChannel(t *testing.T) {
	src := NewMemorySource()

	want := gather.Snapshot{
		Items:     1,
		Types:     []uint16{2},
		Samples:   1,
		LineBytes: 4,
		Buffer:    []byte{1, 2, 3, 4},
	}
	src.SetChannel(gather.Servo, want)

	got, err := src.Snapshot(gather.Servo)
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if got.Items != want.Items || got.Samples != want.Samples || got.LineBytes != want.LineBytes {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}

	// The other channel stays independent.
	other, err := src.Snapshot(gather.Phase)
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if other.Items != 0 {
		t.Fatalf("phase channel affected by servo set: %+v", other)
	}
}
