package gather

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestUnpack_Primitives(t *testing.T) {
	types := []uint16{TypeUint32, TypeInt32, TypeFloat, TypeDouble}
	order := binary.LittleEndian

	// Two lines of 20 bytes each.
	raw := make([]byte, 0, 40)
	appendU32 := func(v uint32) { raw = order.AppendUint32(raw, v) }

	appendU32(7)
	appendU32(0xFFFFFFFB) // -5
	appendU32(math.Float32bits(1.5))
	raw = order.AppendUint64(raw, math.Float64bits(2.25))

	appendU32(8)
	appendU32(42)
	appendU32(math.Float32bits(-3))
	raw = order.AppendUint64(raw, math.Float64bits(-0.5))

	cols, err := Unpack(types, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if len(cols) != 4 {
		t.Fatalf("got %d columns, want 4", len(cols))
	}
	want := [][]float64{
		{7, 8},
		{-5, 42},
		{1.5, -3},
		{2.25, -0.5},
	}
	for i := range want {
		if len(cols[i]) != 2 {
			t.Fatalf("column %d has %d lines, want 2", i, len(cols[i]))
		}
		for l := range want[i] {
			if cols[i][l] != want[i][l] {
				t.Errorf("cols[%d][%d] = %v, want %v", i, l, cols[i][l], want[i][l])
			}
		}
	}
}

func TestUnpack_Int24SignExtension(t *testing.T) {
	order := binary.LittleEndian

	// -2 stored as a 24-bit value inside a 32-bit word.
	raw := order.AppendUint32(nil, 0x00FFFFFE)
	cols, err := Unpack([]uint16{TypeInt24}, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if got := cols[0][0]; got != -2 {
		t.Fatalf("int24 = %v, want -2", got)
	}

	// uint24 masks off the top byte instead of sign-extending.
	raw = order.AppendUint32(nil, 0xAAFFFFFE)
	cols, err = Unpack([]uint16{TypeUint24}, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if got := cols[0][0]; got != 0xFFFFFE {
		t.Fatalf("uint24 = %v, want %v", got, float64(0xFFFFFE))
	}
}

func TestUnpack_BitField(t *testing.T) {
	order := binary.LittleEndian

	// $67C6: 1 bit starting at bit 12.
	raw := order.AppendUint32(nil, 1<<12)
	cols, err := Unpack([]uint16{0x67C6}, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if got := cols[0][0]; got != 1 {
		t.Fatalf("bitfield = %v, want 1", got)
	}

	// $C606: 8 bits starting at bit 24.
	raw = order.AppendUint32(nil, 0xAB<<24|0xFFFF)
	cols, err = Unpack([]uint16{0xC606}, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if got := cols[0][0]; got != 0xAB {
		t.Fatalf("bitfield = %v, want %v", got, float64(0xAB))
	}
}

func TestUnpack_DiscardsPartialTrailingLine(t *testing.T) {
	order := binary.LittleEndian
	types := []uint16{TypeUint32, TypeUint32}

	raw := order.AppendUint32(nil, 1)
	raw = order.AppendUint32(raw, 2)
	raw = order.AppendUint32(raw, 3) // half a line

	cols, err := Unpack(types, order, raw)
	if err != nil {
		t.Fatalf("Unpack err=%v", err)
	}
	if len(cols[0]) != 1 || len(cols[1]) != 1 {
		t.Fatalf("got %d/%d lines, want 1/1", len(cols[0]), len(cols[1]))
	}
}
