package gather

import "testing"

func TestTypeName(t *testing.T) {
	cases := []struct {
		code uint16
		want string
	}{
		{TypeUint32, "uint32"},
		{TypeInt24, "int24"},
		{TypeDouble, "double"},
		{TypeSBits, "sbits"},
		{0x67C6, "bits(start=12 count=1)"},
	}
	for _, c := range cases {
		if got := TypeName(c.code); got != c.want {
			t.Errorf("TypeName(%#x) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestElementSize(t *testing.T) {
	if got := ElementSize(TypeDouble); got != 8 {
		t.Fatalf("double size = %d, want 8", got)
	}
	for _, code := range []uint16{TypeUint32, TypeInt32, TypeUint24, TypeInt24, TypeFloat, TypeUBits, TypeSBits, 0x67C6} {
		if got := ElementSize(code); got != 4 {
			t.Errorf("ElementSize(%#x) = %d, want 4", code, got)
		}
	}
}

func TestLineSize(t *testing.T) {
	if got := LineSize([]uint16{TypeUint32, TypeDouble, TypeFloat}); got != 16 {
		t.Fatalf("LineSize = %d, want 16", got)
	}
	if got := LineSize(nil); got != 0 {
		t.Fatalf("LineSize(nil) = %d, want 0", got)
	}
}

// Known descriptor values from the controller: $67C6 is Motor[x].AmpEna,
// a 1-bit element at bit 12; $C606 is an 8-bit element at bit 24.
func TestBitField(t *testing.T) {
	cases := []struct {
		code         uint16
		start, count uint
	}{
		{0x67C6, 12, 1},
		{0xC606, 24, 8},
		{0x0407, 0, 16},
	}
	for _, c := range cases {
		start, count := BitField(c.code)
		if start != c.start || count != c.count {
			t.Errorf("BitField(%#x) = (%d, %d), want (%d, %d)",
				c.code, start, count, c.start, c.count)
		}
	}
	if IsBitField(TypeSBits) {
		t.Error("IsBitField(sbits) = true, want false")
	}
	if !IsBitField(0x67C6) {
		t.Error("IsBitField($67C6) = false, want true")
	}
}
