package gx2

import "testing"

func TestComponentMask(t *testing.T) {
	tests := []struct {
		format AttribFormat
		want   uint32
	}{
		{Float32x3, SelMask(SelX, SelY, SelZ, Sel1)},
		{UInt8x4, SelMask(SelX, SelY, SelZ, SelW)},
		{SNorm8x1, SelMask(SelX, Sel0, Sel0, Sel1)},
		{UNorm8x2, SelMask(SelX, SelY, Sel0, Sel1)},
		{Float32x1, SelMask(SelX, Sel0, Sel0, Sel1)},
		{Float32x4, SelMask(SelX, SelY, SelZ, SelW)},
		{FormatInvalid, SelMask(Sel0, Sel0, Sel0, Sel1)},
		{AttribFormat(99), SelMask(Sel0, Sel0, Sel0, Sel1)},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := ComponentMask(tt.format); got != tt.want {
				t.Errorf("ComponentMask(%v) = %#08x, want %#08x", tt.format, got, tt.want)
			}
		})
	}
}

func TestSelMaskPacking(t *testing.T) {
	// GX2_SEL_MASK(X, Y, Z, 1) from the SDK headers.
	if got := SelMask(SelX, SelY, SelZ, Sel1); got != 0x00010205 {
		t.Errorf("expected 0x00010205, got %#08x", got)
	}
}

func TestNativeAttribFormat(t *testing.T) {
	for f := range attribFormatNames {
		if _, ok := f.Native(); !ok {
			t.Errorf("format %v has no native code", f)
		}
		if f.Size() == 0 {
			t.Errorf("format %v has zero size", f)
		}
	}
	if _, ok := FormatInvalid.Native(); ok {
		t.Error("invalid format should not translate")
	}
	if v, _ := Float32x3.Native(); v != 0x811 {
		t.Errorf("expected float32x3 native 0x811, got %#x", v)
	}
}

func TestParseAttribFormat(t *testing.T) {
	f, err := ParseAttribFormat("float32x2")
	if err != nil {
		t.Fatalf("ParseAttribFormat failed: %v", err)
	}
	if f != Float32x2 {
		t.Errorf("expected Float32x2, got %v", f)
	}
	if _, err := ParseAttribFormat("float64x2"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNativeEndianSwap(t *testing.T) {
	tests := []struct {
		swap EndianSwap
		want uint32
	}{
		{EndianNone, 0},
		{Endian8In16, 1},
		{Endian8In32, 2},
		{EndianDefault, 3},
	}
	for _, tt := range tests {
		got, ok := tt.swap.Native()
		if !ok || got != tt.want {
			t.Errorf("%v: expected %d, got %d (ok=%v)", tt.swap, tt.want, got, ok)
		}
	}
}

func TestParseEndianSwap(t *testing.T) {
	for _, e := range []EndianSwap{EndianDefault, EndianNone, Endian8In16, Endian8In32} {
		got, err := ParseEndianSwap(e.String())
		if err != nil || got != e {
			t.Errorf("ParseEndianSwap(%q) = %v, %v", e.String(), got, err)
		}
	}
	if got, err := ParseEndianSwap(""); err != nil || got != EndianDefault {
		t.Errorf("empty name should be default, got %v, %v", got, err)
	}
	if _, err := ParseEndianSwap("8in64"); err == nil {
		t.Error("expected error for unknown swap")
	}
}
