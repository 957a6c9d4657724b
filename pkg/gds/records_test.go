package gds

import (
	"math"
	"testing"
)

func TestReal8_KnownEncodings(t *testing.T) {
	tests := []struct {
		v    float64
		bits uint64
	}{
		{0, 0},
		{1, 0x4110000000000000},
		{-1, 0xC110000000000000},
		{0.5, 0x4080000000000000},
		{16, 0x4210000000000000},
	}

	for _, tt := range tests {
		if got := encodeReal8(tt.v); got != tt.bits {
			t.Errorf("encodeReal8(%g) = %#016x, want %#016x", tt.v, got, tt.bits)
		}
		if got := decodeReal8(tt.bits); got != tt.v {
			t.Errorf("decodeReal8(%#016x) = %g, want %g", tt.bits, got, tt.v)
		}
	}
}

func TestReal8_UnitsAreExact(t *testing.T) {
	for _, v := range []float64{1e-3, 1e-9, 2.5e-10, 90, -37.125, 0.1} {
		if got := decodeReal8(encodeReal8(v)); got != v {
			t.Errorf("real8 of %g decodes to %g", v, got)
		}
	}
}

func TestReal8_Extremes(t *testing.T) {
	if got := encodeReal8(1e-100); got != 0 {
		t.Errorf("encodeReal8(1e-100) = %#x, want 0", got)
	}
	if got := decodeReal8(encodeReal8(math.Inf(1))); got < 1e75 {
		t.Errorf("+Inf decodes to %g, want saturation", got)
	}
}
