package skybox

import (
	"math"
	"testing"
)

func TestFloatToHalfKnownValues(t *testing.T) {
	cases := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-1, 0xbc00},
		{0.5, 0x3800},
		{2, 0x4000},
		{65504, 0x7bff}, // largest finite half
		{65536, 0x7c00}, // overflows to +inf
		{float32(math.Inf(-1)), 0xfc00},
	}
	for _, c := range cases {
		if got := floatToHalf(c.in); got != c.want {
			t.Errorf("floatToHalf(%v) = %#04x, want %#04x", c.in, got, c.want)
		}
	}
}

func TestHalfRoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.25, 100, 1.0 / 3.0, 6.1e-5, 3.14159}
	for _, v := range values {
		back := halfToFloat(floatToHalf(v))
		// Truncating conversion: the result never exceeds the input
		// magnitude and stays within one half ULP (2^-10 relative).
		diff := math.Abs(float64(v - back))
		if diff > math.Abs(float64(v))/1024 {
			t.Errorf("round trip %v -> %v, diff %v", v, back, diff)
		}
	}
}

func TestHalfSubnormals(t *testing.T) {
	// 2^-15 is below the normal half range but representable.
	v := float32(math.Ldexp(1, -15))
	h := floatToHalf(v)
	if h&0x7c00 != 0 {
		t.Fatalf("expected subnormal encoding, got %#04x", h)
	}
	if got := halfToFloat(h); got != v {
		t.Fatalf("subnormal round trip: %v -> %v", v, got)
	}
	// Too small flushes to signed zero.
	if got := floatToHalf(float32(math.Ldexp(1, -30))); got != 0 {
		t.Fatalf("tiny value = %#04x, want 0", got)
	}
}
