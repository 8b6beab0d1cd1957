package skybox

import (
	"math"
	"testing"
)

func solidPanorama(w, h int, r, g, b float32) *Panorama {
	p := &Panorama{Width: w, Height: h, Pixels: make([]float32, w*h*3)}
	for i := 0; i < w*h; i++ {
		p.Pixels[i*3] = r
		p.Pixels[i*3+1] = g
		p.Pixels[i*3+2] = b
	}
	return p
}

func TestConvertEquirectSolidColor(t *testing.T) {
	p := solidPanorama(4, 2, 0.25, 0.5, 0.75)
	const size = 2
	out := ConvertEquirect(p, size)

	if len(out) != 6*size*size*8 {
		t.Fatalf("output length = %d", len(out))
	}
	wantR := floatToHalf(0.25)
	wantG := floatToHalf(0.5)
	wantB := floatToHalf(0.75)
	wantA := floatToHalf(1)
	for px := 0; px < 6*size*size; px++ {
		i := px * 8
		get := func(off int) uint16 {
			return uint16(out[i+off]) | uint16(out[i+off+1])<<8
		}
		if get(0) != wantR || get(2) != wantG || get(4) != wantB || get(6) != wantA {
			t.Fatalf("pixel %d = %04x %04x %04x %04x", px, get(0), get(2), get(4), get(6))
		}
	}
}

func TestFaceDirections(t *testing.T) {
	// At the face center every direction must be the face axis.
	axes := [6][3]float32{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}
	for face, want := range axes {
		x, y, z := faceDirection(face, 0, 0)
		if x != want[0] || y != want[1] || z != want[2] {
			t.Errorf("face %d center = (%v %v %v), want %v", face, x, y, z, want)
		}
	}
}

func TestDirectionToEquirect(t *testing.T) {
	// Straight up maps to the top edge, straight down to the bottom.
	if _, v := directionToEquirect(0, 1, 0); v != 0 {
		t.Fatalf("up v = %v", v)
	}
	if _, v := directionToEquirect(0, -1, 0); v != 1 {
		t.Fatalf("down v = %v", v)
	}
	// The horizon sits at v = 0.5 regardless of heading.
	_, v := directionToEquirect(0.3, 0, -0.7)
	if math.Abs(float64(v)-0.5) > 1e-6 {
		t.Fatalf("horizon v = %v", v)
	}
	// U covers the full turn.
	uA, _ := directionToEquirect(-1, 0, 0)
	uB, _ := directionToEquirect(1, 0, 0)
	if math.Abs(float64(uA-uB)) != 0.5 {
		t.Fatalf("half turn: %v vs %v", uA, uB)
	}
}
