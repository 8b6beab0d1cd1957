package render

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// The push constant structs must match the shader-side block layouts
// byte for byte.
func TestPushConstantSizes(t *testing.T) {
	if got := unsafe.Sizeof(WorldPushConstants{}); got != 160 {
		t.Fatalf("WorldPushConstants size = %d, want 160", got)
	}
	if got := unsafe.Sizeof(ShadowPushConstants{}); got != 128 {
		t.Fatalf("ShadowPushConstants size = %d, want 128", got)
	}
	if got := unsafe.Sizeof(frameUniforms{}); got != 96 {
		t.Fatalf("frameUniforms size = %d, want 96", got)
	}
}

func TestMaterialOpaque(t *testing.T) {
	if !(&Material{Alpha: 1}).Opaque() {
		t.Fatal("alpha 1 should be opaque")
	}
	if (&Material{Alpha: 0.5}).Opaque() {
		t.Fatal("alpha 0.5 should be transparent")
	}
}

func TestCubeGeometry(t *testing.T) {
	verts := CubeVertices()
	if len(verts) != 24*vertexFloats {
		t.Fatalf("vertex count = %d floats, want %d", len(verts), 24*vertexFloats)
	}
	idx := CubeIndices()
	if len(idx) != 36 {
		t.Fatalf("index count = %d, want 36", len(idx))
	}
	for _, i := range idx {
		if int(i) >= 24 {
			t.Fatalf("index %d out of range", i)
		}
	}
	// Every vertex sits on the unit cube surface and its normal is axis
	// aligned.
	for v := 0; v < 24; v++ {
		base := v * vertexFloats
		for axis := 0; axis < 3; axis++ {
			p := verts[base+axis]
			if p != 0.5 && p != -0.5 {
				t.Fatalf("vertex %d axis %d = %v", v, axis, p)
			}
		}
		n := verts[base+3 : base+6]
		sum := n[0]*n[0] + n[1]*n[1] + n[2]*n[2]
		if sum != 1 {
			t.Fatalf("vertex %d normal %v not unit axis", v, n)
		}
	}
}

func TestRepackUint32(t *testing.T) {
	data := []byte{0x03, 0x02, 0x23, 0x07, 0xff, 0x00, 0x00, 0x00}
	got := repackUint32(data)
	if len(got) != 2 || got[0] != 0x07230203 || got[1] != 0xff {
		t.Fatalf("repack = %#v", got)
	}
}

func TestLightViewProjectionStable(t *testing.T) {
	a := LightViewProjection()
	b := LightViewProjection()
	if a != b {
		t.Fatal("light matrix should be deterministic")
	}
	if a == (mgl32.Mat4{}) || a == mgl32.Ident4() {
		t.Fatal("light matrix should be a real transform")
	}
}

// Zero-value wrappers must tolerate Destroy without a live device.
func TestDestroyZeroValues(t *testing.T) {
	var (
		buf  Buffer
		mesh Mesh
		tex  Texture
		rp   RenderPass
		sm   ShadowMap
		pl   Pipelines
		rend Renderer
		inst Instance
		surf Surface
		dev  Device
	)
	buf.Destroy(nil)
	mesh.Destroy(nil)
	tex.Destroy(nil)
	rp.Destroy(nil)
	sm.Destroy(nil)
	pl.Destroy(nil)
	rend.Destroy()
	inst.Destroy()
	surf.Destroy(&inst)
	dev.Destroy()

	empty := &Device{}
	buf.Destroy(empty)
	mesh.Destroy(empty)
	tex.Destroy(empty)
	rp.Destroy(empty)
	sm.Destroy(empty)
	pl.Destroy(empty)
}

func TestDrawFrameNotCreated(t *testing.T) {
	var r Renderer
	if err := r.DrawFrame(NewCamera()); err != ErrNotCreated {
		t.Fatalf("err = %v, want ErrNotCreated", err)
	}
}
