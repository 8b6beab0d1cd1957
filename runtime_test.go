package vk3d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTickBeforeInit(t *testing.T) {
	rt := NewRuntime(DefaultConfig())
	if err := rt.Tick(); err != ErrNotInitialized {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
	if _, err := rt.UploadMesh([]float32{0}, []uint32{0}); err != ErrNotInitialized {
		t.Fatalf("upload err = %v, want ErrNotInitialized", err)
	}
}

func TestShutdownBeforeInit(t *testing.T) {
	// Drivers defer Shutdown before calling Init, so it must tolerate a
	// runtime whose GPU stack never came up, fully or at all.
	rt := NewRuntime(DefaultConfig())
	rt.Shutdown()
	rt.Shutdown()
}

func TestRuntimeAccessors(t *testing.T) {
	rt := NewRuntime(DefaultConfig())
	if rt.Scene() == nil || rt.Camera() == nil || rt.Input() == nil {
		t.Fatal("world accessors must be live before Init")
	}
	if rt.Renderer() != nil || rt.Device() != nil || rt.Sky() != nil {
		t.Fatal("GPU accessors must be nil before Init")
	}
}

func TestCameraBlocked(t *testing.T) {
	rt := NewRuntime(DefaultConfig())
	w := rt.Scene()

	e := w.CreateEntity()
	tr := w.AddTransform(e)
	tr.Position = mgl32.Vec3{0, 0, 0}
	tr.Scale = mgl32.Vec3{2, 2, 2}
	w.AddMesh(e) // mesh presence is what makes an entity solid

	if !rt.cameraBlocked(mgl32.Vec3{0, 0, 0}) {
		t.Fatal("center should collide")
	}
	// Just outside the half-extent plus camera radius.
	if rt.cameraBlocked(mgl32.Vec3{1.3, 0, 0}) {
		t.Fatal("outside inflated bounds should be free")
	}
	// Inside the inflation band.
	if !rt.cameraBlocked(mgl32.Vec3{1.2, 0, 0}) {
		t.Fatal("inflation band should collide")
	}

	// Entities without a mesh never block.
	ghost := w.CreateEntity()
	gt := w.AddTransform(ghost)
	gt.Position = mgl32.Vec3{10, 0, 0}
	if rt.cameraBlocked(mgl32.Vec3{10, 0, 0}) {
		t.Fatal("mesh-less entity should not block")
	}
}

type countingOverlay struct {
	before, after int
	lastDT        float32
}

func (o *countingOverlay) BeforeUpdate(_ *Runtime, dt float32) {
	o.before++
	o.lastDT = dt
}
func (o *countingOverlay) AfterUpdate(*Runtime) { o.after++ }

func TestSetOverlayNilRestoresNop(t *testing.T) {
	rt := NewRuntime(DefaultConfig())
	o := &countingOverlay{}
	rt.SetOverlay(o)
	rt.SetOverlay(nil)
	if _, ok := rt.overlay.(nopOverlay); !ok {
		t.Fatalf("overlay = %T, want nopOverlay", rt.overlay)
	}
}
