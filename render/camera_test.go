package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func almostEqualVec3(a, b mgl32.Vec3, eps float32) bool {
	return mgl32.FloatEqualThreshold(a.X(), b.X(), eps) &&
		mgl32.FloatEqualThreshold(a.Y(), b.Y(), eps) &&
		mgl32.FloatEqualThreshold(a.Z(), b.Z(), eps)
}

func TestNewCameraDefaults(t *testing.T) {
	cam := NewCamera()
	if got := cam.Position(); got != (mgl32.Vec3{0, 50, -50}) {
		t.Fatalf("position = %v", got)
	}
	// Yaw -90 with zero pitch looks down -Z.
	if !almostEqualVec3(cam.Front(), mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Fatalf("front = %v", cam.Front())
	}
	if cam.Zoom() != 45 {
		t.Fatalf("zoom = %v", cam.Zoom())
	}
}

func TestCameraMove(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(mgl32.Vec3{0, 0, 0})

	// Update takes absolute angles, so a still camera carries its own.
	hold := CameraInput{Yaw: cam.Yaw(), Pitch: cam.Pitch()}

	in := hold
	in.Forward = true
	cam.Update(1, in)
	if !almostEqualVec3(cam.Position(), mgl32.Vec3{0, 0, -15}, 1e-4) {
		t.Fatalf("forward 1s: %v", cam.Position())
	}

	cam.SetPosition(mgl32.Vec3{0, 0, 0})
	in = hold
	in.Forward, in.Sprint = true, true
	cam.Update(1, in)
	if !almostEqualVec3(cam.Position(), mgl32.Vec3{0, 0, -30}, 1e-4) {
		t.Fatalf("sprint 1s: %v", cam.Position())
	}

	// Opposing keys cancel.
	cam.SetPosition(mgl32.Vec3{0, 0, 0})
	in = hold
	in.Left, in.Right = true, true
	cam.Update(1, in)
	if !almostEqualVec3(cam.Position(), mgl32.Vec3{0, 0, 0}, 1e-4) {
		t.Fatalf("opposed strafe: %v", cam.Position())
	}
}

func TestCameraUpdateAppliesAbsoluteAngles(t *testing.T) {
	cam := NewCamera()
	cam.Update(0, CameraInput{Yaw: 0, Pitch: 0})
	if !almostEqualVec3(cam.Front(), mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Fatalf("yaw 0 front = %v, want +X", cam.Front())
	}
	if cam.Yaw() != 0 {
		t.Fatalf("yaw = %v, want 0", cam.Yaw())
	}
}

func TestCameraPitchClamp(t *testing.T) {
	cam := NewCamera()
	cam.SetRotation(-90, 180)
	front := cam.Front()
	want := float32(math.Sin(float64(mgl32.DegToRad(89))))
	if !mgl32.FloatEqualThreshold(front.Y(), want, 1e-5) {
		t.Fatalf("pitch clamp: front.Y = %v, want %v", front.Y(), want)
	}
	cam.SetRotation(-90, -180)
	if !mgl32.FloatEqualThreshold(cam.Front().Y(), -want, 1e-5) {
		t.Fatalf("pitch clamp low: front.Y = %v", cam.Front().Y())
	}
}

func TestVulkanPerspectiveFlipsY(t *testing.T) {
	ref := mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 100)
	got := vulkanPerspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 100)
	if got[5] != -ref[5] {
		t.Fatalf("m[5] = %v, want %v", got[5], -ref[5])
	}
	ref[5] = got[5]
	if got != ref {
		t.Fatalf("non-Y terms changed: %v vs %v", got, ref)
	}
}
