package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera movement tuning.
const (
	cameraSpeed     = 15.0
	cameraSprint    = 2.0
	cameraFovDeg    = 45.0
	cameraNear      = 0.1
	cameraFar       = 100.0
	cameraMaxPitch  = 89.0
	degreesToRadian = math.Pi / 180.0
)

// CameraInput is one frame's worth of camera control state, resolved by the
// caller from its input snapshot. Yaw and Pitch are absolute accumulated
// angles in degrees.
type CameraInput struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Sprint   bool
	Yaw      float32
	Pitch    float32
}

// Camera is a first-person free-fly camera: a position plus yaw/pitch
// orientation from which the front/right/up basis is derived. It performs no
// physics integration; collision handling lives one layer up.
type Camera struct {
	position mgl32.Vec3
	front    mgl32.Vec3
	up       mgl32.Vec3
	right    mgl32.Vec3
	worldUp  mgl32.Vec3
	yaw      float32
	pitch    float32
	zoom     float32
}

// NewCamera returns a camera at the default editor start position looking
// down negative Z.
func NewCamera() *Camera {
	c := &Camera{
		position: mgl32.Vec3{0, 50, -50},
		worldUp:  mgl32.Vec3{0, 1, 0},
		yaw:      -90,
		pitch:    0,
		zoom:     cameraFovDeg,
	}
	c.updateVectors()
	return c
}

// Update advances the camera one frame: movement actions scaled by
// speed x dt (doubled while sprinting), then absolute yaw/pitch applied
// with the pitch clamped to avoid flipping.
func (c *Camera) Update(dt float32, in CameraInput) {
	speed := float32(cameraSpeed) * dt
	if in.Sprint {
		speed *= cameraSprint
	}
	if in.Forward {
		c.position = c.position.Add(c.front.Mul(speed))
	}
	if in.Backward {
		c.position = c.position.Sub(c.front.Mul(speed))
	}
	if in.Left {
		c.position = c.position.Sub(c.right.Mul(speed))
	}
	if in.Right {
		c.position = c.position.Add(c.right.Mul(speed))
	}
	c.SetRotation(in.Yaw, in.Pitch)
}

// SetRotation sets absolute yaw/pitch in degrees and rebuilds the basis.
func (c *Camera) SetRotation(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = mgl32.Clamp(pitch, -cameraMaxPitch, cameraMaxPitch)
	c.updateVectors()
}

// Position returns the camera position.
func (c *Camera) Position() mgl32.Vec3 { return c.position }

// SetPosition moves the camera without touching its orientation.
func (c *Camera) SetPosition(p mgl32.Vec3) { c.position = p }

// Front returns the normalized forward vector.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Up returns the normalized up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.up }

// Yaw returns the yaw angle in degrees.
func (c *Camera) Yaw() float32 { return c.yaw }

// Pitch returns the pitch angle in degrees.
func (c *Camera) Pitch() float32 { return c.pitch }

// Zoom returns the vertical field of view in degrees.
func (c *Camera) Zoom() float32 { return c.zoom }

// ViewMatrix returns the look-at view matrix for the current state.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.up)
}

// MVPMatrix composes perspective projection, view and the given model
// matrix. The projection Y axis is flipped for Vulkan clip space.
func (c *Camera) MVPMatrix(aspect float32, model mgl32.Mat4) mgl32.Mat4 {
	proj := vulkanPerspective(c.zoom*degreesToRadian, aspect, cameraNear, cameraFar)
	return proj.Mul4(c.ViewMatrix()).Mul4(model)
}

// updateVectors rebuilds the orthogonal basis from yaw/pitch.
func (c *Camera) updateVectors() {
	yaw := float64(c.yaw) * degreesToRadian
	pitch := float64(c.pitch) * degreesToRadian
	front := mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

// vulkanPerspective is mgl32.Perspective with the Y clip axis inverted.
func vulkanPerspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	m := mgl32.Perspective(fovy, aspect, near, far)
	m[5] *= -1
	return m
}
