package vk3d

import (
	"errors"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/vk3d/input"
	"github.com/gogpu/vk3d/render"
	"github.com/gogpu/vk3d/render/skybox"
	"github.com/gogpu/vk3d/scene"
)

// ErrNotInitialized is returned by Tick before Init has succeeded.
var ErrNotInitialized = errors.New("vk3d: runtime not initialized")

const (
	// Frame delta clamp. Long stalls (debugger, window drag) advance the
	// simulation by at most this much.
	maxFrameDelta = 0.05

	// Half-extent of the camera's collision box.
	cameraRadius = 0.25
)

// Overlay hooks tool code (an editor inspector, a debug HUD) into the
// tick, before and after the world advances.
type Overlay interface {
	// BeforeUpdate runs once per tick before camera and scene updates.
	BeforeUpdate(rt *Runtime, dt float32)
	// AfterUpdate runs after updates, before the frame is drawn.
	AfterUpdate(rt *Runtime)
}

type nopOverlay struct{}

func (nopOverlay) BeforeUpdate(*Runtime, float32) {}
func (nopOverlay) AfterUpdate(*Runtime)           {}

// Runtime owns the full engine stack for one window: instance, device,
// swapchain, renderer, skybox, scene, camera and input.
type Runtime struct {
	cfg    Config
	window *glfw.Window

	instance  *render.Instance
	device    *render.Device
	surface   *render.Surface
	swapchain *render.Swapchain
	pass      *render.RenderPass
	renderer  *render.Renderer
	sky       *skybox.Skybox

	world   *scene.Scene
	camera  *render.Camera
	in      *input.State
	overlay Overlay

	items     []render.Item
	ents      []scene.Entity
	resized   bool
	lastFrame time.Time
}

// NewRuntime creates an uninitialized runtime with the given config.
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{
		cfg:     cfg,
		world:   scene.NewScene(),
		camera:  render.NewCamera(),
		in:      input.New(nil),
		overlay: nopOverlay{},
	}
}

// Scene returns the entity world.
func (rt *Runtime) Scene() *scene.Scene { return rt.world }

// Camera returns the fly camera.
func (rt *Runtime) Camera() *render.Camera { return rt.camera }

// Input returns the input state fed by the window.
func (rt *Runtime) Input() *input.State { return rt.in }

// Renderer returns the frame renderer. Nil before Init.
func (rt *Runtime) Renderer() *render.Renderer { return rt.renderer }

// Device returns the GPU device. Nil before Init.
func (rt *Runtime) Device() *render.Device { return rt.device }

// Sky returns the skybox, or nil when no catalog is configured.
func (rt *Runtime) Sky() *skybox.Skybox { return rt.sky }

// SetOverlay installs a tick hook; nil restores the no-op default.
func (rt *Runtime) SetOverlay(o Overlay) {
	if o == nil {
		o = nopOverlay{}
	}
	rt.overlay = o
}

// Init brings up the GPU stack against an existing window. The window
// must have been created with glfw.ClientAPI set to glfw.NoAPI and the
// Vulkan loader already initialized.
func (rt *Runtime) Init(window *glfw.Window) error {
	rt.window = window
	rt.in.Attach(window)
	window.SetFramebufferSizeCallback(func(*glfw.Window, int, int) { rt.OnResize() })

	var err error
	rt.instance, err = render.NewInstance(rt.cfg.Window.Title, window.GetRequiredInstanceExtensions())
	if err != nil {
		return err
	}
	rt.surface, err = render.NewSurface(rt.instance, window)
	if err != nil {
		return err
	}
	rt.device, err = render.NewDevice(rt.instance, rt.surface)
	if err != nil {
		return err
	}

	w, h := window.GetFramebufferSize()
	rt.swapchain, err = render.NewSwapchain(rt.device, rt.surface, uint32(w), uint32(h), rt.cfg.Window.Vsync)
	if err != nil {
		return err
	}
	rt.pass, err = render.NewRenderPass(rt.device, rt.swapchain)
	if err != nil {
		return err
	}
	rt.renderer, err = render.NewRenderer(rt.device, rt.swapchain, rt.pass, rt.cfg.Paths.Shaders)
	if err != nil {
		return err
	}

	if rt.cfg.Paths.SkyboxCatalog != "" {
		rt.sky, err = skybox.New(rt.device, rt.renderer.CommandPool(), rt.pass.Handle(),
			rt.cfg.Paths.Shaders, rt.cfg.Paths.SkyboxCatalog)
		if err != nil {
			return err
		}
		rt.renderer.SetSky(rt.sky)
	}

	rt.lastFrame = time.Now()
	Logger().Info("runtime initialized",
		"width", w, "height", h,
		"vsync", rt.cfg.Window.Vsync,
		"skybox", rt.sky != nil)
	return nil
}

// OnResize flags the swapchain for recreation before the next frame.
// Safe to call from window callbacks.
func (rt *Runtime) OnResize() { rt.resized = true }

// Tick advances the world and draws one frame. Call once per iteration
// of the event loop, after polling events.
func (rt *Runtime) Tick() error {
	if rt.renderer == nil {
		return ErrNotInitialized
	}

	now := time.Now()
	dt := float32(now.Sub(rt.lastFrame).Seconds())
	rt.lastFrame = now
	if dt < 0 {
		dt = 0
	}
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	if rt.resized {
		if err := rt.recreateSwapchain(); err != nil {
			return err
		}
	}

	rt.overlay.BeforeUpdate(rt, dt)

	lookX, lookY := rt.in.Look()
	camIn := render.CameraInput{
		Forward:  rt.in.Down(input.MoveForward),
		Backward: rt.in.Down(input.MoveBackward),
		Left:     rt.in.Down(input.MoveLeft),
		Right:    rt.in.Down(input.MoveRight),
		Sprint:   rt.in.Down(input.Sprint),
		Yaw:      rt.camera.Yaw() + lookX,
		Pitch:    rt.camera.Pitch() + lookY,
	}
	oldPos := rt.camera.Position()
	rt.camera.Update(dt, camIn)
	if rt.cameraBlocked(rt.camera.Position()) {
		rt.camera.SetPosition(oldPos)
	}

	rt.overlay.AfterUpdate(rt)

	rt.items = rt.world.BuildRenderList(rt.items)
	rt.renderer.SetRenderItems(rt.items)

	err := rt.renderer.DrawFrame(rt.camera)
	rt.in.EndFrame()
	return err
}

// cameraBlocked reports whether a camera position intersects any entity
// bounds, inflated by the camera radius.
func (rt *Runtime) cameraBlocked(pos mgl32.Vec3) bool {
	blocked := false
	rt.ents = rt.world.Entities(rt.ents)
	for _, e := range rt.ents {
		t := rt.world.Transform(e)
		if t == nil || rt.world.Mesh(e) == nil {
			continue
		}
		min, max := t.AABB()
		if pos.X() >= min.X()-cameraRadius && pos.X() <= max.X()+cameraRadius &&
			pos.Y() >= min.Y()-cameraRadius && pos.Y() <= max.Y()+cameraRadius &&
			pos.Z() >= min.Z()-cameraRadius && pos.Z() <= max.Z()+cameraRadius {
			blocked = true
			break
		}
	}
	return blocked
}

func (rt *Runtime) recreateSwapchain() error {
	w, h := rt.window.GetFramebufferSize()
	if w == 0 || h == 0 {
		// Minimized; keep the flag and try again next tick.
		return nil
	}
	rt.resized = false
	rt.device.WaitIdle()
	if err := rt.swapchain.Recreate(rt.device, rt.surface, uint32(w), uint32(h)); err != nil {
		return err
	}
	if err := rt.pass.Recreate(rt.device, rt.swapchain); err != nil {
		return err
	}
	rt.renderer.Recreate(rt.swapchain)
	Logger().Info("swapchain rebuilt", "width", w, "height", h)
	return nil
}

// UploadMesh creates a GPU mesh through the renderer's command pool.
func (rt *Runtime) UploadMesh(vertices []float32, indices []uint32) (*render.Mesh, error) {
	if rt.renderer == nil {
		return nil, ErrNotInitialized
	}
	return render.NewMesh(rt.device, rt.renderer.CommandPool(), vertices, indices)
}

// Shutdown waits for the GPU and releases everything in reverse creation
// order. The window itself belongs to the caller.
func (rt *Runtime) Shutdown() {
	if rt.device != nil {
		rt.device.WaitIdle()
	}
	if rt.sky != nil {
		rt.sky.Destroy(rt.device)
		rt.sky = nil
	}
	rt.renderer.Destroy()
	rt.renderer = nil
	rt.pass.Destroy(rt.device)
	rt.pass = nil
	rt.swapchain.Destroy(rt.device)
	rt.swapchain = nil
	rt.device.Destroy()
	rt.device = nil
	rt.surface.Destroy(rt.instance)
	rt.surface = nil
	rt.instance.Destroy()
	rt.instance = nil
}
