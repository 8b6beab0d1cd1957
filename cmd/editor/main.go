// Command editor opens a window with a demo scene: a ground slab, a few
// cubes and an optional HDR skybox, flown with WASD plus right-mouse
// look.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gogpu/vk3d"
	"github.com/gogpu/vk3d/asset"
	"github.com/gogpu/vk3d/input"
	"github.com/gogpu/vk3d/render"
)

func init() {
	// GLFW event handling and Vulkan surface creation must stay on the
	// main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "vk3d.toml", "path to the config file")
	modelPath := flag.String("model", "", "optional OBJ model to place in the scene")
	verbose := flag.Bool("v", false, "log engine events to stderr")
	flag.Parse()

	if *verbose {
		vk3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(*configPath, *modelPath); err != nil {
		fmt.Fprintln(os.Stderr, "editor:", err)
		os.Exit(1)
	}
}

func run(configPath, modelPath string) error {
	cfg, err := vk3d.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return fmt.Errorf("initializing vulkan loader: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	rt := vk3d.NewRuntime(cfg)
	// Shutdown is nil-safe, so a failure partway through Init still
	// releases whatever came up before it.
	defer rt.Shutdown()
	if err := rt.Init(window); err != nil {
		return err
	}

	rt.Input().SetMode(input.ModeEditor)

	if err := populate(rt, modelPath); err != nil {
		return err
	}

	for !window.ShouldClose() {
		rt.Input().BeginFrame()
		glfw.PollEvents()
		if rt.Input().KeyPressed(glfw.KeyEscape) {
			window.SetShouldClose(true)
		}
		if rt.Input().KeyPressed(glfw.KeyTab) {
			cycleSkybox(rt)
		}
		if err := rt.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// populate builds the demo scene: a wide ground slab, an opaque cube, a
// transparent cube and, when requested, an OBJ model.
func populate(rt *vk3d.Runtime, modelPath string) error {
	cube, err := rt.UploadMesh(render.CubeVertices(), render.CubeIndices())
	if err != nil {
		return err
	}
	w := rt.Scene()

	ground := w.CreateEntity()
	gt := w.AddTransform(ground)
	gt.Position = mgl32.Vec3{0, -0.5, -5}
	gt.Scale = mgl32.Vec3{40, 1, 40}
	w.AddMesh(ground).Mesh = cube
	w.AddMaterial(ground).Material = &render.Material{
		BaseColor: [3]float32{0.45, 0.5, 0.45},
		Ambient:   0.3,
		Alpha:     1,
	}

	box := w.CreateEntity()
	bt := w.AddTransform(box)
	bt.Position = mgl32.Vec3{-3, 1, -5}
	bt.Scale = mgl32.Vec3{2, 2, 2}
	w.AddMesh(box).Mesh = cube
	w.AddMaterial(box).Material = &render.Material{
		BaseColor: [3]float32{0.8, 0.3, 0.2},
		Ambient:   0.2,
		Alpha:     1,
	}

	glass := w.CreateEntity()
	lt := w.AddTransform(glass)
	lt.Position = mgl32.Vec3{3, 1, -5}
	lt.Scale = mgl32.Vec3{2, 2, 2}
	w.AddMesh(glass).Mesh = cube
	w.AddMaterial(glass).Material = &render.Material{
		BaseColor: [3]float32{0.3, 0.5, 0.9},
		Ambient:   0.2,
		Alpha:     0.45,
	}

	if modelPath != "" {
		md, err := asset.LoadOBJ(modelPath)
		if err != nil {
			return err
		}
		mesh, err := rt.UploadMesh(md.Vertices, md.Indices)
		if err != nil {
			return err
		}
		model := w.CreateEntity()
		mt := w.AddTransform(model)
		mt.Position = mgl32.Vec3{0, 1, -8}
		w.AddMesh(model).Mesh = mesh
		w.AddMaterial(model).Material = &render.Material{
			BaseColor: [3]float32{0.9, 0.9, 0.9},
			Ambient:   0.25,
			Alpha:     1,
		}
	}
	return nil
}

// cycleSkybox advances to the next environment in catalog order.
func cycleSkybox(rt *vk3d.Runtime) {
	sky := rt.Sky()
	if sky == nil {
		return
	}
	names := sky.Catalog().Names()
	for i, name := range names {
		if name == sky.ActiveName() {
			next := names[(i+1)%len(names)]
			if err := sky.SetActive(next); err != nil {
				vk3d.Logger().Warn("skybox switch failed", "name", next, "err", err)
			}
			return
		}
	}
}
