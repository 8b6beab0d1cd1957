package render

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Surface wraps the presentation surface created from a native window.
type Surface struct {
	handle vk.Surface
}

// NewSurface creates a window-system surface for the given GLFW window.
func NewSurface(instance *Instance, window *glfw.Window) (*Surface, error) {
	ptr, err := window.CreateWindowSurface(instance.Handle(), nil)
	if err != nil {
		return nil, fmt.Errorf("render: creating window surface: %w", err)
	}
	return &Surface{handle: vk.SurfaceFromPointer(ptr)}, nil
}

// Handle returns the raw surface handle.
func (s *Surface) Handle() vk.Surface { return s.handle }

// Destroy releases the surface. Safe to call more than once.
func (s *Surface) Destroy(instance *Instance) {
	if s == nil || s.handle == vk.NullSurface {
		return
	}
	vk.DestroySurface(instance.Handle(), s.handle, nil)
	s.handle = vk.NullSurface
}
