package render

import "github.com/go-gl/mathgl/mgl32"

// Material holds the per-draw shading inputs pushed alongside each item.
// A nil Texture samples the renderer's 1x1 white fallback, so BaseColor
// alone drives the surface color.
type Material struct {
	BaseColor [3]float32
	Ambient   float32
	Alpha     float32
	Texture   *Texture
}

// Opaque reports whether the material skips the alpha-blended stage.
func (m *Material) Opaque() bool { return m.Alpha >= 1 }

// Item is one frame's draw request: a mesh, its material and the world
// matrix. Items are ephemeral, built fresh each frame by the scene and
// copied into the renderer, valid only for the frame they were built for.
type Item struct {
	Mesh     *Mesh
	Material *Material
	Model    mgl32.Mat4
}
