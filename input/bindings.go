package input

import "github.com/go-gl/glfw/v3.3/glfw"

// Action is a logical input the rest of the engine queries, decoupled
// from physical keys.
type Action int

const (
	MoveForward Action = iota
	MoveBackward
	MoveLeft
	MoveRight
	Sprint
	actionCount
)

// Bindings maps actions to keys.
type Bindings map[Action]glfw.Key

// DefaultBindings returns the standard WASD layout.
func DefaultBindings() Bindings {
	return Bindings{
		MoveForward:  glfw.KeyW,
		MoveBackward: glfw.KeyS,
		MoveLeft:     glfw.KeyA,
		MoveRight:    glfw.KeyD,
		Sprint:       glfw.KeyLeftShift,
	}
}

// Rebind points an action at a new key.
func (b Bindings) Rebind(a Action, key glfw.Key) { b[a] = key }
