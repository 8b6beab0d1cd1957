package input

import "github.com/go-gl/glfw/v3.3/glfw"

// Attach installs the window callbacks that feed this state. Existing
// callbacks on the window are replaced.
func (s *State) Attach(w *glfw.Window) {
	w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			s.SetKey(key, true)
		case glfw.Release:
			s.SetKey(key, false)
		}
	})
	w.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			s.SetMouseButton(button, true)
		case glfw.Release:
			s.SetMouseButton(button, false)
		}
	})
	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		s.SetCursor(x, y)
	})
}
