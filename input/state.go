package input

import "github.com/go-gl/glfw/v3.3/glfw"

// Mouse look sensitivity in degrees per pixel of cursor travel.
const lookSensitivity = 0.1

// Mode selects how mouse look is gated.
type Mode int

const (
	// ModeGame feeds mouse movement to look axes unconditionally.
	ModeGame Mode = iota
	// ModeEditor only looks while the right or middle button is held,
	// leaving the cursor free for UI the rest of the time.
	ModeEditor
)

// State holds the complete input state for one window. Not safe for
// concurrent use; feed and query it from the main thread.
type State struct {
	keys     [glfw.KeyLast + 1]bool
	prevKeys [glfw.KeyLast + 1]bool

	buttons     [glfw.MouseButtonLast + 1]bool
	prevButtons [glfw.MouseButtonLast + 1]bool

	cursorX, cursorY float64
	lastX, lastY     float64
	hasCursor        bool
	lookX, lookY     float32

	mode     Mode
	bindings Bindings
}

// New creates input state with the given bindings; nil means the
// defaults.
func New(bindings Bindings) *State {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &State{bindings: bindings}
}

// SetMode switches the look gating mode.
func (s *State) SetMode(m Mode) { s.mode = m }

// Mode returns the current gating mode.
func (s *State) Mode() Mode { return s.mode }

// SetKey records a key transition from a window callback.
func (s *State) SetKey(key glfw.Key, down bool) {
	if key < 0 || int(key) >= len(s.keys) {
		return
	}
	s.keys[key] = down
}

// SetMouseButton records a mouse button transition.
func (s *State) SetMouseButton(button glfw.MouseButton, down bool) {
	if button < 0 || int(button) >= len(s.buttons) {
		return
	}
	s.buttons[button] = down
}

// SetCursor records a cursor position and accumulates the look delta.
// The first position after creation only establishes the reference so
// the camera does not jump.
func (s *State) SetCursor(x, y float64) {
	s.cursorX, s.cursorY = x, y
	if !s.hasCursor {
		s.lastX, s.lastY = x, y
		s.hasCursor = true
		return
	}
	if s.looking() {
		s.lookX += float32(x-s.lastX) * lookSensitivity
		s.lookY += float32(s.lastY-y) * lookSensitivity
	}
	s.lastX, s.lastY = x, y
}

func (s *State) looking() bool {
	if s.mode == ModeGame {
		return true
	}
	return s.buttons[glfw.MouseButtonRight] || s.buttons[glfw.MouseButtonMiddle]
}

// Down reports whether the key bound to the action is held.
func (s *State) Down(a Action) bool {
	key, ok := s.bindings[a]
	if !ok {
		return false
	}
	return s.keys[key]
}

// Pressed reports a key-down edge since the last EndFrame.
func (s *State) Pressed(a Action) bool {
	key, ok := s.bindings[a]
	if !ok {
		return false
	}
	return s.keys[key] && !s.prevKeys[key]
}

// Released reports a key-up edge since the last EndFrame.
func (s *State) Released(a Action) bool {
	key, ok := s.bindings[a]
	if !ok {
		return false
	}
	return !s.keys[key] && s.prevKeys[key]
}

// KeyDown reports raw key state, for keys outside the action table.
func (s *State) KeyDown(key glfw.Key) bool {
	if key < 0 || int(key) >= len(s.keys) {
		return false
	}
	return s.keys[key]
}

// KeyPressed reports a raw key-down edge since the last EndFrame.
func (s *State) KeyPressed(key glfw.Key) bool {
	if key < 0 || int(key) >= len(s.keys) {
		return false
	}
	return s.keys[key] && !s.prevKeys[key]
}

// MouseDown reports whether a mouse button is held.
func (s *State) MouseDown(button glfw.MouseButton) bool {
	if button < 0 || int(button) >= len(s.buttons) {
		return false
	}
	return s.buttons[button]
}

// MousePressed reports a button-down edge since the last EndFrame.
func (s *State) MousePressed(button glfw.MouseButton) bool {
	if button < 0 || int(button) >= len(s.buttons) {
		return false
	}
	return s.buttons[button] && !s.prevButtons[button]
}

// Cursor returns the latest cursor position.
func (s *State) Cursor() (x, y float64) { return s.cursorX, s.cursorY }

// Look returns the gated look delta accumulated this frame, scaled to
// degrees.
func (s *State) Look() (dx, dy float32) { return s.lookX, s.lookY }

// BeginFrame clears the transient look delta. Call before polling window
// events so a frame only sees deltas from its own event batch.
func (s *State) BeginFrame() {
	s.lookX, s.lookY = 0, 0
}

// EndFrame rolls the edge baselines and clears the look delta. Call once
// per frame after all queries.
func (s *State) EndFrame() {
	s.prevKeys = s.keys
	s.prevButtons = s.buttons
	s.lookX, s.lookY = 0, 0
}
