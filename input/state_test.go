package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestActionQueries(t *testing.T) {
	s := New(nil)
	if s.Down(MoveForward) {
		t.Fatal("fresh state should be idle")
	}
	s.SetKey(glfw.KeyW, true)
	if !s.Down(MoveForward) || !s.Pressed(MoveForward) {
		t.Fatal("W down should register forward")
	}
	s.EndFrame()
	if !s.Down(MoveForward) {
		t.Fatal("held key stays down")
	}
	if s.Pressed(MoveForward) {
		t.Fatal("edge must clear after EndFrame")
	}
	s.SetKey(glfw.KeyW, false)
	if !s.Released(MoveForward) {
		t.Fatal("key up should be a release edge")
	}
	s.EndFrame()
	if s.Released(MoveForward) {
		t.Fatal("release edge must clear")
	}
}

func TestRebind(t *testing.T) {
	b := DefaultBindings()
	b.Rebind(MoveForward, glfw.KeyUp)
	s := New(b)
	s.SetKey(glfw.KeyW, true)
	if s.Down(MoveForward) {
		t.Fatal("old key should be unbound")
	}
	s.SetKey(glfw.KeyUp, true)
	if !s.Down(MoveForward) {
		t.Fatal("rebound key should register")
	}
}

func TestLookAccumulatesAndResets(t *testing.T) {
	s := New(nil)
	s.SetCursor(100, 100) // reference only, no delta
	if dx, dy := s.Look(); dx != 0 || dy != 0 {
		t.Fatalf("first cursor sample produced delta %v %v", dx, dy)
	}
	s.SetCursor(110, 90)
	s.SetCursor(120, 80)
	dx, dy := s.Look()
	if dx != 2 || dy != 2 {
		t.Fatalf("look = %v %v, want 2 2", dx, dy)
	}
	s.EndFrame()
	if dx, dy := s.Look(); dx != 0 || dy != 0 {
		t.Fatalf("look must reset, got %v %v", dx, dy)
	}
}

func TestBeginFrameClearsLook(t *testing.T) {
	s := New(nil)
	s.SetCursor(0, 0)
	s.SetCursor(50, 0)
	s.BeginFrame()
	if dx, dy := s.Look(); dx != 0 || dy != 0 {
		t.Fatalf("look = %v %v after BeginFrame, want 0 0", dx, dy)
	}
	s.SetCursor(60, 0)
	if dx, _ := s.Look(); dx != 1 {
		t.Fatalf("look dx = %v, want 1", dx)
	}
}

func TestEditorModeGatesLook(t *testing.T) {
	s := New(nil)
	s.SetMode(ModeEditor)
	s.SetCursor(0, 0)

	s.SetCursor(10, 0)
	if dx, _ := s.Look(); dx != 0 {
		t.Fatalf("look without button = %v", dx)
	}

	s.SetMouseButton(glfw.MouseButtonRight, true)
	s.SetCursor(20, 0)
	if dx, _ := s.Look(); dx != 1 {
		t.Fatalf("look with right button = %v, want 1", dx)
	}
	s.SetMouseButton(glfw.MouseButtonRight, false)
	s.EndFrame()

	s.SetMouseButton(glfw.MouseButtonMiddle, true)
	s.SetCursor(30, 0)
	if dx, _ := s.Look(); dx != 1 {
		t.Fatalf("look with middle button = %v, want 1", dx)
	}
}

func TestGameModeAlwaysLooks(t *testing.T) {
	s := New(nil)
	s.SetCursor(0, 0)
	s.SetCursor(50, 0)
	if dx, _ := s.Look(); dx != 5 {
		t.Fatalf("game mode look = %v, want 5", dx)
	}
}

func TestMouseEdges(t *testing.T) {
	s := New(nil)
	s.SetMouseButton(glfw.MouseButtonLeft, true)
	if !s.MouseDown(glfw.MouseButtonLeft) || !s.MousePressed(glfw.MouseButtonLeft) {
		t.Fatal("left press should register")
	}
	s.EndFrame()
	if s.MousePressed(glfw.MouseButtonLeft) {
		t.Fatal("press edge must clear")
	}
}

func TestOutOfRangeInputsIgnored(t *testing.T) {
	s := New(nil)
	s.SetKey(glfw.Key(-5), true)
	s.SetKey(glfw.KeyLast+10, true)
	s.SetMouseButton(glfw.MouseButton(99), true)
	if s.KeyDown(glfw.KeyLast + 10) {
		t.Fatal("out-of-range key should be ignored")
	}
}
