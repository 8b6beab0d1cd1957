package scene

import (
	"testing"

	"github.com/gogpu/vk3d/render"
)

func TestEntityIDsMonotonic(t *testing.T) {
	s := NewScene()
	for want := Entity(0); want < 5; want++ {
		if got := s.CreateEntity(); got != want {
			t.Fatalf("CreateEntity = %d, want %d", got, want)
		}
	}
	s.DestroyEntity(2)
	if got := s.CreateEntity(); got != 5 {
		t.Fatalf("id after destroy = %d, want 5 (ids are never reused)", got)
	}
}

func TestDestroyEntityOutOfRange(t *testing.T) {
	s := NewScene()
	s.DestroyEntity(42) // must not panic
	s.CreateEntity()
	s.DestroyEntity(InvalidEntity)
	if !s.Alive(0) {
		t.Fatal("out-of-range destroy affected a live entity")
	}
}

func TestDestroyRemovesComponents(t *testing.T) {
	s := NewScene()
	e := s.CreateEntity()
	s.AddTransform(e)
	s.AddMesh(e)
	s.AddMaterial(e)
	s.DestroyEntity(e)

	if s.Alive(e) {
		t.Fatal("entity alive after destroy")
	}
	if s.Transform(e) != nil || s.Mesh(e) != nil || s.Material(e) != nil {
		t.Fatal("components survive entity destruction")
	}
}

func TestAddComponentOnDeadEntity(t *testing.T) {
	s := NewScene()
	e := s.CreateEntity()
	s.DestroyEntity(e)
	if s.AddTransform(e) != nil || s.AddMesh(e) != nil || s.AddMaterial(e) != nil {
		t.Fatal("Add on a dead entity should return nil")
	}
}

func buildListScene() (*Scene, *render.Mesh, *render.Material) {
	mesh := &render.Mesh{}
	mat := &render.Material{BaseColor: [3]float32{1, 1, 1}, Alpha: 1}
	return NewScene(), mesh, mat
}

func TestBuildRenderListCompleteness(t *testing.T) {
	s, mesh, mat := buildListScene()

	full := s.CreateEntity() // all three components
	s.AddTransform(full)
	s.AddMesh(full).Mesh = mesh
	s.AddMaterial(full).Material = mat

	noMesh := s.CreateEntity()
	s.AddTransform(noMesh)
	s.AddMaterial(noMesh).Material = mat

	noTransform := s.CreateEntity()
	s.AddMesh(noTransform).Mesh = mesh
	s.AddMaterial(noTransform).Material = mat

	full2 := s.CreateEntity()
	s.AddTransform(full2)
	s.AddMesh(full2).Mesh = mesh
	s.AddMaterial(full2).Material = mat

	items := s.BuildRenderList(nil)
	if len(items) != 2 {
		t.Fatalf("render list has %d items, want 2", len(items))
	}
	for _, it := range items {
		if it.Mesh != mesh || it.Material != mat {
			t.Fatal("render item references wrong mesh/material")
		}
	}
}

func TestBuildRenderListExcludesDead(t *testing.T) {
	s, mesh, mat := buildListScene()
	var es []Entity
	for i := 0; i < 5; i++ {
		e := s.CreateEntity()
		s.AddTransform(e)
		s.AddMesh(e).Mesh = mesh
		s.AddMaterial(e).Material = mat
		es = append(es, e)
	}
	s.DestroyEntity(es[2])

	items := s.BuildRenderList(nil)
	if len(items) != 4 {
		t.Fatalf("render list has %d items after destroy, want 4", len(items))
	}
}

func TestBuildRenderListReusesSlice(t *testing.T) {
	s, mesh, mat := buildListScene()
	e := s.CreateEntity()
	s.AddTransform(e)
	s.AddMesh(e).Mesh = mesh
	s.AddMaterial(e).Material = mat

	buf := make([]render.Item, 0, 8)
	out := s.BuildRenderList(buf)
	if len(out) != 1 || cap(out) != 8 {
		t.Fatalf("len=%d cap=%d, want len 1 cap 8", len(out), cap(out))
	}
	// A second build must reset, not append.
	out = s.BuildRenderList(out)
	if len(out) != 1 {
		t.Fatalf("second build produced %d items, want 1", len(out))
	}
}

func TestEntitiesAscending(t *testing.T) {
	s := NewScene()
	for i := 0; i < 4; i++ {
		s.CreateEntity()
	}
	s.DestroyEntity(1)

	got := s.Entities(nil)
	want := []Entity{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Entities = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Entities = %v, want %v", got, want)
		}
	}
}
