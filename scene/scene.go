package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/vk3d/render"
)

// MeshComponent references a GPU-resident mesh owned by the renderer or an
// asset loader. The scene never allocates GPU memory.
type MeshComponent struct {
	Mesh *render.Mesh
}

// MaterialComponent references a material owned by the renderer.
type MaterialComponent struct {
	Material *render.Material
}

// Scene owns entity liveness and the component stores. It is the sole
// mutator of component storage; the renderer only ever sees the flattened
// render-item list.
type Scene struct {
	alive      []bool
	transforms Store[TransformComponent]
	meshes     Store[MeshComponent]
	materials  Store[MaterialComponent]
	cache      matrixCache
}

// NewScene returns an empty scene.
func NewScene() *Scene { return &Scene{} }

// CreateEntity allocates the next id and marks it alive. Ids grow
// monotonically and are never reused.
func (s *Scene) CreateEntity() Entity {
	id := Entity(len(s.alive))
	s.alive = append(s.alive, true)
	return id
}

// DestroyEntity marks e dead and removes it from every component store.
// Out-of-range ids are a no-op.
func (s *Scene) DestroyEntity(e Entity) {
	if !s.inRange(e) {
		return
	}
	s.alive[e] = false
	s.transforms.Remove(e)
	s.meshes.Remove(e)
	s.materials.Remove(e)
	s.cache.remove(e)
}

// Alive reports whether e is allocated and not destroyed.
func (s *Scene) Alive(e Entity) bool {
	return s.inRange(e) && s.alive[e]
}

// EntityCount returns the number of ids allocated so far, dead or alive.
func (s *Scene) EntityCount() int { return len(s.alive) }

// AddTransform ensures e has a transform and returns it. A fresh transform
// starts at the origin with unit scale, and its matrix-cache entry starts
// dirty.
func (s *Scene) AddTransform(e Entity) *TransformComponent {
	if !s.Alive(e) {
		return nil
	}
	if t := s.transforms.Get(e); t != nil {
		return t
	}
	t := s.transforms.Add(e)
	*t = NewTransform()
	s.cache.register(e)
	return t
}

// AddMesh ensures e has a mesh component and returns it.
func (s *Scene) AddMesh(e Entity) *MeshComponent {
	if !s.Alive(e) {
		return nil
	}
	return s.meshes.Add(e)
}

// AddMaterial ensures e has a material component and returns it.
func (s *Scene) AddMaterial(e Entity) *MaterialComponent {
	if !s.Alive(e) {
		return nil
	}
	return s.materials.Add(e)
}

// Transform returns e's transform, or nil if absent. Mutations through the
// returned pointer do not invalidate the cached model matrix; callers must
// follow up with [Scene.MarkTransformDirty].
func (s *Scene) Transform(e Entity) *TransformComponent { return s.transforms.Get(e) }

// Mesh returns e's mesh component, or nil if absent.
func (s *Scene) Mesh(e Entity) *MeshComponent { return s.meshes.Get(e) }

// Material returns e's material component, or nil if absent.
func (s *Scene) Material(e Entity) *MaterialComponent { return s.materials.Get(e) }

// MarkTransformDirty flags e's cached model matrix for recomputation.
func (s *Scene) MarkTransformDirty(e Entity) { s.cache.markDirty(e) }

// ModelMatrix returns e's cached world matrix, recomputing it first if the
// transform was marked dirty. Returns the identity for entities without a
// transform.
func (s *Scene) ModelMatrix(e Entity) mgl32.Mat4 {
	t := s.transforms.Get(e)
	if t == nil {
		return mgl32.Ident4()
	}
	return s.cache.model(e, t)
}

// Entities appends every alive entity id to dst in ascending order and
// returns the extended slice.
func (s *Scene) Entities(dst []Entity) []Entity {
	dst = dst[:0]
	for id, ok := range s.alive {
		if ok {
			dst = append(dst, Entity(id))
		}
	}
	return dst
}

// BuildRenderList flattens the scene into render items: one item per alive
// entity holding all of transform, mesh and material, in ascending id
// order. dst is reset and returned; this is the sole per-frame interface
// between scene and renderer.
func (s *Scene) BuildRenderList(dst []render.Item) []render.Item {
	dst = dst[:0]
	for id := range s.alive {
		e := Entity(id)
		if !s.alive[id] {
			continue
		}
		t := s.transforms.Get(e)
		if t == nil {
			continue
		}
		mesh := s.meshes.Get(e)
		if mesh == nil || mesh.Mesh == nil {
			continue
		}
		mat := s.materials.Get(e)
		if mat == nil || mat.Material == nil {
			continue
		}
		dst = append(dst, render.Item{
			Mesh:     mesh.Mesh,
			Material: mat.Material,
			Model:    s.cache.model(e, t),
		})
	}
	return dst
}

func (s *Scene) inRange(e Entity) bool {
	return uint32(e) < uint32(len(s.alive))
}
