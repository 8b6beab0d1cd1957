package scene

import "github.com/go-gl/mathgl/mgl32"

// TransformComponent places an entity in the world. Rotation is Euler
// angles in radians.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// NewTransform returns a transform at the origin with unit scale.
func NewTransform() TransformComponent {
	return TransformComponent{Scale: mgl32.Vec3{1, 1, 1}}
}

// ModelMatrix composes the world matrix from the transform fields. The
// composition order is fixed: Translate * RotZ * RotY * RotX * Scale.
func (t *TransformComponent) ModelMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation[2])).
		Mul4(mgl32.HomogRotate3DY(t.Rotation[1])).
		Mul4(mgl32.HomogRotate3DX(t.Rotation[0])).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// AABB returns the axis-aligned bounds of a unit cube under this transform,
// used by the editor inspector and camera collision.
func (t *TransformComponent) AABB() (min, max mgl32.Vec3) {
	m := t.ModelMatrix()
	min = mgl32.Vec3{mgl32.MaxValue, mgl32.MaxValue, mgl32.MaxValue}
	max = min.Mul(-1)
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{
			float32(i&1) - 0.5,
			float32(i>>1&1) - 0.5,
			float32(i>>2&1) - 0.5,
		}
		p := mgl32.TransformCoordinate(corner, m)
		for a := 0; a < 3; a++ {
			if p[a] < min[a] {
				min[a] = p[a]
			}
			if p[a] > max[a] {
				max[a] = p[a]
			}
		}
	}
	return min, max
}

// matrixCache memoizes per-entity model matrices. Each entry is either
// Clean (cached matrix matches the transform) or Dirty (recompute on next
// read). Entries are parallel per-id slices so the render-list hot path is
// a pair of indexed loads.
type matrixCache struct {
	models   []mgl32.Mat4
	present  []bool
	dirty    []bool
	rebuilds int
}

// register adds or resets an entry for e, starting Dirty.
func (c *matrixCache) register(e Entity) {
	c.ensure(e)
	c.models[e] = mgl32.Ident4()
	c.present[e] = true
	c.dirty[e] = true
}

// remove drops the entry for e.
func (c *matrixCache) remove(e Entity) {
	if uint32(e) < uint32(len(c.present)) {
		c.present[e] = false
	}
}

// markDirty flags e for recomputation. No-op for unknown ids.
func (c *matrixCache) markDirty(e Entity) {
	if uint32(e) < uint32(len(c.present)) && c.present[e] {
		c.dirty[e] = true
	}
}

// model returns the cached matrix for e, recomputing from t first if the
// entry is dirty.
func (c *matrixCache) model(e Entity, t *TransformComponent) mgl32.Mat4 {
	if uint32(e) >= uint32(len(c.present)) || !c.present[e] {
		return t.ModelMatrix()
	}
	if c.dirty[e] {
		c.models[e] = t.ModelMatrix()
		c.dirty[e] = false
		c.rebuilds++
	}
	return c.models[e]
}

func (c *matrixCache) ensure(e Entity) {
	for uint32(len(c.present)) <= uint32(e) {
		c.models = append(c.models, mgl32.Ident4())
		c.present = append(c.present, false)
		c.dirty = append(c.dirty, false)
	}
}
