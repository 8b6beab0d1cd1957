package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func reference(t *TransformComponent) mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation[2])).
		Mul4(mgl32.HomogRotate3DY(t.Rotation[1])).
		Mul4(mgl32.HomogRotate3DX(t.Rotation[0])).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

func TestModelMatrixComposition(t *testing.T) {
	cases := []TransformComponent{
		NewTransform(),
		{Position: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1}},
		{Position: mgl32.Vec3{-4, 0.5, 9}, Rotation: mgl32.Vec3{0.3, -1.2, 2.5}, Scale: mgl32.Vec3{2, 0.5, 3}},
		{Rotation: mgl32.Vec3{1.5708, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}},
	}
	for i, tc := range cases {
		if got, want := tc.ModelMatrix(), reference(&tc); got != want {
			t.Errorf("case %d: ModelMatrix mismatch\ngot  %v\nwant %v", i, got, want)
		}
	}
}

func TestMatrixCacheLazyRecompute(t *testing.T) {
	s := NewScene()
	e := s.CreateEntity()
	tr := s.AddTransform(e)
	tr.Position = mgl32.Vec3{1, 2, 3}
	s.MarkTransformDirty(e)

	got := s.ModelMatrix(e)
	if want := reference(tr); got != want {
		t.Fatalf("dirty read did not recompute: got %v want %v", got, want)
	}
	rebuilds := s.cache.rebuilds

	// Clean reads must not recompute.
	for i := 0; i < 3; i++ {
		if s.ModelMatrix(e) != got {
			t.Fatal("clean read changed value")
		}
	}
	if s.cache.rebuilds != rebuilds {
		t.Fatalf("clean reads recomputed: %d -> %d", rebuilds, s.cache.rebuilds)
	}

	// Mutation without MarkTransformDirty keeps the stale cache, by contract.
	tr.Position = mgl32.Vec3{9, 9, 9}
	if s.ModelMatrix(e) != got {
		t.Fatal("cache recomputed without MarkTransformDirty")
	}

	s.MarkTransformDirty(e)
	if got2 := s.ModelMatrix(e); got2 != reference(tr) {
		t.Fatal("dirty read after mutation returned stale matrix")
	}
	if s.cache.rebuilds != rebuilds+1 {
		t.Fatalf("rebuilds = %d, want %d", s.cache.rebuilds, rebuilds+1)
	}
}

func TestMarkDirtyIdempotent(t *testing.T) {
	s := NewScene()
	e := s.CreateEntity()
	s.AddTransform(e)
	s.ModelMatrix(e)
	before := s.cache.rebuilds

	s.MarkTransformDirty(e)
	s.MarkTransformDirty(e)
	s.ModelMatrix(e)
	if s.cache.rebuilds != before+1 {
		t.Fatalf("double MarkDirty caused %d rebuilds, want 1", s.cache.rebuilds-before)
	}
}

func TestMarkDirtyUnknownEntity(t *testing.T) {
	s := NewScene()
	s.MarkTransformDirty(12) // must not panic
}

func TestAABBUnitCube(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{2, 0, 0}
	min, max := tr.AABB()
	wantMin := mgl32.Vec3{1.5, -0.5, -0.5}
	wantMax := mgl32.Vec3{2.5, 0.5, 0.5}
	for a := 0; a < 3; a++ {
		if mgl32.Abs(min[a]-wantMin[a]) > 1e-5 || mgl32.Abs(max[a]-wantMax[a]) > 1e-5 {
			t.Fatalf("AABB = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}
