// Package scene implements the entity/component model that feeds the
// renderer.
//
// Entities are monotonically allocated 32-bit ids; ids are never reused.
// Components live in sparse-set stores: a packed dense array paired with a
// sparse id->index lookup, giving O(1) add/remove/lookup and cache-friendly
// iteration. Each frame the scene is flattened into a render-item list
// ([Scene.BuildRenderList]) consumed by the renderer; world matrices are
// cached per entity and recomputed lazily when marked dirty.
package scene
