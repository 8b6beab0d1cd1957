// Package vk3d is a small Vulkan 3D engine with an entity component
// scene, a shadow-mapped forward renderer and HDR environment skyboxes.
//
// The root package ties the pieces together: configuration, window-level
// lifecycle and the per-frame tick. Rendering lives in [render], scene
// data in [scene], window input in [input] and asset decoding in
// [asset].
//
// The engine produces no log output by default. Call [SetLogger] to
// direct structured logs from every package to a handler of your choice.
package vk3d
