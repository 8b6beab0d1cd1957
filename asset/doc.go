// Package asset loads meshes and textures from disk into CPU-side form
// ready for GPU upload. It knows nothing about Vulkan.
package asset
