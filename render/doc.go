// Package render owns the Vulkan side of the engine: instance, device,
// surface and swapchain bring-up, buffer/image primitives, the per-pass
// pipeline objects, and the frame orchestrator that records the shadow and
// main passes and drives the single-frame-in-flight synchronization
// protocol.
//
// The package follows a strict ownership model: the [Renderer] is the sole
// owner and mutator of all swapchain-relative GPU resources. Scene data
// crosses into the renderer once per frame as a flat [Item] slice, which the
// renderer copies before recording.
package render
