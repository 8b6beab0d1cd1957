package render

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
)

// Package errors for GPU bring-up and frame resources.
var (
	// ErrNoPhysicalDevice is returned when no Vulkan-capable GPU is found.
	ErrNoPhysicalDevice = errors.New("render: no physical device available")

	// ErrNoQueueFamily is returned when no queue family supports both
	// graphics and presentation.
	ErrNoQueueFamily = errors.New("render: no graphics+present queue family")

	// ErrNoSurfaceFormat is returned when the surface reports no formats.
	ErrNoSurfaceFormat = errors.New("render: no surface formats available")

	// ErrNoSuitableMemory is returned when no device memory type satisfies
	// an allocation request.
	ErrNoSuitableMemory = errors.New("render: no suitable memory type")

	// ErrShaderMissing is returned when a SPIR-V file cannot be read at
	// Create time.
	ErrShaderMissing = errors.New("render: shader bytecode missing")

	// ErrNotCreated is returned when an operation requires a created
	// renderer.
	ErrNotCreated = errors.New("render: renderer not created")

	// ErrEmptyMesh is returned when mesh creation receives no vertex data.
	ErrEmptyMesh = errors.New("render: empty mesh data")
)

// vkError wraps a non-success Vulkan result with a short action label.
func vkError(res vk.Result, action string) error {
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("render: %s: %w", action, err)
	}
	return nil
}
