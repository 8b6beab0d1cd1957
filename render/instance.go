package render

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Instance wraps the Vulkan instance. The window system supplies the
// extension list (surface + platform surface).
type Instance struct {
	handle vk.Instance
}

// NewInstance creates a Vulkan instance with the given application name and
// instance extensions. Extension names must not be NUL-terminated; the
// terminator is appended here.
func NewInstance(appName string, extensions []string) (*Instance, error) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "vk3d\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion11,
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: terminated(extensions),
	}

	var handle vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("render: creating instance: %w", err)
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		return nil, fmt.Errorf("render: loading instance procs: %w", err)
	}
	return &Instance{handle: handle}, nil
}

// Handle returns the raw instance handle.
func (i *Instance) Handle() vk.Instance { return i.handle }

// Destroy releases the instance. Safe to call more than once.
func (i *Instance) Destroy() {
	if i == nil || i.handle == nil {
		return
	}
	vk.DestroyInstance(i.handle, nil)
	i.handle = nil
}

// terminated appends the NUL terminator Vulkan expects on every string.
func terminated(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "\x00"
	}
	return out
}
