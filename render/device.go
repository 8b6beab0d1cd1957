package render

import (
	"fmt"
	"log/slog"

	vk "github.com/goki/vulkan"
)

// Device bundles the selected physical device, the logical device and its
// graphics queue. One graphics+present queue family drives everything; the
// engine targets a single GPU selected at startup.
type Device struct {
	physical       vk.PhysicalDevice
	device         vk.Device
	graphicsQueue  vk.Queue
	graphicsFamily uint32
}

// NewDevice picks a physical device that can present to surface, preferring
// a discrete GPU, and creates the logical device and graphics queue.
func NewDevice(instance *Instance, surface *Surface) (*Device, error) {
	physical, family, err := pickPhysicalDevice(instance.Handle(), surface.Handle())
	if err != nil {
		return nil, err
	}

	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   1,
		PpEnabledExtensionNames: terminated([]string{vk.KhrSwapchainExtensionName}),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{SamplerAnisotropy: vk.True}},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(physical, &createInfo, nil, &device)); err != nil {
		return nil, fmt.Errorf("render: creating logical device: %w", err)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physical, &props)
	props.Deref()
	slogger().Info("render: device selected",
		slog.String("name", vk.ToString(props.DeviceName[:])),
		slog.Int("queueFamily", int(family)))

	return &Device{
		physical:       physical,
		device:         device,
		graphicsQueue:  queue,
		graphicsFamily: family,
	}, nil
}

// Physical returns the physical device handle.
func (d *Device) Physical() vk.PhysicalDevice { return d.physical }

// Handle returns the logical device handle.
func (d *Device) Handle() vk.Device { return d.device }

// Queue returns the graphics queue.
func (d *Device) Queue() vk.Queue { return d.graphicsQueue }

// QueueFamily returns the graphics queue family index.
func (d *Device) QueueFamily() uint32 { return d.graphicsFamily }

// WaitIdle blocks until the device finishes all queued work.
func (d *Device) WaitIdle() {
	if d != nil && d.device != nil {
		vk.DeviceWaitIdle(d.device)
	}
}

// Destroy releases the logical device. Safe to call more than once.
func (d *Device) Destroy() {
	if d == nil || d.device == nil {
		return
	}
	vk.DestroyDevice(d.device, nil)
	d.device = nil
	d.graphicsQueue = nil
	d.physical = nil
}

// pickPhysicalDevice scores available GPUs: any device with a
// graphics+present queue family qualifies, discrete GPUs win ties.
func pickPhysicalDevice(instance vk.Instance, surface vk.Surface) (vk.PhysicalDevice, uint32, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, 0, fmt.Errorf("render: enumerating devices: %w", err)
	}
	if count == 0 {
		return nil, 0, ErrNoPhysicalDevice
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, devices)); err != nil {
		return nil, 0, fmt.Errorf("render: enumerating devices: %w", err)
	}

	var (
		best       vk.PhysicalDevice
		bestFamily uint32
		bestScore  = -1
	)
	for _, dev := range devices {
		family, ok := findQueueFamily(dev, surface)
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(dev, &props)
		props.Deref()

		score := 1
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			score = 2
		}
		if score > bestScore {
			best, bestFamily, bestScore = dev, family, score
		}
	}
	if bestScore < 0 {
		return nil, 0, ErrNoQueueFamily
	}
	return best, bestFamily, nil
}

// findQueueFamily locates a family with graphics support that can also
// present to surface.
func findQueueFamily(dev vk.PhysicalDevice, surface vk.Surface) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &count, families)

	for i, family := range families {
		family.Deref()
		if family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var present vk.Bool32
		if vk.GetPhysicalDeviceSurfaceSupport(dev, uint32(i), surface, &present) != vk.Success {
			continue
		}
		if present.B() {
			return uint32(i), true
		}
	}
	return 0, false
}
