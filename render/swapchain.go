package render

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
)

// Swapchain owns the presentable images and their views. It is recreated
// wholesale whenever the framebuffer size changes.
type Swapchain struct {
	handle vk.Swapchain
	format vk.Format
	extent vk.Extent2D
	images []vk.Image
	views  []vk.ImageView
	vsync  bool
}

// NewSwapchain creates a swapchain sized to the given framebuffer
// dimensions, clamped to the surface capabilities.
func NewSwapchain(dev *Device, surface *Surface, width, height uint32, vsync bool) (*Swapchain, error) {
	sc := &Swapchain{vsync: vsync}
	if err := sc.create(dev, surface, width, height); err != nil {
		sc.Destroy(dev)
		return nil, err
	}
	return sc, nil
}

// Handle returns the raw swapchain handle.
func (sc *Swapchain) Handle() vk.Swapchain { return sc.handle }

// Format returns the swapchain image format.
func (sc *Swapchain) Format() vk.Format { return sc.format }

// Extent returns the current swapchain extent.
func (sc *Swapchain) Extent() vk.Extent2D { return sc.extent }

// ImageViews returns one view per swapchain image.
func (sc *Swapchain) ImageViews() []vk.ImageView { return sc.views }

// ImageCount returns the number of presentable images.
func (sc *Swapchain) ImageCount() int { return len(sc.images) }

// Recreate tears the swapchain down and rebuilds it at the new size. The
// caller must have waited for the device to go idle.
func (sc *Swapchain) Recreate(dev *Device, surface *Surface, width, height uint32) error {
	sc.Destroy(dev)
	return sc.create(dev, surface, width, height)
}

// Destroy releases the image views and the swapchain. Safe to call more
// than once.
func (sc *Swapchain) Destroy(dev *Device) {
	if sc == nil || dev == nil || dev.Handle() == nil {
		return
	}
	for _, view := range sc.views {
		vk.DestroyImageView(dev.Handle(), view, nil)
	}
	sc.views = nil
	sc.images = nil
	if sc.handle != vk.NullSwapchain {
		vk.DestroySwapchain(dev.Handle(), sc.handle, nil)
		sc.handle = vk.NullSwapchain
	}
}

func (sc *Swapchain) create(dev *Device, surface *Surface, width, height uint32) error {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(dev.Physical(), surface.Handle(), &caps)); err != nil {
		return fmt.Errorf("render: querying surface capabilities: %w", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(dev.Physical(), surface.Handle(), &formatCount, nil)
	if formatCount == 0 {
		return ErrNoSurfaceFormat
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(dev.Physical(), surface.Handle(), &formatCount, formats)
	for i := range formats {
		formats[i].Deref()
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(dev.Physical(), surface.Handle(), &modeCount, nil)
	modes := make([]vk.PresentMode, modeCount)
	if modeCount > 0 {
		vk.GetPhysicalDeviceSurfacePresentModes(dev.Physical(), surface.Handle(), &modeCount, modes)
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(modes, sc.vsync)
	extent := chooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent,
		vk.Extent2D{Width: width, Height: height})

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface.Handle(),
		MinImageCount:   imageCount,
		ImageFormat:     surfaceFormat.Format,
		ImageColorSpace: surfaceFormat.ColorSpace,
		ImageExtent:     extent,
		ImageArrayLayers: 1,
		ImageUsage: vk.ImageUsageFlags(
			vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(dev.Handle(), &createInfo, nil, &handle)); err != nil {
		return fmt.Errorf("render: creating swapchain: %w", err)
	}
	sc.handle = handle
	sc.format = surfaceFormat.Format
	sc.extent = extent

	var count uint32
	vk.GetSwapchainImages(dev.Handle(), handle, &count, nil)
	sc.images = make([]vk.Image, count)
	vk.GetSwapchainImages(dev.Handle(), handle, &count, sc.images)

	sc.views = make([]vk.ImageView, 0, count)
	for _, img := range sc.images {
		view, err := createImageView(dev, img, sc.format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageViewType2d)
		if err != nil {
			return fmt.Errorf("render: creating swapchain image view: %w", err)
		}
		sc.views = append(sc.views, view)
	}
	return nil
}

// chooseSurfaceFormat selects the presentation format: a lone undefined
// entry means any format works, otherwise prefer B8G8R8A8 unorm with sRGB
// nonlinear color space, falling back to the first reported format.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode selects FIFO when vsync is on (always available);
// otherwise mailbox if offered, else immediate, else FIFO.
func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	best := vk.PresentModeFifo
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
		if m == vk.PresentModeImmediate {
			best = m
		}
	}
	return best
}

// chooseExtent uses the surface's current extent when fixed, otherwise
// clamps the requested framebuffer size into the supported range.
func chooseExtent(current, min, max, want vk.Extent2D) vk.Extent2D {
	if current.Width != math.MaxUint32 {
		return current
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(want.Width, min.Width, max.Width),
		Height: clamp(want.Height, min.Height, max.Height),
	}
}
