package render

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// gpuImage bundles an image with its allocation and view.
type gpuImage struct {
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
}

func (g *gpuImage) destroy(dev *Device) {
	if g == nil || dev == nil || dev.Handle() == nil {
		return
	}
	if g.view != vk.NullImageView {
		vk.DestroyImageView(dev.Handle(), g.view, nil)
		g.view = vk.NullImageView
	}
	if g.image != vk.NullImage {
		vk.DestroyImage(dev.Handle(), g.image, nil)
		g.image = vk.NullImage
	}
	if g.memory != vk.NullDeviceMemory {
		vk.FreeMemory(dev.Handle(), g.memory, nil)
		g.memory = vk.NullDeviceMemory
	}
}

type imageOpts struct {
	width, height uint32
	format        vk.Format
	usage         vk.ImageUsageFlags
	samples       vk.SampleCountFlagBits
	layers        uint32
	flags         vk.ImageCreateFlags
}

func createImage(dev *Device, o imageOpts) (vk.Image, vk.DeviceMemory, error) {
	if o.samples == 0 {
		o.samples = vk.SampleCount1Bit
	}
	if o.layers == 0 {
		o.layers = 1
	}
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     o.flags,
		ImageType: vk.ImageType2d,
		Format:    o.format,
		Extent:    vk.Extent3D{Width: o.width, Height: o.height, Depth: 1},
		MipLevels: 1,
		ArrayLayers:   o.layers,
		Samples:       o.samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         o.usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if err := vk.Error(vk.CreateImage(dev.Handle(), &info, nil, &img)); err != nil {
		return vk.NullImage, vk.NullDeviceMemory, fmt.Errorf("render: creating image: %w", err)
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev.Handle(), img, &req)
	req.Deref()
	typeIndex, err := findMemoryType(dev, req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(dev.Handle(), img, nil)
		return vk.NullImage, vk.NullDeviceMemory, err
	}
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}
	var mem vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(dev.Handle(), &alloc, nil, &mem)); err != nil {
		vk.DestroyImage(dev.Handle(), img, nil)
		return vk.NullImage, vk.NullDeviceMemory, fmt.Errorf("render: allocating image memory: %w", err)
	}
	vk.BindImageMemory(dev.Handle(), img, mem, 0)
	return img, mem, nil
}

func createImageView(dev *Device, img vk.Image, format vk.Format, aspect vk.ImageAspectFlags, layers uint32, viewType vk.ImageViewType) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: layers,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev.Handle(), &info, nil, &view)); err != nil {
		return vk.NullImageView, fmt.Errorf("render: creating image view: %w", err)
	}
	return view, nil
}

func findMemoryType(dev *Device, typeBits uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev.Physical(), &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeBits&(1<<i) != 0 && memProps.MemoryTypes[i].PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, ErrNoSuitableMemory
}

// oneTimeCommands records commands into a transient buffer and blocks
// until the queue has executed them.
func oneTimeCommands(dev *Device, pool vk.CommandPool, record func(vk.CommandBuffer)) error {
	alloc := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(dev.Handle(), &alloc, cmds)); err != nil {
		return fmt.Errorf("render: allocating command buffer: %w", err)
	}
	cmd := cmds[0]
	defer vk.FreeCommandBuffers(dev.Handle(), pool, 1, cmds)

	begin := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	vk.BeginCommandBuffer(cmd, &begin)
	record(cmd)
	vk.EndCommandBuffer(cmd)

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}
	if err := vk.Error(vk.QueueSubmit(dev.Queue(), 1, []vk.SubmitInfo{submit}, vk.Fence(vk.NullHandle))); err != nil {
		return fmt.Errorf("render: submitting one-time commands: %w", err)
	}
	vk.QueueWaitIdle(dev.Queue())
	return nil
}

// transitionLayout records a full-subresource layout transition barrier.
func transitionLayout(cmd vk.CommandBuffer, img vk.Image, aspect vk.ImageAspectFlags, layers uint32, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: layers,
		},
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
