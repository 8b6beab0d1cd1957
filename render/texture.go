package render

import (
	"image"

	vk "github.com/goki/vulkan"
)

// Texture is a sampled 2D image with its view and sampler.
type Texture struct {
	img     gpuImage
	sampler vk.Sampler
}

// NewTexture uploads an RGBA image and builds a linearly filtered,
// anisotropic sampler over it.
func NewTexture(dev *Device, pool vk.CommandPool, src *image.RGBA) (*Texture, error) {
	t := &Texture{}
	if err := t.create(dev, pool, src); err != nil {
		t.Destroy(dev)
		return nil, err
	}
	return t, nil
}

// NewWhiteTexture builds the 1x1 white fallback used by untextured
// materials.
func NewWhiteTexture(dev *Device, pool vk.CommandPool) (*Texture, error) {
	px := image.NewRGBA(image.Rect(0, 0, 1, 1))
	px.Pix[0], px.Pix[1], px.Pix[2], px.Pix[3] = 255, 255, 255, 255
	return NewTexture(dev, pool, px)
}

// View returns the image view for descriptor writes.
func (t *Texture) View() vk.ImageView { return t.img.view }

// Sampler returns the sampler for descriptor writes.
func (t *Texture) Sampler() vk.Sampler { return t.sampler }

// Destroy releases the image, view and sampler. Safe to call more than
// once.
func (t *Texture) Destroy(dev *Device) {
	if t == nil || dev == nil || dev.Handle() == nil {
		return
	}
	if t.sampler != vk.NullSampler {
		vk.DestroySampler(dev.Handle(), t.sampler, nil)
		t.sampler = vk.NullSampler
	}
	t.img.destroy(dev)
}

func (t *Texture) create(dev *Device, pool vk.CommandPool, src *image.RGBA) error {
	bounds := src.Bounds()
	width := uint32(bounds.Dx())
	height := uint32(bounds.Dy())

	img, mem, err := createImage(dev, imageOpts{
		width:  width,
		height: height,
		format: vk.FormatR8g8b8a8Unorm,
		usage:  vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
	})
	if err != nil {
		return err
	}
	t.img = gpuImage{image: img, memory: mem}

	if err := uploadToImage(dev, pool, img, width, height, 1, src.Pix); err != nil {
		return err
	}

	t.img.view, err = createImageView(dev, img, vk.FormatR8g8b8a8Unorm,
		vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageViewType2d)
	if err != nil {
		return err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vk.FilterLinear,
		MinFilter:        vk.FilterLinear,
		MipmapMode:       vk.SamplerMipmapModeLinear,
		AddressModeU:     vk.SamplerAddressModeRepeat,
		AddressModeV:     vk.SamplerAddressModeRepeat,
		AddressModeW:     vk.SamplerAddressModeRepeat,
		AnisotropyEnable: vk.True,
		MaxAnisotropy:    16,
		BorderColor:      vk.BorderColorIntOpaqueBlack,
	}
	return vkError(vk.CreateSampler(dev.Handle(), &samplerInfo, nil, &t.sampler), "creating sampler")
}

// NewCubeTexture uploads six equally sized faces of R16G16B16A16 float
// pixels into a cubemap and builds a clamped linear sampler over it. The
// pixel slice holds the faces back to back in +X -X +Y -Y +Z -Z order.
func NewCubeTexture(dev *Device, pool vk.CommandPool, faceSize uint32, pixels []byte) (*Texture, error) {
	t := &Texture{}

	img, mem, err := createImage(dev, imageOpts{
		width:  faceSize,
		height: faceSize,
		format: vk.FormatR16g16b16a16Sfloat,
		usage:  vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		layers: 6,
		flags:  vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit),
	})
	if err != nil {
		return nil, err
	}
	t.img = gpuImage{image: img, memory: mem}

	if err := uploadToImage(dev, pool, img, faceSize, faceSize, 6, pixels); err != nil {
		t.Destroy(dev)
		return nil, err
	}

	t.img.view, err = createImageView(dev, img, vk.FormatR16g16b16a16Sfloat,
		vk.ImageAspectFlags(vk.ImageAspectColorBit), 6, vk.ImageViewTypeCube)
	if err != nil {
		t.Destroy(dev)
		return nil, err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		AddressModeU: vk.SamplerAddressModeClampToEdge,
		AddressModeV: vk.SamplerAddressModeClampToEdge,
		AddressModeW: vk.SamplerAddressModeClampToEdge,
		BorderColor:  vk.BorderColorIntOpaqueBlack,
	}
	if err := vkError(vk.CreateSampler(dev.Handle(), &samplerInfo, nil, &t.sampler), "creating cube sampler"); err != nil {
		t.Destroy(dev)
		return nil, err
	}
	return t, nil
}

// uploadToImage stages pixel data into an image and leaves it in shader
// read-only layout. layers > 1 writes one equally sized slice per layer.
func uploadToImage(dev *Device, pool vk.CommandPool, img vk.Image, width, height, layers uint32, pixels []byte) error {
	staging, err := newBuffer(dev, vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.Destroy(dev)

	var ptr = staging.mapped
	vk.MapMemory(dev.Handle(), staging.memory, 0, staging.size, 0, &ptr)
	vk.Memcopy(ptr, pixels)
	vk.UnmapMemory(dev.Handle(), staging.memory)

	return oneTimeCommands(dev, pool, func(cmd vk.CommandBuffer) {
		transitionLayout(cmd, img, vk.ImageAspectFlags(vk.ImageAspectColorBit), layers,
			vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
			0, vk.AccessFlags(vk.AccessTransferWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit))

		layerSize := vk.DeviceSize(len(pixels)) / vk.DeviceSize(layers)
		regions := make([]vk.BufferImageCopy, 0, layers)
		for layer := uint32(0); layer < layers; layer++ {
			regions = append(regions, vk.BufferImageCopy{
				BufferOffset: layerSize * vk.DeviceSize(layer),
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					BaseArrayLayer: layer,
					LayerCount:     1,
				},
				ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
			})
		}
		vk.CmdCopyBufferToImage(cmd, staging.handle, img, vk.ImageLayoutTransferDstOptimal,
			uint32(len(regions)), regions)

		transitionLayout(cmd, img, vk.ImageAspectFlags(vk.ImageAspectColorBit), layers,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	})
}
