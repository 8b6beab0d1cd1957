package render

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

const (
	shadowMapSize   = 2048
	shadowMapFormat = vk.FormatD32Sfloat
)

// Directional light used for shading and shadow projection. The light is
// fixed; there is no API to move it at runtime.
var (
	lightDirection = mgl32.Vec3{0, 0, -1}.Normalize()
	lightTarget    = mgl32.Vec3{0, 0, -5}
)

// LightDirection returns the world-space direction of the fixed
// directional light.
func LightDirection() mgl32.Vec3 { return lightDirection }

// LightViewProjection returns the light's combined view-projection matrix
// for shadow rendering.
func LightViewProjection() mgl32.Mat4 {
	pos := lightTarget.Sub(lightDirection.Mul(10))
	view := mgl32.LookAtV(pos, lightTarget, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Ortho(-10, 10, -10, 10, 0.1, 30)
	proj[5] *= -1
	return proj.Mul4(view)
}

// ShadowMap owns the depth-only pass, target and sampler used to render
// and sample the shadow map.
type ShadowMap struct {
	pass        vk.RenderPass
	framebuffer vk.Framebuffer
	depth       gpuImage
	sampler     vk.Sampler
}

// NewShadowMap allocates the shadow depth target and its render pass.
func NewShadowMap(dev *Device) (*ShadowMap, error) {
	sm := &ShadowMap{}
	if err := sm.create(dev); err != nil {
		sm.Destroy(dev)
		return nil, err
	}
	return sm, nil
}

// Pass returns the shadow render pass.
func (sm *ShadowMap) Pass() vk.RenderPass { return sm.pass }

// View returns the depth image view for descriptor writes.
func (sm *ShadowMap) View() vk.ImageView { return sm.depth.view }

// Sampler returns the shadow sampler for descriptor writes.
func (sm *ShadowMap) Sampler() vk.Sampler { return sm.sampler }

// Destroy releases the shadow resources. Safe to call more than once.
func (sm *ShadowMap) Destroy(dev *Device) {
	if sm == nil || dev == nil || dev.Handle() == nil {
		return
	}
	if sm.sampler != vk.NullSampler {
		vk.DestroySampler(dev.Handle(), sm.sampler, nil)
		sm.sampler = vk.NullSampler
	}
	if sm.framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(dev.Handle(), sm.framebuffer, nil)
		sm.framebuffer = vk.NullFramebuffer
	}
	sm.depth.destroy(dev)
	if sm.pass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev.Handle(), sm.pass, nil)
		sm.pass = vk.NullRenderPass
	}
}

// Begin records the start of the shadow pass. The pass dependencies order
// the depth write against the main pass's shadow sampling.
func (sm *ShadowMap) Begin(cmd vk.CommandBuffer) {
	var clear vk.ClearValue
	clear.SetDepthStencil(1, 0)
	begin := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  sm.pass,
		Framebuffer: sm.framebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: shadowMapSize, Height: shadowMapSize},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clear},
	}
	vk.CmdBeginRenderPass(cmd, &begin, vk.SubpassContentsInline)

	viewport := vk.Viewport{Width: shadowMapSize, Height: shadowMapSize, MaxDepth: 1}
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
	scissor := vk.Rect2D{Extent: vk.Extent2D{Width: shadowMapSize, Height: shadowMapSize}}
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
}

// End closes the shadow pass, leaving the map in shader read-only layout.
func (sm *ShadowMap) End(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (sm *ShadowMap) create(dev *Device) error {
	depthAttachment := vk.AttachmentDescription{
		Format:         shadowMapFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutShaderReadOnlyOptimal,
	}
	depthRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		PDepthStencilAttachment: &depthRef,
	}
	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
			DstAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			DstAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		},
	}
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{depthAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}
	if err := vkError(vk.CreateRenderPass(dev.Handle(), &info, nil, &sm.pass), "creating shadow pass"); err != nil {
		return err
	}

	img, mem, err := createImage(dev, imageOpts{
		width:  shadowMapSize,
		height: shadowMapSize,
		format: shadowMapFormat,
		usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit | vk.ImageUsageSampledBit),
	})
	if err != nil {
		return err
	}
	sm.depth = gpuImage{image: img, memory: mem}
	sm.depth.view, err = createImageView(dev, img, shadowMapFormat,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit), 1, vk.ImageViewType2d)
	if err != nil {
		return err
	}

	fbInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      sm.pass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{sm.depth.view},
		Width:           shadowMapSize,
		Height:          shadowMapSize,
		Layers:          1,
	}
	if err := vkError(vk.CreateFramebuffer(dev.Handle(), &fbInfo, nil, &sm.framebuffer), "creating shadow framebuffer"); err != nil {
		return err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		MipmapMode:   vk.SamplerMipmapModeNearest,
		AddressModeU: vk.SamplerAddressModeClampToBorder,
		AddressModeV: vk.SamplerAddressModeClampToBorder,
		AddressModeW: vk.SamplerAddressModeClampToBorder,
		BorderColor:  vk.BorderColorFloatOpaqueWhite,
	}
	return vkError(vk.CreateSampler(dev.Handle(), &samplerInfo, nil, &sm.sampler), "creating shadow sampler")
}
