package render

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// WorldSamples is the MSAA level of the world pass. Stages recorded
// inside the pass must rasterize at this count.
const WorldSamples = vk.SampleCount4Bit

// RenderPass owns the world render pass and its per-swapchain-image
// framebuffers, including the multisampled color and depth targets.
type RenderPass struct {
	handle       vk.RenderPass
	depthFormat  vk.Format
	color        gpuImage
	depth        gpuImage
	framebuffers []vk.Framebuffer
}

// NewRenderPass builds the world pass: a 4x multisampled color attachment,
// a multisampled depth attachment, and a single-sample resolve target that
// maps onto the swapchain image.
func NewRenderPass(dev *Device, sc *Swapchain) (*RenderPass, error) {
	rp := &RenderPass{depthFormat: vk.FormatD32Sfloat}
	if err := rp.create(dev, sc); err != nil {
		rp.Destroy(dev)
		return nil, err
	}
	return rp, nil
}

// Handle returns the raw render pass handle.
func (rp *RenderPass) Handle() vk.RenderPass { return rp.handle }

// DepthFormat returns the depth attachment format.
func (rp *RenderPass) DepthFormat() vk.Format { return rp.depthFormat }

// Framebuffer returns the framebuffer for the given swapchain image index.
func (rp *RenderPass) Framebuffer(i int) vk.Framebuffer { return rp.framebuffers[i] }

// FramebufferCount returns the number of framebuffers, one per swapchain
// image.
func (rp *RenderPass) FramebufferCount() int { return len(rp.framebuffers) }

// Recreate rebuilds the attachments and framebuffers for a resized
// swapchain. The render pass itself survives since the formats are stable.
func (rp *RenderPass) Recreate(dev *Device, sc *Swapchain) error {
	rp.destroyFramebuffers(dev)
	rp.color.destroy(dev)
	rp.depth.destroy(dev)
	return rp.createTargets(dev, sc)
}

// Destroy releases the framebuffers, attachments and the pass. Safe to
// call more than once.
func (rp *RenderPass) Destroy(dev *Device) {
	if rp == nil || dev == nil || dev.Handle() == nil {
		return
	}
	rp.destroyFramebuffers(dev)
	rp.color.destroy(dev)
	rp.depth.destroy(dev)
	if rp.handle != vk.NullRenderPass {
		vk.DestroyRenderPass(dev.Handle(), rp.handle, nil)
		rp.handle = vk.NullRenderPass
	}
}

func (rp *RenderPass) destroyFramebuffers(dev *Device) {
	for _, fb := range rp.framebuffers {
		vk.DestroyFramebuffer(dev.Handle(), fb, nil)
	}
	rp.framebuffers = nil
}

func (rp *RenderPass) create(dev *Device, sc *Swapchain) error {
	colorAttachment := vk.AttachmentDescription{
		Format:         sc.Format(),
		Samples:        WorldSamples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         rp.depthFormat,
		Samples:        WorldSamples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	resolveAttachment := vk.AttachmentDescription{
		Format:         sc.Format(),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	depthRef := vk.AttachmentReference{Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
	resolveRef := vk.AttachmentReference{Attachment: 2, Layout: vk.ImageLayoutColorAttachmentOptimal}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PResolveAttachments:     []vk.AttachmentReference{resolveRef},
		PDepthStencilAttachment: &depthRef,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass: vk.SubpassExternal,
		DstSubpass: 0,
		SrcStageMask: vk.PipelineStageFlags(
			vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstStageMask: vk.PipelineStageFlags(
			vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(
			vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 3,
		PAttachments:    []vk.AttachmentDescription{colorAttachment, depthAttachment, resolveAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	var handle vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(dev.Handle(), &info, nil, &handle)); err != nil {
		return fmt.Errorf("render: creating render pass: %w", err)
	}
	rp.handle = handle
	return rp.createTargets(dev, sc)
}

func (rp *RenderPass) createTargets(dev *Device, sc *Swapchain) error {
	extent := sc.Extent()

	img, mem, err := createImage(dev, imageOpts{
		width:   extent.Width,
		height:  extent.Height,
		format:  sc.Format(),
		usage:   vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransientAttachmentBit),
		samples: WorldSamples,
	})
	if err != nil {
		return err
	}
	rp.color = gpuImage{image: img, memory: mem}
	rp.color.view, err = createImageView(dev, img, sc.Format(), vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageViewType2d)
	if err != nil {
		return err
	}

	img, mem, err = createImage(dev, imageOpts{
		width:   extent.Width,
		height:  extent.Height,
		format:  rp.depthFormat,
		usage:   vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		samples: WorldSamples,
	})
	if err != nil {
		return err
	}
	rp.depth = gpuImage{image: img, memory: mem}
	rp.depth.view, err = createImageView(dev, img, rp.depthFormat, vk.ImageAspectFlags(vk.ImageAspectDepthBit), 1, vk.ImageViewType2d)
	if err != nil {
		return err
	}

	rp.framebuffers, err = buildFramebuffers(rp.color.view, rp.depth.view, sc.ImageViews(),
		func(attachments []vk.ImageView) (vk.Framebuffer, error) {
			info := vk.FramebufferCreateInfo{
				SType:           vk.StructureTypeFramebufferCreateInfo,
				RenderPass:      rp.handle,
				AttachmentCount: uint32(len(attachments)),
				PAttachments:    attachments,
				Width:           extent.Width,
				Height:          extent.Height,
				Layers:          1,
			}
			var fb vk.Framebuffer
			if err := vk.Error(vk.CreateFramebuffer(dev.Handle(), &info, nil, &fb)); err != nil {
				return vk.NullFramebuffer, fmt.Errorf("render: creating framebuffer: %w", err)
			}
			return fb, nil
		})
	return err
}

// buildFramebuffers creates one framebuffer per swapchain image view,
// replacing any previous set. Framebuffers created before an error are
// returned so the caller can release them.
func buildFramebuffers(color, depth vk.ImageView, views []vk.ImageView, create func([]vk.ImageView) (vk.Framebuffer, error)) ([]vk.Framebuffer, error) {
	fbs := make([]vk.Framebuffer, 0, len(views))
	for _, view := range views {
		fb, err := create([]vk.ImageView{color, depth, view})
		if err != nil {
			return fbs, err
		}
		fbs = append(fbs, fb)
	}
	return fbs, nil
}
