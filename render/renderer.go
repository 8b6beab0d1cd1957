package render

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

// SkyStage is an optional background stage recorded before the world
// geometry, inside the world render pass. The skybox package provides the
// standard implementation.
type SkyStage interface {
	Record(cmd vk.CommandBuffer, view, proj mgl32.Mat4)
	Destroy(dev *Device)
}

// frameUniforms is the per-frame uniform block at descriptor binding 0.
// Layout follows std140.
type frameUniforms struct {
	LightVP  mgl32.Mat4
	LightDir mgl32.Vec4
	ViewPos  mgl32.Vec4
}

// Renderer records and submits one frame at a time: shadow pass first,
// then the world pass with sky, opaque and transparent stages.
type Renderer struct {
	dev *Device
	sc  *Swapchain
	rp  *RenderPass

	pool      vk.CommandPool
	cmd       vk.CommandBuffer
	pipelines *Pipelines
	shadow    *ShadowMap
	white     *Texture
	sky       SkyStage

	uniform        *Buffer
	descriptorPool vk.DescriptorPool
	descriptors    map[*Texture]vk.DescriptorSet

	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence

	items []Item
}

// NewRenderer builds the frame resources on top of an existing device,
// swapchain and world render pass.
func NewRenderer(dev *Device, sc *Swapchain, rp *RenderPass, shaderDir string) (*Renderer, error) {
	r := &Renderer{dev: dev, sc: sc, rp: rp, descriptors: make(map[*Texture]vk.DescriptorSet)}
	if err := r.create(shaderDir); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// CommandPool exposes the pool for mesh and texture uploads.
func (r *Renderer) CommandPool() vk.CommandPool { return r.pool }

// WhiteTexture returns the fallback texture bound for untextured
// materials.
func (r *Renderer) WhiteTexture() *Texture { return r.white }

// SetSky installs the background stage. Pass nil to clear it. The caller
// keeps ownership.
func (r *Renderer) SetSky(sky SkyStage) { r.sky = sky }

// SetRenderItems replaces the frame's draw list. The items are copied so
// the caller may reuse its slice.
func (r *Renderer) SetRenderItems(items []Item) {
	r.items = append(r.items[:0], items...)
}

// Recreate rebinds the renderer to a resized swapchain. The caller has
// already recreated the swapchain and render pass targets.
func (r *Renderer) Recreate(sc *Swapchain) {
	r.sc = sc
}

// Destroy releases everything the renderer owns. Safe to call more than
// once; the device outlives the renderer.
func (r *Renderer) Destroy() {
	if r == nil || r.dev == nil || r.dev.Handle() == nil {
		return
	}
	dev := r.dev
	if r.inFlight != vk.NullFence {
		vk.DestroyFence(dev.Handle(), r.inFlight, nil)
		r.inFlight = vk.NullFence
	}
	if r.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(dev.Handle(), r.imageAvailable, nil)
		r.imageAvailable = vk.NullSemaphore
	}
	if r.renderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(dev.Handle(), r.renderFinished, nil)
		r.renderFinished = vk.NullSemaphore
	}
	if r.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(dev.Handle(), r.descriptorPool, nil)
		r.descriptorPool = vk.NullDescriptorPool
	}
	r.descriptors = nil
	r.uniform.Destroy(dev)
	r.uniform = nil
	r.white.Destroy(dev)
	r.white = nil
	r.shadow.Destroy(dev)
	r.shadow = nil
	r.pipelines.Destroy(dev)
	r.pipelines = nil
	if r.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(dev.Handle(), r.pool, nil)
		r.pool = vk.NullCommandPool
	}
}

// DrawFrame renders one frame with the given camera. Acquire and present
// failures from an out-of-date swapchain are swallowed; the resize path
// rebuilds the swapchain before the next frame.
func (r *Renderer) DrawFrame(cam *Camera) error {
	if r == nil || r.dev == nil {
		return ErrNotCreated
	}
	dev := r.dev.Handle()

	vk.WaitForFences(dev, 1, []vk.Fence{r.inFlight}, vk.True, math.MaxUint64)

	var imageIndex uint32
	res := vk.AcquireNextImage(dev, r.sc.Handle(), math.MaxUint64,
		r.imageAvailable, vk.Fence(vk.NullHandle), &imageIndex)
	if res == vk.ErrorOutOfDate {
		return nil
	}
	if res != vk.Success && res != vk.Suboptimal {
		return vkError(res, "acquiring swapchain image")
	}

	vk.ResetFences(dev, 1, []vk.Fence{r.inFlight})

	extent := r.sc.Extent()
	aspect := float32(extent.Width) / float32(extent.Height)
	view := cam.ViewMatrix()
	proj := vulkanPerspective(mgl32.DegToRad(cam.Zoom()), aspect, cameraNear, cameraFar)
	lightVP := LightViewProjection()

	pos := cam.Position()
	uniforms := frameUniforms{
		LightVP:  lightVP,
		LightDir: lightDirection.Vec4(0),
		ViewPos:  pos.Vec4(1),
	}
	r.uniform.Write(unsafe.Slice((*byte)(unsafe.Pointer(&uniforms)), int(unsafe.Sizeof(uniforms))))

	r.record(imageIndex, view, proj, lightVP)

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{r.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{r.renderFinished},
	}
	if err := vkError(vk.QueueSubmit(r.dev.Queue(), 1, []vk.SubmitInfo{submit}, r.inFlight), "submitting frame"); err != nil {
		return err
	}

	present := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{r.sc.Handle()},
		PImageIndices:      []uint32{imageIndex},
	}
	res = vk.QueuePresent(r.dev.Queue(), &present)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		return nil
	}
	return vkError(res, "presenting frame")
}

func (r *Renderer) record(imageIndex uint32, view, proj, lightVP mgl32.Mat4) {
	vk.ResetCommandBuffer(r.cmd, 0)
	begin := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	vk.BeginCommandBuffer(r.cmd, &begin)

	// Shadow pass.
	r.shadow.Begin(r.cmd)
	vk.CmdBindPipeline(r.cmd, vk.PipelineBindPointGraphics, r.pipelines.Shadow())
	for i := range r.items {
		item := &r.items[i]
		pc := ShadowPushConstants{
			LightMVP: lightVP.Mul4(item.Model),
			Model:    item.Model,
		}
		vk.CmdPushConstants(r.cmd, r.pipelines.ShadowLayout(),
			vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			0, uint32(unsafe.Sizeof(pc)), unsafe.Pointer(&pc))
		item.Mesh.Bind(r.cmd)
		vk.CmdDrawIndexed(r.cmd, item.Mesh.IndexCount(), 1, 0, 0, 0)
	}
	r.shadow.End(r.cmd)

	// World pass.
	extent := r.sc.Extent()
	clearValues := make([]vk.ClearValue, 3)
	clearValues[0] = vk.NewClearValue([]float32{0.05, 0.05, 0.08, 1})
	clearValues[1].SetDepthStencil(1, 0)
	clearValues[2] = vk.NewClearValue([]float32{0, 0, 0, 1})

	passBegin := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      r.rp.Handle(),
		Framebuffer:     r.rp.Framebuffer(int(imageIndex)),
		RenderArea:      vk.Rect2D{Extent: extent},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(r.cmd, &passBegin, vk.SubpassContentsInline)

	viewport := vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	}
	vk.CmdSetViewport(r.cmd, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(r.cmd, 0, 1, []vk.Rect2D{{Extent: extent}})

	if r.sky != nil {
		r.sky.Record(r.cmd, view, proj)
	}

	vp := proj.Mul4(view)
	r.drawStage(r.pipelines.Opaque(), vp, true)
	r.drawStage(r.pipelines.Transparent(), vp, false)

	vk.CmdEndRenderPass(r.cmd)
	vk.EndCommandBuffer(r.cmd)
}

func (r *Renderer) drawStage(pipeline vk.Pipeline, vp mgl32.Mat4, opaque bool) {
	bound := false
	for i := range r.items {
		item := &r.items[i]
		if item.Material.Opaque() != opaque {
			continue
		}
		if !bound {
			vk.CmdBindPipeline(r.cmd, vk.PipelineBindPointGraphics, pipeline)
			bound = true
		}
		set := r.descriptorFor(item.Material.Texture)
		vk.CmdBindDescriptorSets(r.cmd, vk.PipelineBindPointGraphics,
			r.pipelines.WorldLayout(), 0, 1, []vk.DescriptorSet{set}, 0, nil)

		mode := int32(ShadeFlat)
		if item.Material.Texture != nil {
			mode = ShadeTextured
		}
		pc := WorldPushConstants{
			MVP:       vp.Mul4(item.Model),
			Model:     item.Model,
			BaseColor: item.Material.BaseColor,
			Ambient:   item.Material.Ambient,
			Alpha:     item.Material.Alpha,
			Mode:      mode,
		}
		vk.CmdPushConstants(r.cmd, r.pipelines.WorldLayout(),
			vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
			0, uint32(unsafe.Sizeof(pc)), unsafe.Pointer(&pc))
		item.Mesh.Bind(r.cmd)
		vk.CmdDrawIndexed(r.cmd, item.Mesh.IndexCount(), 1, 0, 0, 0)
	}
}

// descriptorFor returns the cached descriptor set for a texture,
// allocating and writing it on first use. nil means the white fallback.
func (r *Renderer) descriptorFor(tex *Texture) vk.DescriptorSet {
	if tex == nil {
		tex = r.white
	}
	if set, ok := r.descriptors[tex]; ok {
		return set
	}
	alloc := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{r.pipelines.DescriptorLayout()},
	}
	sets := make([]vk.DescriptorSet, 1)
	if err := vk.Error(vk.AllocateDescriptorSets(r.dev.Handle(), &alloc, &sets[0])); err != nil {
		slogger().Error("descriptor set allocation failed", "err", err)
		return r.descriptors[r.white]
	}
	set := sets[0]

	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: r.uniform.Handle(),
		Range:  vk.DeviceSize(unsafe.Sizeof(frameUniforms{})),
	}
	diffuseInfo := vk.DescriptorImageInfo{
		Sampler:     tex.Sampler(),
		ImageView:   tex.View(),
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	shadowInfo := vk.DescriptorImageInfo{
		Sampler:     r.shadow.Sampler(),
		ImageView:   r.shadow.View(),
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      1,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      []vk.DescriptorImageInfo{diffuseInfo},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      2,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      []vk.DescriptorImageInfo{shadowInfo},
		},
	}
	vk.UpdateDescriptorSets(r.dev.Handle(), uint32(len(writes)), writes, 0, nil)
	r.descriptors[tex] = set
	return set
}

const maxDescriptorSets = 256

func (r *Renderer) create(shaderDir string) error {
	dev := r.dev.Handle()

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: r.dev.QueueFamily(),
	}
	if err := vkError(vk.CreateCommandPool(dev, &poolInfo, nil, &r.pool), "creating command pool"); err != nil {
		return err
	}

	cmdAlloc := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if err := vkError(vk.AllocateCommandBuffers(dev, &cmdAlloc, cmds), "allocating command buffer"); err != nil {
		return err
	}
	r.cmd = cmds[0]

	var err error
	r.shadow, err = NewShadowMap(r.dev)
	if err != nil {
		return err
	}
	r.pipelines, err = NewPipelines(r.dev, r.rp.Handle(), r.shadow.Pass(), shaderDir)
	if err != nil {
		return err
	}
	r.white, err = NewWhiteTexture(r.dev, r.pool)
	if err != nil {
		return err
	}
	r.uniform, err = newUniformBuffer(r.dev, vk.DeviceSize(unsafe.Sizeof(frameUniforms{})))
	if err != nil {
		return err
	}

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: maxDescriptorSets},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 2 * maxDescriptorSets},
	}
	descPoolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxDescriptorSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	if err := vkError(vk.CreateDescriptorPool(dev, &descPoolInfo, nil, &r.descriptorPool), "creating descriptor pool"); err != nil {
		return err
	}

	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err := vkError(vk.CreateSemaphore(dev, &semInfo, nil, &r.imageAvailable), "creating semaphore"); err != nil {
		return err
	}
	if err := vkError(vk.CreateSemaphore(dev, &semInfo, nil, &r.renderFinished), "creating semaphore"); err != nil {
		return err
	}
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	return vkError(vk.CreateFence(dev, &fenceInfo, nil, &r.inFlight), "creating fence")
}
