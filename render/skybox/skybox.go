package skybox

import (
	"fmt"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gogpu/vk3d/internal/cache"
	"github.com/gogpu/vk3d/render"
)

// How many uploaded cubemaps to keep alive across environment switches.
const textureCacheSize = 4

// Skybox renders the active environment as the background of the world
// pass. It implements render.SkyStage.
type Skybox struct {
	dev     *render.Device
	pool    vk.CommandPool
	catalog *Catalog
	cube    *render.Mesh

	textures   *cache.Cache[string, *render.Texture]
	active     *render.Texture
	activeName string

	descriptorLayout vk.DescriptorSetLayout
	pipelineLayout   vk.PipelineLayout
	pipeline         vk.Pipeline
	descriptorPool   vk.DescriptorPool
	descriptorSet    vk.DescriptorSet
}

// New builds the skybox pipeline, loads the catalog at catalogPath and
// activates its default environment. The command pool is borrowed for
// texture uploads and must outlive the skybox.
func New(dev *render.Device, pool vk.CommandPool, worldPass vk.RenderPass, shaderDir, catalogPath string) (*Skybox, error) {
	catalog, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	s := &Skybox{dev: dev, pool: pool, catalog: catalog}
	s.textures = cache.New[string, *render.Texture](textureCacheSize)
	s.textures.OnEvict = func(_ string, t *render.Texture) {
		dev.WaitIdle()
		t.Destroy(dev)
	}
	if err := s.create(worldPass, shaderDir); err != nil {
		s.Destroy(dev)
		return nil, err
	}
	if err := s.SetActive(catalog.Default().Name); err != nil {
		s.Destroy(dev)
		return nil, err
	}
	return s, nil
}

// Catalog returns the loaded environment catalog.
func (s *Skybox) Catalog() *Catalog { return s.catalog }

// ActiveName returns the name of the active environment.
func (s *Skybox) ActiveName() string { return s.activeName }

// SetActive switches to the named environment, converting and uploading
// its panorama on first use. Must not be called while a frame is being
// recorded.
func (s *Skybox) SetActive(name string) error {
	entry, ok := s.catalog.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEnvironment, name)
	}
	tex, err := s.textures.GetOrCreate(entry.Path, func() (*render.Texture, error) {
		start := time.Now()
		pano, err := LoadHDR(entry.Path)
		if err != nil {
			return nil, err
		}
		faces := ConvertEquirect(pano, entry.Size)
		tex, err := render.NewCubeTexture(s.dev, s.pool, uint32(entry.Size), faces)
		if err != nil {
			return nil, err
		}
		slogger().Info("environment converted",
			"name", entry.Name,
			"source", filepath.Base(entry.Path),
			"faceSize", entry.Size,
			"elapsed", time.Since(start))
		return tex, nil
	})
	if err != nil {
		return err
	}
	if tex != s.active {
		s.dev.WaitIdle()
		s.active = tex
		s.writeDescriptor()
	}
	s.activeName = entry.Name
	return nil
}

// Record draws the background into the current world pass. The view
// matrix's translation is discarded so the sky stays at infinity.
func (s *Skybox) Record(cmd vk.CommandBuffer, view, proj mgl32.Mat4) {
	if s.active == nil || s.pipeline == vk.NullPipeline {
		return
	}
	view.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	pc := proj.Mul4(view)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, s.pipeline)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics,
		s.pipelineLayout, 0, 1, []vk.DescriptorSet{s.descriptorSet}, 0, nil)
	vk.CmdPushConstants(cmd, s.pipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0, uint32(unsafe.Sizeof(pc)), unsafe.Pointer(&pc))
	s.cube.Bind(cmd)
	vk.CmdDrawIndexed(cmd, s.cube.IndexCount(), 1, 0, 0, 0)
}

// Destroy releases the skybox resources, including all cached cubemaps.
// Safe to call more than once.
func (s *Skybox) Destroy(dev *render.Device) {
	if s == nil || dev == nil || dev.Handle() == nil {
		return
	}
	if s.textures != nil {
		s.textures.Clear()
	}
	s.active = nil
	if s.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(dev.Handle(), s.pipeline, nil)
		s.pipeline = vk.NullPipeline
	}
	if s.pipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev.Handle(), s.pipelineLayout, nil)
		s.pipelineLayout = vk.NullPipelineLayout
	}
	if s.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(dev.Handle(), s.descriptorPool, nil)
		s.descriptorPool = vk.NullDescriptorPool
	}
	if s.descriptorLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev.Handle(), s.descriptorLayout, nil)
		s.descriptorLayout = vk.NullDescriptorSetLayout
	}
	s.cube.Destroy(dev)
	s.cube = nil
}

func (s *Skybox) writeDescriptor() {
	imageInfo := vk.DescriptorImageInfo{
		Sampler:     s.active.Sampler(),
		ImageView:   s.active.View(),
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.descriptorSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(s.dev.Handle(), 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (s *Skybox) create(worldPass vk.RenderPass, shaderDir string) error {
	dev := s.dev.Handle()

	var err error
	s.cube, err = render.NewMesh(s.dev, s.pool, render.CubeVertices(), render.CubeIndices())
	if err != nil {
		return err
	}

	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	if err := vk.Error(vk.CreateDescriptorSetLayout(dev, &layoutInfo, nil, &s.descriptorLayout)); err != nil {
		return fmt.Errorf("skybox: creating descriptor set layout: %w", err)
	}

	poolSize := vk.DescriptorPoolSize{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 1}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes:    []vk.DescriptorPoolSize{poolSize},
	}
	if err := vk.Error(vk.CreateDescriptorPool(dev, &poolInfo, nil, &s.descriptorPool)); err != nil {
		return fmt.Errorf("skybox: creating descriptor pool: %w", err)
	}
	alloc := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     s.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{s.descriptorLayout},
	}
	if err := vk.Error(vk.AllocateDescriptorSets(dev, &alloc, &s.descriptorSet)); err != nil {
		return fmt.Errorf("skybox: allocating descriptor set: %w", err)
	}

	pcRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(mgl32.Mat4{})),
	}
	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{s.descriptorLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pcRange},
	}
	if err := vk.Error(vk.CreatePipelineLayout(dev, &pipelineLayoutInfo, nil, &s.pipelineLayout)); err != nil {
		return fmt.Errorf("skybox: creating pipeline layout: %w", err)
	}

	vert, err := render.LoadShaderModule(s.dev, filepath.Join(shaderDir, "sky.vert.spv"))
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(dev, vert, nil)
	frag, err := render.LoadShaderModule(s.dev, filepath.Join(shaderDir, "sky.frag.spv"))
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(dev, frag, nil)

	return s.buildPipeline(worldPass, vert, frag)
}

func (s *Skybox) buildPipeline(worldPass vk.RenderPass, vert, frag vk.ShaderModule) error {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vert,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: frag,
			PName:  "main\x00",
		},
	}

	// Shares the world vertex layout; only the position attribute feeds
	// the sky shader.
	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    8 * 4,
		InputRate: vk.VertexInputRateVertex,
	}
	attr := vk.VertexInputAttributeDescription{
		Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0,
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: 1,
		PVertexAttributeDescriptions:    []vk.VertexInputAttributeDescription{attr},
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: render.WorldSamples,
	}
	// The sky shader emits depth 1.0, so LessOrEqual lets it fill only
	// uncovered pixels.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:           vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable: vk.True,
		DepthCompareOp:  vk.CompareOpLessOrEqual,
	}
	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamic := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamic,
		Layout:              s.pipelineLayout,
		RenderPass:          worldPass,
	}
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(s.dev.Handle(), vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("skybox: creating pipeline: %w", err)
	}
	s.pipeline = pipelines[0]
	return nil
}
