package render

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

// Shading modes carried in the world push constants.
const (
	ShadeTextured = 0
	ShadeFlat     = 1
)

// WorldPushConstants is the per-draw payload for the world pipelines. The
// layout mirrors the shader-side push constant block.
type WorldPushConstants struct {
	MVP       mgl32.Mat4
	Model     mgl32.Mat4
	BaseColor [3]float32
	Ambient   float32
	Alpha     float32
	Mode      int32
	_         [2]float32
}

// ShadowPushConstants is the per-draw payload for the shadow pipeline.
type ShadowPushConstants struct {
	LightMVP mgl32.Mat4
	Model    mgl32.Mat4
}

// Vertex layout: position, normal, uv interleaved.
const (
	vertexStride   = 8 * 4
	vertexFloats   = 8
	offsetPosition = 0
	offsetNormal   = 3 * 4
	offsetTexCoord = 6 * 4
)

// Pipelines owns the descriptor set layout, pipeline layouts, and the
// opaque, transparent, and shadow graphics pipelines.
type Pipelines struct {
	descriptorLayout vk.DescriptorSetLayout
	worldLayout      vk.PipelineLayout
	shadowLayout     vk.PipelineLayout
	opaque           vk.Pipeline
	transparent      vk.Pipeline
	shadow           vk.Pipeline
}

// NewPipelines compiles the world and shadow pipelines from the SPIR-V
// binaries in shaderDir.
func NewPipelines(dev *Device, worldPass, shadowPass vk.RenderPass, shaderDir string) (*Pipelines, error) {
	p := &Pipelines{}
	if err := p.create(dev, worldPass, shadowPass, shaderDir); err != nil {
		p.Destroy(dev)
		return nil, err
	}
	return p, nil
}

// DescriptorLayout returns the shared descriptor set layout.
func (p *Pipelines) DescriptorLayout() vk.DescriptorSetLayout { return p.descriptorLayout }

// WorldLayout returns the pipeline layout used by the world pipelines.
func (p *Pipelines) WorldLayout() vk.PipelineLayout { return p.worldLayout }

// ShadowLayout returns the pipeline layout used by the shadow pipeline.
func (p *Pipelines) ShadowLayout() vk.PipelineLayout { return p.shadowLayout }

// Opaque returns the opaque world pipeline.
func (p *Pipelines) Opaque() vk.Pipeline { return p.opaque }

// Transparent returns the alpha-blended world pipeline.
func (p *Pipelines) Transparent() vk.Pipeline { return p.transparent }

// Shadow returns the depth-only shadow pipeline.
func (p *Pipelines) Shadow() vk.Pipeline { return p.shadow }

// Destroy releases all pipeline objects. Safe to call more than once.
func (p *Pipelines) Destroy(dev *Device) {
	if p == nil || dev == nil || dev.Handle() == nil {
		return
	}
	for _, pl := range []*vk.Pipeline{&p.opaque, &p.transparent, &p.shadow} {
		if *pl != vk.NullPipeline {
			vk.DestroyPipeline(dev.Handle(), *pl, nil)
			*pl = vk.NullPipeline
		}
	}
	if p.worldLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev.Handle(), p.worldLayout, nil)
		p.worldLayout = vk.NullPipelineLayout
	}
	if p.shadowLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev.Handle(), p.shadowLayout, nil)
		p.shadowLayout = vk.NullPipelineLayout
	}
	if p.descriptorLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev.Handle(), p.descriptorLayout, nil)
		p.descriptorLayout = vk.NullDescriptorSetLayout
	}
}

func (p *Pipelines) create(dev *Device, worldPass, shadowPass vk.RenderPass, shaderDir string) error {
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         2,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var descLayout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(dev.Handle(), &layoutInfo, nil, &descLayout)); err != nil {
		return fmt.Errorf("render: creating descriptor set layout: %w", err)
	}
	p.descriptorLayout = descLayout

	worldRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		Size:       uint32(unsafe.Sizeof(WorldPushConstants{})),
	}
	worldLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{descLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{worldRange},
	}
	if err := vk.Error(vk.CreatePipelineLayout(dev.Handle(), &worldLayoutInfo, nil, &p.worldLayout)); err != nil {
		return fmt.Errorf("render: creating world pipeline layout: %w", err)
	}

	shadowRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(ShadowPushConstants{})),
	}
	shadowLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{shadowRange},
	}
	if err := vk.Error(vk.CreatePipelineLayout(dev.Handle(), &shadowLayoutInfo, nil, &p.shadowLayout)); err != nil {
		return fmt.Errorf("render: creating shadow pipeline layout: %w", err)
	}

	vert, err := LoadShaderModule(dev, filepath.Join(shaderDir, "world.vert.spv"))
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(dev.Handle(), vert, nil)
	frag, err := LoadShaderModule(dev, filepath.Join(shaderDir, "world.frag.spv"))
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(dev.Handle(), frag, nil)
	shadowVert, err := LoadShaderModule(dev, filepath.Join(shaderDir, "shadow.vert.spv"))
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(dev.Handle(), shadowVert, nil)

	p.opaque, err = buildPipeline(dev, pipelineOpts{
		vert:       vert,
		frag:       frag,
		layout:     p.worldLayout,
		renderPass: worldPass,
		samples:    WorldSamples,
		blend:      false,
		depthWrite: true,
	})
	if err != nil {
		return err
	}
	p.transparent, err = buildPipeline(dev, pipelineOpts{
		vert:       vert,
		frag:       frag,
		layout:     p.worldLayout,
		renderPass: worldPass,
		samples:    WorldSamples,
		blend:      true,
		depthWrite: false,
	})
	if err != nil {
		return err
	}
	p.shadow, err = buildPipeline(dev, pipelineOpts{
		vert:       shadowVert,
		layout:     p.shadowLayout,
		renderPass: shadowPass,
		samples:    vk.SampleCount1Bit,
		depthWrite: true,
		depthOnly:  true,
	})
	return err
}

type pipelineOpts struct {
	vert, frag vk.ShaderModule
	layout     vk.PipelineLayout
	renderPass vk.RenderPass
	samples    vk.SampleCountFlagBits
	blend      bool
	depthWrite bool
	depthOnly  bool
}

func buildPipeline(dev *Device, o pipelineOpts) (vk.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: o.vert,
			PName:  "main\x00",
		},
	}
	if !o.depthOnly {
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: o.frag,
			PName:  "main\x00",
		})
	}

	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
	attrs := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: offsetPosition},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: offsetNormal},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: offsetTexCoord},
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
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
		RasterizationSamples: o.samples,
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.False,
		DepthCompareOp:   vk.CompareOpLess,
	}
	if o.depthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if o.blend {
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorZero
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	if o.depthOnly {
		colorBlend.AttachmentCount = 0
		colorBlend.PAttachments = nil
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
		Layout:              o.layout,
		RenderPass:          o.renderPass,
	}
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(dev.Handle(), vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := vk.Error(res); err != nil {
		return vk.NullPipeline, fmt.Errorf("render: creating graphics pipeline: %w", err)
	}
	return pipelines[0], nil
}
