package pipeline

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey    string
	mode           shader.RenderMode
	shader         shader.Shader
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes one render pipeline over the shared face shader: which draw path it
// serves and the fixed-function state it is created with. The GPU object is filled in by
// the Renderer when the pipeline is registered.
type Pipeline interface {
	// PipelineKey returns the unique identifier for this pipeline.
	//
	// Returns:
	//   - string: the pipeline's key
	PipelineKey() string

	// Mode returns the draw path this pipeline renders.
	//
	// Returns:
	//   - shader.RenderMode: the render mode
	Mode() shader.RenderMode

	// Shader returns the shader module both stages come from.
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if none was set
	Shader() shader.Shader

	// RenderPipeline returns the created GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the GPU pipeline created by the renderer backend.
	//
	// Parameters:
	//   - rp: the created render pipeline
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// Ready reports whether the GPU pipeline exists.
	Ready() bool

	// DepthTestEnabled returns whether fragments are depth tested.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether fragments write depth.
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether BlendState is applied to the color target.
	BlendEnabled() bool

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the winding order that counts as front facing.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color channels written.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the color blend state.
	BlendState() *wgpu.BlendState

	// Release releases the GPU pipeline. The pipeline may be registered again afterwards.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline for a draw path. The topology defaults to the mode's
// topology, and the remaining state defaults to depth testing and writing with alpha
// blending and no culling.
//
// Parameters:
//   - key: the unique identifier for the pipeline
//   - mode: the draw path the pipeline serves
//   - options: variadic list of PipelineBuilderOption to configure the pipeline
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(key string, mode shader.RenderMode, options ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       key,
		mode:              mode,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      true,
		cullMode:          wgpu.CullModeNone,
		topology:          mode.Topology(),
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState:        AlphaBlend(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// AlphaBlend is straight alpha blending.
func AlphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// AdditiveBlend adds source color weighted by its alpha onto the target.
func AdditiveBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// FacePipelines returns the three draws of the face scene in draw order: the wireframe
// first, then the particles, then the additive trails. The wireframe and trails test
// depth but do not write it, so the particle cloud is never occluded by lines.
//
// Parameters:
//   - s: the shared face shader
//
// Returns:
//   - []Pipeline: one pipeline per render mode
func FacePipelines(s shader.Shader) []Pipeline {
	return []Pipeline{
		NewPipeline(shader.RenderModeWireframe.String(), shader.RenderModeWireframe,
			WithShader(s),
			WithDepthWriteEnabled(false),
		),
		NewPipeline(shader.RenderModeParticles.String(), shader.RenderModeParticles,
			WithShader(s),
		),
		NewPipeline(shader.RenderModeTrail.String(), shader.RenderModeTrail,
			WithShader(s),
			WithDepthWriteEnabled(false),
			WithBlendState(AdditiveBlend()),
		),
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Mode() shader.RenderMode {
	return p.mode
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	if p.renderPipeline != nil && p.renderPipeline != rp {
		p.renderPipeline.Release()
	}
	p.renderPipeline = rp
}

func (p *pipeline) Ready() bool {
	return p.renderPipeline != nil
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
