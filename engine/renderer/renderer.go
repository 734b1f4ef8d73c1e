package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      common.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer is the GPU surface the face scene draws through. It caches the registered
// pipelines by key and forwards resource creation and the per-frame draw sequence to the
// selected backend.
//
// A frame is BeginFrame, one DrawCall per visible draw, EndFrame, then Present.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline for a key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline, or nil if it was never registered or failed to build
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the registered pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: the pipelines keyed by PipelineKey
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines builds the GPU pipeline for each Pipeline and caches the ones that
	// succeed. A failing pipeline does not stop the others. Keys already registered are
	// skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - map[string]error: the failure for each pipeline key that could not be built, nil if all succeeded
	RegisterPipelines(pipelines ...pipeline.Pipeline) map[string]error

	// Resize reconfigures the surface and its attachments for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames are delivered. Resize applies it.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to from the next frame on.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// InitMeshBuffers uploads vertex and index data into new GPU buffers on the provider.
	// Nil indexData makes a non-indexed mesh, in which case count is the vertex count.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes
	//   - indexData: the raw uint32 index data bytes, or nil
	//   - count: the number of indices, or vertices for a non-indexed mesh
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error

	// InitVertexBuffer creates an empty vertex buffer for a mesh whose vertices are staged
	// every frame through BufferWrites addressed to bind_group_provider.VertexBinding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffer on
	//   - size: the buffer capacity in bytes
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, size uint64) error

	// InitBindGroup creates the buffers of a bind group layout and the bind group itself.
	// Texture and sampler bindings must be initialized first with InitTextureView and
	// InitSampler.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the bind group on
	//   - descriptor: the layout descriptor reflected from the shader
	//   - bufferUsageOverrides: extra usage flags per binding index (nil safe)
	//   - bufferSizeOverrides: buffer sizes replacing MinBindingSize per binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads RGBA pixels into a new texture and stores its view at a binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the texture on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and stores it at a binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers submits staged writes to the GPU queue. Writes whose target buffer does
	// not exist are dropped.
	//
	// Parameters:
	//   - writes: the staged writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall encodes one draw of a mesh with the registered pipeline for a key. The bind
	// groups are set in slice order starting at group 0.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline to draw with
	//   - meshProvider: the BindGroupProvider holding the vertex and optional index buffer
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: the providers for groups 0..n-1
	//
	// Returns:
	//   - error: an error if the pipeline is not registered or a provider is not ready
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the command buffer. Present displays it.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer on the window's surface.
//
// Parameters:
//   - backendType: the rendering backend to use
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured Renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		logger:        common.NopLogger(),
	}

	// options come first so the adapter request sees forceFallbackAdapter
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.logger)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		// minimized; keep the old attachments until the window comes back
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed map[string]error
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[key] = fmt.Errorf("pipeline %q: %w", key, err)
			r.logger.Errorf("pipeline %q disabled: %v", key, err)
			continue
		}
		r.pipelineCache[key] = p
	}
	return failed
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, count)
}

func (r *renderer) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, size uint64) error {
	return r.backend.InitVertexBuffer(provider, size)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	if len(writes) == 0 {
		return
	}
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not registered", pipelineKey)
	}
	if meshProvider.VertexBuffer() == nil {
		return fmt.Errorf("draw %q: mesh %q has no vertex buffer", pipelineKey, meshProvider.Label())
	}
	for g, bg := range bindGroups {
		if !bg.Ready() {
			return fmt.Errorf("draw %q: group %d provider %q has no bind group", pipelineKey, g, bg.Label())
		}
	}
	if meshProvider.IndexCount() == 0 || instanceCount == 0 {
		return nil
	}

	r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}
