package material

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// Uploader creates the GPU resources of a texture bind group. renderer.Renderer satisfies it.
type Uploader interface {
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
}

// Layout locates the texture group in the face shader.
type Layout struct {
	Descriptor     wgpu.BindGroupLayoutDescriptor
	TextureBinding int
	SamplerBinding int
}

// material is the implementation of the Material interface.
type material struct {
	name     string
	texture  *image.RGBA
	sampler  common.SamplerStagingData
	fallback bool
	logger   common.Logger

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is the face surface: the color texture every draw samples and the bind group
// holding it on the GPU.
//
// A mesh without a texture, or whose texture the device rejects, is drawn with a 1×1
// white texture so particles take their color from lighting and chroma alone.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Texture retrieves the source texture, or nil if the mesh has none.
	//
	// Returns:
	//   - *image.RGBA: the diffuse texture
	Texture() *image.RGBA

	// Sampler retrieves the sampler configuration from the mesh.
	Sampler() common.SamplerStagingData

	// Fallback reports whether Upload bound the white texture instead of Texture.
	Fallback() bool

	// Upload creates the texture, sampler and bind group. Calling it again releases the
	// previous resources first.
	//
	// Parameters:
	//   - u: the renderer creating the resources
	//   - layout: where the texture group sits in the shader
	//
	// Returns:
	//   - error: an error if even the fallback texture or the bind group cannot be created
	Upload(u Uploader, layout Layout) error

	// BindGroupProvider retrieves the bind group provider holding the GPU resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, or nil before Upload
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Release frees the GPU resources.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance, not yet uploaded
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		name:    "face",
		sampler: common.DefaultSamplerData(),
		logger:  common.NopLogger(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// White returns the 1×1 texture bound when a mesh has no usable texture.
func White() *image.RGBA {
	return common.SolidTexture(color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

func (m *material) Upload(u Uploader, layout Layout) error {
	m.Release()

	label := m.name + "_texture"
	p := bind_group_provider.NewBindGroupProvider(label)
	m.fallback = m.texture == nil

	img := m.texture
	if img == nil {
		img = White()
	}
	if err := u.InitTextureView(p, layout.TextureBinding, common.TextureStaging(img)); err != nil {
		if m.fallback {
			p.Release()
			return fmt.Errorf("material %s: fallback texture: %w", m.name, err)
		}
		m.logger.Warnf("material %s: texture rejected, using white: %v", m.name, err)
		p.Release()
		p = bind_group_provider.NewBindGroupProvider(label)
		m.fallback = true
		if err := u.InitTextureView(p, layout.TextureBinding, common.TextureStaging(White())); err != nil {
			p.Release()
			return fmt.Errorf("material %s: fallback texture: %w", m.name, err)
		}
	}
	if err := u.InitSampler(p, layout.SamplerBinding, m.sampler); err != nil {
		p.Release()
		return fmt.Errorf("material %s: sampler: %w", m.name, err)
	}
	if err := u.InitBindGroup(p, layout.Descriptor, nil, nil); err != nil {
		p.Release()
		return fmt.Errorf("material %s: bind group: %w", m.name, err)
	}
	m.bindGroupProvider = p
	return nil
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Texture() *image.RGBA {
	return m.texture
}

func (m *material) Sampler() common.SamplerStagingData {
	return m.sampler
}

func (m *material) Fallback() bool {
	return m.fallback
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) Release() {
	if m.bindGroupProvider != nil {
		m.bindGroupProvider.Release()
		m.bindGroupProvider = nil
	}
}
