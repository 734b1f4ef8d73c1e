package material

import (
	"image"

	"github.com/Carmen-Shannon/oxy-particles/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material, used in GPU resource labels
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTexture sets the diffuse texture. Nil selects the white fallback.
func WithTexture(img *image.RGBA) MaterialBuilderOption {
	return func(m *material) {
		m.texture = img
	}
}

// WithSampler sets the sampler configuration, usually the one the glTF texture named.
//
// Parameters:
//   - sampler: the address and filter modes
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler option to a material
func WithSampler(sampler common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = sampler
	}
}

// WithLogger sets the logger that reports a rejected texture.
func WithLogger(logger common.Logger) MaterialBuilderOption {
	return func(m *material) {
		m.logger = logger
	}
}
