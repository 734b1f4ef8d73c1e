package scene

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/loader"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the logger for load, preset and draw failures.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(l common.Logger) SceneBuilderOption {
	return func(s *scene) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAssetCache sets the cache Load requests meshes from. Without one, Load only logs.
//
// Parameters:
//   - c: the asset cache
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssetCache(c loader.AssetCache) SceneBuilderOption {
	return func(s *scene) {
		s.cache = c
	}
}

// WithShader replaces the embedded face shader, for example with one loaded from disk
// through shader.NewShaderFromPath.
//
// Parameters:
//   - sh: a shader with the face shader's bindings
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShader(sh shader.Shader) SceneBuilderOption {
	return func(s *scene) {
		s.shader = sh
	}
}

// WithSimulationOptions passes options through to the scene's Simulation.
func WithSimulationOptions(options ...SimulationOption) SceneBuilderOption {
	return func(s *scene) {
		s.simOps = append(s.simOps, options...)
	}
}
