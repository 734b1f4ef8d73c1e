package panel

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
)

// Registry is the ordered set of Tunables the panel edits, bound to a config.Store.
type Registry struct {
	mu       sync.Mutex
	store    *config.Store
	tunables []Tunable
}

// NewRegistry creates an empty Registry writing to store.
//
// Parameters:
//   - store: the live config every edit goes through
//
// Returns:
//   - *Registry: the registry
func NewRegistry(store *config.Store) *Registry {
	return &Registry{store: store}
}

// Store returns the bound config store.
func (r *Registry) Store() *config.Store {
	return r.store
}

// Register appends tunables in display order.
func (r *Registry) Register(tunables ...Tunable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tunables = append(r.tunables, tunables...)
}

// Len returns the number of registered tunables.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tunables)
}

// Tunables returns a copy of the registered tunables.
func (r *Registry) Tunables() []Tunable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tunable(nil), r.tunables...)
}

// Lookup finds a tunable by its dotted key.
func (r *Registry) Lookup(key string) (Tunable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tunables {
		if t.Key() == key {
			return t, true
		}
	}
	return Tunable{}, false
}

func (r *Registry) at(i int) (Tunable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.tunables) {
		return Tunable{}, false
	}
	return r.tunables[i], true
}

// Adjust moves the i-th tunable by steps increments. The store clamps the result.
//
// Parameters:
//   - i: the tunable index
//   - steps: signed number of increments
//
// Returns:
//   - bool: false if i is out of range
func (r *Registry) Adjust(i, steps int) bool {
	t, ok := r.at(i)
	if !ok || t.adjust == nil || steps == 0 {
		return ok
	}
	r.store.Update(func(c *config.Config) { t.adjust(c, steps) })
	return true
}

// Activate toggles or cycles the i-th tunable. Floats, ints and colors ignore it.
func (r *Registry) Activate(i int) bool {
	t, ok := r.at(i)
	if !ok || t.activate == nil {
		return ok
	}
	r.store.Update(t.activate)
	return true
}

// Defaults returns every tunable of the viewer, grouped by config section.
//
// Parameters:
//   - lightPresets: the light preset names the rig choice cycles through
//   - environments: the environment names the environment choice cycles through
//
// Returns:
//   - []Tunable: the tunables in display order
func Defaults(lightPresets, environments []string) []Tunable {
	return []Tunable{
		Float("sampling", "density_multiplier", 0.1, func(c *config.Config) *float32 { return &c.Sampling.DensityMultiplier }),
		Float("sampling", "area_multiplier", 1000, func(c *config.Config) *float32 { return &c.Sampling.AreaMultiplier }),
		Int("sampling", "min_samples", 1, func(c *config.Config) *int { return &c.Sampling.MinSamples }),
		Int("sampling", "max_samples_per_triangle", 1, func(c *config.Config) *int { return &c.Sampling.MaxSamplesPerTriangle }),
		Enum("sampling", "cull", func(c *config.Config) *config.CullPolicy { return &c.Sampling.Cull }),
		Float("sampling", "cull_threshold", 0.05, func(c *config.Config) *float32 { return &c.Sampling.CullThreshold }),
		Uint64("sampling", "seed", func(c *config.Config) *uint64 { return &c.Sampling.Seed }),

		Enum("particles", "shape", func(c *config.Config) *config.BaseShape { return &c.Particles.Shape }),
		Float("particles", "base_scale", 0.001, func(c *config.Config) *float32 { return &c.Particles.BaseScale }),
		Float("particles", "base_lifetime", 0.1, func(c *config.Config) *float32 { return &c.Particles.BaseLifetime }),
		Float("particles", "lifetime_jitter", 0.05, func(c *config.Config) *float32 { return &c.Particles.LifetimeJitter }),
		Int("particles", "emissive_count", 8, func(c *config.Config) *int { return &c.Particles.EmissiveCount }),
		Enum("particles", "emissive_selection", func(c *config.Config) *config.EmissiveSelection { return &c.Particles.EmissiveSelection }),
		Float("particles", "emissive_multiplier", 0.1, func(c *config.Config) *float32 { return &c.Particles.EmissiveMultiplier }),
		Int("particles", "sphere_width_segments", 1, func(c *config.Config) *int { return &c.Particles.SphereWidthSegments }),
		Int("particles", "sphere_height_segments", 1, func(c *config.Config) *int { return &c.Particles.SphereHeightSegments }),
		Bool("particles", "flip_enabled", func(c *config.Config) *bool { return &c.Particles.FlipEnabled }),
		Float("particles", "flip_frequency", 1, func(c *config.Config) *float32 { return &c.Particles.FlipFrequency }),

		Float("lifecycle", "speed", 0.001, func(c *config.Config) *float32 { return &c.Lifecycle.Speed }),
		Float("lifecycle", "grow_end", 0.05, func(c *config.Config) *float32 { return &c.Lifecycle.GrowEnd }),
		Float("lifecycle", "shrink_start", 0.05, func(c *config.Config) *float32 { return &c.Lifecycle.ShrinkStart }),
		Bool("lifecycle", "paused", func(c *config.Config) *bool { return &c.Lifecycle.Paused }),

		Float("animation", "speed", 0.1, func(c *config.Config) *float32 { return &c.Animation.Speed }),
		Enum("animation", "mode", func(c *config.Config) *config.AnimationMode { return &c.Animation.Mode }),
		Float("animation", "amplitude", 0.0005, func(c *config.Config) *float32 { return &c.Animation.Amplitude }),
		Float("animation", "frequency", 0.1, func(c *config.Config) *float32 { return &c.Animation.Frequency }),
		Float("animation", "noise_scale", 1, func(c *config.Config) *float32 { return &c.Animation.NoiseScale }),

		Float("shading", "brightness", 0.05, func(c *config.Config) *float32 { return &c.Shading.Brightness }),
		Float("shading", "ambient_floor", 0.05, func(c *config.Config) *float32 { return &c.Shading.AmbientFloor }),
		Float("shading", "glow_boost", 0.05, func(c *config.Config) *float32 { return &c.Shading.GlowBoost }),
		Float("shading", "emissive_alpha_floor", 0.05, func(c *config.Config) *float32 { return &c.Shading.EmissiveAlphaFloor }),

		Bool("chroma", "enabled", func(c *config.Config) *bool { return &c.Chroma.Enabled }),
		Float("chroma", "start_phase", 0.05, func(c *config.Config) *float32 { return &c.Chroma.StartPhase }),
		Float("chroma", "offset", 0.001, func(c *config.Config) *float32 { return &c.Chroma.Offset }),
		Float("chroma", "intensity", 0.05, func(c *config.Config) *float32 { return &c.Chroma.Intensity }),
		Enum("chroma", "blend_mode", func(c *config.Config) *config.BlendMode { return &c.Chroma.BlendMode }),
		Color("chroma", "brand_color_1", func(c *config.Config) *config.Color { return &c.Chroma.BrandColors[0] }),
		Color("chroma", "brand_color_2", func(c *config.Config) *config.Color { return &c.Chroma.BrandColors[1] }),
		Color("chroma", "brand_color_3", func(c *config.Config) *config.Color { return &c.Chroma.BrandColors[2] }),

		Float("interaction", "rotation_sensitivity", 0.05, func(c *config.Config) *float32 { return &c.Interaction.RotationSensitivity }),
		Float("interaction", "rotation_easing", 0.01, func(c *config.Config) *float32 { return &c.Interaction.RotationEasing }),
		Float("interaction", "orbit_sensitivity", 0.001, func(c *config.Config) *float32 { return &c.Interaction.OrbitSensitivity }),
		Float("interaction", "zoom_speed", 0.01, func(c *config.Config) *float32 { return &c.Interaction.ZoomSpeed }),

		Bool("transition", "enabled", func(c *config.Config) *bool { return &c.Transition.Enabled }),
		Float("transition", "reveal_duration", 0.1, func(c *config.Config) *float32 { return &c.Transition.RevealDuration }),
		Float("transition", "hold_duration", 0.1, func(c *config.Config) *float32 { return &c.Transition.HoldDuration }),
		Float("transition", "transition_duration", 0.1, func(c *config.Config) *float32 { return &c.Transition.TransitionDuration }),
		Bool("transition", "loop", func(c *config.Config) *bool { return &c.Transition.Loop }),
		Float("transition", "loop_delay", 0.5, func(c *config.Config) *float32 { return &c.Transition.LoopDelay }),
		Float("transition", "edge_softness", 0.01, func(c *config.Config) *float32 { return &c.Transition.EdgeSoftness }),

		Bool("trails", "enabled", func(c *config.Config) *bool { return &c.Trails.Enabled }),
		Int("trails", "count", 1, func(c *config.Config) *int { return &c.Trails.Count }),
		Float("trails", "speed", 0.01, func(c *config.Config) *float32 { return &c.Trails.Speed }),
		Float("trails", "deviation", 0.1, func(c *config.Config) *float32 { return &c.Trails.Deviation }),
		Int("trails", "max_points", 2, func(c *config.Config) *int { return &c.Trails.MaxPoints }),
		Float("trails", "segment_length", 0.001, func(c *config.Config) *float32 { return &c.Trails.SegmentLength }),
		Float("trails", "base_lifetime", 0.5, func(c *config.Config) *float32 { return &c.Trails.BaseLifetime }),
		Float("trails", "radius_scale", 0.05, func(c *config.Config) *float32 { return &c.Trails.RadiusScale }),
		Color("trails", "color", func(c *config.Config) *config.Color { return &c.Trails.Color }),

		Color("scene", "background", func(c *config.Config) *config.Color { return &c.Scene.Background }),
		Choice("scene", "light_preset", lightPresets, func(c *config.Config) *string { return &c.Scene.LightPreset }),
		Choice("scene", "environment", environments, func(c *config.Config) *string { return &c.Scene.Environment }),
		Color("scene", "wireframe_color", func(c *config.Config) *config.Color { return &c.Scene.WireframeColor }),
	}
}
