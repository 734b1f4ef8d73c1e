// Package config holds every live tunable of the face particle viewer.
//
// A Config is a plain value. The render loop takes one Snapshot per frame from a Store and
// passes it explicitly to the resampler, lifecycle engine, instancer and shader uniforms.
package config

// Sampling controls surface resampling. Any change here regenerates the particle set.
type Sampling struct {
	// DensityMultiplier scales the per-triangle sample count.
	DensityMultiplier float32 `toml:"density_multiplier"`
	// AreaMultiplier converts unnormalized triangle area into samples. Depends on mesh units.
	AreaMultiplier float32 `toml:"area_multiplier"`
	// MinSamples is the lower clamp of samples per triangle.
	MinSamples int `toml:"min_samples"`
	// MaxSamplesPerTriangle is the upper clamp of samples per triangle.
	MaxSamplesPerTriangle int `toml:"max_samples_per_triangle"`
	// Cull selects triangles skipped by facing. CullNone samples everything.
	Cull CullPolicy `toml:"cull"`
	// CullThreshold is compared against the triangle's normalized normal.z.
	CullThreshold float32 `toml:"cull_threshold"`
	// FallbackUV is assigned when a mesh has no usable texture coordinates.
	FallbackUV [2]float32 `toml:"fallback_uv"`
	// Seed seeds particle placement and jitter. 0 picks a time-based seed.
	Seed uint64 `toml:"seed"`
}

// Particles controls per-particle state and the instanced base shape.
type Particles struct {
	Shape                BaseShape         `toml:"shape"`
	BaseScale            float32           `toml:"base_scale"`
	BaseLifetime         float32           `toml:"base_lifetime"`
	LifetimeJitter       float32           `toml:"lifetime_jitter"`
	EmissiveCount        int               `toml:"emissive_count"`
	EmissiveSelection    EmissiveSelection `toml:"emissive_selection"`
	EmissiveMultiplier   float32           `toml:"emissive_multiplier"`
	SphereWidthSegments  int               `toml:"sphere_width_segments"`
	SphereHeightSegments int               `toml:"sphere_height_segments"`
	FlipEnabled          bool              `toml:"flip_enabled"`
	// FlipFrequency is the triangle orientation flicker rate in Hz.
	FlipFrequency float32 `toml:"flip_frequency"`
}

// Lifecycle controls the grow/stable/shrink cycle.
type Lifecycle struct {
	// Speed is the per-60Hz-frame life increment before animation speed and maxLife.
	Speed       float32 `toml:"speed"`
	GrowEnd     float32 `toml:"grow_end"`
	ShrinkStart float32 `toml:"shrink_start"`
	Paused      bool    `toml:"paused"`
}

// Animation controls the cosmetic offset layered on each particle.
type Animation struct {
	Speed      float32       `toml:"speed"`
	Mode       AnimationMode `toml:"mode"`
	Amplitude  float32       `toml:"amplitude"`
	Frequency  float32       `toml:"frequency"`
	NoiseScale float32       `toml:"noise_scale"`
}

// Shading controls lighting and emissive output.
type Shading struct {
	Brightness         float32 `toml:"brightness"`
	AmbientFloor       float32 `toml:"ambient_floor"`
	GlowBoost          float32 `toml:"glow_boost"`
	EmissiveAlphaFloor float32 `toml:"emissive_alpha_floor"`
	MaxTextureSize     int     `toml:"max_texture_size"`
}

// Chroma controls the per-particle chromatic offset flourish.
type Chroma struct {
	Enabled     bool      `toml:"enabled"`
	StartPhase  float32   `toml:"start_phase"`
	Offset      float32   `toml:"offset"`
	Intensity   float32   `toml:"intensity"`
	BlendMode   BlendMode `toml:"blend_mode"`
	BrandColors [3]Color  `toml:"brand_colors"`
}

// Interaction controls mouse-driven mesh rotation and the orbit camera.
type Interaction struct {
	// RotationSensitivity is the mesh rotation in radians when the cursor sits at a window edge.
	RotationSensitivity float32 `toml:"rotation_sensitivity"`
	// RotationEasing is the per-frame blend toward the rotation target.
	RotationEasing   float32 `toml:"rotation_easing"`
	OrbitSensitivity float32 `toml:"orbit_sensitivity"`
	ZoomSpeed        float32 `toml:"zoom_speed"`
}

// Transition controls the wireframe-to-particles overlay.
type Transition struct {
	Enabled            bool    `toml:"enabled"`
	RevealDuration     float32 `toml:"reveal_duration"`
	HoldDuration       float32 `toml:"hold_duration"`
	TransitionDuration float32 `toml:"transition_duration"`
	Loop               bool    `toml:"loop"`
	LoopDelay          float32 `toml:"loop_delay"`
	EdgeSoftness       float32 `toml:"edge_softness"`
}

// Trails controls the ambient trail actors.
type Trails struct {
	Enabled       bool    `toml:"enabled"`
	Count         int     `toml:"count"`
	Speed         float32 `toml:"speed"`
	Deviation     float32 `toml:"deviation"`
	MaxPoints     int     `toml:"max_points"`
	SegmentLength float32 `toml:"segment_length"`
	BaseLifetime  float32 `toml:"base_lifetime"`
	RadiusScale   float32 `toml:"radius_scale"`
	Color         Color   `toml:"color"`
}

// Scene selects presets from the composition layer.
type Scene struct {
	Background     Color  `toml:"background"`
	LightPreset    string `toml:"light_preset"`
	Environment    string `toml:"environment"`
	WireframeColor Color  `toml:"wireframe_color"`
}

// Config is the full tunable set.
type Config struct {
	Sampling    Sampling    `toml:"sampling"`
	Particles   Particles   `toml:"particles"`
	Lifecycle   Lifecycle   `toml:"lifecycle"`
	Animation   Animation   `toml:"animation"`
	Shading     Shading     `toml:"shading"`
	Chroma      Chroma      `toml:"chroma"`
	Interaction Interaction `toml:"interaction"`
	Transition  Transition  `toml:"transition"`
	Trails      Trails      `toml:"trails"`
	Scene       Scene       `toml:"scene"`
}

// Default returns the tuned defaults for a face mesh authored in meters.
func Default() Config {
	return Config{
		Sampling: Sampling{
			DensityMultiplier:     1,
			AreaMultiplier:        20000,
			MinSamples:            1,
			MaxSamplesPerTriangle: 8,
			Cull:                  CullNone,
			CullThreshold:         0,
			FallbackUV:            [2]float32{0.5, 0.5},
		},
		Particles: Particles{
			Shape:                ShapeTriangle,
			BaseScale:            0.006,
			BaseLifetime:         1,
			LifetimeJitter:       0.35,
			EmissiveCount:        64,
			EmissiveSelection:    EmissiveRandom,
			EmissiveMultiplier:   1.6,
			SphereWidthSegments:  8,
			SphereHeightSegments: 6,
			FlipEnabled:          true,
			FlipFrequency:        12,
		},
		Lifecycle: Lifecycle{
			Speed:       0.004,
			GrowEnd:     0.25,
			ShrinkStart: 0.75,
		},
		Animation: Animation{
			Speed:      1,
			Mode:       AnimationSine,
			Amplitude:  0.0015,
			Frequency:  1.2,
			NoiseScale: 12,
		},
		Shading: Shading{
			Brightness:         1.25,
			AmbientFloor:       0.35,
			GlowBoost:          0.8,
			EmissiveAlphaFloor: 0.6,
			MaxTextureSize:     2048,
		},
		Chroma: Chroma{
			Enabled:    true,
			StartPhase: 0.75,
			Offset:     0.012,
			Intensity:  0.8,
			BlendMode:  BlendScreen,
			BrandColors: [3]Color{
				MustHex("#ff2d6f"),
				MustHex("#2de2e6"),
				MustHex("#f5d300"),
			},
		},
		Interaction: Interaction{
			RotationSensitivity: 0.45,
			RotationEasing:      0.08,
			OrbitSensitivity:    0.005,
			ZoomSpeed:           0.05,
		},
		Transition: Transition{
			Enabled:            true,
			RevealDuration:     2.5,
			HoldDuration:       1,
			TransitionDuration: 2,
			Loop:               false,
			LoopDelay:          6,
			EdgeSoftness:       0.06,
		},
		Trails: Trails{
			Enabled:       true,
			Count:         12,
			Speed:         0.06,
			Deviation:     1.4,
			MaxPoints:     32,
			SegmentLength: 0.006,
			BaseLifetime:  4,
			RadiusScale:   1.15,
			Color:         MustHex("#7fd4ff"),
		},
		Scene: Scene{
			Background:     MustHex("#0b0d12"),
			LightPreset:    "studio",
			Environment:    "night",
			WireframeColor: MustHex("#8aa0b8"),
		},
	}
}

// Clamp enforces the ranges and cross-field constraints every consumer relies on.
// It is applied after every load and every panel edit.
func (c *Config) Clamp() {
	s := &c.Sampling
	s.DensityMultiplier = clampF(s.DensityMultiplier, 0, 100)
	s.AreaMultiplier = clampF(s.AreaMultiplier, 0, 1e9)
	s.MinSamples = clampI(s.MinSamples, 0, 1024)
	s.MaxSamplesPerTriangle = clampI(s.MaxSamplesPerTriangle, 0, 1024)
	if s.MaxSamplesPerTriangle < s.MinSamples {
		s.MaxSamplesPerTriangle = s.MinSamples
	}
	s.CullThreshold = clampF(s.CullThreshold, -1, 1)
	s.FallbackUV[0] = clampF(s.FallbackUV[0], 0, 1)
	s.FallbackUV[1] = clampF(s.FallbackUV[1], 0, 1)

	p := &c.Particles
	p.BaseScale = clampF(p.BaseScale, 0, 10)
	p.BaseLifetime = clampF(p.BaseLifetime, 0.05, 100)
	p.LifetimeJitter = clampF(p.LifetimeJitter, 0, 0.95)
	p.EmissiveCount = clampI(p.EmissiveCount, 0, 1<<24)
	p.EmissiveMultiplier = clampF(p.EmissiveMultiplier, 0, 10)
	p.SphereWidthSegments = clampI(p.SphereWidthSegments, 3, 64)
	p.SphereHeightSegments = clampI(p.SphereHeightSegments, 2, 64)
	p.FlipFrequency = clampF(p.FlipFrequency, 0, 120)

	l := &c.Lifecycle
	l.Speed = clampF(l.Speed, 0, 1)
	l.GrowEnd = clampF(l.GrowEnd, 0.01, 0.98)
	l.ShrinkStart = clampF(l.ShrinkStart, 0.02, 0.99)
	if l.ShrinkStart <= l.GrowEnd {
		l.ShrinkStart = min(l.GrowEnd+0.01, 0.99)
	}

	a := &c.Animation
	a.Speed = clampF(a.Speed, 0, 10)
	a.Amplitude = clampF(a.Amplitude, 0, 1)
	a.Frequency = clampF(a.Frequency, 0, 60)
	a.NoiseScale = clampF(a.NoiseScale, 0, 1000)

	sh := &c.Shading
	sh.Brightness = clampF(sh.Brightness, 0, 5)
	sh.AmbientFloor = clampF(sh.AmbientFloor, 0, 1)
	sh.GlowBoost = clampF(sh.GlowBoost, 0, 5)
	sh.EmissiveAlphaFloor = clampF(sh.EmissiveAlphaFloor, 0, 1)
	sh.MaxTextureSize = clampI(sh.MaxTextureSize, 1, 8192)

	ch := &c.Chroma
	ch.StartPhase = clampF(ch.StartPhase, 0, 0.99)
	ch.Offset = clampF(ch.Offset, 0, 0.2)
	ch.Intensity = clampF(ch.Intensity, 0, 2)

	in := &c.Interaction
	in.RotationSensitivity = clampF(in.RotationSensitivity, 0, 3.2)
	in.RotationEasing = clampF(in.RotationEasing, 0, 1)
	in.OrbitSensitivity = clampF(in.OrbitSensitivity, 0, 0.1)
	in.ZoomSpeed = clampF(in.ZoomSpeed, 0, 10)

	t := &c.Transition
	t.RevealDuration = clampF(t.RevealDuration, 0, 60)
	t.HoldDuration = clampF(t.HoldDuration, 0, 60)
	t.TransitionDuration = clampF(t.TransitionDuration, 0, 60)
	t.LoopDelay = clampF(t.LoopDelay, 0, 600)
	t.EdgeSoftness = clampF(t.EdgeSoftness, 0, 1)

	tr := &c.Trails
	tr.Count = clampI(tr.Count, 0, 256)
	tr.Speed = clampF(tr.Speed, 0, 10)
	tr.Deviation = clampF(tr.Deviation, 0, 20)
	tr.MaxPoints = clampI(tr.MaxPoints, 2, 512)
	tr.SegmentLength = clampF(tr.SegmentLength, 1e-5, 10)
	tr.BaseLifetime = clampF(tr.BaseLifetime, 0.1, 120)
	tr.RadiusScale = clampF(tr.RadiusScale, 0.1, 10)
}

func clampF(v, lo, hi float32) float32 {
	if v != v { // NaN
		return lo
	}
	return max(lo, min(hi, v))
}

func clampI(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
