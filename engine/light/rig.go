package light

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultPreset names the rig used when a config names an unknown preset.
const DefaultPreset = "studio"

// Rig is the full lighting input of one frame.
type Rig struct {
	Name string
	// Ambient scales the shading ambient floor.
	Ambient float32
	// Key is the directional light the diffuse term is computed against.
	Key Light
	// Point is an optional accent light. Nil when the rig has none.
	Point Light
}

// PointContribution returns the attenuated radiance of the rig's point light at p with
// surface normal n. It is zero without a point light.
//
// Parameters:
//   - p: the world-space surface position
//   - n: the unit surface normal
//
// Returns:
//   - mgl32.Vec3: the added radiance
func (r Rig) PointContribution(p, n mgl32.Vec3) mgl32.Vec3 {
	if r.Point == nil || !r.Point.Enabled() {
		return mgl32.Vec3{}
	}
	toLight := r.Point.Position().Sub(p)
	d := toLight.Len()
	rng := r.Point.Range()
	if d == 0 || rng <= 0 || d >= rng {
		return mgl32.Vec3{}
	}
	atten := 1 - d/rng
	ndl := max(n.Dot(toLight.Mul(1/d)), 0)
	return r.Point.Radiance().Mul(ndl * atten * atten)
}

var presets = map[string]func() Rig{
	"studio": Studio,
	"rim":    RimLight,
	"soft":   Soft,
}

// Studio is a frontal key light with a warm accent above the camera.
func Studio() Rig {
	return Rig{
		Name:    "studio",
		Ambient: 1,
		Key:     NewLight(LightTypeDirectional, WithDirection(0.3, 0.6, 1), WithIntensity(1)),
		Point: NewLight(LightTypePoint,
			WithPosition(0.4, 0.8, 1.2),
			WithColor(1, 0.92, 0.8),
			WithIntensity(0.6),
			WithRange(3),
		),
	}
}

// RimLight lights the face from behind and above with a dim ambient floor.
func RimLight() Rig {
	return Rig{
		Name:    "rim",
		Ambient: 0.6,
		Key: NewLight(LightTypeDirectional,
			WithDirection(-0.4, 0.7, -1),
			WithColor(0.75, 0.85, 1),
			WithIntensity(1.3),
		),
		Point: NewLight(LightTypePoint,
			WithPosition(0, -0.6, 1),
			WithColor(0.4, 0.6, 1),
			WithIntensity(0.4),
			WithRange(2.5),
		),
	}
}

// Soft is a flat frontal light with a raised ambient floor and no accent.
func Soft() Rig {
	return Rig{
		Name:    "soft",
		Ambient: 1.6,
		Key:     NewLight(LightTypeDirectional, WithDirection(0, 0.2, 1), WithIntensity(0.8)),
	}
}

// Preset returns a fresh rig by name.
//
// Parameters:
//   - name: the preset name
//
// Returns:
//   - Rig: the rig, or the default rig when the name is unknown
//   - bool: false if the name is unknown
func Preset(name string) (Rig, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return presets[DefaultPreset](), false
}

// Presets lists every preset name in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
