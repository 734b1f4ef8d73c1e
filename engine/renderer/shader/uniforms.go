package shader

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/instancer"
	"github.com/Carmen-Shannon/oxy-particles/engine/transition"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameInputs is everything the uniform block is derived from for one frame.
type FrameInputs struct {
	Config       config.Config
	ViewProj     mgl32.Mat4
	MeshRotation mgl32.Mat4
	Light        light.Rig
	// Bounds is the source mesh bounding box in model space.
	Bounds     model.Bounds
	Transition transition.State
	// Elapsed drives the base shape flip.
	Elapsed float32
}

// BuildUniforms derives the uniform block for one draw. The modes share lighting, reveal
// and lifecycle parameters and differ in tint, reveal source and flip.
//
// Parameters:
//   - mode: the draw being configured
//   - in: the frame inputs
//
// Returns:
//   - GPUSceneUniform: the uniform block ready to marshal
func BuildUniforms(mode RenderMode, in FrameInputs) GPUSceneUniform {
	cfg := in.Config
	var u GPUSceneUniform
	u.ViewProj = in.ViewProj
	u.MeshRotation = in.MeshRotation
	if u.MeshRotation == (mgl32.Mat4{}) {
		u.MeshRotation = mgl32.Ident4()
	}

	keyDir := mgl32.Vec3{0, 0, 1}
	keyColor := mgl32.Vec3{1, 1, 1}
	rigAmbient := float32(1)
	if in.Light.Key != nil {
		if d := in.Light.Key.Direction(); d.Len() > 0 {
			keyDir = d
		}
		keyColor = in.Light.Key.Radiance()
		rigAmbient = in.Light.Ambient
	}
	ambient := common.Clamp(cfg.Shading.AmbientFloor*rigAmbient, 0, 1)
	u.LightDir = [4]float32{keyDir[0], keyDir[1], keyDir[2], ambient}
	u.LightColor = [4]float32{keyColor[0], keyColor[1], keyColor[2], cfg.Shading.Brightness}

	if p := in.Light.Point; p != nil && p.Enabled() {
		pos, c := p.Position(), p.Radiance()
		u.PointLight = [4]float32{pos[0], pos[1], pos[2], p.Range()}
		u.PointColor = [4]float32{c[0], c[1], c[2], 1}
	}

	var tint [3]float32
	var opacity, reveal float32
	switch mode {
	case RenderModeWireframe:
		tint = cfg.Scene.WireframeColor.Vec3()
		opacity = in.Transition.WireframeOpacity
		reveal = in.Transition.RevealHeight
	case RenderModeTrail:
		tint = cfg.Trails.Color.Vec3()
		opacity = in.Transition.ParticleOpacity
		reveal = 1
	default:
		tint = [3]float32{1, 1, 1}
		opacity = in.Transition.ParticleOpacity
		reveal = in.Transition.ParticleReveal
	}
	u.Tint = [4]float32{tint[0], tint[1], tint[2], opacity}
	u.Bounds = [4]float32{in.Bounds.Min.Y(), in.Bounds.Max.Y(), reveal, cfg.Transition.EdgeSoftness}

	var flip float32
	if mode == RenderModeParticles {
		flip = instancer.ShapeFlipRatio(cfg.Particles, in.Elapsed)
	}
	u.Params = [4]float32{flip, float32(mode), cfg.Lifecycle.GrowEnd, cfg.Lifecycle.ShrinkStart}

	var intensity float32
	if cfg.Chroma.Enabled {
		intensity = cfg.Chroma.Intensity
	}
	u.Chroma = [4]float32{cfg.Chroma.StartPhase, intensity, cfg.Chroma.Offset, float32(cfg.Chroma.BlendMode)}
	u.Emissive = [4]float32{cfg.Shading.GlowBoost, cfg.Shading.EmissiveAlphaFloor, 0, 0}

	for i, c := range cfg.Chroma.BrandColors {
		v := c.Vec3()
		u.Brand[i] = [4]float32{v[0], v[1], v[2], 1}
	}
	return u
}
