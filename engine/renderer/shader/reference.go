package shader

import (
	"image"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/transition"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// The functions in this file mirror fs_main in assets/face.wgsl on the CPU. The offline
// preview renders with them and tests pin the shading math through them.

// alphaCutoff matches the discard threshold of the fragment stage.
const alphaCutoff = 0.001

// Luminance returns the Rec. 601 luma of c.
func Luminance(c mgl32.Vec3) float32 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

// Blend composites layer over base with the given mode. The result is not clamped.
//
// Parameters:
//   - base: the lit texture color
//   - layer: the chroma layer
//   - mode: the blend mode
//
// Returns:
//   - mgl32.Vec3: the blended color
func Blend(base, layer mgl32.Vec3, mode config.BlendMode) mgl32.Vec3 {
	var out mgl32.Vec3
	for k := range 3 {
		b, l := base[k], layer[k]
		switch mode {
		case config.BlendMultiply:
			out[k] = b * l
		case config.BlendScreen:
			out[k] = 1 - (1-b)*(1-l)
		case config.BlendOverlay:
			if b < 0.5 {
				out[k] = 2 * b * l
			} else {
				out[k] = 1 - 2*(1-b)*(1-l)
			}
		default:
			out[k] = b + l
		}
	}
	return out
}

// LifecycleAlpha is the particle alpha for a normalized life. It equals the particle scale
// curve so a particle fades in while it grows and out while it shrinks.
func LifecycleAlpha(life, growEnd, shrinkStart float32) float32 {
	return particle.PhaseScale(life, growEnd, shrinkStart)
}

// Lighting returns the diffuse factor max(dot(n, l), ambient) * brightness.
//
// Parameters:
//   - n: the surface normal, normalized here; zero falls back to +Z
//   - l: the unit direction toward the light
//   - ambient: the lower clamp of the diffuse term
//   - brightness: the final multiplier
//
// Returns:
//   - float32: the diffuse factor
func Lighting(n, l mgl32.Vec3, ambient, brightness float32) float32 {
	if n.Len() == 0 {
		n = mgl32.Vec3{0, 0, 1}
	} else {
		n = n.Normalize()
	}
	return max(n.Dot(l), ambient) * brightness
}

// RevealMask evaluates the top-to-bottom reveal for a model-space height against the
// bounds quad of a uniform block (min y, max y, reveal, softness).
func RevealMask(height float32, bounds [4]float32) float32 {
	return transition.RevealMask(transition.Height01(height, bounds[0], bounds[1]), bounds[2], bounds[3])
}

// Sampler returns the linear RGB color of a texture at uv.
type Sampler func(uv [2]float32) mgl32.Vec3

// ImageSampler samples img with nearest filtering and repeat wrapping. A nil image samples
// as white.
func ImageSampler(img *image.RGBA) Sampler {
	if img == nil || img.Bounds().Empty() {
		return func([2]float32) mgl32.Vec3 { return mgl32.Vec3{1, 1, 1} }
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	return func(uv [2]float32) mgl32.Vec3 {
		x := wrap(uv[0], w)
		y := wrap(uv[1], h)
		c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
		return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
	}
}

func wrap(t float32, n int) int {
	t -= math32.Floor(t)
	i := int(t * float32(n))
	return common.Clamp(i, 0, n-1)
}

// Fragment is the interpolated vertex output at one pixel.
type Fragment struct {
	WorldPosition mgl32.Vec3
	// Height is the model-space y fed to the reveal mask.
	Height    float32
	UV        [2]float32
	Lifecycle [4]float32
	Normal    mgl32.Vec3
}

// ShadeFragment mirrors fs_main. A discarded fragment reports zero alpha.
//
// Parameters:
//   - u: the uniform block of the draw, its Params select the path
//   - f: the fragment inputs
//   - tex: the face texture
//
// Returns:
//   - mgl32.Vec4: straight-alpha color in [0, 1]
func ShadeFragment(u GPUSceneUniform, f Fragment, tex Sampler) mgl32.Vec4 {
	var color mgl32.Vec3
	var alpha float32
	tint := mgl32.Vec3{u.Tint[0], u.Tint[1], u.Tint[2]}

	switch u.Mode() {
	case RenderModeTrail:
		color = tint
		alpha = f.UV[1] * u.Tint[3]
	case RenderModeWireframe:
		color = mulVec(tint, shadeLight(u, f))
		alpha = u.Tint[3] * RevealMask(f.Height, u.Bounds)
	default:
		if tex == nil {
			tex = ImageSampler(nil)
		}
		base := tex(f.UV)
		life := f.Lifecycle[0]
		alpha = LifecycleAlpha(life, u.Params[2], u.Params[3])
		color = mulVec(base, shadeLight(u, f))

		start, intensity := u.Chroma[0], u.Chroma[1]
		if intensity > 0 && life >= start {
			weight := common.Clamp((life-start)/max(1-start, 0.0001), 0, 1) * intensity
			layer := chromaLayer(u, f.UV, tex)
			blended := Blend(color, layer, config.BlendMode(u.Chroma[3]+0.5))
			color = color.Add(blended.Sub(color).Mul(weight))
		}

		if f.Lifecycle[2] > 0.5 {
			color = color.Add(color.Mul(u.Emissive[0]))
			alpha = max(alpha, u.Emissive[1])
		}
		alpha *= RevealMask(f.Height, u.Bounds) * u.Tint[3]
	}

	if alpha <= alphaCutoff {
		return mgl32.Vec4{}
	}
	return mgl32.Vec4{
		common.Clamp(color[0], 0, 1),
		common.Clamp(color[1], 0, 1),
		common.Clamp(color[2], 0, 1),
		common.Clamp(alpha, 0, 1),
	}
}

// shadeLight is the key plus point light radiance reaching f.
func shadeLight(u GPUSceneUniform, f Fragment) mgl32.Vec3 {
	l := mgl32.Vec3{u.LightDir[0], u.LightDir[1], u.LightDir[2]}
	diffuse := Lighting(f.Normal, l, u.LightDir[3], u.LightColor[3])
	out := mgl32.Vec3{u.LightColor[0], u.LightColor[1], u.LightColor[2]}.Mul(diffuse)

	rng := u.PointLight[3]
	toLight := mgl32.Vec3{u.PointLight[0], u.PointLight[1], u.PointLight[2]}.Sub(f.WorldPosition)
	d := toLight.Len()
	if rng > 0 && d > 0 && d < rng {
		n := f.Normal
		if n.Len() == 0 {
			n = mgl32.Vec3{0, 0, 1}
		} else {
			n = n.Normalize()
		}
		atten := 1 - d/rng
		ndl := max(n.Dot(toLight.Mul(1/d)), 0)
		out = out.Add(mgl32.Vec3{u.PointColor[0], u.PointColor[1], u.PointColor[2]}.Mul(ndl * atten * atten))
	}
	return out
}

func chromaLayer(u GPUSceneUniform, uv [2]float32, tex Sampler) mgl32.Vec3 {
	o := u.Chroma[2]
	offsets := [3][2]float32{{o, 0}, {0, o}, {-o, 0}}
	var sum mgl32.Vec3
	for i, off := range offsets {
		s := tex([2]float32{uv[0] + off[0], uv[1] + off[1]})
		brand := mgl32.Vec3{u.Brand[i][0], u.Brand[i][1], u.Brand[i][2]}
		sum = sum.Add(brand.Mul(Luminance(s)))
	}
	return sum.Mul(1.0 / 3.0)
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
