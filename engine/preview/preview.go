// Package preview renders the particle cloud on the CPU. Each live particle is splatted as
// a depth-tested disc shaded by shader.ShadeFragment, so stills match the GPU path without
// a window or adapter.
package preview

import (
	"image"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// minSplatRadius keeps distant particles at least one pixel wide.
const minSplatRadius = 0.75

// Source is the simulation state a still is rendered from. *scene.Simulation satisfies it.
type Source interface {
	Mesh() model.SourceMesh
	Store() *particle.Store
	Offsets() particle.OffsetStrategy
	Frame() particle.FrameParams
	RotationMatrix() mgl32.Mat4
	FrameInputs(cfg config.Config, viewProj mgl32.Mat4, rig light.Rig) shader.FrameInputs
}

var _ Source = (*scene.Simulation)(nil)

// Stats describes one rendered still.
type Stats struct {
	Particles int
	Splatted  int
	Culled    int
	Pixels    int
}

// Renderer is the CPU splat renderer. It is not safe for concurrent use.
type Renderer struct {
	width, height int
	supersample   int
	bloomRadius   float64
	logger        common.Logger

	fb   *FrameBuffer
	last Stats
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the output image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithSupersample renders at factor times the output size and downsamples.
func WithSupersample(factor int) Option {
	return func(r *Renderer) {
		r.supersample = max(factor, 1)
	}
}

// WithBloom sets the gaussian radius in output pixels of the emissive glow. Zero disables it.
func WithBloom(radius float64) Option {
	return func(r *Renderer) {
		r.bloomRadius = max(radius, 0)
	}
}

// WithLogger sets the logger.
func WithLogger(logger common.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer creates a Renderer, 800×800 with 2× supersampling and a 6 pixel bloom by default.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Renderer: the renderer
func NewRenderer(options ...Option) *Renderer {
	r := &Renderer{
		width:       800,
		height:      800,
		supersample: 2,
		bloomRadius: 6,
		logger:      common.NopLogger(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Size returns the output size.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Last returns the stats of the most recent Render.
func (r *Renderer) Last() Stats {
	return r.last
}

// Render draws the current particle state of src as seen by cam.
//
// Parameters:
//   - src: the simulation to draw
//   - cam: the camera; its aspect should match the output size
//   - cfg: the config snapshot the simulation was stepped with
//   - rig: the light rig
//
// Returns:
//   - *image.RGBA: the opaque still at the output size
func (r *Renderer) Render(src Source, cam camera.Camera, cfg config.Config, rig light.Rig) *image.RGBA {
	w, h := r.width*r.supersample, r.height*r.supersample
	env, _ := scene.EnvironmentFor(cfg.Scene)
	bg := env.Background.Vec3()
	if r.fb == nil || r.fb.Width != w || r.fb.Height != h {
		r.fb = NewFrameBuffer(w, h, bg)
	} else {
		r.fb.Clear(bg)
	}

	viewProj := cam.ViewProjection()
	u := shader.BuildUniforms(shader.RenderModeParticles, src.FrameInputs(cfg, viewProj, rig))
	tex := shader.ImageSampler(nil)
	if mesh := src.Mesh(); mesh != nil && mesh.HasTexture() {
		tex = shader.ImageSampler(mesh.Texture())
	}

	r.last = Stats{}
	if store := src.Store(); store != nil {
		r.splatParticles(src, store, cam, u, tex)
	}

	img := r.fb.Image()
	if r.bloomRadius > 0 {
		glow := blur.Gaussian(r.fb.GlowImage(), r.bloomRadius*float64(r.supersample))
		img = blend.Add(img, glow)
	}
	if r.supersample > 1 {
		out := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
		draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = out
	}
	r.logger.Debugf("preview: %d of %d particles splatted, %d culled, %d pixels",
		r.last.Splatted, r.last.Particles, r.last.Culled, r.last.Pixels)
	return img
}

// splatParticles projects and shades every live particle into the frame buffer.
func (r *Renderer) splatParticles(src Source, store *particle.Store, cam camera.Camera, u shader.GPUSceneUniform, tex shader.Sampler) {
	fb := r.fb
	rot := src.RotationMatrix()
	offsets := src.Offsets()
	elapsed := src.Frame().Elapsed

	frustum := common.FrustumFromViewProj(cam.ViewProjection())
	eye := cam.View().Inv().Col(3).Vec3()
	up := cam.Up()
	glowGain := u.Emissive[0]

	r.last.Particles = store.Len()
	for i := range store.Len() {
		rec := store.Record(i)
		if rec.Scale <= 0 {
			r.last.Culled++
			continue
		}
		pos := rec.Position
		if offsets != nil {
			pos = pos.Add(offsets.Offset(i, pos, elapsed))
		}
		world := rot.Mul4x1(pos.Vec4(1)).Vec3()
		if !frustum.ContainsSphere(world, rec.Scale) {
			r.last.Culled++
			continue
		}

		center, ok := cam.Project(world)
		if !ok || center.Z() < 0 || center.Z() > 1 {
			r.last.Culled++
			continue
		}
		edge, ok := cam.Project(world.Add(up.Mul(rec.Scale)))
		if !ok {
			r.last.Culled++
			continue
		}
		cx, cy := toPixel(center, fb.Width, fb.Height)
		ex, ey := toPixel(edge, fb.Width, fb.Height)
		radius := max(math32.Hypot(ex-cx, ey-cy), minSplatRadius)

		toEye := eye.Sub(world)
		if toEye.Len() == 0 {
			r.last.Culled++
			continue
		}
		toEye = toEye.Normalize()
		right := up.Cross(toEye)
		if right.Len() == 0 {
			right = mgl32.Vec3{1, 0, 0}
		}
		right = right.Normalize()
		trueUp := toEye.Cross(right)

		var emissive float32
		if rec.IsEmissive {
			emissive = 1
		}
		frag := shader.Fragment{
			WorldPosition: world,
			Height:        pos.Y(),
			UV:            rec.UV,
			Lifecycle:     [4]float32{rec.Life, rec.MaxLife, emissive, rec.Scale},
		}

		wrote := false
		x0, x1 := int(math32.Floor(cx-radius)), int(math32.Ceil(cx+radius))
		y0, y1 := int(math32.Floor(cy-radius)), int(math32.Ceil(cy+radius))
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				dx := (float32(x) + 0.5 - cx) / radius
				dy := (float32(y) + 0.5 - cy) / radius
				d2 := dx*dx + dy*dy
				if d2 > 1 {
					continue
				}
				// shade the disc as a hemisphere facing the eye
				frag.Normal = right.Mul(dx).Add(trueUp.Mul(-dy)).Add(toEye.Mul(math32.Sqrt(1 - d2)))
				c := shader.ShadeFragment(u, frag, tex)
				if c.W() == 0 {
					continue
				}
				if fb.Blend(x, y, center.Z(), c) {
					wrote = true
					r.last.Pixels++
					if rec.IsEmissive {
						fb.AddGlow(x, y, c.Vec3().Mul(c.W()*glowGain))
					}
				}
			}
		}
		if wrote {
			r.last.Splatted++
		}
	}
}

// toPixel maps NDC to pixel coordinates with y pointing down.
func toPixel(ndc mgl32.Vec3, w, h int) (float32, float32) {
	return (ndc.X()*0.5 + 0.5) * float32(w), (0.5 - ndc.Y()*0.5) * float32(h)
}
