package preview

import (
	"image"
	"math"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameBuffer is a linear float color target with a [0, 1] depth buffer cleared to +inf.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []mgl32.Vec3
	Glow   []mgl32.Vec3
	Depth  []float32
}

// NewFrameBuffer allocates a w×h buffer cleared to bg.
func NewFrameBuffer(w, h int, bg mgl32.Vec3) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]mgl32.Vec3, w*h),
		Glow:   make([]mgl32.Vec3, w*h),
		Depth:  make([]float32, w*h),
	}
	fb.Clear(bg)
	return fb
}

// Clear resets color to bg, glow to black and depth to +inf.
func (fb *FrameBuffer) Clear(bg mgl32.Vec3) {
	inf := float32(math.Inf(1))
	for i := range fb.Color {
		fb.Color[i] = bg
		fb.Glow[i] = mgl32.Vec3{}
		fb.Depth[i] = inf
	}
}

// Blend composites straight-alpha c over pixel (x, y) if depth passes, and writes depth.
// It reports whether the pixel was written.
func (fb *FrameBuffer) Blend(x, y int, depth float32, c mgl32.Vec4) bool {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return false
	}
	i := y*fb.Width + x
	if depth >= fb.Depth[i] {
		return false
	}
	a := c.W()
	fb.Color[i] = c.Vec3().Mul(a).Add(fb.Color[i].Mul(1 - a))
	fb.Depth[i] = depth
	return true
}

// AddGlow accumulates emissive light at pixel (x, y) for the bloom pass.
func (fb *FrameBuffer) AddGlow(x, y int, c mgl32.Vec3) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	i := y*fb.Width + x
	fb.Glow[i] = fb.Glow[i].Add(c)
}

// Image converts the color buffer to an opaque RGBA image.
func (fb *FrameBuffer) Image() *image.RGBA {
	return toRGBA(fb.Width, fb.Height, fb.Color)
}

// GlowImage converts the glow buffer to an RGBA image.
func (fb *FrameBuffer) GlowImage() *image.RGBA {
	return toRGBA(fb.Width, fb.Height, fb.Glow)
}

func toRGBA(w, h int, px []mgl32.Vec3) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, c := range px {
		o := i * 4
		img.Pix[o] = to8(c[0])
		img.Pix[o+1] = to8(c[1])
		img.Pix[o+2] = to8(c[2])
		img.Pix[o+3] = 255
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}
