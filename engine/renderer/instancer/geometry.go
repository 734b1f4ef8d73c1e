package instancer

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/chewxy/math32"
)

// TriangleGeometry returns a unit equilateral triangle in the XY plane centered on the
// origin. PositionFlip holds its vertical mirror so the vertex stage can flicker between
// the two orientations.
//
// Returns:
//   - []model.GPUVertex: three vertices
//   - []uint32: the index list 0, 1, 2
func TriangleGeometry() ([]model.GPUVertex, []uint32) {
	const h = 0.8660254 // sqrt(3)/2
	corners := [3][3]float32{
		{0, 1, 0},
		{-h, -0.5, 0},
		{h, -0.5, 0},
	}
	uvs := [3][2]float32{{0.5, 0}, {0, 1}, {1, 1}}

	verts := make([]model.GPUVertex, 3)
	for i, c := range corners {
		verts[i] = model.GPUVertex{
			Position:     c,
			PositionFlip: [3]float32{c[0], -c[1], c[2]},
			Normal:       [3]float32{0, 0, 1},
			UV:           uvs[i],
		}
	}
	return verts, []uint32{0, 1, 2}
}

// SphereGeometry returns a unit UV sphere. Segment counts below 3 around or 2 from pole
// to pole are raised to those minimums.
//
// Parameters:
//   - widthSegments: slices around the Y axis
//   - heightSegments: stacks from pole to pole
//
// Returns:
//   - []model.GPUVertex: (widthSegments+1)*(heightSegments+1) vertices
//   - []uint32: triangle-list indices with degenerate pole triangles removed
func SphereGeometry(widthSegments, heightSegments int) ([]model.GPUVertex, []uint32) {
	w := max(widthSegments, 3)
	h := max(heightSegments, 2)

	verts := make([]model.GPUVertex, 0, (w+1)*(h+1))
	for iy := 0; iy <= h; iy++ {
		v := float32(iy) / float32(h)
		theta := v * math32.Pi
		sinT, cosT := math32.Sin(theta), math32.Cos(theta)
		for ix := 0; ix <= w; ix++ {
			u := float32(ix) / float32(w)
			phi := u * 2 * math32.Pi
			sinP, cosP := math32.Sin(phi), math32.Cos(phi)
			p := [3]float32{-cosP * sinT, cosT, sinP * sinT}
			verts = append(verts, model.GPUVertex{
				Position:     p,
				PositionFlip: p,
				Normal:       p,
				UV:           [2]float32{u, v},
			})
		}
	}

	row := uint32(w + 1)
	indices := make([]uint32, 0, w*(h-1)*6)
	for iy := range uint32(h) {
		for ix := range uint32(w) {
			a := iy*row + ix + 1
			b := iy*row + ix
			c := (iy+1)*row + ix
			d := (iy+1)*row + ix + 1
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != uint32(h)-1 {
				indices = append(indices, b, c, d)
			}
		}
	}
	return verts, indices
}

// Geometry returns the base shape selected by cfg.
//
// Parameters:
//   - cfg: the particle config
//
// Returns:
//   - []model.GPUVertex: the base shape vertices
//   - []uint32: the base shape indices
func Geometry(cfg config.Particles) ([]model.GPUVertex, []uint32) {
	if cfg.Shape == config.ShapeSphere {
		return SphereGeometry(cfg.SphereWidthSegments, cfg.SphereHeightSegments)
	}
	return TriangleGeometry()
}

// FlipRatio is the square wave driving triangle orientation flicker: 0 for the first half
// of each period and 1 for the second. A non-positive frequency holds 0.
//
// Parameters:
//   - elapsed: seconds since the scene started
//   - frequency: flips per second
//
// Returns:
//   - float32: 0 or 1
func FlipRatio(elapsed, frequency float32) float32 {
	if frequency <= 0 || elapsed < 0 {
		return 0
	}
	x := elapsed * frequency
	if x-math32.Floor(x) < 0.5 {
		return 0
	}
	return 1
}

// ShapeFlipRatio is FlipRatio gated by the particle config: spheres and a disabled flip
// always report 0.
func ShapeFlipRatio(cfg config.Particles, elapsed float32) float32 {
	if cfg.Shape == config.ShapeSphere || !cfg.FlipEnabled {
		return 0
	}
	return FlipRatio(elapsed, cfg.FlipFrequency)
}
