// Package particle turns a face mesh into a fixed set of particles and animates their
// lifecycle. It is CPU only: the Store arena is packed into instance buffers by the
// instancer each frame.
package particle

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SampleSource is the read-only mesh view the resampler needs. model.SourceMesh satisfies it.
type SampleSource interface {
	VertexCount() int
	Position(i int) mgl32.Vec3
	UV(i int) ([2]float32, bool)
	TriangleCount() int
	Triangle(t int) [3]uint32
}

// Sample is one particle birth site on the mesh surface.
type Sample struct {
	Position mgl32.Vec3
	UV       [2]float32
	// Weights are the barycentric weights of the three triangle corners. Original
	// vertices carry (1, 0, 0).
	Weights [3]float32
	// Triangle is the source triangle index, or -1 for an original vertex.
	Triangle int
}

// Samples is the outcome of one resampling pass.
type Samples struct {
	Items []Sample
	// VertexCount is the number of leading Items that are original mesh vertices.
	VertexCount int
	// Sampled, Culled and Skipped count triangles that produced samples, were rejected
	// by the cull policy, or referenced out-of-range vertices.
	Sampled, Culled, Skipped int
}

// Len returns the particle count.
func (s Samples) Len() int {
	return len(s.Items)
}

// Resample emits one particle per mesh vertex, then scatters barycentric samples over
// every triangle that survives the cull policy. The per-triangle count is the
// unnormalized cross-product area times AreaMultiplier and DensityMultiplier, floored
// and clamped to [MinSamples, MaxSamplesPerTriangle]; degenerate triangles therefore
// still get MinSamples. Texture coordinates fall back to FallbackUV whenever a corner
// has none.
//
// Parameters:
//   - mesh: the source geometry
//   - cfg: the sampling configuration, assumed clamped
//   - rng: the random source for barycentric draws
//
// Returns:
//   - Samples: the particle sites, original vertices first
func Resample(mesh SampleSource, cfg config.Sampling, rng common.RNG) Samples {
	vc := mesh.VertexCount()
	tc := mesh.TriangleCount()
	out := Samples{
		Items:       make([]Sample, 0, vc+tc*max(cfg.MinSamples, 1)),
		VertexCount: vc,
	}

	for i := range vc {
		uv, ok := mesh.UV(i)
		if !ok {
			uv = cfg.FallbackUV
		}
		out.Items = append(out.Items, Sample{
			Position: mesh.Position(i),
			UV:       uv,
			Weights:  [3]float32{1, 0, 0},
			Triangle: -1,
		})
	}

	for t := range tc {
		tri := mesh.Triangle(t)
		if int64(tri[0]) >= int64(vc) || int64(tri[1]) >= int64(vc) || int64(tri[2]) >= int64(vc) {
			out.Skipped++
			continue
		}

		v1, v2, v3 := mesh.Position(int(tri[0])), mesh.Position(int(tri[1])), mesh.Position(int(tri[2]))
		n := v2.Sub(v1).Cross(v3.Sub(v1))
		area := n.Len()
		if culled(cfg.Cull, cfg.CullThreshold, n, area) {
			out.Culled++
			continue
		}

		uv1, ok1 := mesh.UV(int(tri[0]))
		uv2, ok2 := mesh.UV(int(tri[1]))
		uv3, ok3 := mesh.UV(int(tri[2]))
		hasUV := ok1 && ok2 && ok3

		count := SampleCount(area, cfg)
		for range count {
			r1, r2 := rng.Float32(), rng.Float32()
			s := math32.Sqrt(r1)
			a, b, c := 1-s, s*(1-r2), s*r2

			uv := cfg.FallbackUV
			if hasUV {
				uv = [2]float32{
					a*uv1[0] + b*uv2[0] + c*uv3[0],
					a*uv1[1] + b*uv2[1] + c*uv3[1],
				}
			}
			out.Items = append(out.Items, Sample{
				Position: v1.Mul(a).Add(v2.Mul(b)).Add(v3.Mul(c)),
				UV:       uv,
				Weights:  [3]float32{a, b, c},
				Triangle: t,
			})
		}
		out.Sampled++
	}
	return out
}

// SampleCount returns the clamped number of samples for a triangle of the given
// unnormalized cross-product area.
func SampleCount(area float32, cfg config.Sampling) int {
	lo, hi := cfg.MinSamples, max(cfg.MaxSamplesPerTriangle, cfg.MinSamples)
	raw := math32.Floor(area * cfg.AreaMultiplier * cfg.DensityMultiplier)
	switch {
	case raw != raw || raw < float32(lo): // NaN or below
		return lo
	case raw > float32(hi):
		return hi
	default:
		return int(raw)
	}
}

// culled applies the cull policy to a triangle normal of length area.
func culled(policy config.CullPolicy, threshold float32, n mgl32.Vec3, area float32) bool {
	if policy == config.CullNone {
		return false
	}
	var nz float32
	if area > 0 {
		nz = n.Z() / area
	}
	switch policy {
	case config.CullBackZ:
		return nz < threshold
	case config.CullFrontZ:
		return nz > -threshold
	default:
		return false
	}
}
