package particle

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/config"

	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// goldenAngle spreads per-particle phases so neighbours never move in lockstep.
const goldenAngle = 2.39996323

// OffsetStrategy is the cosmetic displacement layered on a particle's birth position.
// Offsets are never written back into the Store.
type OffsetStrategy interface {
	// Offset returns the displacement for particle index at its birth position base.
	//
	// Parameters:
	//   - index: the particle index
	//   - base: the birth position in mesh space
	//   - elapsed: the scene time in seconds
	//
	// Returns:
	//   - mgl32.Vec3: the displacement to add to base
	Offset(index int, base mgl32.Vec3, elapsed float32) mgl32.Vec3
}

// OffsetParams parameterizes every offset strategy.
type OffsetParams struct {
	Amplitude  float32
	Frequency  float32
	Speed      float32
	NoiseScale float32
	Seed       int64
}

// OffsetParamsFrom copies the animation section into OffsetParams.
func OffsetParamsFrom(a config.Animation, seed int64) OffsetParams {
	return OffsetParams{
		Amplitude:  a.Amplitude,
		Frequency:  a.Frequency,
		Speed:      a.Speed,
		NoiseScale: a.NoiseScale,
		Seed:       seed,
	}
}

// NewOffsetStrategy returns the strategy for mode. Unknown modes behave like AnimationNone.
//
// Parameters:
//   - mode: the animation mode
//   - params: amplitude, frequency and noise settings
//
// Returns:
//   - OffsetStrategy: the strategy
func NewOffsetStrategy(mode config.AnimationMode, params OffsetParams) OffsetStrategy {
	switch mode {
	case config.AnimationSine:
		return sineOffset{p: params}
	case config.AnimationNoise:
		return &noiseOffset{p: params, noise: perlin.NewPerlin(2, 2, 3, params.Seed)}
	case config.AnimationSpiral:
		return spiralOffset{p: params}
	case config.AnimationWave:
		return waveOffset{p: params}
	default:
		return noOffset{}
	}
}

type noOffset struct{}

func (noOffset) Offset(int, mgl32.Vec3, float32) mgl32.Vec3 {
	return mgl32.Vec3{}
}

// sineOffset bobs each particle on three decorrelated sines.
type sineOffset struct {
	p OffsetParams
}

func (s sineOffset) Offset(index int, _ mgl32.Vec3, elapsed float32) mgl32.Vec3 {
	t := 2 * math32.Pi * s.p.Frequency * s.p.Speed * elapsed
	phase := float32(index) * goldenAngle
	return mgl32.Vec3{
		math32.Sin(t+phase) * 0.5,
		math32.Sin(1.3*t + phase),
		math32.Cos(0.7*t+phase) * 0.5,
	}.Mul(s.p.Amplitude)
}

// noiseOffset drifts particles through a 3D Perlin field sampled around the birth position.
type noiseOffset struct {
	p     OffsetParams
	noise *perlin.Perlin
}

func (n *noiseOffset) Offset(_ int, base mgl32.Vec3, elapsed float32) mgl32.Vec3 {
	x := float64(base.X() * n.p.NoiseScale)
	y := float64(base.Y() * n.p.NoiseScale)
	z := float64(base.Z() * n.p.NoiseScale)
	t := float64(elapsed * n.p.Speed * n.p.Frequency)
	return mgl32.Vec3{
		float32(n.noise.Noise3D(x+t, y, z)),
		float32(n.noise.Noise3D(x, y+t, z+17.3)),
		float32(n.noise.Noise3D(x+31.7, y, z+t)),
	}.Mul(2 * n.p.Amplitude)
}

// spiralOffset circles each particle around the vertical axis, phased by height.
type spiralOffset struct {
	p OffsetParams
}

func (s spiralOffset) Offset(_ int, base mgl32.Vec3, elapsed float32) mgl32.Vec3 {
	angle := 2*math32.Pi*s.p.Frequency*s.p.Speed*elapsed + base.Y()*s.p.NoiseScale
	return mgl32.Vec3{math32.Cos(angle), 0, math32.Sin(angle)}.Mul(s.p.Amplitude)
}

// waveOffset pushes particles along Z with a wave travelling down the face.
type waveOffset struct {
	p OffsetParams
}

func (w waveOffset) Offset(_ int, base mgl32.Vec3, elapsed float32) mgl32.Vec3 {
	phase := base.Y()*w.p.NoiseScale + 2*math32.Pi*w.p.Frequency*w.p.Speed*elapsed
	return mgl32.Vec3{0, 0, math32.Sin(phase) * w.p.Amplitude}
}
