package particle

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"

	"github.com/go-gl/mathgl/mgl32"
)

// minMaxLife is the floor applied to jittered lifetimes.
const minMaxLife = 0.05

// Record is a copy of one particle's fields.
type Record struct {
	Position   mgl32.Vec3
	UV         [2]float32
	Life       float32
	MaxLife    float32
	IsEmissive bool
	Scale      float32
}

// Store is the structure-of-arrays arena holding every particle. Count, positions, UVs
// and the emissive subset are fixed at construction; only life and scale change.
// A Store is owned by the frame loop and is not safe for concurrent use.
type Store struct {
	positions []mgl32.Vec3
	uvs       [][2]float32
	life      []float32
	maxLife   []float32
	emissive  []bool
	scale     []float32

	emissiveCount int
	dirty         bool
}

// NewStore builds the arena for samples. Initial life is uniform in [0, 1) so the cloud
// starts desynchronized, maxLife is jittered around BaseLifetime, and the emissive subset
// holds min(EmissiveCount, total) particles chosen by EmissiveSelection.
//
// Parameters:
//   - samples: the particle sites from Resample
//   - cfg: the particle configuration
//   - rng: the random source for life, jitter and emissive selection
//
// Returns:
//   - *Store: the populated arena, marked dirty
func NewStore(samples Samples, cfg config.Particles, rng common.RNG) *Store {
	n := samples.Len()
	s := &Store{
		positions: make([]mgl32.Vec3, n),
		uvs:       make([][2]float32, n),
		life:      make([]float32, n),
		maxLife:   make([]float32, n),
		emissive:  make([]bool, n),
		scale:     make([]float32, n),
	}
	for i, smp := range samples.Items {
		s.positions[i] = smp.Position
		s.uvs[i] = smp.UV
	}
	s.Reseed(cfg, rng)
	s.selectEmissive(cfg, rng)
	return s
}

// Reseed redraws life and maxLife for every particle, restarting the lifecycle.
//
// Parameters:
//   - cfg: the particle configuration providing BaseLifetime and LifetimeJitter
//   - rng: the random source
func (s *Store) Reseed(cfg config.Particles, rng common.RNG) {
	for i := range s.life {
		s.life[i] = rng.Float32()
		jitter := cfg.LifetimeJitter * (2*rng.Float32() - 1)
		s.maxLife[i] = max(cfg.BaseLifetime*(1+jitter), minMaxLife)
	}
	s.dirty = true
}

// selectEmissive marks the emissive subset. EmissiveRandom runs a partial Fisher-Yates
// shuffle, so exactly k distinct particles are chosen.
func (s *Store) selectEmissive(cfg config.Particles, rng common.RNG) {
	n := len(s.life)
	k := min(max(cfg.EmissiveCount, 0), n)
	s.emissiveCount = k
	if k == 0 {
		return
	}

	if cfg.EmissiveSelection == config.EmissiveFirst {
		for i := range k {
			s.emissive[i] = true
		}
		return
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := range k {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		s.emissive[idx[i]] = true
	}
}

// Len returns the particle count.
func (s *Store) Len() int {
	return len(s.life)
}

// EmissiveCount returns the size of the emissive subset.
func (s *Store) EmissiveCount() int {
	return s.emissiveCount
}

// Record returns a copy of particle i.
func (s *Store) Record(i int) Record {
	return Record{
		Position:   s.positions[i],
		UV:         s.uvs[i],
		Life:       s.life[i],
		MaxLife:    s.maxLife[i],
		IsEmissive: s.emissive[i],
		Scale:      s.scale[i],
	}
}

// Position returns the birth position of particle i.
func (s *Store) Position(i int) mgl32.Vec3 {
	return s.positions[i]
}

// Life returns the normalized life of particle i.
func (s *Store) Life(i int) float32 {
	return s.life[i]
}

// Scale returns the current scale of particle i.
func (s *Store) Scale(i int) float32 {
	return s.scale[i]
}

// SetLife sets the normalized life of particle i and marks the store dirty.
func (s *Store) SetLife(i int, life float32) {
	s.life[i] = life
	s.dirty = true
}

// SetScale sets the scale of particle i and marks the store dirty.
func (s *Store) SetScale(i int, scale float32) {
	s.scale[i] = scale
	s.dirty = true
}

// MarkDirty flags the store for upload.
func (s *Store) MarkDirty() {
	s.dirty = true
}

// Dirty reports whether the store changed since the last ClearDirty.
func (s *Store) Dirty() bool {
	return s.dirty
}

// ClearDirty resets the dirty flag after an upload.
func (s *Store) ClearDirty() {
	s.dirty = false
}

// PackUV returns 2 floats per particle in particle order.
//
// Returns:
//   - []float32: u0, v0, u1, v1, ...
func (s *Store) PackUV() []float32 {
	out := make([]float32, 0, 2*len(s.uvs))
	for _, uv := range s.uvs {
		out = append(out, uv[0], uv[1])
	}
	return out
}

// PackLifecycle returns 4 floats per particle: life, maxLife, emissive (0 or 1) and scale.
//
// Returns:
//   - []float32: the packed lifecycle quads
func (s *Store) PackLifecycle() []float32 {
	return s.AppendLifecycle(make([]float32, 0, 4*len(s.life)))
}

// AppendLifecycle appends the packed lifecycle quads to dst and returns the extended slice.
func (s *Store) AppendLifecycle(dst []float32) []float32 {
	for i := range s.life {
		var e float32
		if s.emissive[i] {
			e = 1
		}
		dst = append(dst, s.life[i], s.maxLife[i], e, s.scale[i])
	}
	return dst
}
