package scene

import (
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/trail"
	"github.com/Carmen-Shannon/oxy-particles/engine/transition"
	"github.com/go-gl/mathgl/mgl32"
)

// trailSeedSalt separates the trail random stream from the particle stream.
const trailSeedSalt = 0x5bd1e995

// placeholderState shows the placeholder wireframe fully and hides particles and trails.
var placeholderState = transition.State{
	Phase:            transition.PhaseWireframeHold,
	PhaseProgress:    1,
	RevealHeight:     1,
	WireframeOpacity: 1,
}

// storeKey is the part of config.Particles baked into a Store at construction.
type storeKey struct {
	baseLifetime      float32
	lifetimeJitter    float32
	emissiveCount     int
	emissiveSelection config.EmissiveSelection
}

func storeKeyOf(p config.Particles) storeKey {
	return storeKey{p.BaseLifetime, p.LifetimeJitter, p.EmissiveCount, p.EmissiveSelection}
}

// SimulationOption is a functional option used to configure a Simulation.
type SimulationOption func(*Simulation)

// WithSimulationLogger sets the logger resample and rebuild events are reported through.
func WithSimulationLogger(l common.Logger) SimulationOption {
	return func(s *Simulation) {
		s.logger = l
	}
}

// WithFallbackSeed sets the seed used while config.Sampling.Seed is 0. Without it a
// time-based seed is drawn once at construction.
func WithFallbackSeed(seed uint64) SimulationOption {
	return func(s *Simulation) {
		s.fallbackSeed = seed
	}
}

// Simulation is the CPU half of the face scene. It owns the particle arena, the lifecycle
// engine, the offset strategy, the transition overlay, the mesh rotation and the trail
// field, and advances all of them once per frame from a config snapshot. It never touches
// the GPU, so the offline preview drives it directly.
//
// A Simulation is owned by the frame loop and is not safe for concurrent use.
type Simulation struct {
	mesh        model.SourceMesh
	placeholder bool
	logger      common.Logger

	fallbackSeed uint64
	seed         uint64

	// config sections the current state was built from
	sampling  config.Sampling
	storeKey  storeKey
	animation config.Animation
	trailsCfg config.Trails

	samples   particle.Samples
	store     *particle.Store
	lifecycle *particle.Lifecycle
	offsets   particle.OffsetStrategy

	overlay  *transition.Controller
	state    transition.State
	rotation camera.MeshRotation
	rotMat   mgl32.Mat4

	trails     *trail.Field
	trailVerts []model.GPUVertex

	frame     particle.FrameParams
	resamples int
}

// NewSimulation creates a Simulation for mesh and resamples it with cfg.
//
// Parameters:
//   - mesh: the source mesh
//   - placeholder: true if mesh is the PlaceholderMesh, which spawns no particles
//   - cfg: the initial config snapshot
//   - options: a variadic list of SimulationOption functions
//
// Returns:
//   - *Simulation: the simulation at time zero
func NewSimulation(mesh model.SourceMesh, placeholder bool, cfg config.Config, options ...SimulationOption) *Simulation {
	s := &Simulation{
		logger:       common.NopLogger(),
		fallbackSeed: uint64(time.Now().UnixNano()),
		lifecycle:    particle.NewLifecycle(),
		overlay:      transition.NewController(),
		rotMat:       mgl32.Ident4(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.SetMesh(mesh, placeholder, cfg)
	return s
}

// SetMesh replaces the source mesh and rebuilds every piece of state derived from it. The
// transition overlay restarts and the trails respawn around the new bounds.
//
// Parameters:
//   - mesh: the new source mesh
//   - placeholder: true if mesh is the PlaceholderMesh
//   - cfg: the current config snapshot
func (s *Simulation) SetMesh(mesh model.SourceMesh, placeholder bool, cfg config.Config) {
	s.mesh = mesh
	s.placeholder = placeholder
	s.resample(cfg)
	s.rebuildOffsets(cfg.Animation)
	s.overlay.Reset()
	s.state = s.overlay.State(cfg.Transition)
	if placeholder {
		s.state = placeholderState
	}

	s.trailsCfg = cfg.Trails
	cyl := trail.CylinderFromBounds(mesh.Bounds(), cfg.Trails.RadiusScale)
	if s.trails == nil {
		s.trails = trail.NewField(cyl, cfg.Trails, common.NewRNG(s.seed^trailSeedSalt))
	} else {
		s.trails.SetCylinder(cyl, cfg.Trails)
	}
	s.trailVerts = s.trailVerts[:0]
}

// resample regenerates the particle sites and a fresh Store. The placeholder gets an
// empty store.
func (s *Simulation) resample(cfg config.Config) {
	s.sampling = cfg.Sampling
	s.storeKey = storeKeyOf(cfg.Particles)
	s.seed = common.Coalesce(cfg.Sampling.Seed, s.fallbackSeed)
	rng := common.NewRNG(s.seed)

	if s.placeholder {
		s.samples = particle.Samples{}
	} else {
		s.samples = particle.Resample(s.mesh, cfg.Sampling, rng)
	}
	s.store = particle.NewStore(s.samples, cfg.Particles, rng)
	s.resamples++
	s.logger.Debugf("resampled %q: %d particles (%d vertices, %d triangles sampled, %d culled, %d skipped), %d emissive",
		s.mesh.Name(), s.samples.Len(), s.samples.VertexCount, s.samples.Sampled, s.samples.Culled, s.samples.Skipped, s.store.EmissiveCount())
}

// rebuildStore keeps the particle sites and redraws lifetimes and the emissive subset.
func (s *Simulation) rebuildStore(cfg config.Config) {
	s.storeKey = storeKeyOf(cfg.Particles)
	s.store = particle.NewStore(s.samples, cfg.Particles, common.NewRNG(s.seed))
}

func (s *Simulation) rebuildOffsets(a config.Animation) {
	s.animation = a
	s.offsets = particle.NewOffsetStrategy(a.Mode, particle.OffsetParamsFrom(a, int64(s.seed)))
}

// Step advances the simulation by dt seconds. A changed sampling section resamples, a
// changed lifetime or emissive setting rebuilds the store, and a changed animation
// section swaps the offset strategy before anything advances.
//
// Parameters:
//   - dt: seconds since the previous frame
//   - cfg: the config snapshot for this frame
func (s *Simulation) Step(dt float32, cfg config.Config) {
	switch {
	case cfg.Sampling != s.sampling:
		s.resample(cfg)
	case storeKeyOf(cfg.Particles) != s.storeKey:
		s.rebuildStore(cfg)
	}
	if cfg.Animation != s.animation {
		s.rebuildOffsets(cfg.Animation)
	}
	if cfg.Trails.RadiusScale != s.trailsCfg.RadiusScale {
		s.trails.SetCylinder(trail.CylinderFromBounds(s.mesh.Bounds(), cfg.Trails.RadiusScale), cfg.Trails)
	}
	s.trailsCfg = cfg.Trails

	dt = max(dt, 0)
	s.frame = particle.FrameParams{
		DeltaTime: dt,
		Elapsed:   s.frame.Elapsed + dt,
		Config:    cfg,
	}
	s.lifecycle.Update(s.store, s.frame)

	s.state = s.overlay.Update(dt, cfg.Transition)
	if s.placeholder {
		s.state = placeholderState
	}
	s.rotMat = s.rotation.Update(dt, cfg.Interaction.RotationEasing, cfg.Interaction.RotationSensitivity)

	s.trails.Update(dt, cfg.Trails)
	s.trailVerts = s.trailVerts[:0]
	if cfg.Trails.Enabled && !s.placeholder {
		s.trailVerts = s.trails.Vertices(s.trailVerts)
	}
}

// Reset reseeds every particle lifetime, restarts the transition overlay, respawns the
// trails and recenters the mesh rotation. The particle sites are kept.
//
// Parameters:
//   - cfg: the current config snapshot
func (s *Simulation) Reset(cfg config.Config) {
	s.store.Reseed(cfg.Particles, common.NewRNG(s.seed))
	s.overlay.Reset()
	s.state = s.overlay.State(cfg.Transition)
	if s.placeholder {
		s.state = placeholderState
	}
	s.trails.Reset(cfg.Trails)
	s.rotation.Reset()
	s.rotMat = mgl32.Ident4()
	s.frame.Elapsed = 0
}

// FrameInputs assembles the uniform inputs for the current frame.
//
// Parameters:
//   - cfg: the config snapshot the frame was stepped with
//   - viewProj: the camera view-projection
//   - rig: the light rig
//
// Returns:
//   - shader.FrameInputs: the inputs every draw's uniforms are built from
func (s *Simulation) FrameInputs(cfg config.Config, viewProj mgl32.Mat4, rig light.Rig) shader.FrameInputs {
	return shader.FrameInputs{
		Config:       cfg,
		ViewProj:     viewProj,
		MeshRotation: s.rotMat,
		Light:        rig,
		Bounds:       s.mesh.Bounds(),
		Transition:   s.state,
		Elapsed:      s.frame.Elapsed,
	}
}

// Mesh returns the current source mesh.
func (s *Simulation) Mesh() model.SourceMesh {
	return s.mesh
}

// Placeholder reports whether the current mesh is the placeholder sphere.
func (s *Simulation) Placeholder() bool {
	return s.placeholder
}

// Seed returns the seed the current particle set was generated with.
func (s *Simulation) Seed() uint64 {
	return s.seed
}

// Samples returns the particle sites of the current mesh.
func (s *Simulation) Samples() particle.Samples {
	return s.samples
}

// Store returns the particle arena. It is replaced on resample.
func (s *Simulation) Store() *particle.Store {
	return s.store
}

// Offsets returns the current offset strategy.
func (s *Simulation) Offsets() particle.OffsetStrategy {
	return s.offsets
}

// Frame returns the frame parameters of the last Step.
func (s *Simulation) Frame() particle.FrameParams {
	return s.frame
}

// Transition returns the overlay state of the last Step.
func (s *Simulation) Transition() transition.State {
	return s.state
}

// Rotation returns the mesh rotation the pointer drives.
func (s *Simulation) Rotation() *camera.MeshRotation {
	return &s.rotation
}

// RotationMatrix returns the eased mesh rotation of the last Step.
func (s *Simulation) RotationMatrix() mgl32.Mat4 {
	return s.rotMat
}

// Trails returns the trail field.
func (s *Simulation) Trails() *trail.Field {
	return s.trails
}

// TrailVertices returns the line-list trail vertices of the last Step. The slice is
// reused by the next Step.
func (s *Simulation) TrailVertices() []model.GPUVertex {
	return s.trailVerts
}

// Resamples returns how many times the particle sites were generated.
func (s *Simulation) Resamples() int {
	return s.resamples
}

// Lifecycle returns the lifecycle engine.
func (s *Simulation) Lifecycle() *particle.Lifecycle {
	return s.lifecycle
}
