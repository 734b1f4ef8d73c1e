package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/transition"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faceish is a 4×4 grid about the size of a face.
func faceish() model.SourceMesh {
	const n = 4
	var pos []mgl32.Vec3
	var uvs [][2]float32
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			pos = append(pos, mgl32.Vec3{float32(x) * 0.05, float32(y) * 0.05, float32((x+y)%2) * 0.01})
			uvs = append(uvs, [2]float32{float32(x) / n, float32(y) / n})
		}
	}
	var idx []uint32
	row := uint32(n + 1)
	for y := range uint32(n) {
		for x := range uint32(n) {
			i := y*row + x
			idx = append(idx, i, i+1, i+row+1, i, i+row+1, i+row)
		}
	}
	return model.NewSourceMesh(model.WithName("grid"), model.WithPositions(pos), model.WithUVs(uvs), model.WithIndices(idx))
}

func seeded() config.Config {
	cfg := config.Default()
	cfg.Sampling.Seed = 42
	return cfg
}

func TestPlaceholderMesh(t *testing.T) {
	m := PlaceholderMesh()
	assert.Equal(t, PlaceholderName, m.Name())
	assert.Equal(t, (placeholderWidthSegments+1)*(placeholderHeightSegments+1), m.VertexCount())
	assert.Positive(t, m.TriangleCount())
	assert.True(t, m.HasUV())
	assert.False(t, m.HasTexture())

	edges := m.EdgeIndices()
	require.NotEmpty(t, edges)
	assert.Zero(t, len(edges)%2)

	b := m.Bounds()
	assert.InDelta(t, PlaceholderRadius, b.Max.Y(), 1e-5)
	assert.InDelta(t, -PlaceholderRadius, b.Min.Y(), 1e-5)
}

func TestEnvironmentFor(t *testing.T) {
	sc := config.Default().Scene

	sc.Environment = "void"
	env, ok := EnvironmentFor(sc)
	assert.True(t, ok)
	assert.Equal(t, wgpu.Color{R: 0, G: 0, B: 0, A: 1}, env.ClearColor())

	sc.Environment = CustomEnvironment
	sc.Background = config.MustHex("#ff0000")
	env, ok = EnvironmentFor(sc)
	assert.True(t, ok)
	assert.Equal(t, "#ff0000", env.Background.Hex())
	assert.Equal(t, wgpu.Color{R: 1, G: 0, B: 0, A: 1}, env.ClearColor())

	sc.Environment = "nowhere"
	env, ok = EnvironmentFor(sc)
	assert.False(t, ok)
	assert.Equal(t, CustomEnvironment, env.Name)

	names := Environments()
	assert.Equal(t, CustomEnvironment, names[len(names)-1])
	assert.Contains(t, names, config.Default().Scene.Environment)
}

func TestSimulation_PlaceholderHasNoParticles(t *testing.T) {
	sim := NewSimulation(PlaceholderMesh(), true, seeded())
	sim.Step(1.0/60, seeded())

	assert.True(t, sim.Placeholder())
	assert.Zero(t, sim.Store().Len())
	assert.Equal(t, placeholderState, sim.Transition())
	assert.Empty(t, sim.TrailVertices())
}

func TestSimulation_StepAdvances(t *testing.T) {
	cfg := seeded()
	sim := NewSimulation(faceish(), false, cfg)
	require.Positive(t, sim.Store().Len())
	assert.Equal(t, sim.Samples().Len(), sim.Store().Len())

	for range 60 {
		sim.Step(1.0/60, cfg)
	}
	assert.InDelta(t, 1, sim.Frame().Elapsed, 1e-4)
	assert.Equal(t, transition.PhaseWireframeReveal, sim.Transition().Phase)
	assert.NotEmpty(t, sim.TrailVertices())

	cfg.Trails.Enabled = false
	sim.Step(1.0/60, cfg)
	assert.Empty(t, sim.TrailVertices())
}

func TestSimulation_ResamplesOnSamplingChange(t *testing.T) {
	cfg := seeded()
	sim := NewSimulation(faceish(), false, cfg)
	store := sim.Store()
	assert.Equal(t, 1, sim.Resamples())

	sim.Step(0.01, cfg)
	assert.Equal(t, 1, sim.Resamples())
	assert.Same(t, store, sim.Store())

	cfg.Sampling.MinSamples = 4
	cfg.Sampling.MaxSamplesPerTriangle = 4
	sim.Step(0.01, cfg)
	assert.Equal(t, 2, sim.Resamples())
	assert.NotSame(t, store, sim.Store())
	assert.Equal(t, faceish().VertexCount()+faceish().TriangleCount()*4, sim.Store().Len())
}

func TestSimulation_RebuildsStoreOnEmissiveChange(t *testing.T) {
	cfg := seeded()
	sim := NewSimulation(faceish(), false, cfg)
	store := sim.Store()
	n := store.Len()

	cfg.Particles.EmissiveCount = 3
	sim.Step(0.01, cfg)
	assert.Equal(t, 1, sim.Resamples())
	assert.NotSame(t, store, sim.Store())
	assert.Equal(t, n, sim.Store().Len())
	assert.Equal(t, 3, sim.Store().EmissiveCount())
}

func TestSimulation_Deterministic(t *testing.T) {
	a := NewSimulation(faceish(), false, seeded())
	b := NewSimulation(faceish(), false, seeded())
	require.Equal(t, a.Store().Len(), b.Store().Len())
	for i := range a.Store().Len() {
		assert.Equal(t, a.Store().Record(i), b.Store().Record(i))
	}
}

func TestSimulation_FallbackSeed(t *testing.T) {
	cfg := config.Default()
	sim := NewSimulation(faceish(), false, cfg, WithFallbackSeed(7))
	assert.Equal(t, uint64(7), sim.Seed())

	cfg.Sampling.Seed = 9
	sim.Step(0, cfg)
	assert.Equal(t, uint64(9), sim.Seed())
}

func TestSimulation_Reset(t *testing.T) {
	cfg := seeded()
	sim := NewSimulation(faceish(), false, cfg)
	for range 240 {
		sim.Step(1.0/60, cfg)
	}
	require.NotEqual(t, transition.PhaseWireframeReveal, sim.Transition().Phase)

	sim.Reset(cfg)
	assert.Equal(t, transition.PhaseWireframeReveal, sim.Transition().Phase)
	assert.Zero(t, sim.Frame().Elapsed)
	assert.Equal(t, mgl32.Ident4(), sim.RotationMatrix())
}

func TestSimulation_FrameInputs(t *testing.T) {
	cfg := seeded()
	mesh := faceish()
	sim := NewSimulation(mesh, false, cfg)

	in := sim.FrameInputs(cfg, mgl32.Ident4(), light.Studio())
	assert.Equal(t, mesh.Bounds(), in.Bounds)
	assert.Equal(t, mgl32.Ident4(), in.MeshRotation)

	sim.Rotation().SetPointer(1280, 360, 1280, 720)
	sim.Step(1.0/60, cfg)
	in = sim.FrameInputs(cfg, mgl32.Ident4(), light.Studio())
	assert.NotEqual(t, mgl32.Ident4(), in.MeshRotation)
	assert.Equal(t, sim.Transition(), in.Transition)
	assert.Equal(t, sim.Frame().Elapsed, in.Elapsed)
}

func TestSimulation_SetMeshRespawnsTrails(t *testing.T) {
	cfg := seeded()
	sim := NewSimulation(PlaceholderMesh(), true, cfg)
	sim.SetMesh(faceish(), false, cfg)

	assert.False(t, sim.Placeholder())
	assert.Positive(t, sim.Store().Len())
	cyl := sim.Trails().Cylinder()
	b := faceish().Bounds()
	assert.Equal(t, b.Min.Y(), cyl.MinY)
	assert.Equal(t, b.Max.Y(), cyl.MaxY)
	assert.Len(t, sim.Trails().Actors(), cfg.Trails.Count)
}
