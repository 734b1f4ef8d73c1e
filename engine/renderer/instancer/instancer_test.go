package instancer

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(n int) *particle.Store {
	items := make([]particle.Sample, n)
	for i := range items {
		items[i] = particle.Sample{
			Position: mgl32.Vec3{float32(i), 2 * float32(i), -1},
			UV:       [2]float32{0.25, 0.75},
			Triangle: -1,
		}
	}
	cfg := config.Default().Particles
	cfg.EmissiveCount = 1
	cfg.EmissiveSelection = config.EmissiveFirst
	return particle.NewStore(particle.Samples{Items: items, VertexCount: n}, cfg, common.NewRNG(7))
}

func frame() particle.FrameParams {
	return particle.FrameParams{DeltaTime: 1.0 / 60, Elapsed: 1, Config: config.Default()}
}

func float32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
}

func TestTriangleGeometry(t *testing.T) {
	verts, idx := TriangleGeometry()
	require.Len(t, verts, 3)
	assert.Equal(t, []uint32{0, 1, 2}, idx)
	for _, v := range verts {
		assert.InDelta(t, 1.0, math.Hypot(float64(v.Position[0]), float64(v.Position[1])), 1e-5)
		assert.Equal(t, v.Position[0], v.PositionFlip[0])
		assert.Equal(t, -v.Position[1], v.PositionFlip[1])
	}
}

func TestSphereGeometry(t *testing.T) {
	verts, idx := SphereGeometry(8, 6)
	assert.Len(t, verts, 9*7)
	// pole rows contribute one triangle per segment, the rest two
	assert.Len(t, idx, 3*(8*2+8*(6-2)*2))
	for _, v := range verts {
		assert.Equal(t, v.Position, v.PositionFlip)
		l := mgl32.Vec3(v.Position).Len()
		assert.InDelta(t, 1.0, l, 1e-5)
	}
	for _, i := range idx {
		assert.Less(t, int(i), len(verts))
	}

	small, _ := SphereGeometry(0, 0)
	assert.Len(t, small, 4*3, "segments are raised to 3x2")
}

func TestGeometry_SelectsShape(t *testing.T) {
	cfg := config.Default().Particles
	v, _ := Geometry(cfg)
	assert.Len(t, v, 3)

	cfg.Shape = config.ShapeSphere
	v, _ = Geometry(cfg)
	assert.Len(t, v, (cfg.SphereWidthSegments+1)*(cfg.SphereHeightSegments+1))
}

func TestFlipRatio(t *testing.T) {
	assert.Equal(t, float32(0), FlipRatio(0.1, 2))
	assert.Equal(t, float32(1), FlipRatio(0.3, 2))
	assert.Equal(t, float32(0), FlipRatio(0.55, 2))
	assert.Equal(t, float32(0), FlipRatio(10, 0))

	cfg := config.Default().Particles
	cfg.FlipFrequency = 2
	assert.Equal(t, float32(1), ShapeFlipRatio(cfg, 0.3))
	cfg.Shape = config.ShapeSphere
	assert.Equal(t, float32(0), ShapeFlipRatio(cfg, 0.3))
	cfg.Shape = config.ShapeTriangle
	cfg.FlipEnabled = false
	assert.Equal(t, float32(0), ShapeFlipRatio(cfg, 0.3))
}

func TestAllocate_Generations(t *testing.T) {
	in := NewInstancer(WithLabel("test"))
	assert.Nil(t, in.Provider())
	assert.False(t, in.Allocate(0), "empty to empty is a no-op")

	require.True(t, in.Allocate(4))
	assert.Equal(t, uint64(1), in.Generation())
	assert.True(t, in.NeedsRebuild())
	first := in.Provider()
	require.NotNil(t, first)
	assert.Equal(t, "test_instances_gen1", first.Label())

	in.ClearNeedsRebuild()
	assert.False(t, in.Allocate(4))
	assert.False(t, in.NeedsRebuild())

	require.True(t, in.Allocate(9))
	assert.Equal(t, uint64(2), in.Generation())
	assert.NotSame(t, first, in.Provider())
	assert.Equal(t, map[int]uint64{
		BindingTransforms: 9 * TransformStride,
		BindingUVs:        9 * UVStride,
		BindingLifecycle:  9 * LifecycleStride,
	}, in.BufferSizes())

	require.True(t, in.Allocate(0))
	assert.Nil(t, in.Provider())
	assert.Equal(t, uint64(TransformStride), in.BufferSizes()[BindingTransforms])
}

func TestUpdate_PacksAndStages(t *testing.T) {
	store := testStore(3)
	particle.NewLifecycle().Update(store, frame())

	in := NewInstancer()
	in.Update(store, particle.NewOffsetStrategy(config.AnimationNone, particle.OffsetParams{}), frame())
	assert.Equal(t, 3, in.InstanceCount())
	assert.True(t, in.NeedsRebuild(), "count mismatch reallocates")

	writes := in.StagedWriteData()
	require.Len(t, writes, 3)
	byBinding := map[int][]byte{}
	for _, w := range writes {
		assert.Same(t, in.Provider(), w.Provider)
		byBinding[w.Binding] = w.Data
	}
	require.Len(t, byBinding[BindingTransforms], 3*TransformStride)
	require.Len(t, byBinding[BindingUVs], 3*UVStride)
	require.Len(t, byBinding[BindingLifecycle], 3*LifecycleStride)

	// instance 2: column-major translate(pos) * scale(s)
	tr := byBinding[BindingTransforms][2*TransformStride:]
	s := store.Scale(2)
	assert.Equal(t, s, float32At(tr, 0))
	assert.Equal(t, s, float32At(tr, 5))
	assert.Equal(t, float32(2), float32At(tr, 12))
	assert.Equal(t, float32(4), float32At(tr, 13))
	assert.Equal(t, float32(-1), float32At(tr, 14))
	assert.Equal(t, float32(1), float32At(tr, 15))

	assert.Equal(t, float32(0.75), float32At(byBinding[BindingUVs], 3))
	lc := byBinding[BindingLifecycle]
	assert.Equal(t, float32(1), float32At(lc, 2), "first particle is emissive")
	assert.Equal(t, store.Scale(0), float32At(lc, 3))
	assert.False(t, store.Dirty())

	assert.Empty(t, in.StagedWriteData(), "staged writes are drained")
}

func TestUpdate_SteadyStateSkipsUVs(t *testing.T) {
	store := testStore(2)
	in := NewInstancer()
	in.Update(store, nil, frame())
	in.StagedWriteData()
	in.ClearNeedsRebuild()
	gen := in.Generation()

	in.Update(store, nil, frame())
	writes := in.StagedWriteData()
	require.Len(t, writes, 1, "uvs are uploaded once and lifecycle only when dirty")
	assert.Equal(t, BindingTransforms, writes[0].Binding)
	assert.Equal(t, gen, in.Generation())

	store.MarkDirty()
	in.Update(store, nil, frame())
	assert.Len(t, in.StagedWriteData(), 2)

	// a different store with the same count restages uvs without reallocating
	in.Update(testStore(2), nil, frame())
	assert.Len(t, in.StagedWriteData(), 3)
	assert.Equal(t, gen, in.Generation())
}

func TestUpdate_AppliesOffsets(t *testing.T) {
	store := testStore(1)
	params := particle.OffsetParams{Amplitude: 1, Frequency: 1, Speed: 1}
	offsets := particle.NewOffsetStrategy(config.AnimationWave, params)

	in := NewInstancer()
	f := frame()
	in.Update(store, offsets, f)
	want := store.Position(0).Add(offsets.Offset(0, store.Position(0), f.Elapsed))
	assert.Equal(t, want, in.Transform(0).Col(3).Vec3())
	assert.Equal(t, mgl32.Ident4(), in.Transform(5))
}

func TestStrides_MatchPackedTypes(t *testing.T) {
	assert.Equal(t, TransformStride, int(unsafe.Sizeof(mgl32.Mat4{})))
	assert.Equal(t, UVStride, int(unsafe.Sizeof([2]float32{})))
	assert.Equal(t, LifecycleStride, int(unsafe.Sizeof([4]float32{})))

	buf := common.SliceToBytes([]mgl32.Mat4{mgl32.Translate3D(1, 2, 3)})
	require.Len(t, buf, TransformStride)
	assert.Equal(t, float32(3), float32At(buf, 14))
}

func TestInvalidate_RestagesEveryArray(t *testing.T) {
	store := testStore(3)
	in := NewInstancer()
	in.Update(store, nil, frame())

	// a failed rebuild drops the first frame's writes
	in.Invalidate()
	assert.Empty(t, in.StagedWriteData())
	gen := in.Generation()

	in.Update(store, nil, frame())
	writes := in.StagedWriteData()
	bindings := make([]int, 0, len(writes))
	for _, w := range writes {
		bindings = append(bindings, w.Binding)
	}
	assert.ElementsMatch(t, []int{BindingTransforms, BindingUVs, BindingLifecycle}, bindings)
	assert.Equal(t, gen, in.Generation(), "invalidating does not reallocate")

	for _, w := range writes {
		if w.Binding == BindingUVs {
			require.Len(t, w.Data, 3*UVStride)
			assert.Equal(t, float32(0.25), float32At(w.Data, 0))
			assert.Equal(t, float32(0.75), float32At(w.Data, 1))
		}
	}
}
