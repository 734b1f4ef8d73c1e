package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() SourceMesh {
	return NewSourceMesh(
		WithName("quad"),
		WithPositions([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}),
		WithUVs([][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}),
		WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
	)
}

func TestSourceMesh_Indexed(t *testing.T) {
	m := quad()
	assert.Equal(t, "quad", m.Name())
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 2, m.TriangleCount())
	assert.True(t, m.Indexed())
	assert.True(t, m.HasUV())
	assert.False(t, m.HasTexture())
	assert.Equal(t, [3]uint32{0, 2, 3}, m.Triangle(1))

	b := m.Bounds()
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, b.Max)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0}, b.Center())
}

func TestSourceMesh_ImpliedTriangles(t *testing.T) {
	m := NewSourceMesh(WithPositions([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}}))
	assert.False(t, m.Indexed())
	assert.Equal(t, 1, m.TriangleCount(), "trailing vertex does not form a triangle")
	assert.Equal(t, [3]uint32{0, 1, 2}, m.Triangle(0))
	assert.Equal(t, []uint32{0, 1, 2}, m.Indices())

	_, ok := m.UV(0)
	assert.False(t, ok)
	assert.False(t, m.HasUV())
}

func TestSourceMesh_UVOutOfRange(t *testing.T) {
	m := NewSourceMesh(
		WithPositions([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		WithUVs([][2]float32{{0.25, 0.75}}),
	)
	uv, ok := m.UV(0)
	require.True(t, ok)
	assert.Equal(t, [2]float32{0.25, 0.75}, uv)
	_, ok = m.UV(2)
	assert.False(t, ok)

	verts := m.Vertices([2]float32{0.5, 0.5})
	assert.Equal(t, [2]float32{0.5, 0.5}, verts[2].UV)
}

func TestSourceMesh_EdgeIndices(t *testing.T) {
	edges := quad().EdgeIndices()
	// 5 unique edges: the shared diagonal appears once
	require.Len(t, edges, 10)
	seen := map[[2]uint32]bool{}
	for i := 0; i < len(edges); i += 2 {
		key := [2]uint32{edges[i], edges[i+1]}
		assert.Less(t, key[0], key[1])
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
	}
	assert.True(t, seen[[2]uint32{0, 2}])
}

func TestSourceMesh_NormalsAndVertices(t *testing.T) {
	m := quad()
	for _, n := range m.Normals() {
		assert.InDelta(t, 1.0, n.Z(), 1e-6)
	}
	verts := m.Vertices([2]float32{0.5, 0.5})
	require.Len(t, verts, 4)
	assert.Equal(t, verts[2].Position, verts[2].PositionFlip)
	assert.Equal(t, [2]float32{1, 1}, verts[2].UV)
}

func TestGPUVertex_Marshal(t *testing.T) {
	v := GPUVertex{
		Position:     [3]float32{1, 2, 3},
		PositionFlip: [3]float32{4, 5, 6},
		Normal:       [3]float32{0, 0, 1},
		UV:           [2]float32{0.25, 0.5},
	}
	assert.Equal(t, GPUVertexSize, v.Size())
	buf := v.Marshal()
	require.Len(t, buf, GPUVertexSize)
	assert.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[40:])))

	packed := MarshalVertices([]GPUVertex{v, v})
	assert.Len(t, packed, 2*GPUVertexSize)
	assert.Equal(t, buf, packed[GPUVertexSize:])

	idx := MarshalIndices([]uint32{7, 9})
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(idx[4:]))
	assert.Contains(t, GPUVertexSource, "position_flip")
}
