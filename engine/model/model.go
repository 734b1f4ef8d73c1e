package model

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// HorizontalRadius returns the largest XZ distance from the box center to a corner.
func (b Bounds) HorizontalRadius() float32 {
	s := b.Size()
	return 0.5 * math32.Sqrt(s[0]*s[0]+s[2]*s[2])
}

// sourceMesh is the implementation of the SourceMesh interface.
type sourceMesh struct {
	name      string
	positions []mgl32.Vec3
	uvs       [][2]float32
	indices   []uint32
	texture   *image.RGBA
	bounds    Bounds
}

// SourceMesh is the immutable face geometry every particle is sampled from.
// It holds vertex positions, optional texture coordinates, an optional triangle
// index list and an optional color texture. When no index list is present, consecutive
// vertex triples form the triangles.
type SourceMesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexCount returns the number of vertex positions.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Position returns the position of vertex i.
	//
	// Parameters:
	//   - i: the vertex index, must be in [0, VertexCount())
	//
	// Returns:
	//   - mgl32.Vec3: the vertex position
	Position(i int) mgl32.Vec3

	// Positions returns the backing position slice. Callers must not modify it.
	//
	// Returns:
	//   - []mgl32.Vec3: every vertex position
	Positions() []mgl32.Vec3

	// UV returns the texture coordinate of vertex i.
	//
	// Parameters:
	//   - i: the vertex index
	//
	// Returns:
	//   - [2]float32: the texture coordinate
	//   - bool: false if the mesh has no coordinates or i is out of range
	UV(i int) ([2]float32, bool)

	// HasUV reports whether the mesh carries any texture coordinates.
	//
	// Returns:
	//   - bool: true if texture coordinates are present
	HasUV() bool

	// Indexed reports whether an explicit triangle index list was supplied.
	//
	// Returns:
	//   - bool: true if the mesh is indexed
	Indexed() bool

	// TriangleCount returns the number of triangles, explicit or implied.
	//
	// Returns:
	//   - int: the triangle count
	TriangleCount() int

	// Triangle returns the three vertex indices of triangle t. Indices are returned as
	// stored and may exceed VertexCount for malformed inputs.
	//
	// Parameters:
	//   - t: the triangle index, must be in [0, TriangleCount())
	//
	// Returns:
	//   - [3]uint32: the vertex indices
	Triangle(t int) [3]uint32

	// Indices returns a triangle-list index buffer, generating sequential indices
	// when the mesh is not indexed.
	//
	// Returns:
	//   - []uint32: the triangle index list
	Indices() []uint32

	// EdgeIndices returns a line-list index buffer with each undirected edge once,
	// in first-seen order. Edges touching out-of-range vertices are skipped.
	//
	// Returns:
	//   - []uint32: pairs of vertex indices
	EdgeIndices() []uint32

	// Normals returns area-weighted smooth vertex normals.
	//
	// Returns:
	//   - []mgl32.Vec3: one unit normal per vertex (zero for isolated vertices)
	Normals() []mgl32.Vec3

	// Vertices returns GPU vertices for drawing the mesh itself. PositionFlip equals
	// Position and missing texture coordinates are replaced by fallback.
	//
	// Parameters:
	//   - fallback: the texture coordinate used where the mesh has none
	//
	// Returns:
	//   - []GPUVertex: one vertex per mesh vertex
	Vertices(fallback [2]float32) []GPUVertex

	// Texture returns the decoded color texture, or nil if the mesh has none.
	//
	// Returns:
	//   - *image.RGBA: the color texture
	Texture() *image.RGBA

	// HasTexture reports whether a color texture is attached.
	//
	// Returns:
	//   - bool: true if Texture is non-nil
	HasTexture() bool

	// Bounds returns the axis-aligned bounding box of every vertex.
	//
	// Returns:
	//   - Bounds: the bounding box, zero for an empty mesh
	Bounds() Bounds
}

var _ SourceMesh = &sourceMesh{}

// NewSourceMesh creates a SourceMesh with the specified options applied. The bounding box
// is computed once from the final position set.
//
// Parameters:
//   - options: a variadic list of SourceMeshOption functions to configure the mesh
//
// Returns:
//   - SourceMesh: the immutable mesh
func NewSourceMesh(options ...SourceMeshOption) SourceMesh {
	m := &sourceMesh{}
	for _, opt := range options {
		opt(m)
	}
	m.bounds = computeBounds(m.positions)
	return m
}

func (m *sourceMesh) Name() string {
	return m.name
}

func (m *sourceMesh) VertexCount() int {
	return len(m.positions)
}

func (m *sourceMesh) Position(i int) mgl32.Vec3 {
	return m.positions[i]
}

func (m *sourceMesh) Positions() []mgl32.Vec3 {
	return m.positions
}

func (m *sourceMesh) UV(i int) ([2]float32, bool) {
	if i < 0 || i >= len(m.uvs) {
		return [2]float32{}, false
	}
	return m.uvs[i], true
}

func (m *sourceMesh) HasUV() bool {
	return len(m.uvs) > 0
}

func (m *sourceMesh) Indexed() bool {
	return m.indices != nil
}

func (m *sourceMesh) TriangleCount() int {
	if m.indices != nil {
		return len(m.indices) / 3
	}
	return len(m.positions) / 3
}

func (m *sourceMesh) Triangle(t int) [3]uint32 {
	if m.indices != nil {
		return [3]uint32{m.indices[3*t], m.indices[3*t+1], m.indices[3*t+2]}
	}
	base := uint32(3 * t)
	return [3]uint32{base, base + 1, base + 2}
}

func (m *sourceMesh) Indices() []uint32 {
	n := m.TriangleCount()
	out := make([]uint32, 0, n*3)
	for t := range n {
		tri := m.Triangle(t)
		out = append(out, tri[0], tri[1], tri[2])
	}
	return out
}

func (m *sourceMesh) EdgeIndices() []uint32 {
	vc := uint32(len(m.positions))
	seen := make(map[[2]uint32]struct{}, m.TriangleCount()*3/2)
	out := make([]uint32, 0, m.TriangleCount()*3)
	for t := range m.TriangleCount() {
		tri := m.Triangle(t)
		for k := range 3 {
			a, b := tri[k], tri[(k+1)%3]
			if a >= vc || b >= vc || a == b {
				continue
			}
			key := [2]uint32{min(a, b), max(a, b)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key[0], key[1])
		}
	}
	return out
}

func (m *sourceMesh) Normals() []mgl32.Vec3 {
	vc := uint32(len(m.positions))
	normals := make([]mgl32.Vec3, vc)
	for t := range m.TriangleCount() {
		tri := m.Triangle(t)
		if tri[0] >= vc || tri[1] >= vc || tri[2] >= vc {
			continue
		}
		v0, v1, v2 := m.positions[tri[0]], m.positions[tri[1]], m.positions[tri[2]]
		// unnormalized cross weights each face by its area
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, i := range tri {
			normals[i] = normals[i].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	return normals
}

func (m *sourceMesh) Vertices(fallback [2]float32) []GPUVertex {
	normals := m.Normals()
	out := make([]GPUVertex, len(m.positions))
	for i, p := range m.positions {
		uv, ok := m.UV(i)
		if !ok {
			uv = fallback
		}
		out[i] = GPUVertex{
			Position:     p,
			PositionFlip: p,
			Normal:       normals[i],
			UV:           uv,
		}
	}
	return out
}

func (m *sourceMesh) Texture() *image.RGBA {
	return m.texture
}

func (m *sourceMesh) HasTexture() bool {
	return m.texture != nil
}

func (m *sourceMesh) Bounds() Bounds {
	return m.bounds
}

func computeBounds(positions []mgl32.Vec3) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		for k := range 3 {
			b.Min[k] = min(b.Min[k], p[k])
			b.Max[k] = max(b.Max[k], p[k])
		}
	}
	return b
}
