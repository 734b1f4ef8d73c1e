package model

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// SourceMeshOption is a functional option for configuring a SourceMesh via NewSourceMesh.
type SourceMeshOption func(*sourceMesh)

// WithName is an option builder that sets the name of the SourceMesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - SourceMeshOption: a function that applies the name option to a mesh
func WithName(name string) SourceMeshOption {
	return func(m *sourceMesh) {
		m.name = name
	}
}

// WithPositions is an option builder that sets the vertex positions of the SourceMesh.
//
// Parameters:
//   - positions: the vertex positions in local space
//
// Returns:
//   - SourceMeshOption: a function that applies the positions option to a mesh
func WithPositions(positions []mgl32.Vec3) SourceMeshOption {
	return func(m *sourceMesh) {
		m.positions = positions
	}
}

// WithUVs is an option builder that sets the per-vertex texture coordinates. A slice
// shorter than the position list leaves the remaining vertices without coordinates.
//
// Parameters:
//   - uvs: texture coordinates indexed like positions
//
// Returns:
//   - SourceMeshOption: a function that applies the uvs option to a mesh
func WithUVs(uvs [][2]float32) SourceMeshOption {
	return func(m *sourceMesh) {
		m.uvs = uvs
	}
}

// WithIndices is an option builder that sets the triangle index list. A trailing partial
// triangle is ignored.
//
// Parameters:
//   - indices: the triangle-list indices
//
// Returns:
//   - SourceMeshOption: a function that applies the indices option to a mesh
func WithIndices(indices []uint32) SourceMeshOption {
	return func(m *sourceMesh) {
		m.indices = indices
	}
}

// WithTexture is an option builder that attaches the decoded color texture.
func WithTexture(tex *image.RGBA) SourceMeshOption {
	return func(m *sourceMesh) {
		m.texture = tex
	}
}
