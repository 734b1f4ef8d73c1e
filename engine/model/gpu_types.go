package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct shared by every draw.
// Matches GPUVertex layout exactly (44 bytes, tightly packed vertex attributes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexSize is the byte stride of one GPUVertex in a vertex buffer.
const GPUVertexSize = 44

// GPUVertex is the GPU-aligned representation of a single vertex of the particle base shape,
// the wireframe mesh, or a trail segment.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
type GPUVertex struct {
	Position     [3]float32 // offset  0: position in local space (12 bytes)
	PositionFlip [3]float32 // offset 12: alternate position blended in by the flip ratio (12 bytes)
	Normal       [3]float32 // offset 24: vertex normal for lighting (12 bytes)
	UV           [2]float32 // offset 36: texture coordinate, or (t, alpha) for trails (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 44-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	g.put(buf)
	return buf
}

func (g *GPUVertex) put(buf []byte) {
	fields := [11]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.PositionFlip[0], g.PositionFlip[1], g.PositionFlip[2],
		g.Normal[0], g.Normal[1], g.Normal[2],
		g.UV[0], g.UV[1],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// MarshalVertices packs a vertex slice into one contiguous buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*GPUVertexSize bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexSize)
	for i := range vertices {
		vertices[i].put(buf[i*GPUVertexSize:])
	}
	return buf
}

// MarshalIndices packs uint32 indices little-endian.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
