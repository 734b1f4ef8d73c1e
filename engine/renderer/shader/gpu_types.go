package shader

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSceneUniformSource is the canonical WGSL definition of the SceneUniform struct.
// Matches GPUSceneUniform layout exactly (320 bytes, std140 aligned).
//
//go:embed assets/scene_uniform.wgsl
var GPUSceneUniformSource string

// FaceSource is the annotated WGSL source shared by every draw.
//
//go:embed assets/face.wgsl
var FaceSource string

// GPUSceneUniformSize is the byte size of GPUSceneUniform.
const GPUSceneUniformSize = 320

// GPUSceneUniform is the per-draw uniform block of the face shader.
// Matches the WGSL SceneUniform struct layout exactly (see GPUSceneUniformSource).
type GPUSceneUniform struct {
	ViewProj     [16]float32   // offset   0: column-major view-projection
	MeshRotation [16]float32   // offset  64: eased mouse rotation applied to every draw
	LightDir     [4]float32    // offset 128: xyz toward the key light, w ambient floor
	LightColor   [4]float32    // offset 144: rgb key radiance, w brightness
	PointLight   [4]float32    // offset 160: xyz position, w range (0 disables)
	PointColor   [4]float32    // offset 176: rgb point radiance
	Tint         [4]float32    // offset 192: rgb draw color, w opacity
	Bounds       [4]float32    // offset 208: min y, max y, reveal, edge softness
	Params       [4]float32    // offset 224: flip ratio, render mode, grow end, shrink start
	Chroma       [4]float32    // offset 240: start phase, intensity, uv offset, blend mode
	Emissive     [4]float32    // offset 256: glow boost, alpha floor, unused, unused
	Brand        [3][4]float32 // offset 272: brand colors, w unused
}

// Size returns the size of the GPUSceneUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (320)
func (g *GPUSceneUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Mode decodes the render mode stored in Params.
func (g *GPUSceneUniform) Mode() RenderMode {
	return RenderMode(g.Params[1] + 0.5)
}

// Marshal serializes the GPUSceneUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 320-byte buffer in little-endian order
func (g *GPUSceneUniform) Marshal() []byte {
	buf := make([]byte, GPUSceneUniformSize)
	off := putFloats(buf, 0, g.ViewProj[:])
	off = putFloats(buf, off, g.MeshRotation[:])
	for _, v := range [][4]float32{
		g.LightDir, g.LightColor, g.PointLight, g.PointColor,
		g.Tint, g.Bounds, g.Params, g.Chroma, g.Emissive,
	} {
		off = putFloats(buf, off, v[:])
	}
	for _, v := range g.Brand {
		off = putFloats(buf, off, v[:])
	}
	return buf
}

func putFloats(buf []byte, off int, vals []float32) int {
	for _, v := range vals {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return off
}
