package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// clipCorrection remaps OpenGL clip depth [-1, 1] (what mgl32.Perspective produces)
// to the WebGPU clip depth range [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// Perspective builds a WebGPU-compatible perspective projection (depth in [0, 1]).
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return clipCorrection.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// InstanceMatrix builds a translate * uniform-scale model matrix.
//
// Parameters:
//   - pos: world-space translation
//   - scale: uniform scale factor
//
// Returns:
//   - mgl32.Mat4: the model matrix (column-major)
func InstanceMatrix(pos mgl32.Vec3, scale float32) mgl32.Mat4 {
	return mgl32.Mat4{
		scale, 0, 0, 0,
		0, scale, 0, 0,
		0, 0, scale, 0,
		pos[0], pos[1], pos[2], 1,
	}
}

// RotationYX builds a rotation of yaw radians around Y followed by pitch radians around X.
// Used for the eased mouse-driven mesh rotation.
func RotationYX(pitch, yaw float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(yaw).Mul4(mgl32.HomogRotate3DX(pitch))
}

// Clamp restricts v to [lo, hi].
func Clamp[T ~int | ~float32 | ~float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Smoothstep is the cubic Hermite ease 3t² - 2t³ with t clamped to [0, 1].
func Smoothstep(t float32) float32 {
	t = Clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}

// SmoothstepRange mirrors WGSL smoothstep(edge0, edge1, x).
func SmoothstepRange(edge0, edge1, x float32) float32 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	return Smoothstep((x - edge0) / (edge1 - edge0))
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Damp moves current toward target with frame-rate independent exponential easing.
// An easing of 0 never moves; 1 snaps immediately.
//
// Parameters:
//   - current: the current value
//   - target: the value being approached
//   - easing: per-60Hz-frame blend factor in [0, 1]
//   - dt: elapsed seconds since the previous frame
//
// Returns:
//   - float32: the eased value
func Damp(current, target, easing, dt float32) float32 {
	easing = Clamp(easing, 0, 1)
	if easing >= 1 {
		return target
	}
	k := 1 - math32.Pow(1-easing, dt*60)
	return current + (target-current)*k
}

// Coalesce returns the first non-zero value, or the zero value if every value is zero.
// Sampler fields and the sampling seed use it to fall back to a default.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
