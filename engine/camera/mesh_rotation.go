package camera

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshRotation turns the mesh toward the cursor. The pointer sets a target in normalized
// window coordinates and Update eases the current yaw and pitch toward it, so the face
// follows the mouse with a lag. It is owned by the frame callback and is not safe for
// concurrent use.
type MeshRotation struct {
	targetX, targetY float32
	yaw, pitch       float32
}

// SetPointer sets the rotation target from a cursor position. The window center is no
// rotation and the edges are full deflection.
//
// Parameters:
//   - x, y: the cursor position in pixels
//   - width, height: the window size in pixels
func (r *MeshRotation) SetPointer(x, y int32, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.targetX = common.Clamp(2*float32(x)/float32(width)-1, -1, 1)
	r.targetY = common.Clamp(2*float32(y)/float32(height)-1, -1, 1)
}

// Target returns the normalized pointer target in [-1, 1]².
func (r *MeshRotation) Target() (x, y float32) {
	return r.targetX, r.targetY
}

// Update eases toward the pointer target and returns the mesh rotation matrix.
//
// Parameters:
//   - dt: seconds since the previous frame
//   - easing: per-60Hz-frame blend factor in [0, 1]
//   - sensitivity: radians of rotation at full deflection
//
// Returns:
//   - mgl32.Mat4: the rotation applied to the mesh before the view
func (r *MeshRotation) Update(dt, easing, sensitivity float32) mgl32.Mat4 {
	r.yaw = common.Damp(r.yaw, r.targetX*sensitivity, easing, dt)
	// cursor up tilts the face up
	r.pitch = common.Damp(r.pitch, r.targetY*sensitivity, easing, dt)
	return r.Matrix()
}

// Matrix returns the current rotation without easing.
func (r *MeshRotation) Matrix() mgl32.Mat4 {
	return common.RotationYX(r.pitch, r.yaw)
}

// Angles returns the current yaw and pitch in radians.
func (r *MeshRotation) Angles() (yaw, pitch float32) {
	return r.yaw, r.pitch
}

// Reset snaps back to no rotation and clears the target.
func (r *MeshRotation) Reset() {
	*r = MeshRotation{}
}
