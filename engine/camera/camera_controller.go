package camera

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController is an orbit controller. It keeps the eye on a sphere around a target
// in spherical coordinates (radius, azimuth around Y, elevation from the horizontal
// plane). Mouse drags orbit and scroll zooms.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: the pivot the eye orbits
	Target() mgl32.Vec3

	// SetTarget moves the pivot and recomputes the eye.
	//
	// Parameters:
	//   - target: the new pivot
	SetTarget(target mgl32.Vec3)

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	SetRadius(radius float32)

	// MinRadius returns the minimum orbit radius.
	MinRadius() float32

	// MaxRadius returns the maximum orbit radius.
	MaxRadius() float32

	// Azimuth returns the angle around Y in radians. Zero looks down -Z from +Z.
	Azimuth() float32

	// SetAzimuth sets the angle around Y in radians.
	SetAzimuth(azimuth float32)

	// Elevation returns the angle above the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the elevation, clamped to the elevation bounds.
	SetElevation(elevation float32)

	// Orbit rotates the eye around the target.
	//
	// Parameters:
	//   - dAzimuth: radians added to the azimuth
	//   - dElevation: radians added to the elevation
	Orbit(dAzimuth, dElevation float32)

	// Zoom scales the radius. Positive delta moves closer; one unit of delta changes the
	// radius by ZoomSpeed of its current value.
	//
	// Parameters:
	//   - delta: scroll amount
	Zoom(delta float32)

	// BeginDrag starts an orbit drag at a cursor position.
	BeginDrag(x, y int32)

	// Drag orbits by the cursor movement since the previous BeginDrag or Drag call,
	// scaled by the orbit sensitivity. It is ignored when no drag is active.
	Drag(x, y int32)

	// EndDrag ends the active drag.
	EndDrag()

	// Dragging reports whether a drag is active.
	Dragging() bool

	// SetSensitivity sets the orbit radians per pixel and the zoom fraction per scroll unit.
	SetSensitivity(orbit, zoom float32)

	// FrameBounds points the camera at the center of b and sets a radius that fits it in
	// view. The radius bounds are rescaled to the mesh size.
	//
	// Parameters:
	//   - b: the bounding box to frame
	FrameBounds(b model.Bounds)
}
