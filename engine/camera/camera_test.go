package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraController_DefaultLooksDownMinusZ(t *testing.T) {
	cc := NewCameraController(WithRadius(2))
	p := cc.Position()
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.InDelta(t, 2, p.Z(), 1e-5)
	assert.Equal(t, mgl32.Vec3{}, cc.Target())
}

func TestCameraController_ClampsRadiusAndElevation(t *testing.T) {
	cc := NewCameraController(WithRadiusBounds(1, 4), WithElevationBounds(-0.5, 0.5))
	cc.SetRadius(10)
	assert.Equal(t, float32(4), cc.Radius())
	cc.SetRadius(0)
	assert.Equal(t, float32(1), cc.Radius())

	cc.Orbit(0, 2)
	assert.Equal(t, float32(0.5), cc.Elevation())
	cc.SetElevation(-3)
	assert.Equal(t, float32(-0.5), cc.Elevation())
}

func TestCameraController_ZoomIsProportional(t *testing.T) {
	cc := NewCameraController(WithRadius(2), WithZoomSpeed(0.1))
	cc.Zoom(1)
	assert.InDelta(t, 1.8, cc.Radius(), 1e-5)
	cc.Zoom(-1)
	assert.InDelta(t, 1.98, cc.Radius(), 1e-5)
}

func TestCameraController_Drag(t *testing.T) {
	cc := NewCameraController(WithOrbitSensitivity(0.01))

	cc.Drag(100, 100)
	assert.Equal(t, float32(0), cc.Azimuth(), "drag without BeginDrag is ignored")

	cc.BeginDrag(10, 10)
	assert.True(t, cc.Dragging())
	cc.Drag(20, 15)
	assert.InDelta(t, -0.1, cc.Azimuth(), 1e-5)
	assert.InDelta(t, 0.05, cc.Elevation(), 1e-5)

	cc.EndDrag()
	assert.False(t, cc.Dragging())
	cc.Drag(200, 200)
	assert.InDelta(t, -0.1, cc.Azimuth(), 1e-5)
}

func TestCameraController_FrameBounds(t *testing.T) {
	cc := NewCameraController()
	cc.FrameBounds(model.Bounds{Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}})
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cc.Target())
	extent := float32(math.Sqrt(12))
	assert.InDelta(t, extent*1.2, cc.Radius(), 1e-4)
	assert.InDelta(t, extent*0.1, cc.MinRadius(), 1e-4)
}

func TestCamera_ProjectTarget(t *testing.T) {
	cc := NewCameraController(WithRadius(3))
	c := NewCamera(WithController(cc), WithAspect(16.0/9.0), WithClipPlanes(0.1, 10))

	ndc, ok := c.Project(mgl32.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))

	_, ok = c.Project(mgl32.Vec3{0, 0, 5})
	assert.False(t, ok, "point behind the eye")

	right, ok := c.Project(mgl32.Vec3{0.5, 0, 0})
	require.True(t, ok)
	assert.Greater(t, right.X(), float32(0))
}

func TestCamera_SetAspectIgnoresDegenerate(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
	c.SetAspect(-1)
	assert.Equal(t, float32(2), c.Aspect())
}

func TestCamera_FollowsController(t *testing.T) {
	cc := NewCameraController(WithRadius(3))
	c := NewCamera(WithController(cc))
	before := c.ViewProjection()
	cc.Orbit(0.5, 0)
	assert.Equal(t, before, c.ViewProjection(), "matrices change only on Update")
	c.Update()
	assert.NotEqual(t, before, c.ViewProjection())
}

func TestMeshRotation(t *testing.T) {
	var r MeshRotation
	assert.Equal(t, mgl32.Ident4(), r.Matrix())

	r.SetPointer(100, 50, 100, 100)
	x, y := r.Target()
	assert.Equal(t, float32(1), x)
	assert.Equal(t, float32(0), y)

	r.Update(1.0/60, 1, 0.5)
	yaw, pitch := r.Angles()
	assert.InDelta(t, 0.5, yaw, 1e-6, "easing 1 snaps")
	assert.InDelta(t, 0, pitch, 1e-6)

	r.SetPointer(50, 50, 100, 100)
	r.Update(1.0/60, 0.5, 0.5)
	yaw, _ = r.Angles()
	assert.InDelta(t, 0.25, yaw, 1e-5)

	r.SetPointer(10, 10, 0, 0)
	x, _ = r.Target()
	assert.Equal(t, float32(0), x, "zero window size is ignored")

	r.Reset()
	assert.Equal(t, mgl32.Ident4(), r.Matrix())
}
