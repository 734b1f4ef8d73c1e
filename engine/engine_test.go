package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	width, height int
	closed        bool

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onMouseButton func(button window.MouseButton, pressed bool, x, y int32)
	onMouseMove   func(x, y int32)
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32))     { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))   { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(func(keyCode uint32))        {}
func (w *fakeWindow) SetMouseButtonCallback(cb func(button window.MouseButton, pressed bool, x, y int32)) {
	w.onMouseButton = cb
}
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y int32))   { w.onMouseMove = cb }
func (w *fakeWindow) SetTitle(string)                            {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool                            { return !w.closed }
func (w *fakeWindow) Close() error                               { w.closed = true; return nil }
func (w *fakeWindow) ProcessMessages()                           {}
func (w *fakeWindow) Width() int                                 { return w.width }
func (w *fakeWindow) Height() int                                { return w.height }

// fakeRenderer records the frame sequence. Like the wgpu backend it refuses to begin a
// frame while the previous one is still unpresented.
type fakeRenderer struct {
	renderer.Renderer
	calls      []string
	beginErr   error
	open       bool
	resized    [2]int
	clearColor wgpu.Color
}

func (r *fakeRenderer) BeginFrame() error {
	r.calls = append(r.calls, "begin")
	if r.open {
		return errors.New("previous frame surface not yet presented")
	}
	if r.beginErr != nil {
		return r.beginErr
	}
	r.open = true
	return nil
}
func (r *fakeRenderer) EndFrame() { r.calls = append(r.calls, "end") }
func (r *fakeRenderer) Present() {
	r.calls = append(r.calls, "present")
	r.open = false
}
func (r *fakeRenderer) Resize(width, height int)   { r.resized = [2]int{width, height} }
func (r *fakeRenderer) SetClearColor(c wgpu.Color) { r.clearColor = c }

type fakeScene struct {
	cam     camera.Camera
	r       *fakeRenderer
	sim     *scene.Simulation
	updates int
	resets  int
	drawErr error
	panicOn int
	// drawPanicOn panics inside DrawCalls on that update
	drawPanicOn int
}

func newFakeScene() *fakeScene {
	cfg := config.Default()
	return &fakeScene{
		cam: camera.NewCamera(camera.WithController(camera.NewCameraController())),
		r:   &fakeRenderer{},
		sim: scene.NewSimulation(scene.PlaceholderMesh(), true, cfg, scene.WithFallbackSeed(1)),
	}
}

func (s *fakeScene) Name() string                    { return "fake" }
func (s *fakeScene) Camera() camera.Camera           { return s.cam }
func (s *fakeScene) Renderer() renderer.Renderer     { return s.r }
func (s *fakeScene) Simulation() *scene.Simulation   { return s.sim }
func (s *fakeScene) Environment() scene.Environment  { return scene.Environment{} }
func (s *fakeScene) Rig() light.Rig                  { return light.Studio() }
func (s *fakeScene) Source() string                  { return "" }
func (s *fakeScene) Load(string)                     {}
func (s *fakeScene) DisabledDraws() map[string]error { return nil }
func (s *fakeScene) ParticleCount() int              { return 0 }
func (s *fakeScene) Release()                        {}
func (s *fakeScene) Reset(config.Config)             { s.resets++ }

func (s *fakeScene) SetMesh(model.SourceMesh, common.SamplerStagingData) error { return nil }
func (s *fakeScene) Update(dt float32, cfg config.Config) {
	s.updates++
	if s.updates == s.panicOn {
		panic("boom")
	}
	s.sim.Step(dt, cfg)
}
func (s *fakeScene) DrawCalls() error {
	s.r.calls = append(s.r.calls, "draw")
	if s.updates == s.drawPanicOn {
		panic("draw boom")
	}
	return s.drawErr
}

func newTestEngine(t *testing.T) (*engine, *fakeWindow, *fakeScene) {
	t.Helper()
	w := &fakeWindow{width: 800, height: 400}
	s := newFakeScene()
	e := NewEngine(w, s, config.NewStore(config.Default())).(*engine)
	require.NotNil(t, w.onUpdate)
	return e, w, s
}

func TestNewEngine_SetsAspect(t *testing.T) {
	_, _, s := newTestEngine(t)
	assert.InDelta(t, 2, s.cam.Aspect(), 1e-6)
}

func TestFrame_Sequence(t *testing.T) {
	e, w, s := newTestEngine(t)
	w.onUpdate()
	w.onUpdate()

	assert.Equal(t, 2, s.updates)
	assert.Equal(t, []string{"begin", "draw", "end", "present", "begin", "draw", "end", "present"}, s.r.calls)
	assert.Equal(t, uint64(2), e.Frames())
}

func TestFrame_SkipsDrawWhenSurfaceLost(t *testing.T) {
	e, w, s := newTestEngine(t)
	s.r.beginErr = errors.New("surface lost")
	w.onUpdate()

	assert.Equal(t, []string{"begin"}, s.r.calls)
	assert.Zero(t, e.Frames())
}

func TestFrame_RecoversFromPanic(t *testing.T) {
	e, w, s := newTestEngine(t)
	s.panicOn = 1
	assert.NotPanics(t, w.onUpdate)
	assert.Equal(t, 1, e.panics)

	w.onUpdate()
	assert.Equal(t, uint64(1), e.Frames())
}

func TestFrame_DrawPanicStillPresents(t *testing.T) {
	e, w, s := newTestEngine(t)
	s.drawPanicOn = 1
	assert.NotPanics(t, w.onUpdate)
	assert.Equal(t, 1, e.panics)
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, s.r.calls)
	assert.False(t, s.r.open)

	s.r.calls = nil
	w.onUpdate()
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, s.r.calls, "the next frame begins normally")
	assert.Equal(t, uint64(1), e.Frames())
}

func TestFrame_CallsFrameCallback(t *testing.T) {
	e, w, _ := newTestEngine(t)
	var dts []float32
	e.SetFrameCallback(func(dt float32) { dts = append(dts, dt) })
	w.onUpdate()
	time.Sleep(time.Millisecond)
	w.onUpdate()

	require.Len(t, dts, 2)
	assert.Zero(t, dts[0])
	assert.Positive(t, dts[1])
	assert.LessOrEqual(t, dts[1], float32(maxFrameDelta))
}

func TestInput_ResizeAndCamera(t *testing.T) {
	_, w, s := newTestEngine(t)
	w.onResize(1000, 250)
	assert.Equal(t, [2]int{1000, 250}, s.r.resized)
	assert.InDelta(t, 4, s.cam.Aspect(), 1e-6)

	ctrl := s.cam.Controller()
	az := ctrl.Azimuth()
	w.onMouseButton(window.MouseButtonRight, true, 10, 10)
	assert.False(t, ctrl.Dragging())

	w.onMouseButton(window.MouseButtonLeft, true, 10, 10)
	assert.True(t, ctrl.Dragging())
	w.onMouseMove(60, 10)
	assert.NotEqual(t, az, ctrl.Azimuth())
	w.onMouseButton(window.MouseButtonLeft, false, 60, 10)
	assert.False(t, ctrl.Dragging())

	r := ctrl.Radius()
	w.onScroll(1)
	assert.Less(t, ctrl.Radius(), r)
}

func TestInput_PointerSteersMeshRotation(t *testing.T) {
	_, w, s := newTestEngine(t)
	w.onMouseMove(800, 0)
	x, y := s.sim.Rotation().Target()
	assert.Equal(t, float32(1), x)
	assert.Equal(t, float32(-1), y)
}

func TestHandleKey(t *testing.T) {
	e, w, s := newTestEngine(t)

	w.onKeyDown(common.KeyP)
	assert.True(t, e.Store().Snapshot().Lifecycle.Paused)

	w.onKeyDown(common.KeyT)
	assert.False(t, e.Store().Snapshot().Transition.Enabled)

	w.onKeyDown(common.KeySpace)
	assert.Equal(t, config.ShapeSphere, e.Store().Snapshot().Particles.Shape)
	w.onKeyDown(common.Key1)
	assert.Equal(t, config.ShapeTriangle, e.Store().Snapshot().Particles.Shape)

	mode := e.Store().Snapshot().Animation.Mode
	w.onKeyDown(common.KeyM)
	assert.NotEqual(t, mode, e.Store().Snapshot().Animation.Mode)

	w.onKeyDown(common.KeyR)
	assert.Equal(t, 1, s.resets)
}

func TestRequestReset_AppliesOnNextFrame(t *testing.T) {
	e, w, s := newTestEngine(t)
	e.RequestReset()
	assert.Zero(t, s.resets)

	w.onUpdate()
	assert.Equal(t, 1, s.resets)
	w.onUpdate()
	assert.Equal(t, 1, s.resets)
}

func TestQuit_ClosesOnce(t *testing.T) {
	e, w, _ := newTestEngine(t)
	e.Quit()
	e.Quit()
	assert.True(t, w.closed)
}

func TestFrameLimit(t *testing.T) {
	assert.Zero(t, frameLimit(0))
	assert.Zero(t, frameLimit(-5))
	assert.Equal(t, 20*time.Millisecond, frameLimit(50))
}
