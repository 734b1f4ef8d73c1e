package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
)

// maxFrameDelta caps the step after a stall, such as a window drag, so the lifecycle and
// transition never jump.
const maxFrameDelta = 0.1

// engine implements the Engine interface.
// The frame loop runs on the window's message loop goroutine.
type engine struct {
	mu sync.Mutex

	window window.Window
	scene  scene.Scene
	store  *config.Store
	logger common.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback    func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	resetRequested atomic.Bool

	lastFrame  time.Time
	frames     uint64
	panics     int
	lastDrawOK bool

	quitOnce sync.Once
}

// Engine drives the face viewer: it steps and draws the scene once per window message loop
// iteration and routes window input to the camera, the mesh rotation and the config.
//
// Input:
//   - left or middle drag orbits, the wheel zooms
//   - cursor position steers the mesh rotation
//   - R resets, P pauses the lifecycle, T toggles the transition overlay
//   - Space toggles the base shape, 1 and 2 select it, M cycles the animation mode
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the face scene.
	Scene() scene.Scene

	// Store returns the live config the frame loop snapshots.
	Store() *config.Store

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers a function called after each frame is presented.
	//
	// Parameters:
	//   - callback: function receiving the frame delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the frame loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RequestReset asks the frame loop to reset the scene at the start of the next frame.
	// It is safe to call from any goroutine, such as the terminal panel's.
	RequestReset()

	// Frames returns the number of completed frames.
	Frames() uint64

	// Run runs the frame loop on the calling goroutine until the window closes. It must be
	// called from the goroutine that created the window.
	Run()

	// Quit closes the window, ending Run. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine for a window and scene and wires the window input callbacks.
//
// Parameters:
//   - w: the open window
//   - s: the scene to drive
//   - store: the live config
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(w window.Window, s scene.Scene, store *config.Store, options ...EngineBuilderOption) Engine {
	e := &engine{
		window: w,
		scene:  s,
		store:  store,
		logger: common.NopLogger(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	e.bindInput()
	return e
}

// bindInput routes window callbacks. Every callback fires on the frame loop goroutine.
func (e *engine) bindInput() {
	e.window.SetResizeCallback(func(width, height int) {
		e.scene.Renderer().Resize(width, height)
		if height > 0 {
			e.scene.Camera().SetAspect(float32(width) / float32(height))
		}
	})
	if h := e.window.Height(); h > 0 {
		e.scene.Camera().SetAspect(float32(e.window.Width()) / float32(h))
	}

	e.window.SetMouseButtonCallback(func(button window.MouseButton, pressed bool, x, y int32) {
		ctrl := e.scene.Camera().Controller()
		if ctrl == nil || (button != window.MouseButtonLeft && button != window.MouseButtonMiddle) {
			return
		}
		if pressed {
			ctrl.BeginDrag(x, y)
		} else {
			ctrl.EndDrag()
		}
	})

	e.window.SetMouseMoveCallback(func(x, y int32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil && ctrl.Dragging() {
			ctrl.Drag(x, y)
		}
		e.scene.Simulation().Rotation().SetPointer(x, y, e.window.Width(), e.window.Height())
	})

	e.window.SetScrollCallback(func(delta float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})

	e.window.SetKeyDownCallback(e.handleKey)
	e.window.SetUpdateCallback(e.frame)
}

// handleKey applies the keyboard shortcuts to the config store and scene.
func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeyR:
		e.scene.Reset(e.store.Snapshot())
	case common.KeyP:
		e.store.Update(func(c *config.Config) { c.Lifecycle.Paused = !c.Lifecycle.Paused })
	case common.KeyT:
		e.store.Update(func(c *config.Config) { c.Transition.Enabled = !c.Transition.Enabled })
	case common.KeySpace:
		e.store.Update(func(c *config.Config) {
			if c.Particles.Shape == config.ShapeSphere {
				c.Particles.Shape = config.ShapeTriangle
			} else {
				c.Particles.Shape = config.ShapeSphere
			}
		})
	case common.Key1:
		e.store.Update(func(c *config.Config) { c.Particles.Shape = config.ShapeTriangle })
	case common.Key2:
		e.store.Update(func(c *config.Config) { c.Particles.Shape = config.ShapeSphere })
	case common.KeyM:
		e.store.Update(func(c *config.Config) {
			c.Animation.Mode = (c.Animation.Mode + 1) % config.AnimationMode(len(c.Animation.Mode.Names()))
		})
	}
}

// frame runs one step and draw. A panic is logged and the loop keeps going, so a bad
// config edit cannot take the viewer down.
func (e *engine) frame() {
	defer func() {
		if r := recover(); r != nil {
			e.panics++
			e.logger.Errorf("frame %d recovered from panic: %v", e.frames, r)
		}
	}()

	now := time.Now()
	if e.lastFrame.IsZero() {
		e.lastFrame = now
	}
	dt := min(float32(now.Sub(e.lastFrame).Seconds()), maxFrameDelta)
	e.lastFrame = now

	cfg := e.store.Snapshot()
	if e.resetRequested.Swap(false) {
		e.scene.Reset(cfg)
	}
	if ctrl := e.scene.Camera().Controller(); ctrl != nil {
		ctrl.SetSensitivity(cfg.Interaction.OrbitSensitivity, cfg.Interaction.ZoomSpeed)
	}
	e.scene.Update(dt, cfg)

	began, err := e.render()
	if !began {
		// the surface is lost while minimized; the next resize reconfigures it
		e.logger.Debugf("frame %d skipped: %v", e.frames, err)
		return
	}
	if err != nil && e.lastDrawOK {
		e.logger.Errorf("frame %d: %v", e.frames, err)
	}
	e.lastDrawOK = err == nil

	e.mu.Lock()
	e.frames++
	callback := e.frameCallback
	profiling := e.profilingEnabled
	limit := e.renderFrameLimit
	e.mu.Unlock()

	if callback != nil {
		callback(dt)
	}
	if profiling {
		e.profiler.Tick(e.scene.ParticleCount())
	}
	if limit > 0 {
		if remaining := limit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// render records the scene's draws into one frame. Once BeginFrame succeeds the frame is
// always ended and presented, even if a draw panics, so the next BeginFrame finds no open
// surface.
func (e *engine) render() (began bool, err error) {
	r := e.scene.Renderer()
	if err := r.BeginFrame(); err != nil {
		return false, err
	}
	defer func() {
		r.EndFrame()
		r.Present()
	}()
	return true, e.scene.DrawCalls()
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Store() *config.Store {
	return e.store
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) RequestReset() {
	e.resetRequested.Store(true)
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Run() {
	e.lastDrawOK = true
	e.window.ProcessMessages()
	e.logger.Infof("window closed after %d frames", e.Frames())
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if err := e.window.Close(); err != nil {
			e.logger.Warnf("close window: %v", err)
		}
	})
}

// frameLimit converts a frame rate cap into a minimum frame duration.
func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
