// Package transition drives the wireframe-to-particles overlay: a wireframe of the raw mesh
// is revealed top to bottom, held, then crossfaded into the particle cloud through the same
// height mask.
package transition

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
)

// Phase is one step of the overlay state machine.
type Phase int

const (
	// PhaseWireframeReveal sweeps the wireframe in from the top of the mesh.
	PhaseWireframeReveal Phase = iota
	// PhaseWireframeHold shows the full wireframe alone.
	PhaseWireframeHold
	// PhaseTransition fades the wireframe out while particles are revealed top to bottom.
	PhaseTransition
	// PhaseParticlesOnly shows only particles. With looping enabled it lasts LoopDelay.
	PhaseParticlesOnly
)

var phaseNames = [...]string{"wireframe_reveal", "wireframe_hold", "transition", "particles_only"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// State is what both draw paths read for one frame.
type State struct {
	Phase Phase
	// PhaseProgress is the normalized time spent in Phase.
	PhaseProgress float32
	// RevealHeight is the wireframe reveal, 0 to 1 during the reveal phase and 1 afterwards.
	RevealHeight float32
	// WireframeOpacity falls from 1 to 0 during the transition phase.
	WireframeOpacity float32
	// ParticleOpacity rises from 0 to 1 during the transition phase.
	ParticleOpacity float32
	// ParticleReveal sweeps particles in from the top during the transition phase.
	ParticleReveal float32
}

// ParticlesOnly is the state reported when the overlay is disabled.
var ParticlesOnly = State{
	Phase:            PhaseParticlesOnly,
	PhaseProgress:    1,
	RevealHeight:     1,
	WireframeOpacity: 0,
	ParticleOpacity:  1,
	ParticleReveal:   1,
}

// maxPhaseSteps bounds how many phase boundaries one Update may cross.
const maxPhaseSteps = 8

// Controller is the overlay state machine. It only tracks the current phase and the time
// spent in it; durations come from the config passed to every call.
type Controller struct {
	phase   Phase
	elapsed float32
	loops   int
}

// NewController creates a Controller at the start of the wireframe reveal.
func NewController() *Controller {
	return &Controller{}
}

// Reset restarts the overlay at the wireframe reveal.
func (c *Controller) Reset() {
	c.phase = PhaseWireframeReveal
	c.elapsed = 0
}

// Loops returns how many times the overlay restarted after particles_only.
func (c *Controller) Loops() int {
	return c.loops
}

// Update advances the overlay by dt seconds and returns the state for this frame. Phases
// with zero duration are passed through within the same call.
//
// Parameters:
//   - dt: seconds since the previous frame
//   - cfg: the transition config snapshot for this frame
//
// Returns:
//   - State: the overlay state after advancing
func (c *Controller) Update(dt float32, cfg config.Transition) State {
	if !cfg.Enabled {
		return ParticlesOnly
	}
	if dt > 0 {
		c.elapsed += dt
	}

	for range maxPhaseSteps {
		d, finite := duration(c.phase, cfg)
		if !finite || c.elapsed < d {
			break
		}
		if c.phase == PhaseParticlesOnly && !loopable(cfg) {
			break
		}
		c.elapsed -= d
		if c.phase == PhaseParticlesOnly {
			c.phase = PhaseWireframeReveal
			c.loops++
		} else {
			c.phase++
		}
	}
	return c.State(cfg)
}

// State returns the state for the current phase and time without advancing.
//
// Parameters:
//   - cfg: the transition config snapshot
//
// Returns:
//   - State: the overlay state
func (c *Controller) State(cfg config.Transition) State {
	if !cfg.Enabled {
		return ParticlesOnly
	}

	d, finite := duration(c.phase, cfg)
	p := float32(1)
	if finite && d > 0 {
		p = common.Clamp(c.elapsed/d, 0, 1)
	}

	switch c.phase {
	case PhaseWireframeReveal:
		return State{Phase: c.phase, PhaseProgress: p, RevealHeight: p, WireframeOpacity: 1}
	case PhaseWireframeHold:
		return State{Phase: c.phase, PhaseProgress: p, RevealHeight: 1, WireframeOpacity: 1}
	case PhaseTransition:
		return State{
			Phase:            c.phase,
			PhaseProgress:    p,
			RevealHeight:     1,
			WireframeOpacity: 1 - p,
			ParticleOpacity:  p,
			ParticleReveal:   p,
		}
	default:
		s := ParticlesOnly
		s.PhaseProgress = p
		return s
	}
}

// duration returns how long phase lasts. particles_only is unbounded unless looping.
func duration(phase Phase, cfg config.Transition) (float32, bool) {
	switch phase {
	case PhaseWireframeReveal:
		return max(cfg.RevealDuration, 0), true
	case PhaseWireframeHold:
		return max(cfg.HoldDuration, 0), true
	case PhaseTransition:
		return max(cfg.TransitionDuration, 0), true
	default:
		if cfg.Loop {
			return max(cfg.LoopDelay, 0), true
		}
		return 0, false
	}
}

// loopable rejects a loop whose full cycle takes no time, which would restart every frame.
func loopable(cfg config.Transition) bool {
	return cfg.Loop && cfg.RevealDuration+cfg.HoldDuration+cfg.TransitionDuration+cfg.LoopDelay > 0
}
