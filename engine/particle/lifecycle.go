package particle

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
)

// ReferenceRate is the frame rate the per-frame lifecycle speed is tuned for.
const ReferenceRate = 60

// LifecyclePhase is the stage of a particle's life. It is a pure function of life.
type LifecyclePhase int

const (
	PhaseGrowing LifecyclePhase = iota
	PhaseStable
	PhaseShrinking
	PhaseDead
)

func (p LifecyclePhase) String() string {
	switch p {
	case PhaseGrowing:
		return "growing"
	case PhaseStable:
		return "stable"
	case PhaseShrinking:
		return "shrinking"
	default:
		return "dead"
	}
}

// PhaseOf classifies life against the grow and shrink boundaries.
//
// Parameters:
//   - life: normalized life
//   - growEnd: end of the growing phase
//   - shrinkStart: start of the shrinking phase
//
// Returns:
//   - LifecyclePhase: the phase
func PhaseOf(life, growEnd, shrinkStart float32) LifecyclePhase {
	switch {
	case life >= 1:
		return PhaseDead
	case life < growEnd:
		return PhaseGrowing
	case life < shrinkStart:
		return PhaseStable
	default:
		return PhaseShrinking
	}
}

// PhaseScale returns the smoothstep-eased size factor for life. It is 0 at life 0,
// rises to 1 by growEnd, holds until shrinkStart and falls back to 0 at life 1.
// The fragment shader mirrors it for the lifecycle alpha.
//
// Parameters:
//   - life: normalized life
//   - growEnd: end of the growing phase
//   - shrinkStart: start of the shrinking phase
//
// Returns:
//   - float32: the scale factor in [0, 1]
func PhaseScale(life, growEnd, shrinkStart float32) float32 {
	switch PhaseOf(life, growEnd, shrinkStart) {
	case PhaseGrowing:
		return common.Smoothstep(life / growEnd)
	case PhaseStable:
		return 1
	case PhaseShrinking:
		return 1 - common.Smoothstep((life-shrinkStart)/(1-shrinkStart))
	default:
		return 0
	}
}

// FrameParams carries everything a per-frame update reads.
type FrameParams struct {
	// DeltaTime is the seconds since the previous frame.
	DeltaTime float32
	// Elapsed is the seconds since the scene started.
	Elapsed float32
	// Config is the snapshot taken for this frame.
	Config config.Config
}

// Lifecycle advances particle life and recomputes scale. It holds no particle state.
type Lifecycle struct {
	wraps int
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Update advances every particle of store by one frame. Each step adds
// Speed * AnimationSpeed * (dt * ReferenceRate) / maxLife to life, and life wraps to
// exactly 0 once it reaches 1. Scale is then BaseScale * PhaseScale, multiplied by
// EmissiveMultiplier for emissive particles. A paused lifecycle still refreshes scale so
// config edits show immediately.
//
// Parameters:
//   - store: the particle arena
//   - frame: the frame timing and config snapshot
func (l *Lifecycle) Update(store *Store, frame FrameParams) {
	lc := frame.Config.Lifecycle
	pc := frame.Config.Particles

	var rate float32
	if !lc.Paused && frame.DeltaTime > 0 {
		rate = lc.Speed * frame.Config.Animation.Speed * frame.DeltaTime * ReferenceRate
	}

	for i := range store.life {
		life := store.life[i]
		if rate > 0 {
			life += rate / store.maxLife[i]
			if life >= 1 {
				life = 0
				l.wraps++
			}
			store.life[i] = life
		}

		scale := pc.BaseScale * PhaseScale(life, lc.GrowEnd, lc.ShrinkStart)
		if store.emissive[i] {
			scale *= pc.EmissiveMultiplier
		}
		store.scale[i] = scale
	}
	store.dirty = true
}

// Wraps returns how many particle rebirths Update has performed.
func (l *Lifecycle) Wraps() int {
	return l.wraps
}
