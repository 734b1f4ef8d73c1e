package transition

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Transition {
	return config.Transition{
		Enabled:            true,
		RevealDuration:     2,
		HoldDuration:       1,
		TransitionDuration: 2,
		LoopDelay:          3,
		EdgeSoftness:       0.1,
	}
}

func TestController_Phases(t *testing.T) {
	cfg := testConfig()
	c := NewController()

	s := c.Update(1, cfg)
	assert.Equal(t, PhaseWireframeReveal, s.Phase)
	assert.InDelta(t, 0.5, s.RevealHeight, 1e-6)
	assert.Equal(t, float32(1), s.WireframeOpacity)
	assert.Equal(t, float32(0), s.ParticleOpacity)

	s = c.Update(1.5, cfg)
	assert.Equal(t, PhaseWireframeHold, s.Phase)
	assert.Equal(t, float32(1), s.RevealHeight)
	assert.InDelta(t, 0.5, s.PhaseProgress, 1e-6)

	s = c.Update(1, cfg)
	require.Equal(t, PhaseTransition, s.Phase)
	assert.InDelta(t, 0.25, s.ParticleOpacity, 1e-6)
	assert.InDelta(t, 0.75, s.WireframeOpacity, 1e-6)
	assert.InDelta(t, 0.25, s.ParticleReveal, 1e-6)

	s = c.Update(10, cfg)
	assert.Equal(t, ParticlesOnly.Phase, s.Phase)
	assert.Equal(t, float32(1), s.ParticleOpacity)
	assert.Equal(t, float32(0), s.WireframeOpacity)

	s = c.Update(100, cfg)
	assert.Equal(t, PhaseParticlesOnly, s.Phase, "without loop the controller stays put")
	assert.Equal(t, 0, c.Loops())
}

func TestController_Loop(t *testing.T) {
	cfg := testConfig()
	cfg.Loop = true
	c := NewController()

	c.Update(5, cfg) // through reveal, hold and transition
	s := c.Update(1, cfg)
	assert.Equal(t, PhaseParticlesOnly, s.Phase)
	assert.InDelta(t, 1.0/3.0, s.PhaseProgress, 1e-6)

	s = c.Update(2.5, cfg)
	assert.Equal(t, PhaseWireframeReveal, s.Phase)
	assert.InDelta(t, 0.25, s.RevealHeight, 1e-6)
	assert.Equal(t, 1, c.Loops())
}

func TestController_DisabledAndZeroDurations(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewController()
	assert.Equal(t, ParticlesOnly, c.Update(0.1, cfg))

	zero := config.Transition{Enabled: true, Loop: true}
	s := c.Update(0.016, zero)
	assert.Equal(t, PhaseParticlesOnly, s.Phase, "zero durations are skipped, zero-length loops do not spin")
	assert.Equal(t, 0, c.Loops())

	c.Reset()
	s = c.State(testConfig())
	assert.Equal(t, PhaseWireframeReveal, s.Phase)
	assert.Equal(t, float32(0), s.RevealHeight)
}

func TestRevealMask(t *testing.T) {
	for _, h := range []float32{0, 0.5, 1} {
		assert.Equal(t, float32(0), RevealMask(h, 0, 0.1))
		assert.Equal(t, float32(1), RevealMask(h, 1, 0.1))
	}

	// with no softness the mask is a hard step at 1-reveal
	assert.Equal(t, float32(1), RevealMask(0.8, 0.3, 0))
	assert.Equal(t, float32(1), RevealMask(0.7, 0.3, 0))
	assert.Equal(t, float32(0), RevealMask(0.6, 0.3, 0))

	// the top is revealed first and the mask never decreases with height
	prev := float32(0)
	for i := 0; i <= 20; i++ {
		m := RevealMask(float32(i)/20, 0.4, 0.15)
		assert.GreaterOrEqual(t, m, prev)
		prev = m
	}
	assert.Equal(t, float32(1), RevealMask(1, 0.4, 0.15))
	assert.Equal(t, float32(0), RevealMask(0, 0.4, 0.15))
}

func TestHeight01(t *testing.T) {
	assert.Equal(t, float32(0.5), Height01(1, 0, 2))
	assert.Equal(t, float32(0), Height01(-5, 0, 2))
	assert.Equal(t, float32(1), Height01(3, 2, 2))
	assert.Equal(t, "transition", PhaseTransition.String())
}
