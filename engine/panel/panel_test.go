package panel

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPanel(t *testing.T, options ...PanelOption) (*Panel, *Registry, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(120, 30)

	reg := NewRegistry(config.NewStore(config.Default()))
	reg.Register(Defaults([]string{"studio", "rim", "soft"}, []string{"night", "studio", "custom"})...)
	return NewPanel(screen, reg, options...), reg, screen
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func selectKey(t *testing.T, p *Panel, reg *Registry, k string) {
	t.Helper()
	for i, tn := range reg.Tunables() {
		if tn.Key() == k {
			p.selected = i
			return
		}
	}
	t.Fatalf("tunable %s not registered", k)
}

func screenText(screen tcell.SimulationScreen) string {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	for i, c := range cells {
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		} else {
			b.WriteRune(' ')
		}
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func TestDefaults_KeysAreUniqueAndResolve(t *testing.T) {
	tunables := Defaults([]string{"studio"}, []string{"night"})
	cfg := config.Default()

	seen := make(map[string]bool)
	for _, tn := range tunables {
		assert.False(t, seen[tn.Key()], "duplicate %s", tn.Key())
		seen[tn.Key()] = true
		assert.NotEmpty(t, tn.Value(cfg), tn.Key())
	}
	for _, k := range []string{
		"particles.base_scale", "animation.speed", "sampling.density_multiplier",
		"sampling.max_samples_per_triangle", "shading.brightness", "shading.ambient_floor",
		"chroma.offset", "chroma.intensity", "animation.mode", "interaction.rotation_sensitivity",
		"interaction.rotation_easing", "scene.background",
	} {
		assert.True(t, seen[k], "missing %s", k)
	}
}

func TestPanel_ArrowsSelectAndAdjust(t *testing.T) {
	p, reg, _ := newTestPanel(t)

	p.HandleEvent(key(tcell.KeyDown))
	p.HandleEvent(key(tcell.KeyDown))
	assert.Equal(t, 2, p.Selected())
	p.HandleEvent(key(tcell.KeyUp))
	p.HandleEvent(key(tcell.KeyUp))
	p.HandleEvent(key(tcell.KeyUp))
	assert.Zero(t, p.Selected())

	selectKey(t, p, reg, "particles.base_lifetime")
	p.HandleEvent(key(tcell.KeyRight))
	assert.InDelta(t, 1.1, reg.Store().Snapshot().Particles.BaseLifetime, 1e-5)

	p.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))
	assert.InDelta(t, 0.1, reg.Store().Snapshot().Particles.BaseLifetime, 1e-5)
}

func TestPanel_AdjustIsClamped(t *testing.T) {
	p, reg, _ := newTestPanel(t)
	selectKey(t, p, reg, "shading.ambient_floor")
	for range 50 {
		p.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift))
	}
	assert.Equal(t, float32(1), reg.Store().Snapshot().Shading.AmbientFloor)
}

func TestPanel_EnterTogglesAndCycles(t *testing.T) {
	p, reg, _ := newTestPanel(t)

	selectKey(t, p, reg, "chroma.enabled")
	p.HandleEvent(key(tcell.KeyEnter))
	assert.False(t, reg.Store().Snapshot().Chroma.Enabled)

	selectKey(t, p, reg, "animation.mode")
	p.HandleEvent(key(tcell.KeyEnter))
	assert.Equal(t, config.AnimationNoise, reg.Store().Snapshot().Animation.Mode)
	p.HandleEvent(key(tcell.KeyLeft))
	p.HandleEvent(key(tcell.KeyLeft))
	assert.Equal(t, config.AnimationNone, reg.Store().Snapshot().Animation.Mode)
	p.HandleEvent(key(tcell.KeyLeft))
	assert.Equal(t, config.AnimationWave, reg.Store().Snapshot().Animation.Mode)

	selectKey(t, p, reg, "scene.light_preset")
	p.HandleEvent(key(tcell.KeyEnter))
	assert.Equal(t, "rim", reg.Store().Snapshot().Scene.LightPreset)
}

func TestPanel_ColorRotatesHue(t *testing.T) {
	p, reg, _ := newTestPanel(t)
	selectKey(t, p, reg, "trails.color")
	before := reg.Store().Snapshot().Trails.Color.Hex()
	p.HandleEvent(key(tcell.KeyRight))
	assert.NotEqual(t, before, reg.Store().Snapshot().Trails.Color.Hex())

	// Enter does nothing for colors
	after := reg.Store().Snapshot().Trails.Color.Hex()
	p.HandleEvent(key(tcell.KeyEnter))
	assert.Equal(t, after, reg.Store().Snapshot().Trails.Color.Hex())
}

func TestPanel_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.toml")
	p, reg, _ := newTestPanel(t, WithConfigPath(path))

	reg.Store().Update(func(c *config.Config) { c.Shading.Brightness = 2 })
	p.HandleEvent(runeKey('s'))
	assert.Contains(t, p.Status(), "saved")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(2), loaded.Shading.Brightness)

	reg.Store().Update(func(c *config.Config) { c.Shading.Brightness = 0.5 })
	p.HandleEvent(runeKey('r'))
	assert.Contains(t, p.Status(), "reloaded")
	assert.Equal(t, float32(2), reg.Store().Snapshot().Shading.Brightness)
}

func TestPanel_SaveWithoutPath(t *testing.T) {
	p, _, _ := newTestPanel(t)
	p.HandleEvent(runeKey('s'))
	assert.Contains(t, p.Status(), "no config file")
	p.HandleEvent(runeKey('r'))
	assert.Contains(t, p.Status(), "no config file")
}

func TestPanel_ResetAndQuit(t *testing.T) {
	resets := 0
	p, _, _ := newTestPanel(t, WithResetCallback(func() { resets++ }))

	assert.True(t, p.HandleEvent(runeKey('R')))
	assert.Equal(t, 1, resets)

	assert.False(t, p.HandleEvent(runeKey('q')))
	assert.False(t, p.HandleEvent(key(tcell.KeyEscape)))
}

func TestPanel_DrawShowsValues(t *testing.T) {
	p, reg, screen := newTestPanel(t)
	p.Draw()
	text := screenText(screen)
	assert.Contains(t, text, "density_multiplier")
	assert.Zero(t, p.scroll)

	selectKey(t, p, reg, "scene.wireframe_color")
	p.Draw()
	text = screenText(screen)
	assert.Contains(t, text, "wireframe_color")
	assert.Contains(t, text, "#8aa0b8")
	assert.Positive(t, p.scroll, "selection near the end scrolls the list")
}

func TestUint64_NeverNegative(t *testing.T) {
	tn := Uint64("sampling", "seed", func(c *config.Config) *uint64 { return &c.Sampling.Seed })
	cfg := config.Default()
	cfg.Sampling.Seed = 3
	tn.adjust(&cfg, -10)
	assert.Zero(t, cfg.Sampling.Seed)
	tn.adjust(&cfg, 5)
	assert.Equal(t, uint64(5), cfg.Sampling.Seed)
}
