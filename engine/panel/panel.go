// Package panel is the terminal tuning panel of the face viewer. It lists every Tunable of
// a Registry on a tcell screen and writes edits straight into the live config.Store, which
// the render loop snapshots once per frame.
package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/gdamore/tcell/v2"
)

const (
	// coarseSteps is the multiplier applied to an adjustment while Shift is held.
	coarseSteps = 10
	// pageRows is how far PgUp and PgDn move the selection.
	pageRows = 10
	// refreshInterval redraws the panel so edits from the file watcher show up.
	refreshInterval = 100 * time.Millisecond

	helpLine = "up/down select  left/right adjust (shift x10)  enter toggle  s save  r reload  R reset  q quit"
)

var (
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleSection  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleRow      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorAqua)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleError    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// Panel draws a Registry on a tcell screen and routes key events to it.
// HandleEvent and Draw must be called from one goroutine; Run does both.
type Panel struct {
	screen   tcell.Screen
	registry *Registry
	logger   common.Logger

	configPath string
	onReset    func()

	selected int
	scroll   int
	status   string
	failed   bool
}

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithLogger sets the logger that records saves, reloads and failures.
func WithLogger(logger common.Logger) PanelOption {
	return func(p *Panel) {
		p.logger = logger
	}
}

// WithConfigPath sets the TOML file s saves to and r reloads from.
func WithConfigPath(path string) PanelOption {
	return func(p *Panel) {
		p.configPath = path
	}
}

// WithResetCallback sets the function R calls. It runs on the panel goroutine, so it
// should only request a reset from the render loop.
func WithResetCallback(fn func()) PanelOption {
	return func(p *Panel) {
		p.onReset = fn
	}
}

// NewPanel creates a Panel on an initialized screen.
//
// Parameters:
//   - screen: the tcell screen, already Init'ed
//   - registry: the tunables to show
//   - options: functional options
//
// Returns:
//   - *Panel: the panel
func NewPanel(screen tcell.Screen, registry *Registry, options ...PanelOption) *Panel {
	p := &Panel{
		screen:   screen,
		registry: registry,
		logger:   common.NopLogger(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Selected returns the index of the highlighted tunable.
func (p *Panel) Selected() int {
	return p.selected
}

// Status returns the message on the bottom line.
func (p *Panel) Status() string {
	return p.status
}

func (p *Panel) setStatus(failed bool, format string, args ...any) {
	p.status = fmt.Sprintf(format, args...)
	p.failed = failed
	if failed {
		p.logger.Warnf("panel: %s", p.status)
	} else {
		p.logger.Infof("panel: %s", p.status)
	}
}

// HandleEvent applies one tcell event.
//
// Parameters:
//   - ev: the event from PollEvent
//
// Returns:
//   - bool: false when the user asked to quit the panel
func (p *Panel) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return p.handleKey(ev)
	case *tcell.EventResize:
		p.screen.Sync()
	}
	return true
}

func (p *Panel) handleKey(ev *tcell.EventKey) bool {
	steps := 1
	if ev.Modifiers()&tcell.ModShift != 0 {
		steps = coarseSteps
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		p.moveSelection(-1)
	case tcell.KeyDown:
		p.moveSelection(1)
	case tcell.KeyPgUp:
		p.moveSelection(-pageRows)
	case tcell.KeyPgDn:
		p.moveSelection(pageRows)
	case tcell.KeyLeft:
		p.registry.Adjust(p.selected, -steps)
	case tcell.KeyRight:
		p.registry.Adjust(p.selected, steps)
	case tcell.KeyEnter:
		p.registry.Activate(p.selected)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 's':
			p.save()
		case 'r':
			p.reload()
		case 'R':
			if p.onReset != nil {
				p.onReset()
			}
			p.setStatus(false, "reset")
		}
	}
	return true
}

func (p *Panel) moveSelection(delta int) {
	n := p.registry.Len()
	if n == 0 {
		return
	}
	p.selected = common.Clamp(p.selected+delta, 0, n-1)
}

func (p *Panel) save() {
	if p.configPath == "" {
		p.setStatus(true, "no config file to save to (start with -config)")
		return
	}
	if err := config.Save(p.configPath, p.registry.Store().Snapshot()); err != nil {
		p.setStatus(true, "save failed: %v", err)
		return
	}
	p.setStatus(false, "saved %s", p.configPath)
}

func (p *Panel) reload() {
	if p.configPath == "" {
		p.setStatus(true, "no config file to reload (start with -config)")
		return
	}
	cfg, err := config.Load(p.configPath)
	if err != nil {
		p.setStatus(true, "reload failed: %v", err)
		return
	}
	p.registry.Store().Replace(cfg)
	p.setStatus(false, "reloaded %s", p.configPath)
}

// Draw renders the tunable list and the status line, then shows the screen.
func (p *Panel) Draw() {
	p.screen.Clear()
	width, height := p.screen.Size()
	cfg := p.registry.Store().Snapshot()
	tunables := p.registry.Tunables()

	drawText(p.screen, 0, 0, width, styleTitle, helpLine)

	rows := max(height-2, 0)
	if p.selected < p.scroll {
		p.scroll = p.selected
	}
	if rows > 0 && p.selected >= p.scroll+rows {
		p.scroll = p.selected - rows + 1
	}

	nameWidth := 0
	for _, t := range tunables {
		nameWidth = max(nameWidth, len(t.Name))
	}

	for row := 0; row < rows && p.scroll+row < len(tunables); row++ {
		i := p.scroll + row
		t := tunables[i]
		y := row + 1

		style := styleRow
		if i == p.selected {
			style = styleSelected
		}
		x := drawText(p.screen, 0, y, width, styleSection, fmt.Sprintf("%-12s", t.Section))
		x = drawText(p.screen, x, y, width, style, fmt.Sprintf(" %-*s ", nameWidth, t.Name))
		x = drawText(p.screen, x, y, width, style, " "+t.Value(cfg)+" ")
		if c, ok := colorOf(t, cfg); ok {
			r, g, b, _ := c.RGBA8()
			swatch := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
			drawText(p.screen, x+1, y, width, swatch, "████")
		}
	}

	if height > 1 {
		style := styleStatus
		if p.failed {
			style = styleError
		}
		drawText(p.screen, 0, height-1, width, style, p.status)
	}
	p.screen.Show()
}

// Run draws and handles events until ctx is done or the user quits. The caller owns the
// screen and calls Fini afterwards.
//
// Parameters:
//   - ctx: cancels the loop
func (p *Panel) Run(ctx context.Context) {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				// Fini was called
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	p.Draw()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || !p.HandleEvent(ev) {
				return
			}
			p.Draw()
		case <-ticker.C:
			p.Draw()
		}
	}
}

// drawText writes s from x on row y, clipped to width, and returns the column after it.
func drawText(screen tcell.Screen, x, y, width int, style tcell.Style, s string) int {
	for _, r := range s {
		if x >= width {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
