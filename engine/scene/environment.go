package scene

import (
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/cogentcore/webgpu/wgpu"
)

// CustomEnvironment selects config.Scene.Background instead of a preset backdrop.
const CustomEnvironment = "custom"

// Environment is the backdrop the face is drawn over.
type Environment struct {
	Name       string
	Background config.Color
}

var environments = map[string]Environment{
	"night":  {Name: "night", Background: config.MustHex("#0b0d12")},
	"studio": {Name: "studio", Background: config.MustHex("#1c1f26")},
	"dusk":   {Name: "dusk", Background: config.MustHex("#261c2a")},
	"void":   {Name: "void", Background: config.MustHex("#000000")},
}

// EnvironmentFor resolves the environment named by a scene config. CustomEnvironment and
// unknown names use the configured background color.
//
// Parameters:
//   - sc: the scene config section
//
// Returns:
//   - Environment: the resolved environment
//   - bool: false if the name was neither a preset nor CustomEnvironment
func EnvironmentFor(sc config.Scene) (Environment, bool) {
	if env, ok := environments[sc.Environment]; ok {
		return env, true
	}
	return Environment{Name: CustomEnvironment, Background: sc.Background}, sc.Environment == CustomEnvironment
}

// Environments returns the preset names in sorted order, followed by CustomEnvironment.
func Environments() []string {
	return append(slices.Sorted(maps.Keys(environments)), CustomEnvironment)
}

// ClearColor returns the background as the render pass clear value.
func (e Environment) ClearColor() wgpu.Color {
	c := e.Background.Vec3()
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}
}
