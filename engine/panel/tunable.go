package panel

import (
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
)

// Kind is the editor a Tunable is shown with.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindEnum
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindColor:
		return "color"
	default:
		return "unknown"
	}
}

// colorHueStep is the hue rotation in degrees of one color adjustment.
const colorHueStep = 10

// Tunable is one editable config value. Adjust and Activate mutate the Config handed to
// them; the Registry routes that through config.Store so the result is clamped.
type Tunable struct {
	Section string
	Name    string
	Kind    Kind

	value    func(cfg *config.Config) string
	adjust   func(cfg *config.Config, steps int)
	activate func(cfg *config.Config)
}

// Key returns "section.name", the dotted TOML path of the value.
func (t Tunable) Key() string {
	return t.Section + "." + t.Name
}

// Value formats the current value of the tunable in cfg.
func (t Tunable) Value(cfg config.Config) string {
	return t.value(&cfg)
}

// Float binds a float32 field. One adjustment step adds step.
//
// Parameters:
//   - section: the config section name
//   - name: the field name
//   - step: the increment of one arrow press
//   - field: returns the field inside a Config
//
// Returns:
//   - Tunable: the float tunable
func Float(section, name string, step float32, field func(*config.Config) *float32) Tunable {
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindFloat,
		value: func(cfg *config.Config) string {
			return strconv.FormatFloat(float64(*field(cfg)), 'g', 4, 32)
		},
		adjust: func(cfg *config.Config, steps int) {
			*field(cfg) += step * float32(steps)
		},
	}
}

// Int binds an int field.
func Int(section, name string, step int, field func(*config.Config) *int) Tunable {
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindInt,
		value: func(cfg *config.Config) string {
			return strconv.Itoa(*field(cfg))
		},
		adjust: func(cfg *config.Config, steps int) {
			*field(cfg) += step * steps
		},
	}
}

// Uint64 binds a uint64 field such as the sampling seed. It never goes below zero.
func Uint64(section, name string, field func(*config.Config) *uint64) Tunable {
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindInt,
		value: func(cfg *config.Config) string {
			return strconv.FormatUint(*field(cfg), 10)
		},
		adjust: func(cfg *config.Config, steps int) {
			v := field(cfg)
			if steps < 0 && uint64(-steps) > *v {
				*v = 0
				return
			}
			*v = uint64(int64(*v) + int64(steps))
		},
	}
}

// Bool binds a bool field. Enter and either arrow toggle it.
func Bool(section, name string, field func(*config.Config) *bool) Tunable {
	toggle := func(cfg *config.Config) {
		v := field(cfg)
		*v = !*v
	}
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindBool,
		value: func(cfg *config.Config) string {
			if *field(cfg) {
				return "on"
			}
			return "off"
		},
		adjust:   func(cfg *config.Config, _ int) { toggle(cfg) },
		activate: toggle,
	}
}

// Enum binds one of the config enums. Arrows step through the values and wrap, Enter
// cycles forward.
func Enum[E interface {
	~uint32
	fmt.Stringer
	Names() []string
}](section, name string, field func(*config.Config) *E) Tunable {
	step := func(cfg *config.Config, steps int) {
		v := field(cfg)
		n := len((*v).Names())
		*v = E(((int(*v)+steps)%n + n) % n)
	}
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindEnum,
		value: func(cfg *config.Config) string {
			return (*field(cfg)).String()
		},
		adjust:   step,
		activate: func(cfg *config.Config) { step(cfg, 1) },
	}
}

// Choice binds a string field to a fixed list of names, such as the light and
// environment presets. A value outside the list steps to the first name.
func Choice(section, name string, names []string, field func(*config.Config) *string) Tunable {
	step := func(cfg *config.Config, steps int) {
		if len(names) == 0 {
			return
		}
		v := field(cfg)
		i := -1
		for j, n := range names {
			if n == *v {
				i = j
				break
			}
		}
		if i < 0 {
			*v = names[0]
			return
		}
		n := len(names)
		*v = names[((i+steps)%n+n)%n]
	}
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindEnum,
		value: func(cfg *config.Config) string {
			return *field(cfg)
		},
		adjust:   step,
		activate: func(cfg *config.Config) { step(cfg, 1) },
	}
}

// Color binds a color field. Arrows rotate the hue.
func Color(section, name string, field func(*config.Config) *config.Color) Tunable {
	return Tunable{
		Section: section,
		Name:    name,
		Kind:    KindColor,
		value: func(cfg *config.Config) string {
			return field(cfg).Hex()
		},
		adjust: func(cfg *config.Config, steps int) {
			c := field(cfg)
			*c = c.RotateHue(float64(steps * colorHueStep))
		},
	}
}

// colorOf returns the color behind a KindColor tunable for the swatch.
func colorOf(t Tunable, cfg config.Config) (config.Color, bool) {
	if t.Kind != KindColor {
		return config.Color{}, false
	}
	c, err := config.ParseColor(t.Value(cfg))
	return c, err == nil
}
