package config

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB color stored as a "#rrggbb" hex string in config files.
type Color struct {
	c colorful.Color
}

// RGB builds a Color from components in [0, 1].
func RGB(r, g, b float64) Color {
	return Color{c: colorful.Color{R: r, G: g, B: b}.Clamped()}
}

// MustHex parses a hex color and panics on malformed input. Intended for defaults.
func MustHex(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColor parses "#rgb" or "#rrggbb".
//
// Parameters:
//   - s: the hex string
//
// Returns:
//   - Color: the parsed color
//   - error: error if s is not a valid hex color
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{c: c}, nil
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return c.c.Clamped().Hex()
}

// Vec3 returns the color components as float32 in [0, 1].
func (c Color) Vec3() [3]float32 {
	cl := c.c.Clamped()
	return [3]float32{float32(cl.R), float32(cl.G), float32(cl.B)}
}

// RGBA8 returns 8-bit components with full alpha.
func (c Color) RGBA8() (r, g, b, a uint8) {
	r, g, b = c.c.Clamped().RGB255()
	return r, g, b, 255
}

// Blend mixes toward other in the perceptual Lab space by t in [0, 1].
func (c Color) Blend(other Color, t float64) Color {
	return Color{c: c.c.BlendLab(other.c, t).Clamped()}
}

// RotateHue turns the hue by deg degrees, keeping saturation and value.
func (c Color) RotateHue(deg float64) Color {
	h, s, v := c.c.Hsv()
	h = math.Mod(h+deg, 360)
	if h < 0 {
		h += 360
	}
	return Color{c: colorful.Hsv(h, s, v).Clamped()}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) String() string {
	return c.Hex()
}
