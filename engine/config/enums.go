package config

import (
	"fmt"
	"strings"
)

// CullPolicy selects which triangles the surface resampler skips.
type CullPolicy uint32

const (
	// CullNone samples every triangle regardless of facing.
	CullNone CullPolicy = iota
	// CullBackZ skips triangles whose normalized normal.z is below the cull threshold.
	CullBackZ
	// CullFrontZ skips triangles whose normalized normal.z is above the negated cull threshold.
	CullFrontZ
)

// BaseShape is the per-instance geometry of the particle draw.
type BaseShape uint32

const (
	ShapeTriangle BaseShape = iota
	ShapeSphere
)

// AnimationMode selects the cosmetic per-particle offset strategy.
type AnimationMode uint32

const (
	AnimationNone AnimationMode = iota
	AnimationSine
	AnimationNoise
	AnimationSpiral
	AnimationWave
)

// BlendMode selects how the chroma color recombines with the base color.
// The numeric values are shared with the WGSL source.
type BlendMode uint32

const (
	BlendAdd BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
)

// EmissiveSelection chooses which particles join the emissive subset.
type EmissiveSelection uint32

const (
	EmissiveFirst EmissiveSelection = iota
	EmissiveRandom
)

var (
	cullPolicyNames        = []string{"none", "back_z", "front_z"}
	baseShapeNames         = []string{"triangle", "sphere"}
	animationModeNames     = []string{"none", "sine", "noise", "spiral", "wave"}
	blendModeNames         = []string{"add", "multiply", "screen", "overlay"}
	emissiveSelectionNames = []string{"first", "random"}
)

func enumName(names []string, v uint32) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum(kind string, names []string, text []byte) (uint32, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range names {
		if n == s {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q (want one of %s)", kind, s, strings.Join(names, ", "))
}

func (p CullPolicy) String() string {
	return enumName(cullPolicyNames, uint32(p))
}

func (p CullPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *CullPolicy) UnmarshalText(b []byte) error {
	v, err := parseEnum("cull policy", cullPolicyNames, b)
	if err != nil {
		return err
	}
	*p = CullPolicy(v)
	return nil
}

func (s BaseShape) String() string {
	return enumName(baseShapeNames, uint32(s))
}

func (s BaseShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BaseShape) UnmarshalText(b []byte) error {
	v, err := parseEnum("base shape", baseShapeNames, b)
	if err != nil {
		return err
	}
	*s = BaseShape(v)
	return nil
}

func (m AnimationMode) String() string {
	return enumName(animationModeNames, uint32(m))
}

func (m AnimationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *AnimationMode) UnmarshalText(b []byte) error {
	v, err := parseEnum("animation mode", animationModeNames, b)
	if err != nil {
		return err
	}
	*m = AnimationMode(v)
	return nil
}

func (m BlendMode) String() string {
	return enumName(blendModeNames, uint32(m))
}

func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *BlendMode) UnmarshalText(b []byte) error {
	v, err := parseEnum("blend mode", blendModeNames, b)
	if err != nil {
		return err
	}
	*m = BlendMode(v)
	return nil
}

func (e EmissiveSelection) String() string {
	return enumName(emissiveSelectionNames, uint32(e))
}

func (e EmissiveSelection) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EmissiveSelection) UnmarshalText(b []byte) error {
	v, err := parseEnum("emissive selection", emissiveSelectionNames, b)
	if err != nil {
		return err
	}
	*e = EmissiveSelection(v)
	return nil
}

// Names returns the config spelling of every value, in numeric order.
func (CullPolicy) Names() []string        { return cullPolicyNames }
func (BaseShape) Names() []string         { return baseShapeNames }
func (AnimationMode) Names() []string     { return animationModeNames }
func (BlendMode) Names() []string         { return blendModeNames }
func (EmissiveSelection) Names() []string { return emissiveSelectionNames }
