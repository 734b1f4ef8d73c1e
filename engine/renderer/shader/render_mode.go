package shader

import "github.com/cogentcore/webgpu/wgpu"

// RenderMode selects which path of the shared face shader a draw takes. It is written into
// the scene uniform, so one pipeline per mode shares a single shader module.
type RenderMode uint32

const (
	// RenderModeParticles draws the instanced base shape once per particle.
	RenderModeParticles RenderMode = iota

	// RenderModeWireframe draws the raw mesh edges as a line list.
	RenderModeWireframe

	// RenderModeTrail draws the trail actors as a line list.
	RenderModeTrail
)

// RenderModes lists every mode in draw order.
var RenderModes = []RenderMode{RenderModeWireframe, RenderModeParticles, RenderModeTrail}

func (m RenderMode) String() string {
	switch m {
	case RenderModeParticles:
		return "particles"
	case RenderModeWireframe:
		return "wireframe"
	case RenderModeTrail:
		return "trail"
	default:
		return "unknown"
	}
}

// Topology returns the primitive topology the mode's pipeline is built with.
func (m RenderMode) Topology() wgpu.PrimitiveTopology {
	if m == RenderModeParticles {
		return wgpu.PrimitiveTopologyTriangleList
	}
	return wgpu.PrimitiveTopologyLineList
}

// Instanced reports whether the mode reads the per-instance storage arrays.
func (m RenderMode) Instanced() bool {
	return m == RenderModeParticles
}
