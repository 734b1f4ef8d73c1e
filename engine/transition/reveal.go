package transition

import "github.com/Carmen-Shannon/oxy-particles/common"

// Height01 normalizes a model-space height against the mesh's vertical extent. A flat
// mesh reports 1 everywhere.
//
// Parameters:
//   - y: the height to normalize
//   - minY: the bottom of the mesh bounds
//   - maxY: the top of the mesh bounds
//
// Returns:
//   - float32: the height in [0, 1]
func Height01(y, minY, maxY float32) float32 {
	if maxY <= minY {
		return 1
	}
	return common.Clamp((y-minY)/(maxY-minY), 0, 1)
}

// RevealMask is the top-to-bottom wipe shared by the wireframe and particle paths. It is 1
// where height01 >= 1-reveal, 0 well below that, and ramps over softness in between. A
// reveal of 0 hides everything and 1 shows everything regardless of softness.
//
// Parameters:
//   - height01: the normalized height from Height01
//   - reveal: the reveal progress in [0, 1]
//   - softness: the width of the ramp in normalized height
//
// Returns:
//   - float32: the mask in [0, 1]
func RevealMask(height01, reveal, softness float32) float32 {
	if reveal <= 0 {
		return 0
	}
	if reveal >= 1 {
		return 1
	}
	softness = max(softness, 0)
	edge := 1 - reveal*(1+softness)
	if softness == 0 {
		if height01 >= edge {
			return 1
		}
		return 0
	}
	return common.SmoothstepRange(edge, edge+softness, height01)
}
