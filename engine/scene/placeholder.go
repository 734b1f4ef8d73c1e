package scene

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/instancer"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// PlaceholderName is the SourceMesh name of the placeholder sphere.
	PlaceholderName = "placeholder"
	// PlaceholderRadius roughly matches the size of a face mesh in meters.
	PlaceholderRadius = 0.12

	placeholderWidthSegments  = 24
	placeholderHeightSegments = 16
)

// PlaceholderMesh returns the UV sphere drawn as a gray wireframe while no face mesh is
// available, either because the load is still running or because it failed.
//
// Returns:
//   - model.SourceMesh: the sphere centered on the origin
func PlaceholderMesh() model.SourceMesh {
	verts, indices := instancer.SphereGeometry(placeholderWidthSegments, placeholderHeightSegments)
	positions := make([]mgl32.Vec3, len(verts))
	uvs := make([][2]float32, len(verts))
	for i, v := range verts {
		positions[i] = mgl32.Vec3(v.Position).Mul(PlaceholderRadius)
		uvs[i] = v.UV
	}
	return model.NewSourceMesh(
		model.WithName(PlaceholderName),
		model.WithPositions(positions),
		model.WithUVs(uvs),
		model.WithIndices(indices),
	)
}
