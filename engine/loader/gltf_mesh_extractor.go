package loader

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// Extraction errors.
var (
	// ErrNoMesh is returned when a document holds no usable triangle primitive.
	ErrNoMesh = errors.New("no triangle mesh found")

	// ErrUnsupportedFormat is returned for bytes that are neither GLB nor glTF JSON.
	ErrUnsupportedFormat = errors.New("unsupported asset format")

	// ErrUnsupportedCompression is returned when the only geometry is compressed with an
	// extension this loader cannot decode.
	ErrUnsupportedCompression = errors.New("unsupported mesh compression")
)

// SelectPolicy decides which primitive of a multi-mesh document becomes the SourceMesh.
type SelectPolicy int

const (
	// SelectLargest picks the primitive with the most vertices, preferring textured ones.
	SelectLargest SelectPolicy = iota
	// SelectFirst picks the first textured triangle primitive, or the first triangle
	// primitive when none is textured.
	SelectFirst
)

func (p SelectPolicy) String() string {
	switch p {
	case SelectFirst:
		return "first"
	default:
		return "largest"
	}
}

// ExtractReport describes what Extract found and what it had to do without.
type ExtractReport struct {
	// MeshName is the glTF name of the chosen mesh.
	MeshName string
	// MeshIndex and PrimitiveIndex locate the chosen primitive in the document.
	MeshIndex, PrimitiveIndex int
	// Candidates is the number of triangle primitives considered.
	Candidates int
	// Skipped counts primitives that were not triangles or were compressed.
	Skipped int

	HasUV      bool
	HasTexture bool
	Indexed    bool

	// Partial is set when UVs or the texture are missing. It is not an error.
	Partial bool
	// TextureErr holds the reason a declared texture could not be loaded.
	TextureErr error
	// Sampler is the texture sampler from the document, or the default.
	Sampler common.SamplerStagingData
}

type primitiveRef struct {
	mesh, prim int
	vertices   int
	textureIdx int
}

// Extract picks one triangle primitive from doc and returns it as a SourceMesh in local
// space. POSITION is required; TEXCOORD_0 and the base color texture are optional and
// their absence only marks the report Partial. Non-triangle primitives are skipped and
// a primitive without an index accessor keeps implied sequential triangles.
//
// Parameters:
//   - doc: the parsed document
//   - policy: the primitive selection policy
//
// Returns:
//   - model.SourceMesh: the extracted mesh
//   - ExtractReport: what was found
//   - error: ErrNoMesh, ErrUnsupportedCompression or a wrapped accessor error
func Extract(doc *Document, policy SelectPolicy) (model.SourceMesh, ExtractReport, error) {
	report := ExtractReport{Sampler: common.DefaultSamplerData()}
	if doc == nil || doc.gltf == nil {
		return nil, report, ErrNoMesh
	}

	var candidates []primitiveRef
	sawCompressed := slices.Contains(doc.gltf.ExtensionsRequired, gltfExtDraco)
	for mi := range doc.gltf.Meshes {
		for pi := range doc.gltf.Meshes[mi].Primitives {
			prim := &doc.gltf.Meshes[mi].Primitives[pi]
			if prim.mode() != gltfPrimitiveModeTriangles {
				report.Skipped++
				continue
			}
			if _, ok := prim.Extensions[gltfExtDraco]; ok {
				sawCompressed = true
				report.Skipped++
				continue
			}
			posIdx, ok := prim.Attributes[gltfAttributePosition]
			if !ok {
				report.Skipped++
				continue
			}
			acc, err := doc.accessor(posIdx)
			if err != nil {
				report.Skipped++
				continue
			}
			candidates = append(candidates, primitiveRef{
				mesh:       mi,
				prim:       pi,
				vertices:   acc.Count,
				textureIdx: doc.baseColorTextureIndex(prim.Material),
			})
		}
	}

	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		if sawCompressed {
			return nil, report, fmt.Errorf("%w: %s", ErrUnsupportedCompression, gltfExtDraco)
		}
		return nil, report, ErrNoMesh
	}

	chosen := selectPrimitive(candidates, policy)
	mesh := &doc.gltf.Meshes[chosen.mesh]
	prim := &mesh.Primitives[chosen.prim]
	report.MeshName = mesh.Name
	report.MeshIndex = chosen.mesh
	report.PrimitiveIndex = chosen.prim

	positions, err := doc.readVec3Accessor(prim.Attributes[gltfAttributePosition])
	if err != nil {
		return nil, report, fmt.Errorf("mesh %d primitive %d: failed to read positions: %w", chosen.mesh, chosen.prim, err)
	}
	verts := make([]mgl32.Vec3, len(positions))
	for i, p := range positions {
		verts[i] = mgl32.Vec3(p)
	}

	options := []model.SourceMeshOption{
		model.WithName(meshName(mesh.Name, chosen.mesh)),
		model.WithPositions(verts),
	}

	if uvIdx, ok := prim.Attributes[gltfAttributeTexCoord0]; ok {
		uvs, err := doc.readVec2Accessor(uvIdx)
		if err != nil {
			return nil, report, fmt.Errorf("mesh %d primitive %d: failed to read texcoords: %w", chosen.mesh, chosen.prim, err)
		}
		if len(uvs) > 0 {
			options = append(options, model.WithUVs(uvs))
			report.HasUV = true
		}
	}

	if prim.Indices != nil {
		indices, err := doc.readIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, report, fmt.Errorf("mesh %d primitive %d: failed to read indices: %w", chosen.mesh, chosen.prim, err)
		}
		options = append(options, model.WithIndices(indices))
		report.Indexed = true
	}

	if chosen.textureIdx >= 0 {
		tex, sampler, err := doc.decodeTexture(chosen.textureIdx)
		if err != nil {
			report.TextureErr = err
		} else {
			options = append(options, model.WithTexture(tex))
			report.HasTexture = true
			report.Sampler = sampler
		}
	}

	report.Partial = !report.HasUV || !report.HasTexture
	return model.NewSourceMesh(options...), report, nil
}

// selectPrimitive applies policy to a non-empty candidate list.
func selectPrimitive(candidates []primitiveRef, policy SelectPolicy) primitiveRef {
	if policy == SelectFirst {
		for _, c := range candidates {
			if c.textureIdx >= 0 {
				return c
			}
		}
		return candidates[0]
	}

	best := -1
	for i, c := range candidates {
		switch {
		case best < 0:
			best = i
		case (c.textureIdx >= 0) != (candidates[best].textureIdx >= 0):
			if c.textureIdx >= 0 {
				best = i
			}
		case c.vertices > candidates[best].vertices:
			best = i
		}
	}
	return candidates[best]
}

// decodeTexture loads and decodes a texture into RGBA, bounded by the document's
// maximum texture size.
func (d *Document) decodeTexture(textureIndex int) (*image.RGBA, common.SamplerStagingData, error) {
	imported, err := d.loadTexture(textureIndex)
	if err != nil {
		return nil, common.SamplerStagingData{}, err
	}
	img, err := imported.Decode(d.maxTextureSize)
	if err != nil {
		return nil, common.SamplerStagingData{}, err
	}
	return img, *imported.SamplerData, nil
}

func meshName(name string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("mesh_%d", index)
}
