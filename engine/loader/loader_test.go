package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// primDesc describes one primitive for glbBuilder.
type primDesc struct {
	positions [][3]float32
	uvs       [][2]float32
	indices   []uint16
	textured  bool
	mode      *int
	draco     bool
}

// glbBuilder assembles small glTF assets in memory.
type glbBuilder struct {
	t           *testing.T
	bin         []byte
	views       []map[string]any
	accessors   []map[string]any
	meshes      []map[string]any
	materials   []map[string]any
	textures    []map[string]any
	images      []map[string]any
	extRequired []string
	material    int
}

func newGLBBuilder(t *testing.T) *glbBuilder {
	return &glbBuilder{t: t, material: -1}
}

func (b *glbBuilder) view(data []byte) int {
	for len(b.bin)%4 != 0 {
		b.bin = append(b.bin, 0)
	}
	b.views = append(b.views, map[string]any{"buffer": 0, "byteOffset": len(b.bin), "byteLength": len(data)})
	b.bin = append(b.bin, data...)
	return len(b.views) - 1
}

func (b *glbBuilder) accessor(data []byte, count int, typ string, comp int) int {
	b.accessors = append(b.accessors, map[string]any{
		"bufferView": b.view(data), "componentType": comp, "count": count, "type": typ,
	})
	return len(b.accessors) - 1
}

func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func testPNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 40, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// texturedMaterial lazily adds one material with an embedded PNG base color.
func (b *glbBuilder) texturedMaterial() int {
	if b.material >= 0 {
		return b.material
	}
	b.images = append(b.images, map[string]any{"bufferView": b.view(testPNG(b.t)), "mimeType": "image/png"})
	b.textures = append(b.textures, map[string]any{"source": len(b.images) - 1})
	b.materials = append(b.materials, map[string]any{
		"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": len(b.textures) - 1}},
	})
	b.material = len(b.materials) - 1
	return b.material
}

func (b *glbBuilder) mesh(name string, p primDesc) *glbBuilder {
	prim := map[string]any{"attributes": map[string]any{}}
	attrs := prim["attributes"].(map[string]any)

	if p.draco {
		b.accessors = append(b.accessors, map[string]any{"componentType": gltfComponentTypeFloat, "count": 3, "type": "VEC3"})
		attrs["POSITION"] = len(b.accessors) - 1
		prim["extensions"] = map[string]any{gltfExtDraco: map[string]any{"bufferView": 0, "attributes": map[string]any{"POSITION": 0}}}
		b.extRequired = append(b.extRequired, gltfExtDraco)
	} else {
		flat := make([]float32, 0, 3*len(p.positions))
		for _, v := range p.positions {
			flat = append(flat, v[0], v[1], v[2])
		}
		attrs["POSITION"] = b.accessor(floatBytes(flat...), len(p.positions), "VEC3", gltfComponentTypeFloat)
	}

	if len(p.uvs) > 0 {
		flat := make([]float32, 0, 2*len(p.uvs))
		for _, v := range p.uvs {
			flat = append(flat, v[0], v[1])
		}
		attrs["TEXCOORD_0"] = b.accessor(floatBytes(flat...), len(p.uvs), "VEC2", gltfComponentTypeFloat)
	}
	if len(p.indices) > 0 {
		raw := make([]byte, 2*len(p.indices))
		for i, v := range p.indices {
			binary.LittleEndian.PutUint16(raw[2*i:], v)
		}
		prim["indices"] = b.accessor(raw, len(p.indices), "SCALAR", gltfComponentTypeUnsignedShort)
	}
	if p.textured {
		prim["material"] = b.texturedMaterial()
	}
	if p.mode != nil {
		prim["mode"] = *p.mode
	}
	b.meshes = append(b.meshes, map[string]any{"name": name, "primitives": []any{prim}})
	return b
}

// gltfJSON encodes the document. A non-empty bufferURI makes the buffer external.
func (b *glbBuilder) gltfJSON(bufferURI string) []byte {
	buffer := map[string]any{"byteLength": len(b.bin)}
	if bufferURI != "" {
		buffer["uri"] = bufferURI
	}
	doc := map[string]any{
		"asset":       map[string]any{"version": "2.0"},
		"buffers":     []any{buffer},
		"bufferViews": b.views,
		"accessors":   b.accessors,
		"meshes":      b.meshes,
	}
	if len(b.materials) > 0 {
		doc["materials"] = b.materials
		doc["textures"] = b.textures
		doc["images"] = b.images
	}
	if len(b.extRequired) > 0 {
		doc["extensionsRequired"] = b.extRequired
	}
	out, err := json.Marshal(doc)
	require.NoError(b.t, err)
	return out
}

func (b *glbBuilder) glb() []byte {
	js := b.gltfJSON("")
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	bin := bytes.Clone(b.bin)
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: 2, Length: uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
	out.Write(js)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

var quadDesc = primDesc{
	positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	uvs:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	indices:   []uint16{0, 1, 2, 0, 2, 3},
	textured:  true,
}

func parse(t *testing.T, data []byte) *Document {
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	return doc
}

func TestExtract_TexturedQuad(t *testing.T) {
	doc := parse(t, newGLBBuilder(t).mesh("face", quadDesc).glb())

	mesh, report, err := Extract(doc, SelectLargest)
	require.NoError(t, err)
	assert.Equal(t, "face", mesh.Name())
	assert.Equal(t, 4, mesh.VertexCount())
	assert.Equal(t, 2, mesh.TriangleCount())
	assert.True(t, report.HasUV)
	assert.True(t, report.HasTexture)
	assert.True(t, report.Indexed)
	assert.False(t, report.Partial)
	assert.NoError(t, report.TextureErr)

	uv, ok := mesh.UV(2)
	require.True(t, ok)
	assert.Equal(t, [2]float32{1, 1}, uv)
	assert.Equal(t, [3]uint32{0, 2, 3}, mesh.Triangle(1))

	require.True(t, mesh.HasTexture())
	tex := mesh.Texture()
	assert.Equal(t, 2, tex.Bounds().Dx())
	assert.Equal(t, color.RGBA{R: 200, G: 40, B: 10, A: 255}, tex.RGBAAt(1, 1))
}

func TestExtract_MissingUVAndIndicesIsPartial(t *testing.T) {
	desc := primDesc{positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 0, 1}, {0, 1, 1}}}
	doc := parse(t, newGLBBuilder(t).mesh("", desc).glb())

	mesh, report, err := Extract(doc, SelectLargest)
	require.NoError(t, err)
	assert.True(t, report.Partial)
	assert.False(t, report.HasUV)
	assert.False(t, report.HasTexture)
	assert.False(t, report.Indexed)
	assert.Equal(t, "mesh_0", mesh.Name())
	assert.Equal(t, 2, mesh.TriangleCount())
	assert.Equal(t, [3]uint32{3, 4, 5}, mesh.Triangle(1))
}

func TestExtract_SelectPolicy(t *testing.T) {
	big := primDesc{positions: make([][3]float32, 12)}
	small := primDesc{positions: make([][3]float32, 3), textured: true}
	medium := primDesc{positions: make([][3]float32, 6), textured: true}
	doc := parse(t, newGLBBuilder(t).mesh("big", big).mesh("small", small).mesh("medium", medium).glb())

	_, report, err := Extract(doc, SelectLargest)
	require.NoError(t, err)
	assert.Equal(t, "medium", report.MeshName, "textured primitives win over larger untextured ones")
	assert.Equal(t, 3, report.Candidates)

	_, report, err = Extract(doc, SelectFirst)
	require.NoError(t, err)
	assert.Equal(t, "small", report.MeshName)

	plain := parse(t, newGLBBuilder(t).mesh("a", primDesc{positions: make([][3]float32, 3)}).mesh("b", big).glb())
	_, report, err = Extract(plain, SelectLargest)
	require.NoError(t, err)
	assert.Equal(t, "b", report.MeshName)
	_, report, err = Extract(plain, SelectFirst)
	require.NoError(t, err)
	assert.Equal(t, "a", report.MeshName)
}

func TestExtract_NoMesh(t *testing.T) {
	points := gltfPrimitiveModePoints
	doc := parse(t, newGLBBuilder(t).mesh("cloud", primDesc{positions: make([][3]float32, 3), mode: &points}).glb())
	_, report, err := Extract(doc, SelectLargest)
	assert.ErrorIs(t, err, ErrNoMesh)
	assert.Equal(t, 1, report.Skipped)

	draco := parse(t, newGLBBuilder(t).mesh("packed", primDesc{draco: true}).glb())
	_, _, err = Extract(draco, SelectLargest)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	_, _, err = Extract(nil, SelectLargest)
	assert.ErrorIs(t, err, ErrNoMesh)
}

func TestParseDocument_Malformed(t *testing.T) {
	_, err := ParseDocument([]byte(`{"asset":{"version":"1.0"}}`))
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	glb := newGLBBuilder(t).mesh("face", quadDesc).glb()
	binary.LittleEndian.PutUint32(glb[4:], 1)
	_, err = ParseDocument(glb)
	assert.ErrorIs(t, err, errInvalidGLBVersion)

	_, err = ParseDocument(glb[:10])
	assert.Error(t, err)

	// an accessor claiming more elements than its view holds must fail, not panic
	b := newGLBBuilder(t).mesh("face", quadDesc)
	b.accessors[0]["count"] = 400
	doc := parse(t, b.glb())
	_, _, err = Extract(doc, SelectLargest)
	assert.ErrorIs(t, err, errAccessorBounds)
}

func TestParseDocument_DataURIBuffer(t *testing.T) {
	b := newGLBBuilder(t).mesh("face", primDesc{positions: quadDesc.positions, indices: quadDesc.indices})
	js := b.gltfJSON("data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.bin))

	doc, err := ParseDocument(js)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.MeshCount())
	mesh, report, err := Extract(doc, SelectLargest)
	require.NoError(t, err)
	assert.Equal(t, 4, mesh.VertexCount())
	assert.True(t, report.Partial)

	// external URIs need a resolver
	_, err = ParseDocument(b.gltfJSON("quad.bin"))
	assert.Error(t, err)
}

func TestImporter_GzipAndFormat(t *testing.T) {
	glb := newGLBBuilder(t).mesh("face", quadDesc).glb()
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err := zw.Write(glb)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	imp := newGLTFImporter(SelectLargest, 0)
	mesh, _, err := imp.Import(zipped.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, mesh.VertexCount())

	_, _, err = imp.Import(testPNG(t), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func waitFuture(t *testing.T, f *Future) (*MeshResource, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestAssetCache_FileLoadOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "face.glb")
	require.NoError(t, os.WriteFile(path, newGLBBuilder(t).mesh("face", quadDesc).glb(), 0o644))

	cache := NewAssetCache(WithWorkers(1))
	f := cache.Load(path)
	assert.Same(t, f, cache.Load(filepath.Join(dir, ".", "face.glb")))
	assert.Equal(t, 1, cache.Len())

	res, err := waitFuture(t, f)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, 2, res.Mesh.TriangleCount())

	state, polled, err := f.Poll()
	assert.Equal(t, FutureReady, state)
	assert.Same(t, res, polled)
	assert.NoError(t, err)

	got, ok := cache.Get(path)
	require.True(t, ok)
	assert.Same(t, f, got)
}

func TestAssetCache_FailureCachedUntilEvict(t *testing.T) {
	cache := NewAssetCache()
	missing := filepath.Join(t.TempDir(), "missing.glb")

	f := cache.Load(missing)
	_, err := waitFuture(t, f)
	require.Error(t, err)
	state, res, _ := f.Poll()
	assert.Equal(t, FutureFailed, state)
	assert.Nil(t, res)
	assert.Same(t, f, cache.Load(missing), "failures stay cached")

	assert.True(t, cache.Evict(missing))
	assert.False(t, cache.Evict(missing))
	assert.NotSame(t, f, cache.Load(missing))
}

func TestAssetCache_HTTPWithRelativeBuffer(t *testing.T) {
	b := newGLBBuilder(t).mesh("face", primDesc{positions: quadDesc.positions, uvs: quadDesc.uvs, indices: quadDesc.indices})
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/face.gltf", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(b.gltfJSON("bin/face.bin"))
	})
	mux.HandleFunc("/assets/bin/face.bin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(b.bin)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := NewAssetCache(WithHTTPClient(srv.Client()))
	url := srv.URL + "/assets/face.gltf"
	f := cache.Load(url)
	res, err := waitFuture(t, f)
	require.NoError(t, err)
	assert.True(t, res.Report.HasUV)
	assert.Equal(t, url, res.Source)

	_, err = waitFuture(t, cache.Load(url))
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	srvMissing := cache.Load(srv.URL + "/nope.glb")
	_, err = waitFuture(t, srvMissing)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMesh))
}
