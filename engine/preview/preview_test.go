package preview

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func grid() model.SourceMesh {
	const n = 6
	var pos []mgl32.Vec3
	var uvs [][2]float32
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			pos = append(pos, mgl32.Vec3{float32(x)*0.05 - 0.15, float32(y)*0.05 - 0.15, 0})
			uvs = append(uvs, [2]float32{float32(x) / n, float32(y) / n})
		}
	}
	var idx []uint32
	row := uint32(n + 1)
	for y := range uint32(n) {
		for x := range uint32(n) {
			i := y*row + x
			idx = append(idx, i, i+1, i+row+1, i, i+row+1, i+row)
		}
	}
	return model.NewSourceMesh(model.WithName("grid"), model.WithPositions(pos), model.WithUVs(uvs), model.WithIndices(idx))
}

func previewConfig() config.Config {
	cfg := config.Default()
	cfg.Sampling.Seed = 7
	cfg.Transition.Enabled = false
	cfg.Particles.BaseScale = 0.02
	cfg.Trails.Enabled = false
	return cfg
}

func setup(t *testing.T, mesh model.SourceMesh, placeholder bool) (*scene.Simulation, camera.Camera, config.Config) {
	t.Helper()
	cfg := previewConfig()
	sim := scene.NewSimulation(mesh, placeholder, cfg)
	for range 10 {
		sim.Step(1.0/60, cfg)
	}
	ctrl := camera.NewCameraController()
	ctrl.FrameBounds(mesh.Bounds())
	cam := camera.NewCamera(camera.WithController(ctrl))
	cam.Update()
	return sim, cam, cfg
}

func background(cfg config.Config) [3]uint8 {
	env, _ := scene.EnvironmentFor(cfg.Scene)
	r, g, b, _ := env.Background.RGBA8()
	return [3]uint8{r, g, b}
}

func countNonBackground(img *image.RGBA, bg [3]uint8) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		// tolerate filter ringing of one or two levels
		d := absDiff(img.Pix[i], bg[0]) + absDiff(img.Pix[i+1], bg[1]) + absDiff(img.Pix[i+2], bg[2])
		if d > 6 {
			n++
		}
	}
	return n
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestRender_SplatsParticles(t *testing.T) {
	sim, cam, cfg := setup(t, grid(), false)
	r := NewRenderer(WithSize(96, 96), WithSupersample(1), WithBloom(0))

	img := r.Render(sim, cam, cfg, light.Studio())
	require.Equal(t, image.Rect(0, 0, 96, 96), img.Bounds())

	stats := r.Last()
	assert.Equal(t, sim.Store().Len(), stats.Particles)
	assert.Positive(t, stats.Splatted)
	assert.Positive(t, stats.Pixels)
	assert.Positive(t, countNonBackground(img, background(cfg)))
}

func TestRender_PlaceholderIsBackground(t *testing.T) {
	sim, cam, cfg := setup(t, scene.PlaceholderMesh(), true)
	r := NewRenderer(WithSize(32, 32), WithSupersample(1), WithBloom(0))

	img := r.Render(sim, cam, cfg, light.Studio())
	assert.Zero(t, r.Last().Splatted)
	assert.Zero(t, countNonBackground(img, background(cfg)))
}

func TestRender_SupersampleAndBloomKeepOutputSize(t *testing.T) {
	sim, cam, cfg := setup(t, grid(), false)
	r := NewRenderer(WithSize(40, 30), WithSupersample(3), WithBloom(2))

	img := r.Render(sim, cam, cfg, light.Studio())
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	w, h := r.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestFrameBuffer_DepthTest(t *testing.T) {
	fb := NewFrameBuffer(2, 1, mgl32.Vec3{})
	assert.True(t, fb.Blend(0, 0, 0.5, mgl32.Vec4{1, 0, 0, 1}))
	assert.False(t, fb.Blend(0, 0, 0.7, mgl32.Vec4{0, 1, 0, 1}), "farther fragment is rejected")
	assert.True(t, fb.Blend(0, 0, 0.2, mgl32.Vec4{0, 0, 1, 0.5}))
	assert.InDelta(t, 0.5, fb.Color[0][0], 1e-6)
	assert.InDelta(t, 0.5, fb.Color[0][2], 1e-6)
	assert.False(t, fb.Blend(5, 0, 0, mgl32.Vec4{1, 1, 1, 1}))
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/face.WEBP")
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, f)

	f, err = FormatFromPath("face.png")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	_, err = FormatFromPath("face.jpg")
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Pix[0] = 10

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatPNG))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, FormatWebP))
	decoded, err = webp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, _, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(10), r>>8)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "face.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, WriteFile(path, img))
	assert.FileExists(t, path)

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "face.gif"), img))
}
