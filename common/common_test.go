package common

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRNG_SameSeedSameSequence(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for range 100 {
		require.Equal(t, a.Float32(), b.Float32())
	}

	c := NewRNG(43)
	same := true
	for range 10 {
		if a.Float32() != c.Float32() {
			same = false
		}
	}
	assert.False(t, same, "different seeds should diverge")
}

func TestNewRNG_Float32Range(t *testing.T) {
	r := NewLockedRNG(NewRNG(7))
	for range 1000 {
		v := r.Float32()
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestDefaultLogger_Format(t *testing.T) {
	l := NewDefaultLogger("loader", false)
	assert.Equal(t, "[loader] WARN: missing uv on mesh face", l.Format("WARN", "missing uv on mesh %s", "face"))

	bare := NewDefaultLogger("", false)
	assert.Equal(t, "INFO: ok", bare.Format("INFO", "ok"))

	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
}

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, float32(0), Smoothstep(-1))
	assert.Equal(t, float32(0), Smoothstep(0))
	assert.InDelta(t, 0.5, Smoothstep(0.5), 1e-6)
	assert.Equal(t, float32(1), Smoothstep(1))
	assert.Equal(t, float32(1), Smoothstep(3))
	assert.Equal(t, float32(1), SmoothstepRange(1, 1, 2))
}

func TestInstanceMatrix_TranslatesAndScales(t *testing.T) {
	m := InstanceMatrix(mgl32.Vec3{1, 2, 3}, 0.5)
	p := m.Mul4x1(mgl32.Vec4{2, 0, 0, 1})
	assert.InDelta(t, 2.0, p[0], 1e-6)
	assert.InDelta(t, 2.0, p[1], 1e-6)
	assert.InDelta(t, 3.0, p[2], 1e-6)
}

func TestPerspective_DepthInZeroOne(t *testing.T) {
	proj := Perspective(mgl32.DegToRad(60), 1, 0.1, 100)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0.0, near[2]/near[3], 1e-4)
	assert.InDelta(t, 1.0, far[2]/far[3], 1e-4)
}

func TestDamp(t *testing.T) {
	assert.Equal(t, float32(5), Damp(0, 5, 1, 1.0/60))
	assert.Equal(t, float32(0), Damp(0, 5, 0, 1.0/60))
	v := Damp(0, 10, 0.1, 1.0/60)
	assert.InDelta(t, 1.0, v, 1e-4)
}

func TestFitTexture_DownscalesKeepingAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := FitTexture(src, 100)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	small := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	kept := FitTexture(small, 100)
	assert.Equal(t, 8, kept.Bounds().Dx())
	assert.Equal(t, 4, kept.Bounds().Dy())
}

func TestSolidTexture(t *testing.T) {
	img := SolidTexture(color.RGBA{128, 128, 128, 255})
	staging := TextureStaging(img)
	assert.Equal(t, uint32(1), staging.Width)
	assert.Equal(t, []byte{128, 128, 128, 255}, staging.Pixels)
}

func TestImportedTexture_DecodeErrors(t *testing.T) {
	var nilTex *ImportedTexture
	_, err := nilTex.Decode(0)
	require.Error(t, err)

	_, err = (&ImportedTexture{Name: "empty"}).Decode(0)
	require.Error(t, err)

	_, err = (&ImportedTexture{Name: "junk", Data: []byte("not an image")}).Decode(0)
	require.Error(t, err)
}

func TestImportedTexture_DecodeFormats(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tga":  func(b *bytes.Buffer) error { return tga.Encode(b, src) },
	}
	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))
			img, err := (&ImportedTexture{Name: "face", Data: buf.Bytes()}).Decode(0)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
		})
	}
}

func TestImportedTexture_SniffedTypeWinsOverDeclared(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 1))))

	tex := &ImportedTexture{Name: "face", Data: buf.Bytes(), MimeType: "image/jpeg"}
	img, err := tex.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestFrustumFromViewProj_ContainsSphere(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	f := FrustumFromViewProj(Perspective(mgl32.DegToRad(60), 1, 0.1, 20).Mul4(view))

	for _, p := range f.Planes {
		assert.InDelta(t, 1, p.Normal.Len(), 1e-5)
	}
	assert.True(t, f.ContainsSphere(mgl32.Vec3{}, 0.1), "origin is in front of the eye")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, 10}, 0.5), "behind the eye")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, -30}, 0.5), "past the far plane")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{40, 0, 0}, 1), "off to the side")
	assert.True(t, f.ContainsSphere(mgl32.Vec3{0, 0, 5.5}, 1), "sphere straddling the near plane")
}
