// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
}

// DefaultSamplerData is linear filtering with repeat addressing.
func DefaultSamplerData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
	}
}

// ImportedTexture represents texture data extracted from a model file.
// For embedded textures (GLB, data URIs), Data holds the encoded image bytes.
// For external textures, Path holds the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture.
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains the encoded image bytes for embedded textures.
	Data []byte

	// MimeType indicates the image format (e.g., "image/png"). Sniffed from Data when empty.
	MimeType string

	// SamplerData holds sampler parameters from the model file, or nil for defaults.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture into an RGBA image, downscaling it so neither side exceeds maxSize.
// PNG, JPEG, WebP, BMP and TGA sources are supported.
//
// Parameters:
//   - maxSize: maximum width/height in pixels (0 disables downscaling)
//
// Returns:
//   - *image.RGBA: the decoded image
//   - error: error if the data cannot be read or decoded
func (t *ImportedTexture) Decode(maxSize int) (*image.RGBA, error) {
	if t == nil {
		return nil, fmt.Errorf("texture is nil")
	}

	data := t.Data
	if len(data) == 0 {
		if t.Path == "" {
			return nil, fmt.Errorf("texture has neither data nor path")
		}
		raw, err := os.ReadFile(t.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read texture file %s: %w", t.Path, err)
		}
		data = raw
	}

	// the sniffed type wins over a declared mimeType that disagrees with the bytes
	mime := t.MimeType
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	if t.MimeType == "" {
		t.MimeType = mime
	}

	img, err := decodeImage(bytes.NewReader(data), mime)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %q (%s): %w", t.Name, t.MimeType, err)
	}

	return FitTexture(img, maxSize), nil
}

// decodeImage picks the decoder by MIME type. TGA has no magic bytes, so it is tried for
// anything unrecognized; the tga package is never registered with the image registry
// because its empty magic string would shadow every other format.
func decodeImage(r io.Reader, mime string) (image.Image, error) {
	switch mime {
	case "image/png":
		return png.Decode(r)
	case "image/jpeg", "image/jpg":
		return jpeg.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	case "image/bmp", "image/x-ms-bmp":
		return bmp.Decode(r)
	default:
		return tga.Decode(r)
	}
}

// FitTexture converts img to RGBA and downscales it to fit within maxSize, keeping aspect ratio.
//
// Parameters:
//   - img: the source image
//   - maxSize: maximum width/height in pixels (0 disables downscaling)
//
// Returns:
//   - *image.RGBA: the prepared image
func FitTexture(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		return transform.Resize(img, w, h, transform.Linear)
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// SolidTexture returns a 1×1 RGBA image of the given color.
// Used when a mesh has no bound texture.
func SolidTexture(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// TextureStaging converts an RGBA image into upload-ready staging data.
func TextureStaging(img *image.RGBA) TextureStagingData {
	b := img.Bounds()
	return TextureStagingData{
		Pixels: img.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}
