package loader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-particles/common"

	"github.com/cogentcore/webgpu/wgpu"
)

// baseColorTextureIndex returns the texture index of a material's base color, or -1 when
// the material is absent or untextured.
func (d *Document) baseColorTextureIndex(materialIndex *int) int {
	if materialIndex == nil || *materialIndex < 0 || *materialIndex >= len(d.gltf.Materials) {
		return -1
	}
	pbr := d.gltf.Materials[*materialIndex].PbrMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return -1
	}
	idx := pbr.BaseColorTexture.Index
	if idx < 0 || idx >= len(d.gltf.Textures) || d.gltf.Textures[idx].Source == nil {
		return -1
	}
	return idx
}

// loadTexture resolves a glTF texture index into an ImportedTexture holding the encoded
// image bytes from a buffer view, a data URI or the external resolver.
func (d *Document) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	if textureIndex < 0 || textureIndex >= len(d.gltf.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	tex := &d.gltf.Textures[textureIndex]
	if tex.Source == nil {
		return nil, fmt.Errorf("texture %d has no image source", textureIndex)
	}

	sampler := common.DefaultSamplerData()
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(d.gltf.Samplers) {
		sampler = gltfSamplerToStagingData(&d.gltf.Samplers[*tex.Sampler])
	}

	imageIndex := *tex.Source
	if imageIndex < 0 || imageIndex >= len(d.gltf.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &d.gltf.Images[imageIndex]

	result := &common.ImportedTexture{
		Name:        img.Name,
		MimeType:    img.MimeType,
		SamplerData: &sampler,
	}

	switch {
	case img.BufferView != nil:
		data, err := d.readBufferViewRaw(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = data
	case strings.HasPrefix(img.URI, "data:"):
		data, mimeType, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		result.Data = data
		if result.MimeType == "" {
			result.MimeType = mimeType
		}
	case img.URI != "":
		data, err := d.loadURI(img.URI)
		if err != nil {
			return nil, err
		}
		result.Path = img.URI
		result.Data = data
	default:
		return nil, fmt.Errorf("image %d has neither bufferView nor uri", imageIndex)
	}

	return result, nil
}

// gltfSamplerToStagingData converts a glTF sampler into SamplerStagingData. Unset fields
// keep the glTF defaults of linear filtering and repeat wrapping.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
//
// Parameters:
//   - s: the glTF sampler to convert
//
// Returns:
//   - common.SamplerStagingData: the converted sampler staging data
func gltfSamplerToStagingData(s *gltfSampler) common.SamplerStagingData {
	result := common.DefaultSamplerData()

	if s.MagFilter != nil {
		switch *s.MagFilter {
		case gltfFilterNearest:
			result.MagFilter = wgpu.FilterModeNearest
		case gltfFilterLinear:
			result.MagFilter = wgpu.FilterModeLinear
		}
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = wgpu.FilterModeNearest
		case gltfFilterLinear, gltfFilterLinearMipmapNearest, gltfFilterLinearMipmapLinear:
			result.MinFilter = wgpu.FilterModeLinear
		}
		switch *s.MinFilter {
		case gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest, gltfFilterNearest, gltfFilterLinear:
			result.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltfFilterNearestMipmapLinear, gltfFilterLinearMipmapLinear:
			result.MipmapFilter = wgpu.MipmapFilterModeLinear
		}
	}

	if s.WrapS != nil {
		result.AddressModeU = gltfWrapToAddressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		result.AddressModeV = gltfWrapToAddressMode(*s.WrapT)
	}

	return result
}

// gltfWrapToAddressMode converts a glTF wrap mode constant to a wgpu AddressMode.
func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
