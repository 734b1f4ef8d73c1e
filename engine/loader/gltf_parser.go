package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Parser errors. Callers match them through errors.Is on the wrapped chain.
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidDataURI     = errors.New("invalid data URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorBounds     = errors.New("accessor reads past buffer bounds")
)

// ResourceResolver loads an external resource referenced by a relative URI inside a
// glTF document (a .bin buffer or an image file).
type ResourceResolver func(uri string) ([]byte, error)

// Document is a parsed glTF 2.0 document with every buffer resolved into memory.
// A Document is read-only after parsing and may be extracted from more than once.
type Document struct {
	gltf           *gltfDocument
	glbBinaryChunk []byte
	resolve        ResourceResolver
	maxTextureSize int
}

// DocumentOption is a functional option for ParseDocument.
type DocumentOption func(*Document)

// WithResolver sets the resolver used for external buffer and image URIs. Without one,
// only GLB-embedded data and data: URIs can be read.
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - DocumentOption: a function that applies the resolver option to a document
func WithResolver(r ResourceResolver) DocumentOption {
	return func(d *Document) {
		d.resolve = r
	}
}

// WithMaxTextureSize bounds the decoded base color texture. Larger images are downscaled.
//
// Parameters:
//   - size: the maximum width or height in pixels (0 disables downscaling)
//
// Returns:
//   - DocumentOption: a function that applies the size option to a document
func WithMaxTextureSize(size int) DocumentOption {
	return func(d *Document) {
		d.maxTextureSize = size
	}
}

// ParseDocument parses GLB or glTF JSON bytes. The container is detected from the
// leading magic number, not from any file name.
//
// Parameters:
//   - data: the raw file content (already decompressed)
//   - options: a variadic list of DocumentOption functions
//
// Returns:
//   - *Document: the parsed document
//   - error: error if the container, JSON or buffers are malformed
func ParseDocument(data []byte, options ...DocumentOption) (*Document, error) {
	d := &Document{}
	for _, opt := range options {
		opt(d)
	}

	var err error
	if isGLB(data) {
		err = d.parseGLB(data)
	} else {
		err = d.parseGLTF(data)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// isGLB reports whether data starts with the GLB magic number.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

// isGLTFJSON reports whether data looks like a JSON object after leading whitespace.
func isGLTFJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// ExtensionsRequired lists the extensions the asset declares as mandatory.
func (d *Document) ExtensionsRequired() []string {
	return d.gltf.ExtensionsRequired
}

// MeshCount returns the number of meshes in the document.
func (d *Document) MeshCount() int {
	return len(d.gltf.Meshes)
}

func (d *Document) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return d.finish(&doc)
}

// parseGLB parses a GLB binary container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (d *Document) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk length %d exceeds remaining %d bytes", chunkHeader.ChunkLength, r.Len())
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			d.glbBinaryChunk = chunkData
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return d.finish(&doc)
}

// finish validates the asset version and resolves every buffer.
func (d *Document) finish(doc *gltfDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := d.loadBuffers(doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	d.gltf = doc
	return nil
}

// loadBuffers resolves buffer content from the GLB binary chunk, data URIs or the resolver.
func (d *Document) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && d.glbBinaryChunk != nil {
				buf.Data = d.glbBinaryChunk
			} else {
				return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
			}
		} else {
			data, err := d.loadURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// loadURI reads a data: URI inline or hands anything else to the resolver.
func (d *Document) loadURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		data, _, err := decodeDataURI(uri)
		return data, err
	}
	if d.resolve == nil {
		return nil, fmt.Errorf("external resource %q needs a resolver", uri)
	}
	data, err := d.resolve(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes a base64 data URI into raw bytes and its MIME type.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, string, error) {
	header, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", errInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: unsupported encoding %q", errInvalidDataURI, header)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, mimeType, nil
}

// --- Accessor Data Reading ---

// accessor returns the accessor at index after a range check.
func (d *Document) accessor(index int) (*gltfAccessor, error) {
	if index < 0 || index >= len(d.gltf.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	return &d.gltf.Accessors[index], nil
}

// readAccessorData reads the tightly packed element bytes of an accessor, honoring
// the buffer view stride. Every read is bounds checked against the buffer.
func (d *Document) readAccessorData(accessorIndex int) ([]byte, *gltfAccessor, error) {
	acc, err := d.accessor(accessorIndex)
	if err != nil {
		return nil, nil, err
	}
	if acc.Sparse != nil {
		return nil, nil, errors.New("sparse accessors are not supported")
	}
	if acc.BufferView == nil {
		return nil, nil, errors.New("accessor has no bufferView")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(d.gltf.BufferViews) {
		return nil, nil, fmt.Errorf("bufferView index %d out of range", *acc.BufferView)
	}
	bv := &d.gltf.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(d.gltf.Buffers) {
		return nil, nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := d.gltf.Buffers[bv.Buffer].Data

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("unsupported accessor layout: type=%s componentType=%d", acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 {
		return nil, nil, fmt.Errorf("negative accessor count %d", acc.Count)
	}

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		last := base + (acc.Count-1)*stride + elementSize
		if base < 0 || last > len(buf) || last > bv.ByteOffset+bv.ByteLength {
			return nil, nil, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorBounds)
		}
	}

	result := make([]byte, acc.Count*elementSize)
	for i := range acc.Count {
		src := base + i*stride
		copy(result[i*elementSize:(i+1)*elementSize], buf[src:src+elementSize])
	}
	return result, acc, nil
}

// readFloats reads an accessor of the given type as float32 components. Float data is
// read as is; normalized integer data is mapped to [0,1] or [-1,1] as glTF prescribes.
func (d *Document) readFloats(accessorIndex int, accessorType string) ([]float32, int, error) {
	data, acc, err := d.readAccessorData(accessorIndex)
	if err != nil {
		return nil, 0, err
	}
	if acc.Type != accessorType {
		return nil, 0, fmt.Errorf("accessor is %s, expected %s", acc.Type, accessorType)
	}
	if acc.ComponentType != gltfComponentTypeFloat && !acc.Normalized {
		return nil, 0, fmt.Errorf("accessor %s componentType %d is neither FLOAT nor normalized", acc.Type, acc.ComponentType)
	}

	size := gltfComponentTypeSize(acc.ComponentType)
	out := make([]float32, len(data)/size)
	for i := range out {
		raw := data[i*size:]
		switch acc.ComponentType {
		case gltfComponentTypeFloat:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw))
		case gltfComponentTypeUnsignedByte:
			out[i] = float32(raw[0]) / 255
		case gltfComponentTypeUnsignedShort:
			out[i] = float32(binary.LittleEndian.Uint16(raw)) / 65535
		case gltfComponentTypeByte:
			out[i] = max(float32(int8(raw[0]))/127, -1)
		case gltfComponentTypeShort:
			out[i] = max(float32(int16(binary.LittleEndian.Uint16(raw)))/32767, -1)
		default:
			return nil, 0, fmt.Errorf("unsupported normalized componentType %d", acc.ComponentType)
		}
	}
	return out, acc.Count, nil
}

// readVec2Accessor reads an accessor as vec2 data.
func (d *Document) readVec2Accessor(accessorIndex int) ([][2]float32, error) {
	flat, count, err := d.readFloats(accessorIndex, gltfAccessorTypeVec2)
	if err != nil {
		return nil, err
	}
	result := make([][2]float32, count)
	for i := range result {
		result[i] = [2]float32{flat[2*i], flat[2*i+1]}
	}
	return result, nil
}

func (d *Document) readVec3Accessor(accessorIndex int) ([][3]float32, error) {
	flat, count, err := d.readFloats(accessorIndex, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	result := make([][3]float32, count)
	for i := range result {
		result[i] = [3]float32{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return result, nil
}

// readIndicesAccessor reads an accessor as uint32 indices.
// Handles UNSIGNED_BYTE, UNSIGNED_SHORT, and UNSIGNED_INT component types.
func (d *Document) readIndicesAccessor(accessorIndex int) ([]uint32, error) {
	data, acc, err := d.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}

	result := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := range result {
			result[i] = uint32(data[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := range result {
			result[i] = uint32(binary.LittleEndian.Uint16(data[2*i:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range result {
			result[i] = binary.LittleEndian.Uint32(data[4*i:])
		}
	default:
		return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
	}
	return result, nil
}

// readBufferViewRaw returns a copy of the bytes of a buffer view. Images are stored this
// way, without an accessor.
func (d *Document) readBufferViewRaw(bufferViewIndex int) ([]byte, error) {
	if bufferViewIndex < 0 || bufferViewIndex >= len(d.gltf.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", bufferViewIndex)
	}
	bv := &d.gltf.BufferViews[bufferViewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(d.gltf.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := d.gltf.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("bufferView exceeds buffer bounds: offset=%d length=%d bufSize=%d", bv.ByteOffset, bv.ByteLength, len(buf))
	}
	return bytes.Clone(buf[bv.ByteOffset:end]), nil
}

// --- Helper Functions ---

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	default:
		return 0
	}
}
