package loader

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-particles/engine/model"

	"github.com/h2non/filetype"
)

// maxDecompressedSize bounds gzip-wrapped assets.
const maxDecompressedSize = 512 << 20

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	policy         SelectPolicy
	maxTextureSize int
}

// gltfImporter turns raw asset bytes into a SourceMesh. It unwraps gzip, detects the
// GLB or glTF JSON container, parses it and runs Extract.
type gltfImporter interface {
	// Import decodes data into a SourceMesh.
	//
	// Parameters:
	//   - data: the fetched asset bytes, possibly gzip-wrapped
	//   - resolve: resolver for external buffers and images, may be nil
	//
	// Returns:
	//   - model.SourceMesh: the extracted mesh
	//   - ExtractReport: what the extractor found
	//   - error: error if the data cannot be decoded or holds no mesh
	Import(data []byte, resolve ResourceResolver) (model.SourceMesh, ExtractReport, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - policy: the primitive selection policy passed to Extract
//   - maxTextureSize: the texture downscale bound
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(policy SelectPolicy, maxTextureSize int) gltfImporter {
	return &gltfImporterImpl{policy: policy, maxTextureSize: maxTextureSize}
}

func (imp *gltfImporterImpl) Import(data []byte, resolve ResourceResolver) (model.SourceMesh, ExtractReport, error) {
	data, err := unwrapGzip(data)
	if err != nil {
		return nil, ExtractReport{}, err
	}
	if !isGLB(data) && !isGLTFJSON(data) {
		kind := "unknown"
		if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
			kind = t.MIME.Value
		}
		return nil, ExtractReport{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}

	doc, err := ParseDocument(data, WithResolver(resolve), WithMaxTextureSize(imp.maxTextureSize))
	if err != nil {
		return nil, ExtractReport{}, err
	}
	return Extract(doc, imp.policy)
}

// unwrapGzip decompresses data when it carries the gzip magic, and returns it as is otherwise.
func unwrapGzip(data []byte) ([]byte, error) {
	if !filetype.Is(data, "gz") {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress asset: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed asset exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}
