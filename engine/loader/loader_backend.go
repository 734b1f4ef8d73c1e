package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// maxFetchSize bounds a single fetched resource.
const maxFetchSize = 512 << 20

// loaderBackend fetches raw asset bytes and resolves the relative resources a glTF
// document references. Concrete implementations handle one transport each.
type loaderBackend interface {
	// Fetch reads the asset named by source.
	//
	// Parameters:
	//   - ctx: bounds the request
	//   - source: a file path or URL
	//
	// Returns:
	//   - []byte: the raw content
	//   - error: error if the resource cannot be read
	Fetch(ctx context.Context, source string) ([]byte, error)

	// Resolver returns a resolver for URIs relative to source.
	//
	// Parameters:
	//   - ctx: bounds the resolver's requests
	//   - source: the asset the URIs are relative to
	//
	// Returns:
	//   - ResourceResolver: the resolver
	Resolver(ctx context.Context, source string) ResourceResolver
}

// fileLoaderBackend reads assets from the local filesystem.
type fileLoaderBackend struct{}

var _ loaderBackend = fileLoaderBackend{}

func (fileLoaderBackend) Fetch(_ context.Context, source string) ([]byte, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (fileLoaderBackend) Resolver(_ context.Context, source string) ResourceResolver {
	baseDir := filepath.Dir(source)
	return func(uri string) ([]byte, error) {
		rel, err := url.PathUnescape(uri)
		if err != nil {
			rel = uri
		}
		return os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(rel)))
	}
}

// httpLoaderBackend fetches assets over HTTP(S).
type httpLoaderBackend struct {
	client *http.Client
}

var _ loaderBackend = &httpLoaderBackend{}

func (b *httpLoaderBackend) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxFetchSize)
	}
	return data, nil
}

func (b *httpLoaderBackend) Resolver(ctx context.Context, source string) ResourceResolver {
	return func(uri string) ([]byte, error) {
		base, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", source, err)
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid resource URI %q: %w", uri, err)
		}
		return b.Fetch(ctx, base.ResolveReference(ref).String())
	}
}

// isRemote reports whether source names an HTTP(S) resource.
func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
