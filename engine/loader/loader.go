package loader

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"

	"github.com/google/uuid"
)

// FutureState is the progress of an asynchronous load.
type FutureState int32

const (
	FuturePending FutureState = iota
	FutureReady
	FutureFailed
)

func (s FutureState) String() string {
	switch s {
	case FutureReady:
		return "ready"
	case FutureFailed:
		return "failed"
	default:
		return "pending"
	}
}

// MeshResource is a successfully loaded face mesh.
type MeshResource struct {
	// ID uniquely identifies this load result.
	ID uuid.UUID
	// Source is the normalized path or URL the mesh was loaded from.
	Source string
	Mesh   model.SourceMesh
	Report ExtractReport
	// Elapsed is the wall time spent fetching and decoding.
	Elapsed time.Duration
}

// Future is the handle for one asynchronous load. It completes exactly once.
type Future struct {
	source string
	done   chan struct{}

	mu    sync.RWMutex
	state FutureState
	res   *MeshResource
	err   error
}

func newFuture(source string) *Future {
	return &Future{source: source, done: make(chan struct{})}
}

// Source returns the normalized key the future was created for.
func (f *Future) Source() string {
	return f.source
}

// Done returns a channel that is closed once the load has succeeded or failed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Poll returns the current state without blocking. The resource is non-nil only when
// the state is FutureReady and the error only when it is FutureFailed.
//
// Returns:
//   - FutureState: the load state
//   - *MeshResource: the loaded mesh, if ready
//   - error: the failure, if failed
func (f *Future) Poll() (FutureState, *MeshResource, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state, f.res, f.err
}

// Wait blocks until the load completes or ctx is done.
//
// Parameters:
//   - ctx: bounds the wait; it does not cancel the load
//
// Returns:
//   - *MeshResource: the loaded mesh
//   - error: the load failure or ctx.Err()
func (f *Future) Wait(ctx context.Context) (*MeshResource, error) {
	select {
	case <-f.done:
		_, res, err := f.Poll()
		return res, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) complete(res *MeshResource, err error) {
	f.mu.Lock()
	if err != nil {
		f.state, f.err = FutureFailed, err
	} else {
		f.state, f.res = FutureReady, res
	}
	f.mu.Unlock()
	close(f.done)
}

// assetCache is the implementation of the AssetCache interface.
type assetCache struct {
	mu      sync.Mutex
	futures map[string]*Future

	pool     worker.DynamicWorkerPool
	workers  int
	taskID   atomic.Int64
	file     loaderBackend
	remote   loaderBackend
	importer gltfImporter

	httpClient     *http.Client
	policy         SelectPolicy
	maxTextureSize int
	timeout        time.Duration
	logger         common.Logger
}

// AssetCache loads face meshes in the background and caches the outcome per source.
// Sources are file paths or http(s) URLs naming .glb or .gltf assets, optionally
// gzip-wrapped. Failed loads stay cached until evicted.
type AssetCache interface {
	// Load returns the Future for source, starting a background load on first use.
	// Repeated calls with the same source return the same Future, so each source is
	// loaded at most once until evicted.
	//
	// Parameters:
	//   - source: a file path or http(s) URL
	//
	// Returns:
	//   - *Future: the load handle
	Load(source string) *Future

	// Get returns the cached Future for source without starting a load.
	//
	// Parameters:
	//   - source: a file path or http(s) URL
	//
	// Returns:
	//   - *Future: the cached handle
	//   - bool: false if source has no cached entry
	Get(source string) (*Future, bool)

	// Evict drops the cached entry for source. An in-flight load still completes its
	// Future, but the next Load starts over.
	//
	// Parameters:
	//   - source: a file path or http(s) URL
	//
	// Returns:
	//   - bool: true if an entry was removed
	Evict(source string) bool

	// Len returns the number of cached entries.
	Len() int
}

var _ AssetCache = &assetCache{}

// NewAssetCache creates an AssetCache with the specified options applied.
//
// Parameters:
//   - options: a variadic list of AssetCacheOption functions
//
// Returns:
//   - AssetCache: the cache
func NewAssetCache(options ...AssetCacheOption) AssetCache {
	c := &assetCache{
		futures:        make(map[string]*Future),
		workers:        2,
		file:           fileLoaderBackend{},
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		policy:         SelectLargest,
		maxTextureSize: 2048,
		timeout:        60 * time.Second,
		logger:         common.NopLogger(),
	}
	for _, option := range options {
		option(c)
	}

	c.remote = &httpLoaderBackend{client: c.httpClient}
	c.importer = newGLTFImporter(c.policy, c.maxTextureSize)
	// The pool ignores its idle timeout, so workers stay up for the life of the cache.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 64, 1*time.Second)
	return c
}

func (c *assetCache) Load(source string) *Future {
	key := normalizeSource(source)

	c.mu.Lock()
	if f, ok := c.futures[key]; ok {
		c.mu.Unlock()
		return f
	}
	f := newFuture(key)
	c.futures[key] = f
	c.mu.Unlock()

	c.pool.SubmitTask(worker.Task{
		ID: int(c.taskID.Add(1)),
		Do: func() (any, error) {
			res, err := c.load(key)
			if err != nil {
				c.logger.Warnf("asset load failed for %s: %v", key, err)
			}
			f.complete(res, err)
			return res, err
		},
	})
	return f
}

func (c *assetCache) Get(source string) (*Future, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.futures[normalizeSource(source)]
	return f, ok
}

func (c *assetCache) Evict(source string) bool {
	key := normalizeSource(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.futures[key]; !ok {
		return false
	}
	delete(c.futures, key)
	return true
}

func (c *assetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.futures)
}

// load runs on a pool worker and performs the fetch, decode and extraction.
func (c *assetCache) load(source string) (res *MeshResource, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic while loading %s: %v", source, r)
		}
	}()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	backend := c.file
	if isRemote(source) {
		backend = c.remote
	}

	data, err := backend.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}

	mesh, report, err := c.importer.Import(data, backend.Resolver(ctx, source))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source, err)
	}
	if report.TextureErr != nil {
		c.logger.Warnf("texture unavailable for %s: %v", source, report.TextureErr)
	}

	res = &MeshResource{
		ID:      uuid.New(),
		Source:  source,
		Mesh:    mesh,
		Report:  report,
		Elapsed: time.Since(start),
	}
	c.logger.Infof("loaded %s (%s): %d vertices, %d triangles, uv=%v texture=%v in %s",
		source, mesh.Name(), mesh.VertexCount(), mesh.TriangleCount(), report.HasUV, report.HasTexture, res.Elapsed)
	return res, nil
}

// normalizeSource makes local paths absolute so equivalent spellings share an entry.
func normalizeSource(source string) string {
	if isRemote(source) {
		return source
	}
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return filepath.Clean(source)
}
