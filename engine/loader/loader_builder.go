package loader

import (
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
)

// AssetCacheOption is a functional option for configuring an AssetCache via NewAssetCache.
type AssetCacheOption func(*assetCache)

// WithLogger is an option builder that sets the logger for load outcomes.
func WithLogger(l common.Logger) AssetCacheOption {
	return func(c *assetCache) {
		c.logger = l
	}
}

// WithWorkers is an option builder that sets the maximum number of concurrent loads.
//
// Parameters:
//   - n: the worker count, values below 1 are raised to 1
//
// Returns:
//   - AssetCacheOption: a function that applies the option to a cache
func WithWorkers(n int) AssetCacheOption {
	return func(c *assetCache) {
		c.workers = max(1, n)
	}
}

// WithHTTPClient is an option builder that sets the client used for http(s) sources.
func WithHTTPClient(client *http.Client) AssetCacheOption {
	return func(c *assetCache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSelectPolicy is an option builder that sets the primitive selection policy.
func WithSelectPolicy(p SelectPolicy) AssetCacheOption {
	return func(c *assetCache) {
		c.policy = p
	}
}

// WithTextureLimit is an option builder that sets the maximum decoded texture size.
//
// Parameters:
//   - size: the maximum width or height in pixels (0 disables downscaling)
//
// Returns:
//   - AssetCacheOption: a function that applies the option to a cache
func WithTextureLimit(size int) AssetCacheOption {
	return func(c *assetCache) {
		c.maxTextureSize = size
	}
}

// WithLoadTimeout is an option builder that bounds each load, including every
// external resource it fetches.
func WithLoadTimeout(d time.Duration) AssetCacheOption {
	return func(c *assetCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}
