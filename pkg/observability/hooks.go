// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through small hook interfaces instead
// of depending on a concrete backend. Defaults are no-ops; the binary
// registers real implementations at startup (the CLI registers hooks that
// write to its charmbracelet logger).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAuthorsHooks(&myAuthorsHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Authors().OnComputeStart(ctx, pageID, limit, includeBots)
//	// ... aggregate ...
//	observability.Authors().OnComputeComplete(ctx, pageID, len(list), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Authors Hooks
// =============================================================================

// AuthorsHooks receives events from author list aggregation.
type AuthorsHooks interface {
	OnComputeStart(ctx context.Context, pageID int64, limit int, includeBots bool)
	OnComputeComplete(ctx context.Context, pageID int64, editors int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAuthorsHooks is a no-op implementation of AuthorsHooks.
type NoopAuthorsHooks struct{}

func (NoopAuthorsHooks) OnComputeStart(context.Context, int64, int, bool) {}
func (NoopAuthorsHooks) OnComputeComplete(context.Context, int64, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	authorsHooks AuthorsHooks = NoopAuthorsHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetAuthorsHooks registers custom author aggregation hooks.
// Nil is ignored.
func SetAuthorsHooks(h AuthorsHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		authorsHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Authors returns the registered author aggregation hooks.
func Authors() AuthorsHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return authorsHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	authorsHooks = NoopAuthorsHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
