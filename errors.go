package texcache

import "errors"

// Cache errors.
var (
	// ErrRenderContextClaimed is returned when RenderContext is called a
	// second time. Only one goroutine may own the GPU side of a cache.
	ErrRenderContextClaimed = errors.New("texcache: render context already claimed")

	// ErrClosed is returned when using a cache after Teardown.
	ErrClosed = errors.New("texcache: cache closed")
)
