package texcache

import (
	"time"

	"github.com/gogpu/texcache/internal/image"
)

// Default configuration constants.
const (
	// DefaultBudget is the default soft VRAM budget for textures waiting in
	// pending release: 256 MiB.
	DefaultBudget int64 = 256 << 20

	// TTL is how long a released texture may wait in pending release before
	// it is destroyed. It is fixed and applies even under budget.
	TTL = 60 * time.Second

	// DefaultBackoffSize bounds the decode-failure backoff set.
	DefaultBackoffSize = 1024
)

// Option configures a Cache during creation.
// Use functional options to customize Cache behavior.
//
// Example:
//
//	// Default 256 MiB budget
//	c := texcache.New(decoder, backend)
//
//	// TTL-only eviction, remember missing textures for 30s
//	c := texcache.New(decoder, backend,
//	    texcache.WithBudget(0),
//	    texcache.WithFailureBackoff(30*time.Second))
type Option func(*options)

// options holds optional configuration for Cache creation.
type options struct {
	budget      int64
	clock       func() time.Time
	pool        *image.Pool
	backoffTTL  time.Duration
	backoffSize int
}

// defaultOptions returns the default cache options.
func defaultOptions() options {
	return options{
		budget:      DefaultBudget,
		clock:       time.Now,
		backoffSize: DefaultBackoffSize,
	}
}

// WithBudget sets the soft VRAM budget in bytes for pending-release
// textures. A budget of zero or less disables budget eviction; released
// textures are then reclaimed by TTL alone.
func WithBudget(bytes int64) Option {
	return func(o *options) {
		o.budget = bytes
	}
}

// WithClock overrides the time source used for release timestamps and
// TTL checks. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithPool sets the pixel buffer pool shared by predecode and upload.
// By default each Cache owns a private pool.
func WithPool(p *image.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithFailureBackoff makes the cache remember keys that failed to decode
// for ttl. Within that window Submit skips the key and Acquire fails
// without touching the disk. A ttl of zero or less disables the backoff,
// which is the default.
func WithFailureBackoff(ttl time.Duration) Option {
	return func(o *options) {
		o.backoffTTL = ttl
	}
}

// WithFailureBackoffSize bounds how many failed keys are remembered.
// The oldest entry is dropped when the set is full.
func WithFailureBackoffSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backoffSize = n
		}
	}
}
