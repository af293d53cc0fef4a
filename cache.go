package texcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gogpu/texcache/internal/gpu"
	"github.com/gogpu/texcache/internal/image"
)

// Cache is a reference-counted texture cache shared by every model
// instance of a scene.
//
// Decoding can happen on any goroutine through Submit. GPU work (upload,
// destroy, eviction, revival) happens only through the RenderContext,
// which exactly one goroutine owns. Reference counting (AddRef, Release)
// and ForceInvalidate are safe from any goroutine.
//
// Released textures are not destroyed right away: they wait in pending
// release, where Acquire can revive them, until Tick evicts them by TTL
// or to stay within the VRAM budget.
type Cache struct {
	opts     options
	decoder  image.Decoder
	pool     *image.Pool
	uploader *gpu.Uploader

	table    *table
	pending  *pendingIndex
	destroyQ gpu.DestroyQueue
	backoff  *expirable.LRU[string, struct{}]

	seq     atomic.Uint64
	closed  atomic.Bool
	claimMu sync.Mutex
	claimed bool

	// Partition totals, written under the owning shard lock.
	activeCount  atomic.Int64
	activeBytes  atomic.Int64
	pendingCount atomic.Int64
	pendingBytes atomic.Int64
	predecoded   atomic.Int64

	// Counters.
	uploads         atomic.Uint64
	revivals        atomic.Uint64
	ttlEvictions    atomic.Uint64
	budgetEvictions atomic.Uint64
	decodeFailures  atomic.Uint64
	invalidations   atomic.Uint64
}

// New creates a cache that decodes with decoder and creates textures on
// backend. The backend is driven only from the render goroutine.
//
// Example:
//
//	c := texcache.New(texcache.FileDecoder{}, texcache.NewHALBackend(device, queue),
//	    texcache.WithBudget(512<<20))
//	rc, _ := c.RenderContext()
func New(decoder image.Decoder, backend gpu.Backend, opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if decoder == nil {
		decoder = image.FileDecoder{}
	}
	pool := o.pool
	if pool == nil {
		pool = image.NewPool(image.DefaultMaxPerBucket)
	}

	c := &Cache{
		opts:     o,
		decoder:  decoder,
		pool:     pool,
		uploader: gpu.NewUploader(backend),
		table:    newTable(),
		pending:  newPendingIndex(),
	}
	if o.backoffTTL > 0 {
		c.backoff = expirable.NewLRU[string, struct{}](o.backoffSize, nil, o.backoffTTL)
	}
	return c
}

// RenderContext claims the GPU side of the cache for the calling
// goroutine. It succeeds once; later calls return ErrRenderContextClaimed.
func (c *Cache) RenderContext() (*RenderContext, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	c.claimMu.Lock()
	defer c.claimMu.Unlock()
	if c.claimed {
		return nil, ErrRenderContextClaimed
	}
	c.claimed = true
	return &RenderContext{c: c}, nil
}

// Budget returns the soft VRAM budget for pending-release textures.
// Zero or less means budget eviction is disabled.
func (c *Cache) Budget() int64 { return c.opts.budget }

// Pool returns the pixel buffer pool used by the cache.
func (c *Cache) Pool() *image.Pool { return c.pool }

// now returns the current time from the configured clock.
func (c *Cache) now() time.Time { return c.opts.clock() }

// AddRef increments the reference count of an active texture.
// It does nothing if the key is absent or pending release: a texture must
// be acquired, which revives it, before it can be referenced.
func (c *Cache) AddRef(key string) {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.records[k]; rec != nil && rec.state == StateActive {
		rec.refs.Add(1)
	}
}

// Release decrements the reference count of an active texture. When the
// count reaches zero (a decrement below zero clamps to zero) the texture
// moves to pending release. Absent and already pending keys are ignored,
// so the move happens exactly once per activation.
func (c *Cache) Release(key string) {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[k]
	if rec == nil || rec.state != StateActive {
		return
	}
	if rec.refs.Add(-1) > 0 {
		return
	}
	rec.refs.Store(0)

	rec.state = StatePending
	rec.lastRelease = c.now()
	rec.seq = c.seq.Add(1)
	c.pending.insert(rec.pendingItem())

	size := int64(rec.tex.SizeBytes) //nolint:gosec // G115: texture footprints fit int64
	c.activeCount.Add(-1)
	c.activeBytes.Add(-size)
	c.pendingCount.Add(1)
	c.pendingBytes.Add(size)
}

// ReleaseAll releases every key, typically all textures of a disposed
// model.
func (c *Cache) ReleaseAll(keys []string) {
	for _, k := range keys {
		c.Release(k)
	}
}

// ForceInvalidate drops a key regardless of its reference count, so the
// next Acquire reloads it from disk. Any predecoded buffer and backoff
// entry for the key are dropped too. The GPU texture is freed by the
// render goroutine on its next Tick. Safe from any goroutine; repeated
// calls are no-ops.
func (c *Cache) ForceInvalidate(key string) {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	rec := s.records[k]
	if rec != nil {
		delete(s.records, k)
		c.unaccount(rec)
	}
	buf := s.buffers[k]
	if buf != nil {
		delete(s.buffers, k)
		c.predecoded.Add(-1)
	}
	s.mu.Unlock()

	if buf != nil {
		buf.Free()
	}
	if c.backoff != nil {
		c.backoff.Remove(k)
	}
	if rec != nil {
		c.invalidations.Add(1)
		c.destroyQ.Defer(rec.tex)
		Logger().Debug("texcache: texture invalidated", "key", k, "refs", rec.refs.Load())
	}
}

// unaccount removes a record from its partition totals and, when it is
// pending release, from the pending index. Caller holds the shard lock and
// has already deleted the record from the shard.
func (c *Cache) unaccount(rec *record) {
	size := int64(rec.tex.SizeBytes) //nolint:gosec // G115: texture footprints fit int64
	switch rec.state {
	case StateActive:
		c.activeCount.Add(-1)
		c.activeBytes.Add(-size)
	case StatePending:
		c.pending.remove(rec.pendingItem())
		c.pendingCount.Add(-1)
		c.pendingBytes.Add(-size)
	}
	rec.state = StateAbsent
}

// RefCount returns the reference count of key and whether it has a record.
func (c *Cache) RefCount(key string) (int32, bool) {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[k]
	if rec == nil {
		return 0, false
	}
	return rec.refs.Load(), true
}

// State returns the partition key is in.
func (c *Cache) State(key string) State {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.records[k]; rec != nil {
		return rec.state
	}
	return StateAbsent
}

// Predecoded reports whether key has a decoded buffer waiting for upload.
func (c *Cache) Predecoded(key string) bool {
	k := Key(key)
	s := c.table.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.buffers[k]
	return ok
}

// noteDecodeFailure records a failed decode.
func (c *Cache) noteDecodeFailure(key string, err error) {
	c.decodeFailures.Add(1)
	if c.backoff != nil {
		c.backoff.Add(key, struct{}{})
	}
	Logger().Info("texcache: texture not loaded", "key", key, "err", err)
}

// backedOff reports whether key failed to decode within the backoff window.
func (c *Cache) backedOff(key string) bool {
	return c.backoff != nil && c.backoff.Contains(key)
}
