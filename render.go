package texcache

import (
	"github.com/gogpu/texcache/internal/image"
)

// placeholderSize is the edge length of the placeholder texture.
const placeholderSize = 16

// RenderContext is the GPU side of a Cache. It must be used only from the
// goroutine that owns the GPU context, and is not safe for concurrent use.
type RenderContext struct {
	c           *Cache
	placeholder Texture
	torn        bool
}

// Cache returns the cache this context belongs to.
func (rc *RenderContext) Cache() *Cache { return rc.c }

// Acquire returns the texture for key, uploading or loading it if needed.
//
// An active texture is returned as is. A texture pending release is
// revived: it returns to active with a reference count of zero and keeps
// its GPU handle. Otherwise a predecoded buffer is uploaded, or the file
// is decoded synchronously. Acquire never changes the reference count of
// an existing texture; call AddRef to hold it.
//
// Acquire reports false if the texture could not be loaded. The caller
// should fall back to Placeholder.
func (rc *RenderContext) Acquire(key string) (Texture, bool) {
	c := rc.c
	if rc.torn {
		return Texture{}, false
	}
	k := Key(key)
	if k == "" {
		return Texture{}, false
	}
	s := c.table.shardFor(k)

	s.mu.Lock()
	if rec := s.records[k]; rec != nil {
		if rec.state == StatePending {
			c.revive(rec)
		}
		tex := rec.tex
		s.mu.Unlock()
		return tex, true
	}
	buf := s.buffers[k]
	if buf != nil {
		delete(s.buffers, k)
		c.predecoded.Add(-1)
	}
	s.mu.Unlock()

	if buf == nil {
		if c.backedOff(k) {
			return Texture{}, false
		}
		var err error
		buf, err = image.Load(c.decoder, k, c.pool)
		if err != nil {
			c.noteDecodeFailure(k, err)
			return Texture{}, false
		}
	}

	tex, err := c.uploader.Upload(buf, k)
	if err != nil {
		Logger().Warn("texcache: upload failed", "key", k, "err", err)
		return Texture{}, false
	}
	c.uploads.Add(1)

	rec := &record{key: k, tex: tex, state: StateActive}

	s.mu.Lock()
	// Submit may have registered a buffer while we were decoding.
	late := s.buffers[k]
	if late != nil {
		delete(s.buffers, k)
		c.predecoded.Add(-1)
	}
	s.records[k] = rec
	c.activeCount.Add(1)
	c.activeBytes.Add(int64(tex.SizeBytes)) //nolint:gosec // G115: texture footprints fit int64
	s.mu.Unlock()

	if late != nil {
		late.Free()
	}
	return tex, true
}

// revive moves a pending record back to active. Caller holds the shard lock.
func (c *Cache) revive(rec *record) {
	c.pending.remove(rec.pendingItem())
	rec.state = StateActive
	rec.refs.Store(0)

	size := int64(rec.tex.SizeBytes) //nolint:gosec // G115: texture footprints fit int64
	c.pendingCount.Add(-1)
	c.pendingBytes.Add(-size)
	c.activeCount.Add(1)
	c.activeBytes.Add(size)
	c.revivals.Add(1)

	Logger().Debug("texcache: reused from pending release", "key", rec.key)
}

// Placeholder returns a 16x16 white RGBA texture, flagged HasAlpha, for
// materials whose texture failed to load. It is created on first use and destroyed by
// Teardown. The returned texture is invalid if it could not be created.
func (rc *RenderContext) Placeholder() Texture {
	if rc.placeholder.IsValid() || rc.torn {
		return rc.placeholder
	}

	buf, err := rc.c.pool.Get(placeholderSize, placeholderSize, image.FormatRGBA8)
	if err != nil {
		Logger().Warn("texcache: placeholder allocation failed", "err", err)
		return Texture{}
	}
	data := buf.Data()
	for i := range data {
		data[i] = 0xff
	}

	tex, err := rc.c.uploader.Upload(buf, "placeholder")
	if err != nil {
		Logger().Warn("texcache: placeholder upload failed", "err", err)
		return Texture{}
	}
	rc.placeholder = tex
	return tex
}

// IsPlaceholder reports whether tex is the placeholder texture.
func (rc *RenderContext) IsPlaceholder(tex Texture) bool {
	return tex.IsValid() && tex.ID == rc.placeholder.ID
}

// Teardown destroys every texture, frees every predecoded buffer and
// closes the cache. Textures still referenced are destroyed too. Teardown
// is idempotent.
func (rc *RenderContext) Teardown() TeardownResult {
	if rc.torn {
		return TeardownResult{}
	}
	c := rc.c
	c.closed.Store(true)
	rc.torn = true

	var res TeardownResult
	var doomed []Texture
	for _, s := range c.table.shards {
		s.mu.Lock()
		for k, rec := range s.records {
			switch rec.state {
			case StateActive:
				res.Active++
			case StatePending:
				res.Pending++
			}
			delete(s.records, k)
			c.unaccount(rec)
			doomed = append(doomed, rec.tex)
		}
		s.mu.Unlock()
	}
	c.pending.clear()

	for _, tex := range doomed {
		c.uploader.Destroy(tex)
	}
	res.Deferred = c.destroyQ.Drain(c.uploader)
	res.Predecoded = c.ClearPredecoded()

	if rc.placeholder.IsValid() {
		c.uploader.Destroy(rc.placeholder)
		rc.placeholder = Texture{}
	}
	if c.backoff != nil {
		c.backoff.Purge()
	}

	Logger().Info("texcache: teardown",
		"active", res.Active,
		"pending", res.Pending,
		"deferred", res.Deferred,
		"predecoded", res.Predecoded)
	return res
}

// TeardownResult counts what Teardown released.
type TeardownResult struct {
	Active     int // textures still active (possibly referenced)
	Pending    int // textures waiting in pending release
	Deferred   int // invalidated textures not yet freed by Tick
	Predecoded int // decoded buffers never uploaded
}
