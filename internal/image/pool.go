// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxPerBucket is the number of idle buffers kept per size class.
// Textures are large, so only a couple of each size are worth retaining.
const DefaultMaxPerBucket = 2

// Pool is a thread-safe allocator for PixelBuffer instances.
//
// Pool groups idle pixel storage by dimensions and format, allowing reuse
// when a model pack ships many textures of the same size. Every Get returns
// a fresh PixelBuffer around the reused storage, so a stale handle that is
// freed twice can never return another owner's checkout. It also counts
// allocations and frees so callers can assert that no buffer leaked.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][][]byte
	maxSize int // max buffers per bucket

	allocs atomic.Int64
	frees  atomic.Int64
}

// poolKey identifies a bucket of identical buffer specifications.
type poolKey struct {
	width  int
	height int
	format Format
}

// NewPool creates a new pixel buffer pool with the given maximum idle
// buffers per bucket. A maxPerBucket of 0 disables reuse entirely.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][][]byte),
		maxSize: maxPerBucket,
	}
}

// Get allocates a buffer with the given dimensions and format, reusing an
// idle one when possible. The contents of a reused buffer are unspecified;
// callers overwrite every byte.
func (p *Pool) Get(width, height int, format Format) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	key := poolKey{width: width, height: height, format: format}

	var data []byte
	p.mu.Lock()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		data = bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
	}
	p.mu.Unlock()

	if data == nil {
		data = make([]byte, format.ImageBytes(width, height))
	}
	buf := &PixelBuffer{
		data:   data,
		width:  width,
		height: height,
		format: format,
		pool:   p,
	}
	p.allocs.Add(1)
	return buf, nil
}

// Put returns a buffer to the pool. It reports false, and does nothing, if
// buf is nil, belongs to another pool, or was already freed.
func (p *Pool) Put(buf *PixelBuffer) bool {
	if buf == nil || buf.pool != p {
		return false
	}
	if buf.freed.Swap(true) {
		return false
	}
	p.frees.Add(1)

	key := poolKey{
		width:  buf.width,
		height: buf.height,
		format: buf.format,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if len(bucket) >= p.maxSize {
		// Bucket full, let the GC have it.
		return true
	}
	p.buckets[key] = append(bucket, buf.data)
	return true
}

// Allocs returns the number of buffers handed out by Get.
func (p *Pool) Allocs() int64 { return p.allocs.Load() }

// Frees returns the number of buffers returned through Put.
func (p *Pool) Frees() int64 { return p.frees.Load() }

// Outstanding returns the number of buffers currently owned by callers.
func (p *Pool) Outstanding() int64 { return p.allocs.Load() - p.frees.Load() }

// Idle returns the number of buffers retained for reuse.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, bucket := range p.buckets {
		n += len(bucket)
	}
	return n
}

// Drain drops every idle buffer.
func (p *Pool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buckets = make(map[poolKey][][]byte)
}
