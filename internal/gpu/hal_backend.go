// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texcache/internal/image"
)

// halTexture pairs a hal texture with the view materials bind.
type halTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// HALBackend implements Backend using gogpu/wgpu/hal directly.
// It maps opaque TextureIDs to hal resources.
//
// HALBackend must be driven from the goroutine that owns the device.
// The internal mutex only protects the id map for View and Len readers.
type HALBackend struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	// ID generation
	nextID atomic.Uint64

	textures map[TextureID]halTexture
	closed   bool
}

// NewHALBackend creates a backend wrapping the given device and queue.
func NewHALBackend(device hal.Device, queue hal.Queue) *HALBackend {
	return &HALBackend{
		device:   device,
		queue:    queue,
		textures: make(map[TextureID]halTexture),
	}
}

// CreateTexture creates a sampled RGBA8 texture and writes buf into it.
func (b *HALBackend) CreateTexture(buf *image.PixelBuffer, label string) (Texture, error) {
	if err := validate(buf); err != nil {
		return Texture{}, err
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return Texture{}, ErrBackendClosed
	}

	width, height := buf.Width(), buf.Height()
	//nolint:gosec // G115: dimensions validated positive
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        uploadFormat,
		Usage:         uploadUsage,
	})
	if err != nil {
		return Texture{}, fmt.Errorf("create texture: %w", err)
	}

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        uploadFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return Texture{}, fmt.Errorf("create texture view: %w", err)
	}

	// Upload to GPU via queue.WriteTexture. RGB8 is expanded here.
	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
		},
		buf.RGBA(),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  size.Width * 4,
			RowsPerImage: size.Height,
		},
		&size,
	)
	if err != nil {
		b.destroy(halTexture{tex: tex, view: view})
		return Texture{}, fmt.Errorf("write texture: %w", err)
	}

	id := TextureID(b.nextID.Add(1))

	b.mu.Lock()
	b.textures[id] = halTexture{tex: tex, view: view}
	b.mu.Unlock()

	return Texture{
		ID:        id,
		Width:     width,
		Height:    height,
		HasAlpha:  buf.HasAlpha(),
		SizeBytes: footprint(width, height),
	}, nil
}

// DestroyTexture releases the texture and its view.
func (b *HALBackend) DestroyTexture(id TextureID) {
	b.mu.Lock()
	t, ok := b.textures[id]
	if ok {
		delete(b.textures, id)
	}
	b.mu.Unlock()

	if ok {
		b.destroy(t)
	}
}

// View returns the texture view for a live texture.
func (b *HALBackend) View(id TextureID) (hal.TextureView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.textures[id]
	return t.view, ok
}

// Len returns the number of live textures.
func (b *HALBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.textures)
}

// Close destroys every remaining texture. The backend rejects new
// textures afterwards. Close is idempotent.
func (b *HALBackend) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	remaining := b.textures
	b.textures = make(map[TextureID]halTexture)
	b.mu.Unlock()

	if len(remaining) > 0 {
		slogger().Warn("gpu: destroying textures still alive at backend close", "count", len(remaining))
	}
	for _, t := range remaining {
		b.destroy(t)
	}
}

func (b *HALBackend) destroy(t halTexture) {
	if t.view != nil {
		b.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		b.device.DestroyTexture(t.tex)
	}
}
