// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texcache/internal/image"
)

// textureDestroyer is the interface for destroying native textures.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// createFunc creates a native texture from tightly packed RGBA8 pixels.
type createFunc func(width, height int, data []byte) (any, error)

// CreatorBackend implements Backend on top of a host application's
// texture creator, such as a gogpu renderer. Native textures are
// destroyed through their Destroy method when they have one.
type CreatorBackend struct {
	create createFunc

	mu       sync.RWMutex
	nextID   atomic.Uint64
	textures map[TextureID]any
}

// NewCreatorBackend returns a backend that creates textures with c.
func NewCreatorBackend(c gpucontext.TextureCreator) *CreatorBackend {
	return newCreatorBackend(func(width, height int, data []byte) (any, error) {
		return c.NewTextureFromRGBA(width, height, data)
	})
}

func newCreatorBackend(create createFunc) *CreatorBackend {
	return &CreatorBackend{
		create:   create,
		textures: make(map[TextureID]any),
	}
}

// CreateTexture creates a native texture from buf.
func (b *CreatorBackend) CreateTexture(buf *image.PixelBuffer, label string) (Texture, error) {
	if err := validate(buf); err != nil {
		return Texture{}, err
	}

	native, err := b.create(buf.Width(), buf.Height(), buf.RGBA())
	if err != nil {
		return Texture{}, fmt.Errorf("create texture %s: %w", label, err)
	}
	if native == nil {
		return Texture{}, ErrInvalidTexture
	}

	id := TextureID(b.nextID.Add(1))

	b.mu.Lock()
	b.textures[id] = native
	b.mu.Unlock()

	return Texture{
		ID:        id,
		Width:     buf.Width(),
		Height:    buf.Height(),
		HasAlpha:  buf.HasAlpha(),
		SizeBytes: footprint(buf.Width(), buf.Height()),
	}, nil
}

// DestroyTexture destroys the native texture behind id.
func (b *CreatorBackend) DestroyTexture(id TextureID) {
	b.mu.Lock()
	native, ok := b.textures[id]
	if ok {
		delete(b.textures, id)
	}
	b.mu.Unlock()

	if !ok {
		return
	}
	if d, ok := native.(textureDestroyer); ok {
		d.Destroy()
	}
}

// Native returns the host texture behind id, for the draw path.
func (b *CreatorBackend) Native(id TextureID) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	native, ok := b.textures[id]
	return native, ok
}
