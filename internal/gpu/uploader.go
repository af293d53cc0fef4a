// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/texcache/internal/image"
)

// Uploader is the single owner of GPU textures. Every texture the cache
// holds was created by Upload and is freed exactly once by Destroy.
//
// Upload and Destroy are render-goroutine operations. Live and the
// counters may be read from anywhere.
type Uploader struct {
	backend Backend

	mu   sync.Mutex
	live map[TextureID]uint64 // id -> size in bytes

	uploads    atomic.Uint64
	destroys   atomic.Uint64
	liveBytes  atomic.Uint64
	doubleFree atomic.Uint64
}

// NewUploader creates an uploader driving backend.
func NewUploader(backend Backend) *Uploader {
	return &Uploader{
		backend: backend,
		live:    make(map[TextureID]uint64),
	}
}

// Upload creates a texture from buf. The buffer is consumed: it goes
// back to its pool whether or not the upload succeeded.
func (u *Uploader) Upload(buf *image.PixelBuffer, label string) (Texture, error) {
	if buf == nil {
		return Texture{}, ErrNilPixels
	}
	defer buf.Free()

	tex, err := u.backend.CreateTexture(buf, label)
	if err != nil {
		return Texture{}, fmt.Errorf("upload %s: %w", label, err)
	}
	if !tex.IsValid() {
		return Texture{}, fmt.Errorf("upload %s: %w", label, ErrInvalidTexture)
	}

	u.mu.Lock()
	u.live[tex.ID] = tex.SizeBytes
	u.mu.Unlock()

	u.uploads.Add(1)
	u.liveBytes.Add(tex.SizeBytes)

	slogger().Debug("gpu: texture uploaded", "label", label, "texture", tex.String())
	return tex, nil
}

// Destroy frees tex. It returns false, and leaves the backend untouched,
// if tex is not live: either never uploaded or already destroyed.
func (u *Uploader) Destroy(tex Texture) bool {
	if !tex.IsValid() {
		return false
	}

	u.mu.Lock()
	size, ok := u.live[tex.ID]
	if ok {
		delete(u.live, tex.ID)
	}
	u.mu.Unlock()

	if !ok {
		u.doubleFree.Add(1)
		slogger().Warn("gpu: destroy of texture that is not live", "texture", tex.String())
		return false
	}

	u.backend.DestroyTexture(tex.ID)
	u.destroys.Add(1)
	u.liveBytes.Add(^(size - 1))
	return true
}

// Live returns the number of textures created and not yet destroyed.
func (u *Uploader) Live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.live)
}

// LiveBytes returns the VRAM footprint of all live textures.
func (u *Uploader) LiveBytes() uint64 { return u.liveBytes.Load() }

// Uploads returns the total number of successful uploads.
func (u *Uploader) Uploads() uint64 { return u.uploads.Load() }

// Destroys returns the total number of textures destroyed.
func (u *Uploader) Destroys() uint64 { return u.destroys.Load() }

// RejectedDestroys returns how many Destroy calls targeted a texture
// that was not live.
func (u *Uploader) RejectedDestroys() uint64 { return u.doubleFree.Load() }
