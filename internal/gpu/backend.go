// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/texcache/internal/image"
)

// Backend creates and destroys GPU textures.
//
// Implementations are only called from the render goroutine, through an
// Uploader. They must not retain buf or its data after CreateTexture
// returns: the buffer goes back to its pool right away.
type Backend interface {
	// CreateTexture uploads buf into a new texture. label is a debug name.
	CreateTexture(buf *image.PixelBuffer, label string) (Texture, error)

	// DestroyTexture frees the texture. Unknown ids are ignored.
	DestroyTexture(id TextureID)
}

// validate checks the pixel buffer before a backend touches the GPU.
func validate(buf *image.PixelBuffer) error {
	if buf == nil {
		return ErrNilPixels
	}
	if buf.Width() <= 0 || buf.Height() <= 0 {
		return ErrInvalidDimensions
	}
	return nil
}
