// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"errors"
	"sync/atomic"
)

// Common errors for pixel buffers.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("image: invalid format")
)

// PixelBuffer is a tightly packed CPU copy of a decoded texture.
//
// Rows are stored top to bottom with no padding. A PixelBuffer is owned by
// one component at a time: the predecode pipeline until the uploader
// consumes it, or the uploader itself during a synchronous load. The owner
// returns it with Pool.Put once the pixels are no longer needed.
type PixelBuffer struct {
	data   []byte
	width  int
	height int
	format Format

	pool  *Pool
	freed atomic.Bool
}

// Width returns the buffer width in pixels.
func (b *PixelBuffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *PixelBuffer) Height() int { return b.height }

// Format returns the pixel format.
func (b *PixelBuffer) Format() Format { return b.format }

// HasAlpha reports whether the source image had transparency.
func (b *PixelBuffer) HasAlpha() bool { return b.format.HasAlpha() }

// Stride returns the number of bytes per row.
func (b *PixelBuffer) Stride() int { return b.format.RowBytes(b.width) }

// Len returns the size of the pixel data in bytes.
func (b *PixelBuffer) Len() int { return len(b.data) }

// Data returns the underlying pixel bytes.
// The slice must not be retained after the buffer is freed.
func (b *PixelBuffer) Data() []byte { return b.data }

// Freed reports whether the buffer has been returned to its pool.
func (b *PixelBuffer) Freed() bool { return b.freed.Load() }

// Free returns the buffer to the pool it was allocated from.
// It reports false if the buffer had already been freed. Each PixelBuffer
// is a single checkout: once freed it stays freed, even after the pool
// hands its storage to a new owner.
func (b *PixelBuffer) Free() bool {
	if b == nil {
		return false
	}
	return b.pool.Put(b)
}

// RGBA returns the pixels as tightly packed RGBA8, expanding RGB8 with an
// opaque alpha channel. RGBA8 buffers are returned without copying.
func (b *PixelBuffer) RGBA() []byte {
	if b.format == FormatRGBA8 {
		return b.data
	}
	return rgbToRGBA(b.data, b.width, b.height)
}

// rgbToRGBA converts RGB (3 bytes/pixel) data to RGBA (4 bytes/pixel).
func rgbToRGBA(src []byte, width, height int) []byte {
	n := width * height
	dst := make([]byte, n*4)
	for i := range n {
		dst[i*4+0] = src[i*3+0]
		dst[i*4+1] = src[i*3+1]
		dst[i*4+2] = src[i*3+2]
		dst[i*4+3] = 0xFF
	}
	return dst
}
