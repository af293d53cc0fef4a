// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu owns every GPU-resident texture of the cache.
//
// Nothing outside this package creates or destroys GPU objects. Backend
// implementations are thread-affine: they are called only from the
// goroutine that owns the GPU context (the render goroutine). Other
// goroutines hand textures over through a DestroyQueue.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Texture-related errors.
var (
	// ErrInvalidDimensions is returned when a texture would have a
	// non-positive width or height.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")

	// ErrNilPixels is returned when Upload receives no pixel buffer.
	ErrNilPixels = errors.New("gpu: pixel buffer is nil")

	// ErrBackendClosed is returned when operating on a closed backend.
	ErrBackendClosed = errors.New("gpu: backend closed")

	// ErrInvalidTexture is returned when a backend reports success but
	// hands back the invalid texture id.
	ErrInvalidTexture = errors.New("gpu: backend returned invalid texture")
)

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidTexture is the zero value, representing "not created".
const InvalidTexture TextureID = 0

// uploadFormat is the GPU format of every cached texture. WebGPU has no
// 24-bit format, so opaque RGB8 pixels are expanded on upload.
const uploadFormat = gputypes.TextureFormatRGBA8Unorm

// uploadUsage is the usage of every cached texture: sampled by the
// material shaders, written once by the queue.
const uploadUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst

// Texture describes a GPU-resident texture.
type Texture struct {
	// ID is the backend handle. InvalidTexture means "not created".
	ID TextureID

	// Width and Height are the texture size in pixels.
	Width  int
	Height int

	// HasAlpha reports whether the source image had transparency.
	// Renderers use it to pick the blended material pass.
	HasAlpha bool

	// SizeBytes is the VRAM footprint of the texture.
	SizeBytes uint64
}

// IsValid reports whether the texture refers to a live GPU object.
func (t Texture) IsValid() bool {
	return t.ID != InvalidTexture
}

// String returns a string representation of the texture.
func (t Texture) String() string {
	alpha := "opaque"
	if t.HasAlpha {
		alpha = "alpha"
	}
	return fmt.Sprintf("Texture[#%d %dx%d %s %d bytes]", t.ID, t.Width, t.Height, alpha, t.SizeBytes)
}

// footprint returns the VRAM size of a width x height texture in uploadFormat.
func footprint(width, height int) uint64 {
	//nolint:gosec // G115: dimensions are validated positive
	return uint64(width) * uint64(height) * 4
}
