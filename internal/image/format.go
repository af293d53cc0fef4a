// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package image decodes texture files into pooled CPU pixel buffers ready
// for GPU upload.
//
// Decoding is safe from any goroutine. A PixelBuffer has exactly one owner
// at a time and goes back to its Pool exactly once.
package image

import "fmt"

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	// Opaque textures are packed this way.
	FormatRGB8 Format = iota

	// FormatRGBA8 is 32-bit non-premultiplied RGBA (4 bytes per pixel).
	FormatRGBA8

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatFor returns the packing used for a texture with or without alpha.
func FormatFor(hasAlpha bool) Format {
	if hasAlpha {
		return FormatRGBA8
	}
	return FormatRGB8
}

// IsValid returns true if the format is a known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// BytesPerPixel returns the number of bytes per pixel.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB8:
		return 3
	case FormatRGBA8:
		return 4
	default:
		return 0
	}
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	return f == FormatRGBA8
}

// RowBytes returns the number of bytes for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes returns the total bytes for an image of the given size.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}
