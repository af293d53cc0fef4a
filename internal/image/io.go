// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"

	// Registered decoders. MMD sphere maps (.spa/.sph) are BMP files.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/exp/mmap"
	"golang.org/x/image/draw"
)

// I/O errors.
var (
	// ErrEmptyData is returned when a texture file has no content.
	ErrEmptyData = errors.New("image: empty data")

	// ErrEmptyImage is returned when a decoded image has zero width or height.
	ErrEmptyImage = errors.New("image: zero-size image")
)

// Decoder turns a texture path into a decoded image.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(path string) (image.Image, error)

// Decode calls f(path).
func (f DecoderFunc) Decode(path string) (image.Image, error) { return f(path) }

// FileDecoder decodes texture files from the local filesystem.
// The format is detected from content, so renamed files decode correctly.
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.
type FileDecoder struct{}

// Decode memory-maps the file at path and decodes it.
func (FileDecoder) Decode(path string) (image.Image, error) {
	r, err := mmap.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("image: open file: %w", err)
	}
	defer func() { _ = r.Close() }()

	if r.Len() == 0 {
		return nil, ErrEmptyData
	}

	img, _, err := image.Decode(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return nil, fmt.Errorf("image: decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Load decodes path with dec and packs the result into a buffer from pool.
func Load(dec Decoder, path string, pool *Pool) (*PixelBuffer, error) {
	img, err := dec.Decode(path)
	if err != nil {
		return nil, err
	}
	return Pack(img, pool)
}

// Pack copies img into a tightly packed buffer from pool.
//
// Images that report themselves opaque are packed as RGB8; everything else
// is packed as non-premultiplied RGBA8.
func Pack(img image.Image, pool *Pool) (*PixelBuffer, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	hasAlpha := true
	if o, ok := img.(interface{ Opaque() bool }); ok {
		hasAlpha = !o.Opaque()
	}

	src := toNRGBA(img)

	buf, err := pool.Get(width, height, FormatFor(hasAlpha))
	if err != nil {
		return nil, err
	}

	dst := buf.Data()
	if hasAlpha {
		rowBytes := width * 4
		for y := range height {
			srcStart := y * src.Stride
			copy(dst[y*rowBytes:(y+1)*rowBytes], src.Pix[srcStart:srcStart+rowBytes])
		}
		return buf, nil
	}

	for y := range height {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := dst[y*width*3:]
		for x := range width {
			dstRow[x*3+0] = srcRow[x*4+0]
			dstRow[x*3+1] = srcRow[x*4+1]
			dstRow[x*3+2] = srcRow[x*4+2]
		}
	}
	return buf, nil
}

// toNRGBA returns img as an NRGBA image whose bounds start at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) {
		return nrgba
	}

	// Generic path for any image type
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
