// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import "testing"

func TestFormat_Info(t *testing.T) {
	tests := []struct {
		format   Format
		bpp      int
		hasAlpha bool
		name     string
	}{
		{FormatRGB8, 3, false, "RGB8"},
		{FormatRGBA8, 4, true, "RGBA8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.BytesPerPixel(); got != tt.bpp {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.bpp)
			}
			if got := tt.format.HasAlpha(); got != tt.hasAlpha {
				t.Errorf("HasAlpha() = %v, want %v", got, tt.hasAlpha)
			}
			if got := tt.format.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.format.ImageBytes(10, 5); got != 10*5*tt.bpp {
				t.Errorf("ImageBytes(10, 5) = %d, want %d", got, 10*5*tt.bpp)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	if FormatFor(true) != FormatRGBA8 {
		t.Error("FormatFor(true) should be RGBA8")
	}
	if FormatFor(false) != FormatRGB8 {
		t.Error("FormatFor(false) should be RGB8")
	}
	if formatCount.IsValid() {
		t.Error("formatCount must not be valid")
	}
}
