// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"errors"
	"sync"
	"testing"
)

func TestPool_GetPut_Basic(t *testing.T) {
	pool := NewPool(4)

	buf, err := pool.Get(100, 50, FormatRGBA8)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if buf.Width() != 100 || buf.Height() != 50 {
		t.Errorf("got dimensions %dx%d, want 100x50", buf.Width(), buf.Height())
	}
	if buf.Len() != 100*50*4 {
		t.Errorf("Len() = %d, want %d", buf.Len(), 100*50*4)
	}
	if pool.Outstanding() != 1 {
		t.Errorf("Outstanding() = %d, want 1", pool.Outstanding())
	}

	first := &buf.Data()[0]
	if !pool.Put(buf) {
		t.Fatal("Put returned false for owned buffer")
	}
	if !buf.Freed() {
		t.Error("buffer should be marked freed")
	}
	if pool.Idle() != 1 {
		t.Errorf("Idle() = %d, want 1", pool.Idle())
	}

	// Same size class comes back from the bucket.
	again, err := pool.Get(100, 50, FormatRGBA8)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if &again.Data()[0] != first {
		t.Error("expected pixel storage to be reused")
	}
	if again.Freed() {
		t.Error("reused buffer should not be marked freed")
	}
	if pool.Allocs() != 2 || pool.Frees() != 1 {
		t.Errorf("allocs/frees = %d/%d, want 2/1", pool.Allocs(), pool.Frees())
	}
}

func TestPool_DoubleFree(t *testing.T) {
	pool := NewPool(4)
	buf, _ := pool.Get(8, 8, FormatRGB8)

	if !buf.Free() {
		t.Fatal("first Free should succeed")
	}
	if buf.Free() {
		t.Error("second Free should report false")
	}
	if pool.Frees() != 1 {
		t.Errorf("Frees() = %d, want 1", pool.Frees())
	}
}

func TestPool_StaleFreeAfterReuse(t *testing.T) {
	pool := NewPool(4)
	old, _ := pool.Get(8, 8, FormatRGBA8)
	old.Free()

	current, _ := pool.Get(8, 8, FormatRGBA8)
	if current == old {
		t.Fatal("Get must return a new handle for reused storage")
	}

	// A stale holder freeing its old handle must not release the new checkout.
	if old.Free() {
		t.Error("stale Free should report false")
	}
	if current.Freed() {
		t.Error("current checkout was freed by a stale handle")
	}
	if pool.Outstanding() != 1 {
		t.Errorf("Outstanding() = %d, want 1", pool.Outstanding())
	}
	if pool.Idle() != 0 {
		t.Errorf("Idle() = %d, want 0", pool.Idle())
	}

	if !current.Free() {
		t.Error("current Free should succeed")
	}
}

func TestPool_ForeignBuffer(t *testing.T) {
	a := NewPool(4)
	b := NewPool(4)
	buf, _ := a.Get(4, 4, FormatRGBA8)

	if b.Put(buf) {
		t.Error("Put into a foreign pool should fail")
	}
	if b.Put(nil) {
		t.Error("Put(nil) should fail")
	}
	if buf.Freed() {
		t.Error("buffer must stay owned after a rejected Put")
	}
}

func TestPool_BucketLimit(t *testing.T) {
	pool := NewPool(1)
	b1, _ := pool.Get(16, 16, FormatRGB8)
	b2, _ := pool.Get(16, 16, FormatRGB8)

	pool.Put(b1)
	pool.Put(b2)

	if pool.Idle() != 1 {
		t.Errorf("Idle() = %d, want 1", pool.Idle())
	}
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}

	pool.Drain()
	if pool.Idle() != 0 {
		t.Errorf("Idle() after Drain = %d, want 0", pool.Idle())
	}
}

func TestPool_InvalidParams(t *testing.T) {
	pool := NewPool(4)

	tests := []struct {
		name   string
		w, h   int
		format Format
		want   error
	}{
		{"zero width", 0, 10, FormatRGBA8, ErrInvalidDimensions},
		{"negative height", 10, -1, FormatRGBA8, ErrInvalidDimensions},
		{"bad format", 10, 10, formatCount, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := pool.Get(tt.w, tt.h, tt.format)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get error = %v, want %v", err, tt.want)
			}
			if buf != nil {
				t.Error("expected nil buffer")
			}
		})
	}
	if pool.Allocs() != 0 {
		t.Errorf("failed Get must not count as allocation, got %d", pool.Allocs())
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool(2)
	const goroutines = 16
	const iterations = 50

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range iterations {
				buf, err := pool.Get(8+g%3, 8+i%2, FormatRGBA8)
				if err != nil {
					t.Errorf("Get: %v", err)
					return
				}
				buf.Free()
			}
		}(g)
	}
	wg.Wait()

	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}
	if pool.Allocs() != goroutines*iterations {
		t.Errorf("Allocs() = %d, want %d", pool.Allocs(), goroutines*iterations)
	}
}
