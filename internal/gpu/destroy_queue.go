// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "sync"

// DestroyQueue collects textures dropped on goroutines that do not own
// the GPU context. The render goroutine frees them at its next
// checkpoint by calling Drain.
type DestroyQueue struct {
	mu       sync.Mutex
	textures []Texture
}

// Defer queues tex for destruction. Safe from any goroutine.
func (q *DestroyQueue) Defer(tex Texture) {
	if !tex.IsValid() {
		return
	}
	q.mu.Lock()
	q.textures = append(q.textures, tex)
	q.mu.Unlock()
}

// Drain destroys every queued texture through u and returns how many
// were freed. Must be called on the render goroutine.
func (q *DestroyQueue) Drain(u *Uploader) int {
	q.mu.Lock()
	pending := q.textures
	q.textures = nil
	q.mu.Unlock()

	n := 0
	for _, tex := range pending {
		if u.Destroy(tex) {
			n++
		}
	}
	return n
}

// Len returns the number of textures waiting to be destroyed.
func (q *DestroyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.textures)
}
