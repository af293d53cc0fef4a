//go:build !nogpu

package texcache

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texcache/internal/gpu"
)

// NewHALBackend returns a backend that creates textures directly on a
// wgpu HAL device. The device must be owned by the render goroutine.
func NewHALBackend(device hal.Device, queue hal.Queue) *gpu.HALBackend {
	return gpu.NewHALBackend(device, queue)
}
