package texcache

import "github.com/gogpu/texcache/internal/gpu"

// Texture describes a cached GPU texture: its backend handle, size,
// alpha flag and VRAM footprint.
type Texture = gpu.Texture

// TextureID is an opaque backend texture handle.
type TextureID = gpu.TextureID
