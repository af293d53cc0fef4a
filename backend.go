package texcache

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texcache/internal/gpu"
	"github.com/gogpu/texcache/internal/image"
)

// Backend creates and destroys GPU textures on the render goroutine.
type Backend = gpu.Backend

// Decoder turns a texture path into a decoded image.
// Implementations must be safe for concurrent use.
type Decoder = image.Decoder

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc = image.DecoderFunc

// FileDecoder decodes PNG, JPEG, GIF, BMP, TIFF and WebP files from disk.
type FileDecoder = image.FileDecoder

// NewCreatorBackend returns a backend that creates textures through a host
// renderer, such as a gogpu application.
func NewCreatorBackend(c gpucontext.TextureCreator) *gpu.CreatorBackend {
	return gpu.NewCreatorBackend(c)
}
