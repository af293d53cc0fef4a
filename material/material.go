// Package material binds the textures of a loaded model to the shared
// texture cache.
//
// A model holds one reference per bound texture for its whole lifetime.
// Materials whose texture fails to load are drawn with the cache's white
// placeholder instead.
package material

import (
	"context"
	"path"
	"sync"

	"github.com/gogpu/texcache"
)

// LightMapName is the per-model light map file, looked up in the model
// directory. Models without one get the white placeholder.
const LightMapName = "lightMap.png"

// Binding is the texture bound to one material slot.
type Binding struct {
	// Key is the canonical texture key, empty for materials without a
	// texture.
	Key string

	// Texture is the bound texture: the cached one, or the placeholder.
	Texture texcache.Texture

	// HasAlpha selects the blended draw pass.
	HasAlpha bool

	// Placeholder reports that the texture could not be loaded.
	Placeholder bool
}

// Set is the texture bindings of one model instance.
type Set struct {
	cache *texcache.Cache

	Materials []Binding
	LightMap  Binding

	mu   sync.Mutex
	keys []string // referenced keys, released by Close
}

// Resolve returns the cache keys for a model's texture paths, plus its
// light map. Relative paths are resolved against modelDir. Empty paths
// stay empty.
func Resolve(modelDir string, texPaths []string) []string {
	keys := make([]string, 0, len(texPaths)+1)
	for _, p := range texPaths {
		keys = append(keys, resolve(modelDir, p))
	}
	return append(keys, resolve(modelDir, LightMapName))
}

func resolve(modelDir, p string) string {
	if p == "" {
		return ""
	}
	k := texcache.Key(p)
	if path.IsAbs(k) || modelDir == "" {
		return k
	}
	return texcache.Key(path.Join(texcache.Key(modelDir), k))
}

// Preload predecodes every texture of a model on up to workers goroutines.
// Call it from the model loader before Bind; missing files are skipped.
func Preload(ctx context.Context, c *texcache.Cache, modelDir string, texPaths []string, workers int) error {
	keys := Resolve(modelDir, texPaths)
	unique := keys[:0:0]
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, k)
	}
	return c.SubmitAll(ctx, unique, workers)
}

// Bind acquires and references the texture of every material of a model,
// in material order, and the model's light map. Must be called on the
// render goroutine that owns rc.
func Bind(rc *texcache.RenderContext, modelDir string, texPaths []string) *Set {
	s := &Set{
		cache:     rc.Cache(),
		Materials: make([]Binding, len(texPaths)),
	}
	for i, p := range texPaths {
		s.Materials[i] = s.bind(rc, resolve(modelDir, p))
	}
	s.LightMap = s.bind(rc, resolve(modelDir, LightMapName))

	texcache.Logger().Debug("material: model bound",
		"dir", modelDir,
		"materials", len(texPaths),
		"textures", len(s.keys))
	return s
}

func (s *Set) bind(rc *texcache.RenderContext, key string) Binding {
	if key != "" {
		if tex, ok := rc.Acquire(key); ok {
			s.cache.AddRef(key)
			s.keys = append(s.keys, key)
			return Binding{Key: key, Texture: tex, HasAlpha: tex.HasAlpha}
		}
	}
	p := rc.Placeholder()
	return Binding{Key: key, Texture: p, HasAlpha: true, Placeholder: true}
}

// Keys returns the texture keys the set holds a reference to.
func (s *Set) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// Close releases every texture reference of the model. Safe from any
// goroutine; later calls do nothing.
func (s *Set) Close() {
	s.mu.Lock()
	keys := s.keys
	s.keys = nil
	s.mu.Unlock()

	s.cache.ReleaseAll(keys)
}
