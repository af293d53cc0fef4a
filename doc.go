// Package texcache provides a reference-counted GPU texture cache for
// character models.
//
// # Overview
//
// Model packs reuse the same textures across many instances: a scene with
// five copies of one avatar should decode and upload each texture once.
// texcache amortizes decode and upload, decouples decoding (any goroutine)
// from GPU upload (the render goroutine), and reclaims VRAM under a soft
// budget without destroying textures still in use.
//
// # Quick Start
//
//	c := texcache.New(texcache.FileDecoder{}, texcache.NewHALBackend(device, queue))
//	rc, err := c.RenderContext() // claimed by the render goroutine
//
//	// Loading phase, any goroutines:
//	_ = c.SubmitAll(ctx, texturePaths, runtime.GOMAXPROCS(0))
//
//	// Render goroutine:
//	tex, ok := rc.Acquire("model/tex/face.png")
//	if ok {
//	    c.AddRef("model/tex/face.png")
//	} else {
//	    tex = rc.Placeholder()
//	}
//
//	// Model disposed, any goroutine:
//	c.Release("model/tex/face.png")
//
//	// Every frame:
//	rc.Tick()
//
// # Lifecycle
//
// A texture is Active from its first Acquire. When its reference count
// drops to zero it moves to pending release, where a later Acquire
// revives it with the same GPU handle. RenderContext.Tick destroys
// pending textures older than TTL, then the oldest ones while the pending
// footprint exceeds the budget.
//
// # Thread Affinity
//
// GPU objects are created and destroyed only through RenderContext, which
// one goroutine claims. ForceInvalidate may run anywhere: it drops the
// record at once and hands the texture to the render goroutine for
// destruction on its next Tick.
//
// # Sub-packages
//
//   - material: binds a model's material textures with placeholder fallback
//   - watch: invalidates textures when files change on disk
package texcache
