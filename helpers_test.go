package texcache

import (
	"fmt"
	stdimage "image"
	"image/color"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/texcache/internal/gpu"
	"github.com/gogpu/texcache/internal/image"
)

// fakeBackend is an in-memory gpu.Backend recording every call.
type fakeBackend struct {
	mu        sync.Mutex
	next      gpu.TextureID
	created   int
	destroyed []gpu.TextureID
	live      map[gpu.TextureID]string
	sizes     map[string]uint64 // per-label footprint override
	failNext  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		live:  make(map[gpu.TextureID]string),
		sizes: make(map[string]uint64),
	}
}

func (b *fakeBackend) CreateTexture(buf *image.PixelBuffer, label string) (gpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return gpu.Texture{}, err
	}
	size, ok := b.sizes[label]
	if !ok {
		size = uint64(buf.Width() * buf.Height() * 4) //nolint:gosec // test sizes are small
	}
	b.next++
	b.created++
	b.live[b.next] = label
	return gpu.Texture{
		ID:        b.next,
		Width:     buf.Width(),
		Height:    buf.Height(),
		HasAlpha:  buf.HasAlpha(),
		SizeBytes: size,
	}, nil
}

func (b *fakeBackend) DestroyTexture(id gpu.TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.live, id)
	b.destroyed = append(b.destroyed, id)
}

func (b *fakeBackend) createdCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

func (b *fakeBackend) destroyedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.destroyed)
}

func (b *fakeBackend) liveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

func (b *fakeBackend) setSize(key string, size uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sizes[Key(key)] = size
}

// fakeDecoder produces small opaque images and counts decodes per path.
type fakeDecoder struct {
	mu      sync.Mutex
	calls   map[string]int
	missing map[string]bool
	delay   time.Duration
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		calls:   make(map[string]int),
		missing: make(map[string]bool),
	}
}

func (d *fakeDecoder) Decode(path string) (stdimage.Image, error) {
	d.mu.Lock()
	d.calls[path]++
	missing := d.missing[path]
	delay := d.delay
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if missing {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img, nil
}

func (d *fakeDecoder) callCount(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[Key(path)]
}

func (d *fakeDecoder) totalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

func (d *fakeDecoder) setMissing(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.missing[Key(path)] = true
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fixture bundles a cache with its fakes.
type fixture struct {
	cache   *Cache
	rc      *RenderContext
	backend *fakeBackend
	decoder *fakeDecoder
	clock   *fakeClock
	pool    *image.Pool
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		backend: newFakeBackend(),
		decoder: newFakeDecoder(),
		clock:   newFakeClock(),
		pool:    image.NewPool(image.DefaultMaxPerBucket),
	}
	all := append([]Option{WithClock(f.clock.Now), WithPool(f.pool)}, opts...)
	f.cache = New(f.decoder, f.backend, all...)

	rc, err := f.cache.RenderContext()
	require.NoError(t, err)
	f.rc = rc
	return f
}

// acquire acquires key and fails the test if it cannot be loaded.
func (f *fixture) acquire(t *testing.T, key string) gpu.Texture {
	t.Helper()
	tex, ok := f.rc.Acquire(key)
	require.True(t, ok, "acquire %s", key)
	require.True(t, tex.IsValid())
	return tex
}
