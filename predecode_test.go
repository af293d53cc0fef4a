package texcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireConsumesPredecoded(t *testing.T) {
	f := newFixture(t)
	const key = "model/tex/face.png"

	f.cache.Submit(key)
	require.True(t, f.cache.Predecoded(key))
	assert.Equal(t, 1, f.cache.Stats().Predecoded)

	f.acquire(t, key)
	assert.False(t, f.cache.Predecoded(key))
	assert.Equal(t, 1, f.decoder.callCount(key), "upload must reuse the predecoded pixels")
	assert.Equal(t, 0, f.cache.Stats().Predecoded)
	assert.Equal(t, int64(0), f.pool.Outstanding())
}

func TestSubmitSkipsKnownKeys(t *testing.T) {
	f := newFixture(t)

	f.acquire(t, "active.png")
	f.cache.Submit("active.png")

	f.acquire(t, "pending.png")
	f.cache.Release("pending.png")
	f.cache.Submit("pending.png")

	f.cache.Submit("queued.png")
	f.cache.Submit("queued.png")

	assert.Equal(t, 1, f.decoder.callCount("active.png"))
	assert.Equal(t, 1, f.decoder.callCount("pending.png"))
	assert.Equal(t, 1, f.decoder.callCount("queued.png"))
	assert.False(t, f.cache.Predecoded("active.png"))
	assert.False(t, f.cache.Predecoded("pending.png"))
}

func TestSubmitDecodeFailure(t *testing.T) {
	f := newFixture(t)
	f.decoder.setMissing("gone.png")

	f.cache.Submit("gone.png")
	assert.False(t, f.cache.Predecoded("gone.png"))
	assert.Equal(t, uint64(1), f.cache.Stats().DecodeFailures)
	assert.Equal(t, int64(0), f.pool.Outstanding())
}

// TestSubmitConcurrentNoLeak checks that racing predecodes of the same
// keys never leak a pixel buffer: every buffer handed out by the pool is
// eventually returned, whether it lost the race, was uploaded or was
// cleared.
func TestSubmitConcurrentNoLeak(t *testing.T) {
	f := newFixture(t)
	f.decoder.delay = time.Millisecond

	const goroutines = 16
	keys := make([]string, 8)
	for i := range keys {
		keys[i] = fmt.Sprintf("model/tex/%d.png", i)
	}

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, k := range keys {
				f.cache.Submit(k)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), f.cache.Stats().Predecoded)

	// Consume half, clear the rest.
	for _, k := range keys[:4] {
		f.acquire(t, k)
	}
	assert.Equal(t, 4, f.cache.ClearPredecoded())

	assert.Equal(t, f.pool.Allocs(), f.pool.Frees())
	assert.Equal(t, int64(0), f.pool.Outstanding())
	assert.GreaterOrEqual(t, f.decoder.totalCalls(), len(keys))
}

func TestSubmitRacesWithAcquire(t *testing.T) {
	f := newFixture(t)
	f.decoder.delay = time.Millisecond

	const key = "model/tex/raced.png"
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.cache.Submit(key)
		}()
	}
	f.acquire(t, key)
	wg.Wait()

	// A buffer registered after the record appeared is never left behind
	// once the key has a record.
	f.cache.ClearPredecoded()
	assert.Equal(t, int64(0), f.pool.Outstanding())
	assert.Equal(t, 1, f.backend.createdCount())
}

func TestSubmitAll(t *testing.T) {
	f := newFixture(t)
	keys := []string{"a.png", "b.png", "c.png", "d.png", "a.png"}

	err := f.cache.SubmitAll(context.Background(), keys, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, f.cache.Stats().Predecoded)
	for _, k := range keys {
		assert.True(t, f.cache.Predecoded(k), k)
	}
}

func TestSubmitAllIgnoresDecodeFailures(t *testing.T) {
	f := newFixture(t)
	f.decoder.setMissing("b.png")

	err := f.cache.SubmitAll(context.Background(), []string{"a.png", "b.png"}, 0)
	require.NoError(t, err)
	assert.True(t, f.cache.Predecoded("a.png"))
	assert.False(t, f.cache.Predecoded("b.png"))
}

func TestSubmitAllCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.cache.SubmitAll(ctx, []string{"a.png", "b.png"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.decoder.totalCalls())
}

func TestClearPredecodedEmpty(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.cache.ClearPredecoded())
}
