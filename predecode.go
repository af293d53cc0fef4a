package texcache

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/texcache/internal/image"
)

// Submit decodes key into a pixel buffer ahead of its first Acquire, so
// the render goroutine only has to upload it. Safe from any goroutine.
//
// Submit does nothing if key already has a record, a predecoded buffer or
// a recent decode failure. When two goroutines race on the same key the
// first registration wins and the loser frees its buffer. Decode failures
// are logged and otherwise ignored; Acquire will report the miss.
func (c *Cache) Submit(key string) {
	if c.closed.Load() {
		return
	}
	k := Key(key)
	if k == "" {
		return
	}
	s := c.table.shardFor(k)

	s.mu.Lock()
	_, hasRecord := s.records[k]
	_, hasBuffer := s.buffers[k]
	s.mu.Unlock()
	if hasRecord || hasBuffer || c.backedOff(k) {
		return
	}

	buf, err := image.Load(c.decoder, k, c.pool)
	if err != nil {
		c.noteDecodeFailure(k, err)
		return
	}

	s.mu.Lock()
	_, hasRecord = s.records[k]
	_, hasBuffer = s.buffers[k]
	register := !hasRecord && !hasBuffer && !c.closed.Load()
	if register {
		s.buffers[k] = buf
		c.predecoded.Add(1)
	}
	s.mu.Unlock()

	if !register {
		buf.Free()
	}
}

// SubmitAll predecodes keys using up to workers goroutines and waits for
// them. workers <= 0 means one goroutine per key. It returns ctx.Err() if
// the context was canceled before every key was submitted; decode failures
// never fail the batch.
func (c *Cache) SubmitAll(ctx context.Context, keys []string, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, key := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Submit(key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ClearPredecoded frees every decoded buffer that was never uploaded and
// returns how many there were. Call it after a loading phase so unused
// pixels do not stay resident.
func (c *Cache) ClearPredecoded() int {
	n := 0
	for _, s := range c.table.shards {
		s.mu.Lock()
		bufs := s.buffers
		s.buffers = make(map[string]*image.PixelBuffer)
		c.predecoded.Add(-int64(len(bufs)))
		s.mu.Unlock()

		for _, buf := range bufs {
			buf.Free()
			n++
		}
	}
	return n
}
