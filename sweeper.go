package texcache

import "time"

// TickResult counts what one Tick freed.
type TickResult struct {
	Deferred        int // invalidated textures freed from the destroy queue
	TTLEvictions    int
	BudgetEvictions int
}

// Evicted returns the number of pending-release textures destroyed.
func (r TickResult) Evicted() int { return r.TTLEvictions + r.BudgetEvictions }

// Tick runs the eviction sweeper. Call it periodically from the render
// goroutine, for example once per frame or once per second.
//
// It first frees textures invalidated by other goroutines. Then every
// texture pending release for longer than TTL is destroyed, even when the
// cache is far under its budget: this bounds how long an unused texture
// can hold VRAM at the cost of reloading assets reacquired just after the
// TTL. Finally, while the pending-release footprint exceeds the budget,
// the oldest released textures are destroyed. Active textures are never
// evicted.
func (rc *RenderContext) Tick() TickResult {
	c := rc.c
	if rc.torn {
		return TickResult{}
	}

	var res TickResult
	res.Deferred = c.destroyQ.Drain(c.uploader)

	now := c.now()
	for _, it := range c.pending.releasedBefore(now.Add(-TTL)) {
		if tex, ok := c.evict(it); ok {
			c.uploader.Destroy(tex)
			res.TTLEvictions++
			Logger().Debug("texcache: ttl eviction", "key", it.key, "idle", now.Sub(it.releasedAt).Round(time.Millisecond))
		}
	}
	c.ttlEvictions.Add(uint64(res.TTLEvictions)) //nolint:gosec // G115: non-negative count

	if budget := c.opts.budget; budget > 0 {
		for c.pendingBytes.Load() > budget {
			it, ok := c.pending.oldest()
			if !ok {
				break
			}
			if tex, ok := c.evict(it); ok {
				c.uploader.Destroy(tex)
				res.BudgetEvictions++
			}
		}
		c.budgetEvictions.Add(uint64(res.BudgetEvictions)) //nolint:gosec // G115: non-negative count
		if res.BudgetEvictions > 0 {
			Logger().Info("texcache: budget sweep",
				"evicted", res.BudgetEvictions,
				"pending_bytes", c.pendingBytes.Load(),
				"budget", budget)
		}
	}
	return res
}

// evict removes the record behind a pending-index entry if it is still
// the same pending release, and returns its texture for destruction.
// The entry leaves the index either way, so sweeper loops always make
// progress.
func (c *Cache) evict(it pendingItem) (Texture, bool) {
	s := c.table.shardFor(it.key)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[it.key]
	if rec == nil || rec.state != StatePending || rec.seq != it.seq {
		c.pending.remove(it)
		return Texture{}, false
	}
	delete(s.records, it.key)
	c.unaccount(rec)
	return rec.tex, true
}
