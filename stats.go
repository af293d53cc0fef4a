package texcache

import (
	"fmt"

	units "github.com/docker/go-units"
)

// Stats contains cache usage statistics.
type Stats struct {
	// ActiveCount and ActiveBytes describe textures that may be in use.
	ActiveCount int
	ActiveBytes int64

	// PendingCount and PendingBytes describe released textures waiting
	// for revival or eviction.
	PendingCount int
	PendingBytes int64

	// Predecoded is the number of decoded buffers waiting for upload.
	Predecoded int

	// Budget is the soft VRAM budget for pending-release textures.
	Budget int64

	// LiveTextures is the number of GPU textures the cache owns,
	// including the placeholder and invalidated textures not yet freed.
	LiveTextures int

	Uploads         uint64
	Revivals        uint64
	TTLEvictions    uint64
	BudgetEvictions uint64
	DecodeFailures  uint64
	Invalidations   uint64
}

// Stats returns current cache statistics. Safe from any goroutine.
// Counters are read without a global lock, so a snapshot taken during
// concurrent activity may be slightly inconsistent.
func (c *Cache) Stats() Stats {
	return Stats{
		ActiveCount:     int(c.activeCount.Load()),
		ActiveBytes:     c.activeBytes.Load(),
		PendingCount:    int(c.pendingCount.Load()),
		PendingBytes:    c.pendingBytes.Load(),
		Predecoded:      int(c.predecoded.Load()),
		Budget:          c.opts.budget,
		LiveTextures:    c.uploader.Live(),
		Uploads:         c.uploads.Load(),
		Revivals:        c.revivals.Load(),
		TTLEvictions:    c.ttlEvictions.Load(),
		BudgetEvictions: c.budgetEvictions.Load(),
		DecodeFailures:  c.decodeFailures.Load(),
		Invalidations:   c.invalidations.Load(),
	}
}

// String returns a human-readable string of cache stats.
func (s Stats) String() string {
	budget := "ttl-only"
	if s.Budget > 0 {
		budget = units.BytesSize(float64(s.Budget))
	}
	return fmt.Sprintf("Textures[%d active %s, %d pending %s/%s, %d predecoded, %d uploads, %d revivals, %d ttl + %d budget evictions]",
		s.ActiveCount, units.BytesSize(float64(s.ActiveBytes)),
		s.PendingCount, units.BytesSize(float64(s.PendingBytes)), budget,
		s.Predecoded,
		s.Uploads,
		s.Revivals,
		s.TTLEvictions, s.BudgetEvictions)
}
