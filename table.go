package texcache

import (
	"sync"

	farm "github.com/dgryski/go-farm"

	"github.com/gogpu/texcache/internal/image"
)

const (
	// shardCount is the number of table shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	shardCount = 16

	// shardMask is used for fast shard selection (shardCount - 1).
	shardMask = shardCount - 1
)

// shard is a single partition of the resource table. A key's record and
// its predecoded buffer live in the same shard, so "does this key have a
// record or a buffer" is answered under one lock.
type shard struct {
	mu      sync.Mutex
	records map[string]*record
	buffers map[string]*image.PixelBuffer
}

// table is the sharded resource table.
type table struct {
	shards [shardCount]*shard
}

func newTable() *table {
	t := &table{}
	for i := range t.shards {
		t.shards[i] = &shard{
			records: make(map[string]*record),
			buffers: make(map[string]*image.PixelBuffer),
		}
	}
	return t
}

// shardFor returns the shard for a canonical key.
func (t *table) shardFor(key string) *shard {
	return t.shards[farm.Hash64([]byte(key))&shardMask]
}

// shardLen returns the number of records in each shard.
// Useful for debugging load distribution.
func (t *table) shardLen() [shardCount]int {
	var lens [shardCount]int
	for i, s := range t.shards {
		s.mu.Lock()
		lens[i] = len(s.records)
		s.mu.Unlock()
	}
	return lens
}
