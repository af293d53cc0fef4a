package texcache

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// pendingDegree is the B-tree degree of the pending-release index.
const pendingDegree = 16

// pendingItem is an entry of the pending-release index.
type pendingItem struct {
	releasedAt time.Time
	seq        uint64
	key        string
	size       uint64
}

// lessPending orders by release time, then by release sequence. Oldest
// releases come first, so TTL-expired records form a prefix.
func lessPending(a, b pendingItem) bool {
	if !a.releasedAt.Equal(b.releasedAt) {
		return a.releasedAt.Before(b.releasedAt)
	}
	return a.seq < b.seq
}

// pendingIndex orders pending-release records for the sweeper.
//
// Lock order: a shard lock may be held while taking mu, never the
// reverse. The index is a hint; the sweeper re-validates every entry
// against the record under its shard lock before evicting.
type pendingIndex struct {
	mu   sync.Mutex
	tree *btree.BTreeG[pendingItem]
}

func newPendingIndex() *pendingIndex {
	return &pendingIndex{
		tree: btree.NewG[pendingItem](pendingDegree, lessPending),
	}
}

func (p *pendingIndex) insert(it pendingItem) {
	p.mu.Lock()
	p.tree.ReplaceOrInsert(it)
	p.mu.Unlock()
}

func (p *pendingIndex) remove(it pendingItem) {
	p.mu.Lock()
	p.tree.Delete(it)
	p.mu.Unlock()
}

// oldest returns the least recently released entry.
func (p *pendingIndex) oldest() (pendingItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tree.Min()
}

// releasedBefore returns every entry released strictly before cutoff,
// oldest first.
func (p *pendingIndex) releasedBefore(cutoff time.Time) []pendingItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	var items []pendingItem
	p.tree.Ascend(func(it pendingItem) bool {
		if !it.releasedAt.Before(cutoff) {
			return false
		}
		items = append(items, it)
		return true
	})
	return items
}

func (p *pendingIndex) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tree.Len()
}

func (p *pendingIndex) clear() {
	p.mu.Lock()
	p.tree.Clear(false)
	p.mu.Unlock()
}
