package texcache

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/texcache/internal/gpu"
)

// State is the partition a cached texture is in.
type State uint8

const (
	// StateAbsent means the key has no record.
	StateAbsent State = iota

	// StateActive means the texture may be in use by consumers.
	StateActive

	// StatePending means every reference was released and the texture is
	// waiting for revival or eviction.
	StatePending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePending:
		return "pending-release"
	default:
		return "absent"
	}
}

// record is one cached texture. All fields except refs are guarded by the
// owning shard's mutex. refs is atomic so diagnostics can read it without
// the lock; it is only written under the lock.
type record struct {
	key string
	tex gpu.Texture

	refs atomic.Int32

	state       State
	lastRelease time.Time
	seq         uint64 // release sequence, orders equal timestamps
}

// pendingItem returns the pending-index entry for a released record.
func (r *record) pendingItem() pendingItem {
	return pendingItem{
		releasedAt: r.lastRelease,
		seq:        r.seq,
		key:        r.key,
		size:       r.tex.SizeBytes,
	}
}
