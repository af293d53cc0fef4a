package texcache

import (
	"testing"
	"time"

	"github.com/gogpu/texcache/internal/image"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.budget != DefaultBudget {
		t.Errorf("budget = %d, want %d", o.budget, DefaultBudget)
	}
	if o.clock == nil {
		t.Error("clock should default to time.Now")
	}
	if o.backoffTTL != 0 {
		t.Errorf("backoff should be disabled by default, got %v", o.backoffTTL)
	}
}

func TestWithClockNilKeepsDefault(t *testing.T) {
	o := defaultOptions()
	WithClock(nil)(&o)
	if o.clock == nil {
		t.Error("WithClock(nil) should keep the default clock")
	}

	fixed := time.Unix(100, 0)
	WithClock(func() time.Time { return fixed })(&o)
	if !o.clock().Equal(fixed) {
		t.Error("WithClock did not install the clock")
	}
}

func TestWithFailureBackoffSize(t *testing.T) {
	o := defaultOptions()
	WithFailureBackoffSize(0)(&o)
	if o.backoffSize != DefaultBackoffSize {
		t.Errorf("backoffSize = %d, want default %d", o.backoffSize, DefaultBackoffSize)
	}
	WithFailureBackoffSize(5)(&o)
	if o.backoffSize != 5 {
		t.Errorf("backoffSize = %d, want 5", o.backoffSize)
	}
}

func TestWithPoolShared(t *testing.T) {
	pool := image.NewPool(1)
	a := New(newFakeDecoder(), newFakeBackend(), WithPool(pool))
	b := New(newFakeDecoder(), newFakeBackend(), WithPool(pool))
	if a.Pool() != pool || b.Pool() != pool {
		t.Error("caches should share the configured pool")
	}

	c := New(nil, newFakeBackend())
	if c.Pool() == nil {
		t.Error("cache without WithPool should own a pool")
	}
	if _, ok := c.decoder.(image.FileDecoder); !ok {
		t.Errorf("nil decoder should default to FileDecoder, got %T", c.decoder)
	}
}
