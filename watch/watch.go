// Package watch invalidates cached textures when their files change on
// disk, so an edited texture shows up on the next Acquire.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/texcache"
)

// DefaultDebounce is how long the watcher waits for a burst of events on
// one file to settle. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Invalidator drops a texture from a cache. *texcache.Cache implements it.
type Invalidator interface {
	ForceInvalidate(key string)
}

// Watcher forwards file changes under watched directories to an
// Invalidator. Keys are derived from event paths, so directories must be
// added spelled the way texture keys are (both relative, or both absolute).
type Watcher struct {
	inv      Invalidator
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}

	// onInvalidate is called after each invalidation, for tests.
	onInvalidate func(key string)
}

// New creates a watcher that invalidates textures in inv.
func New(inv Invalidator) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{
		inv:      inv,
		fsw:      fsw,
		debounce: DefaultDebounce,
		pending:  make(map[string]struct{}),
	}, nil
}

// SetDebounce changes the settle delay. Must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Add watches dir and every directory below it. Model packs keep
// textures in nested folders such as tex/ and spa/.
func (w *Watcher) Add(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
}

// Run delivers invalidations until ctx is done, then closes the watcher.
// It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.mu.Lock()
			w.pending[texcache.Key(ev.Name)] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				texcache.Logger().Warn("watch: event overflow, some changes may be missed")
				continue
			}
			texcache.Logger().Warn("watch: watcher error", "err", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// relevant reports whether ev may have changed a texture's pixels.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		// A new file may replace a texture that failed to load. A new
		// subdirectory is watched too; Add ignores plain files.
		_ = w.Add(ev.Name)
		return true
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// flush invalidates every key collected since the last flush.
func (w *Watcher) flush() {
	w.mu.Lock()
	keys := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for k := range keys {
		w.inv.ForceInvalidate(k)
		texcache.Logger().Info("watch: texture changed on disk", "key", k)
		if w.onInvalidate != nil {
			w.onInvalidate(k)
		}
	}
}
