//go:build !nogpu

// Command texcache loads the textures of a model directory through the
// texture cache and reports what the cache did.
//
// It runs on the noop GPU backend, so it exercises decode, predecode,
// reference counting and eviction without a graphics device:
//
//	texcache -dir models/miku -instances 3
//	texcache -dir models/miku -config texcache.yaml -watch -v
package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/texcache"
	"github.com/gogpu/texcache/material"
	"github.com/gogpu/texcache/watch"
)

// textureExts are the file extensions treated as textures. MMD sphere
// maps (.spa, .sph) are BMP files.
var textureExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".spa": true, ".sph": true, ".gif": true,
	".tif": true, ".tiff": true, ".webp": true,
}

func main() {
	var (
		dir        = flag.String("dir", ".", "model directory")
		configPath = flag.String("config", "", "YAML config file")
		instances  = flag.Int("instances", 2, "model instances to bind")
		watchDir   = flag.Bool("watch", false, "keep running and reload changed textures")
		frame      = flag.Duration("frame", 100*time.Millisecond, "tick interval in watch mode")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	texcache.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := texcache.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = texcache.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	paths, err := findTextures(*dir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *dir, err)
	}
	log.Printf("Found %d textures in %s", len(paths), *dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *dir, paths, *instances, *watchDir, *frame); err != nil {
		log.Fatalf("texcache: %v", err)
	}
}

func run(ctx context.Context, cfg texcache.Config, dir string, paths []string, instances int, watching bool, frame time.Duration) error {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return err
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return err
	}
	defer openDev.Device.Destroy()

	backend := texcache.NewHALBackend(openDev.Device, openDev.Queue)
	defer backend.Close()

	cache := texcache.New(texcache.FileDecoder{}, backend, cfg.Options()...)
	rc, err := cache.RenderContext()
	if err != nil {
		return err
	}
	defer rc.Teardown()

	start := time.Now()
	if err := material.Preload(ctx, cache, dir, paths, cfg.WorkerCount()); err != nil {
		return err
	}
	log.Printf("Predecoded in %v: %s", time.Since(start).Round(time.Millisecond), cache.Stats())

	sets := make([]*material.Set, 0, instances)
	for i := 0; i < instances; i++ {
		sets = append(sets, material.Bind(rc, dir, paths))
	}
	cache.ClearPredecoded()
	log.Printf("Bound %d instances: %s", instances, cache.Stats())

	// Dispose every instance but the first and let the sweeper run.
	for _, s := range sets[min(1, len(sets)):] {
		s.Close()
	}
	rc.Tick()
	log.Printf("After dispose: %s", cache.Stats())

	if !watching {
		return nil
	}

	w, err := watch.New(cache)
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Printf("watch: %v", err)
		}
	}()

	log.Printf("Watching %s, press Ctrl-C to stop", dir)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	seen := cache.Stats().Invalidations
	for {
		select {
		case <-ctx.Done():
			log.Printf("Final: %s", cache.Stats())
			return nil
		case <-ticker.C:
			rc.Tick()
			if n := cache.Stats().Invalidations; n != seen && len(sets) > 0 {
				// Rebind the live instance so invalidated textures reload.
				seen = n
				sets[0].Close()
				sets[0] = material.Bind(rc, dir, paths)
				log.Printf("Reloaded: %s", cache.Stats())
			}
		}
	}
}

// findTextures returns the texture files under dir, relative to dir.
func findTextures(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !textureExts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		if filepath.Base(p) == material.LightMapName {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}
