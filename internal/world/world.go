// Package world wires the per-room aggregate: the persistent store, the
// terrain generator and stamp placer that seed it, the chunk and tile
// providers built on top, and the build handler that ties them to a rate
// limiter and material registry. Spec §9 calls this out explicitly:
// "prefer explicit ownership in a World value passed to handlers" rather
// than process-wide singletons.
package world

import (
	"fmt"
	"time"

	"voxelengine/internal/build"
	"voxelengine/internal/material"
	"voxelengine/internal/provider"
	"voxelengine/internal/ratelimit"
	"voxelengine/internal/stamp"
	"voxelengine/internal/store"
	"voxelengine/internal/terrain"
	"voxelengine/internal/tile"
)

// World is everything one room needs to generate, persist, and edit its
// voxel grid.
type World struct {
	Store     *store.Store
	Terrain   *terrain.Generator
	Stamps    *stamp.Placer
	Materials *material.Registry
	Chunks    *provider.Provider
	Tiles     *tile.Provider
	Limiter   *ratelimit.Limiter
	Build     *build.Handler
}

// Open opens (or creates) the LevelDB-backed store at dataDir, seeds the
// terrain generator and stamp placer from its world seed, and wires the
// chunk/tile providers and build handler on top.
func Open(dataDir string, seedIfNew int64, now time.Time, materials *material.Registry) (*World, error) {
	st, err := store.Open(dataDir, seedIfNew, now)
	if err != nil {
		return nil, fmt.Errorf("world: open store: %w", err)
	}

	seed := uint32(st.Meta().Seed)
	tg := terrain.NewGenerator(seed)
	lib := stamp.DefaultLibrary()
	placer := stamp.NewPlacer(seed, lib, tg)

	chunks := provider.New(st, tg, placer)
	tiles := tile.New(st, tg, chunks)
	limiter := ratelimit.New(build.DefaultRateLimitInterval)
	handler := build.New(limiter, materials, chunks, tiles)

	return &World{
		Store:     st,
		Terrain:   tg,
		Stamps:    placer,
		Materials: materials,
		Chunks:    chunks,
		Tiles:     tiles,
		Limiter:   limiter,
		Build:     handler,
	}, nil
}

// Close flushes and closes the underlying store.
func (w *World) Close() error {
	return w.Store.Close()
}

// RunPeriodicFlush starts the store's periodic dirty-batch flush on the
// given cadence, stopping when stop is closed.
func (w *World) RunPeriodicFlush(interval time.Duration, stop <-chan struct{}, onErr func(error)) {
	w.Store.RunPeriodicFlush(interval, stop, onErr)
}
