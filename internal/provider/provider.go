// Package provider implements the chunk provider: get-or-generate with a
// cache-then-disk-then-generate fallback chain, and the recursive
// neighbor writes stamps need when they cross chunk boundaries.
package provider

import (
	"sync"

	"voxelengine/internal/stamp"
	"voxelengine/internal/store"
	"voxelengine/internal/terrain"
	"voxelengine/internal/voxel"
)

// Provider wraps a Store and a Terrain Generator + Stamp Placer.
type Provider struct {
	st      *store.Store
	terrain *terrain.Generator
	placer  *stamp.Placer

	mu     sync.RWMutex
	chunks map[string]*voxel.Chunk
}

// New builds a provider over a store, terrain generator, and placer.
func New(st *store.Store, tg *terrain.Generator, pl *stamp.Placer) *Provider {
	return &Provider{
		st:      st,
		terrain: tg,
		placer:  pl,
		chunks:  make(map[string]*voxel.Chunk),
	}
}

// Neighbor implements voxel.NeighborSource for the mesher's margin reads:
// it only returns already-loaded chunks, never triggers generation.
func (p *Provider) Neighbor(coord voxel.Coord) *voxel.Chunk {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chunks[coord.Key()]
}

// Loaded returns the in-memory chunk for coord, if any, without touching
// cache/disk/generation.
func (p *Provider) Loaded(coord voxel.Coord) (*voxel.Chunk, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.chunks[coord.Key()]
	return c, ok
}

// GetOrCreateAsync resolves a chunk: cache hit -> store's async disk load
// -> generate via terrain + stamps. force_regen skips the cache/disk
// checks and always regenerates (the result is not written back to the
// store cache when force_regen is set, as onward builds will re-dirty it
// anyway).
func (p *Provider) GetOrCreateAsync(coord voxel.Coord, forceRegen bool, cb func(*voxel.Chunk)) {
	if !forceRegen {
		if c, ok := p.Loaded(coord); ok {
			cb(c)
			return
		}
	}

	if !forceRegen {
		p.st.GetAsync(coord, func(cd *store.ChunkData, err error) {
			if err == nil && cd != nil {
				c := voxel.NewChunk(coord)
				c.LoadRaw(cd.Voxels)
				p.store(coord, c)
				cb(c)
				return
			}
			p.generate(coord, forceRegen, cb)
		})
		return
	}

	p.generate(coord, forceRegen, cb)
}

func (p *Provider) generate(coord voxel.Coord, forceRegen bool, cb func(*voxel.Chunk)) {
	raw := p.terrain.GenerateChunk(coord)
	c := voxel.NewChunk(coord)
	c.LoadRaw(raw)

	if !forceRegen {
		p.store(coord, c)
	} else {
		p.mu.Lock()
		p.chunks[coord.Key()] = c
		p.mu.Unlock()
	}

	// Apply any stamps whose footprint overlaps this chunk's column. The
	// placer may also write into neighbor chunks, recursively
	// get-or-creating them via setVoxel below.
	insts := p.placer.InstancesNear(coord.X, coord.Z)
	for _, inst := range insts {
		p.placer.Apply(inst, setterAdapter{p})
	}

	if !forceRegen {
		p.st.Set(coord, *c.RawVoxels())
	}
	cb(c)
}

func (p *Provider) store(coord voxel.Coord, c *voxel.Chunk) {
	p.mu.Lock()
	p.chunks[coord.Key()] = c
	p.mu.Unlock()
}

// setterAdapter satisfies stamp.ChunkSetter by get-or-creating whatever
// chunk a stamp voxel lands in (recursively, for cross-boundary stamps),
// then blending it in with the default max-weight rule. Routing through
// GetOrCreateAsync instead of a terrain-only side generation means a
// neighbor first touched by a spilling stamp still runs its own
// InstancesNear/Apply pass, so a stamp anchored in that neighbor appears
// the same regardless of which chunk caused it to be generated first.
type setterAdapter struct{ p *Provider }

func (s setterAdapter) SetVoxel(coord voxel.Coord, lx, ly, lz int, weight float32, mat uint8) {
	s.p.GetOrCreateAsync(coord, false, func(target *voxel.Chunk) {
		existing := target.Get(lx, ly, lz)
		blended := stamp.BlendMax(existing, weight, mat)
		target.Set(lx, ly, lz, blended)
	})
}
