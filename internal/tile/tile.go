// Package tile implements the map tile (2D surface summary) and the
// surface column provider that bundles a tile with the chunk stack
// intersecting its terrain/stamp surface.
package tile

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sync"

	"voxelengine/internal/provider"
	"voxelengine/internal/store"
	"voxelengine/internal/terrain"
	"voxelengine/internal/voxel"
)

const (
	TileSize   = 32
	tileVoxels = TileSize * TileSize

	// bufferChunks is how many extra cy below the tile's lowest terrain
	// chunk the surface-column scan starts at.
	bufferChunks = 1
)

// Coord identifies a tile by its column coordinates.
type Coord struct{ X, Z int }

func (c Coord) Key() string { return fmt.Sprintf("%d,%d", c.X, c.Z) }

// Tile is the 32x32 surface summary for one chunk column.
type Tile struct {
	Coord     Coord
	Heights   [tileVoxels]int16
	Materials [tileVoxels]uint8
	hash      uint64
}

func idx(lx, lz int) int { return lx*TileSize + lz }

// Hash returns the content hash computed when the tile was last generated
// or rescanned.
func (t *Tile) Hash() uint64 {
	return t.hash
}

func (t *Tile) recomputeHash() {
	h := fnv.New64a()
	var buf [2]byte
	for _, v := range t.Heights {
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		h.Write(buf[:])
	}
	h.Write(t.Materials[:])
	t.hash = h.Sum64()
}

// Provider generates and caches tiles in memory (tiles are not written to
// the store), and streams surface columns built from a chunk Provider and
// Terrain Generator.
type Provider struct {
	st      *store.Store
	terrain *terrain.Generator
	chunks  *provider.Provider

	mu    sync.RWMutex
	tiles map[string]*Tile
}

// New builds a tile provider sharing the world's store/terrain/chunk
// provider.
func New(st *store.Store, tg *terrain.Generator, chunks *provider.Provider) *Provider {
	return &Provider{st: st, terrain: tg, chunks: chunks, tiles: make(map[string]*Tile)}
}

// GenerateTile is the fast path: samples sample_surface for each of the
// 32x32 XZ voxels in the column.
func (p *Provider) GenerateTile(tc Coord) *Tile {
	t := &Tile{Coord: tc}
	originX := tc.X * TileSize
	originZ := tc.Z * TileSize
	for lx := 0; lx < TileSize; lx++ {
		for lz := 0; lz < TileSize; lz++ {
			h, m := p.terrain.SampleSurface(float64(originX+lx), float64(originZ+lz))
			i := idx(lx, lz)
			t.Heights[i] = h
			t.Materials[i] = m
		}
	}
	t.recomputeHash()

	p.mu.Lock()
	p.tiles[tc.Key()] = t
	p.mu.Unlock()
	return t
}

// GetOrGenerateTile returns the cached tile or generates a fresh one.
func (p *Provider) GetOrGenerateTile(tc Coord) *Tile {
	p.mu.RLock()
	t, ok := p.tiles[tc.Key()]
	p.mu.RUnlock()
	if ok {
		return t
	}
	return p.GenerateTile(tc)
}

// Invalidate marks a column's tile stale, forcing the next request to
// regenerate it (called by the build handler after any edit to a chunk in
// this column).
func (p *Provider) Invalidate(tc Coord) {
	p.mu.Lock()
	delete(p.tiles, tc.Key())
	p.mu.Unlock()
}

// SurfaceColumn is the bundle (tile, chunk stack) streamed for a column.
type SurfaceColumn struct {
	Tile   *Tile
	Chunks []*voxel.Chunk
}

// minMaxCY derives the terrain's cy range from a tile's height field.
func minMaxCY(t *Tile) (minCY, maxCY int) {
	minH, maxH := int16(1<<15-1), int16(-1<<15)
	for _, h := range t.Heights {
		if h < minH {
			minH = h
		}
		if h > maxH {
			maxH = h
		}
	}
	minCY = voxel.FloorDiv(int(minH), voxel.ChunkSize)
	maxCY = voxel.FloorDiv(int(maxH), voxel.ChunkSize)
	return
}

// LoadSurfaceColumn bounds the terrain's cy range from the tile, then
// generates chunks upward from minCY-buffer, stopping once cy > maxCY and
// the chunk is empty. After loading, it rescans the stack to refresh the
// tile's heights/materials (capturing stamps/buildings above baseline).
func (p *Provider) LoadSurfaceColumn(tc Coord, cb func(SurfaceColumn)) {
	t := p.GetOrGenerateTile(tc)
	minCY, maxCY := minMaxCY(t)

	startCY := minCY - bufferChunks
	var chunks []*voxel.Chunk
	var loadOne func(cy int)

	loadOne = func(cy int) {
		coord := voxel.Coord{X: tc.X, Y: cy, Z: tc.Z}
		p.chunks.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) {
			include := !c.AllEmpty() || cy <= maxCY
			if include {
				chunks = append(chunks, c)
			}
			stop := cy > maxCY && c.AllEmpty()
			if stop {
				p.rescanAndFinish(tc, t, chunks, cb)
				return
			}
			loadOne(cy + 1)
		})
	}
	loadOne(startCY)
}

func (p *Provider) rescanAndFinish(tc Coord, t *Tile, chunks []*voxel.Chunk, cb func(SurfaceColumn)) {
	for lx := 0; lx < TileSize; lx++ {
		for lz := 0; lz < TileSize; lz++ {
			best := t.Heights[idx(lx, lz)]
			bestMat := t.Materials[idx(lx, lz)]
			for _, c := range chunks {
				top := highestSolidY(c, lx, lz)
				if top >= 0 {
					worldY := int16(c.Coord.Y*voxel.ChunkSize + top)
					if worldY > best {
						best = worldY
						_, m, _ := voxel.Unpack(c.Get(lx, top, lz))
						bestMat = m
					}
				}
			}
			t.Heights[idx(lx, lz)] = best
			t.Materials[idx(lx, lz)] = bestMat
		}
	}
	t.recomputeHash()
	cb(SurfaceColumn{Tile: t, Chunks: chunks})
}

func highestSolidY(c *voxel.Chunk, lx, lz int) int {
	for ly := voxel.ChunkSize - 1; ly >= 0; ly-- {
		if voxel.IsSolid(c.Get(lx, ly, lz)) {
			return ly
		}
	}
	return -1
}
