// Package streaming implements the client-side chunk streaming policy:
// which surface columns and player-local cave chunks should be loaded
// from a player's position, in what order to request them, and when a
// loaded chunk may be unloaded.
package streaming

import (
	"sort"

	"voxelengine/internal/tile"
	"voxelengine/internal/voxel"
)

const (
	SurfaceColumnRadius = 6
	PlayerChunkRadius   = 3
	UnloadMargin        = 1
)

func chebyshev3(a, b [3]int) int {
	dx := absInt(a[0] - b[0])
	dy := absInt(a[1] - b[1])
	dz := absInt(a[2] - b[2])
	return maxInt3(dx, dy, dz)
}

func chebyshev2(a, b [2]int) int {
	dx := absInt(a[0] - b[0])
	dz := absInt(a[1] - b[1])
	if dx > dz {
		return dx
	}
	return dz
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// Request is a pending load, ordered by distance from the player.
type Request struct {
	Coord    voxel.Coord
	Tile     tile.Coord
	IsColumn bool // true for a surface-column request, false for a cave chunk
	Dist     int
}

// Manager tracks the loaded set for one local player and computes
// enqueue/unload deltas as the player moves between chunks.
type Manager struct {
	loadedChunks map[string]voxel.Coord
	loadedTiles  map[string]tile.Coord
}

// New builds an empty streaming manager.
func New() *Manager {
	return &Manager{
		loadedChunks: make(map[string]voxel.Coord),
		loadedTiles:  make(map[string]tile.Coord),
	}
}

// LoadedChunkCount reports how many cave chunks are currently tracked as
// loaded (for tests/metrics).
func (m *Manager) LoadedChunkCount() int { return len(m.loadedChunks) }

// MarkChunkLoaded/MarkTileLoaded record a server response as loaded.
func (m *Manager) MarkChunkLoaded(c voxel.Coord) { m.loadedChunks[c.Key()] = c }
func (m *Manager) MarkTileLoaded(tc tile.Coord)  { m.loadedTiles[tc.Key()] = tc }

// Update computes the target surface-column and cave-chunk sets around
// playerChunk, diffs them against what's loaded, and returns requests to
// enqueue (sorted by increasing distance) plus chunks/tiles to unload
// (outside target set + UnloadMargin).
func (m *Manager) Update(playerChunk voxel.Coord) (toLoad []Request, unloadChunks []voxel.Coord, unloadTiles []tile.Coord) {
	playerXZ := [2]int{playerChunk.X, playerChunk.Z}
	playerXYZ := [3]int{playerChunk.X, playerChunk.Y, playerChunk.Z}

	wantTiles := make(map[string]tile.Coord)
	for tx := playerChunk.X - SurfaceColumnRadius; tx <= playerChunk.X+SurfaceColumnRadius; tx++ {
		for tz := playerChunk.Z - SurfaceColumnRadius; tz <= playerChunk.Z+SurfaceColumnRadius; tz++ {
			tc := tile.Coord{X: tx, Z: tz}
			if chebyshev2([2]int{tx, tz}, playerXZ) <= SurfaceColumnRadius {
				wantTiles[tc.Key()] = tc
			}
		}
	}

	wantChunks := make(map[string]voxel.Coord)
	for cx := playerChunk.X - PlayerChunkRadius; cx <= playerChunk.X+PlayerChunkRadius; cx++ {
		for cy := playerChunk.Y - PlayerChunkRadius; cy <= playerChunk.Y+PlayerChunkRadius; cy++ {
			for cz := playerChunk.Z - PlayerChunkRadius; cz <= playerChunk.Z+PlayerChunkRadius; cz++ {
				c := voxel.Coord{X: cx, Y: cy, Z: cz}
				if chebyshev3([3]int{cx, cy, cz}, playerXYZ) <= PlayerChunkRadius {
					wantChunks[c.Key()] = c
				}
			}
		}
	}

	for key, tc := range wantTiles {
		if _, ok := m.loadedTiles[key]; !ok {
			toLoad = append(toLoad, Request{
				Tile:     tc,
				IsColumn: true,
				Dist:     chebyshev2([2]int{tc.X, tc.Z}, playerXZ),
			})
		}
	}
	for key, c := range wantChunks {
		if _, ok := m.loadedChunks[key]; !ok {
			toLoad = append(toLoad, Request{
				Coord:    c,
				IsColumn: false,
				Dist:     chebyshev3([3]int{c.X, c.Y, c.Z}, playerXYZ),
			})
		}
	}
	sort.Slice(toLoad, func(i, j int) bool { return toLoad[i].Dist < toLoad[j].Dist })

	unloadRadius := PlayerChunkRadius + UnloadMargin
	for key, c := range m.loadedChunks {
		if chebyshev3([3]int{c.X, c.Y, c.Z}, playerXYZ) > unloadRadius {
			unloadChunks = append(unloadChunks, c)
			delete(m.loadedChunks, key)
		}
	}
	unloadTileRadius := SurfaceColumnRadius + UnloadMargin
	for key, tc := range m.loadedTiles {
		if chebyshev2([2]int{tc.X, tc.Z}, playerXZ) > unloadTileRadius {
			unloadTiles = append(unloadTiles, tc)
			delete(m.loadedTiles, key)
		}
	}

	return toLoad, unloadChunks, unloadTiles
}
