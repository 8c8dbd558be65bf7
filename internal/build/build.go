// Package build implements the build handler: per-player rate limiting,
// distance and config validation, applying a CSG draw across the chunks
// it touches, and invalidating the dependent tile/visibility state.
package build

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/csg"
	"voxelengine/internal/material"
	"voxelengine/internal/provider"
	"voxelengine/internal/ratelimit"
	"voxelengine/internal/tile"
	"voxelengine/internal/voxel"
)

// Result is the outcome of a build intent.
type Result int

const (
	ResultSuccess Result = iota
	ResultRateLimited
	ResultTooFar
	ResultInvalidConfig
	ResultInvalidMaterial
	ResultTerrainNotReady
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultRateLimited:
		return "RATE_LIMITED"
	case ResultTooFar:
		return "TOO_FAR"
	case ResultInvalidConfig:
		return "INVALID_CONFIG"
	case ResultInvalidMaterial:
		return "INVALID_MATERIAL"
	case ResultTerrainNotReady:
		return "TERRAIN_NOT_READY"
	default:
		return "UNKNOWN"
	}
}

const (
	DefaultRateLimitInterval = 100 * time.Millisecond
	MaxBuildDistance         = 20.0 // meters
	MaxShapeAxis             = 20.0
)

// Intent is a client build request prior to validation.
type Intent struct {
	RoomID    string
	PlayerID  string
	PlayerPos mgl32.Vec3
	Operation csg.Operation
}

// Commit is the event appended to a room's build log and broadcast on
// success.
type Commit struct {
	BuildSeq uint32
	PlayerID string
	Intent   Intent
}

// Handler validates and applies build intents for one room.
type Handler struct {
	limiter  *ratelimit.Limiter
	reg      *material.Registry
	chunks   *provider.Provider
	tiles    *tile.Provider
	buildSeq uint32
}

// New builds a handler bound to a room's chunk/tile providers.
func New(limiter *ratelimit.Limiter, reg *material.Registry, chunks *provider.Provider, tiles *tile.Provider) *Handler {
	return &Handler{limiter: limiter, reg: reg, chunks: chunks, tiles: tiles}
}

func boxContains3(size mgl32.Vec3) bool {
	return size.X() > 0 && size.X() <= MaxShapeAxis &&
		size.Y() > 0 && size.Y() <= MaxShapeAxis &&
		size.Z() > 0 && size.Z() <= MaxShapeAxis
}

// HandleBuildIntent runs the full validate -> apply -> invalidate -> emit
// pipeline. now is passed explicitly so callers (and tests) control the
// rate-limit clock.
func (h *Handler) HandleBuildIntent(intent Intent, now time.Time) (Result, *Commit) {
	key := ratelimit.Key(intent.RoomID, intent.PlayerID)
	if h.limiter.Check(key, now) {
		return ResultRateLimited, nil
	}

	dist := intent.Operation.Center.Sub(intent.PlayerPos).Len()
	if dist > MaxBuildDistance {
		return ResultTooFar, nil
	}

	cfg := intent.Operation.Config
	if !boxContains3(cfg.Size) {
		return ResultInvalidConfig, nil
	}
	if cfg.Shape == nil {
		return ResultInvalidConfig, nil
	}
	if !h.reg.IsRegistered(cfg.Material) {
		return ResultInvalidMaterial, nil
	}

	minW, maxW := intent.Operation.VoxelBBox()
	minCoord := voxel.WorldToChunk(minW[0], minW[1], minW[2])
	maxCoord := voxel.WorldToChunk(maxW[0], maxW[1], maxW[2])

	type touched struct {
		coord voxel.Coord
		tc    tile.Coord
	}
	var touchedChunks []touched

	// A build only ever touches chunks the player already streamed in
	// (loaded and resident in memory): Loaded is a synchronous, cache-only
	// check, so this never blocks on disk I/O or generation. A chunk the
	// client hasn't received yet fails the whole intent closed rather than
	// committing a partial edit.
	for cx := minCoord.X; cx <= maxCoord.X; cx++ {
		for cy := minCoord.Y; cy <= maxCoord.Y; cy++ {
			for cz := minCoord.Z; cz <= maxCoord.Z; cz++ {
				coord := voxel.Coord{X: cx, Y: cy, Z: cz}
				if _, ok := h.chunks.Loaded(coord); !ok {
					return ResultTerrainNotReady, nil
				}
			}
		}
	}

	h.buildSeq++
	seq := h.buildSeq

	for cx := minCoord.X; cx <= maxCoord.X; cx++ {
		for cy := minCoord.Y; cy <= maxCoord.Y; cy++ {
			for cz := minCoord.Z; cz <= maxCoord.Z; cz++ {
				coord := voxel.Coord{X: cx, Y: cy, Z: cz}
				chunk, _ := h.chunks.Loaded(coord)
				if csg.Draw(intent.Operation, chunk) {
					chunk.SetLastBuildSeq(seq)
					touchedChunks = append(touchedChunks, touched{coord, tile.Coord{X: cx, Z: cz}})
				}
			}
		}
	}

	seenTiles := make(map[tile.Coord]bool)
	for _, tch := range touchedChunks {
		if !seenTiles[tch.tc] {
			seenTiles[tch.tc] = true
			h.tiles.Invalidate(tch.tc)
		}
	}

	commit := &Commit{BuildSeq: seq, PlayerID: intent.PlayerID, Intent: intent}
	return ResultSuccess, commit
}
