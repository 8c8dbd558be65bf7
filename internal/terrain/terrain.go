// Package terrain implements the deterministic seeded terrain generator:
// per-column height/material sampling and chunk filling from layered
// coherent noise.
package terrain

import (
	"voxelengine/internal/noise"
	"voxelengine/internal/voxel"
)

// Material bands, in voxel-Y units measured from the sampled surface height.
const (
	MaterialStone uint8 = 1
	MaterialDirt  uint8 = 2
	MaterialGrass uint8 = 3

	dirtBand = 4 // voxels of dirt below the surface before switching to stone
)

// Layer is one octave-band contribution to column height.
type Layer struct {
	Frequency  float64
	Amplitude  float64
	Octaves    int
	Lacunarity float64
	Persist    float64
}

// DefaultLayers is the spec's default three-layer set: continental,
// ridge/hill, and micro-detail.
func DefaultLayers() []Layer {
	return []Layer{
		{Frequency: 0.0015, Amplitude: 40, Octaves: 3, Lacunarity: 2.0, Persist: 0.5},  // continental
		{Frequency: 0.01, Amplitude: 12, Octaves: 3, Lacunarity: 2.1, Persist: 0.5},     // ridge/hill
		{Frequency: 0.08, Amplitude: 2, Octaves: 2, Lacunarity: 2.3, Persist: 0.5},      // micro-detail
	}
}

// Generator deterministically produces terrain height, surface material,
// and filled chunks for a fixed seed.
type Generator struct {
	seed    uint32
	noise   *noise.Source
	layers  []Layer
	baseY   float64 // height offset in voxel-Y units
}

// NewGenerator builds a terrain generator for the given seed using the
// default layer set.
func NewGenerator(seed uint32) *Generator {
	return &Generator{
		seed:   seed,
		noise:  noise.NewSource(seed),
		layers: DefaultLayers(),
		baseY:  64,
	}
}

// SampleHeight returns the deterministic surface height, in voxel-Y units,
// at the given world XZ (in voxel units).
func (g *Generator) SampleHeight(worldX, worldZ float64) float32 {
	h := g.baseY
	for _, l := range g.layers {
		h += l.Amplitude * g.noise.FBM2(worldX, worldZ, noise.FBMParams{
			Octaves:     l.Octaves,
			Frequency:   l.Frequency,
			Lacunarity:  l.Lacunarity,
			Persistence: l.Persist,
		})
	}
	return float32(h)
}

// SampleSurface returns the surface height and the material that would be
// visible at that height (top of the material stack).
func (g *Generator) SampleSurface(worldX, worldZ float64) (height int16, material uint8) {
	h := g.SampleHeight(worldX, worldZ)
	return int16(h), MaterialGrass
}

// materialForDepth chooses a material band given depth below the surface
// (depth <= 0 means at/above surface).
func materialForDepth(depthBelowSurface int) uint8 {
	switch {
	case depthBelowSurface <= 0:
		return MaterialGrass
	case depthBelowSurface <= dirtBand:
		return MaterialDirt
	default:
		return MaterialStone
	}
}

// GenerateChunk fills every voxel of a 32768-voxel chunk from the terrain
// surface. Chunks entirely above or below the relevant height range
// short-circuit to all-air or all-solid.
func (g *Generator) GenerateChunk(coord voxel.Coord) [voxel.ChunkVolume]voxel.Packed {
	var out [voxel.ChunkVolume]voxel.Packed

	originX := coord.X * voxel.ChunkSize
	originY := coord.Y * voxel.ChunkSize
	originZ := coord.Z * voxel.ChunkSize

	// Pre-sample the column heights once per (x,z); they're reused for all
	// 32 Y slices.
	var heights [voxel.ChunkSize * voxel.ChunkSize]float32
	minH, maxH := float32(1e9), float32(-1e9)
	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			h := g.SampleHeight(float64(originX+lx), float64(originZ+lz))
			heights[lx*voxel.ChunkSize+lz] = h
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
	}

	// Short-circuit: chunk entirely below terrain everywhere -> all solid.
	if float32(originY+voxel.ChunkSize) < minH-2 {
		for i := range out {
			out[i] = voxel.Pack(0.5, MaterialStone, 0)
		}
		return out
	}
	// Chunk entirely above terrain everywhere -> all air.
	if float32(originY) > maxH+2 {
		return out
	}

	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			h := heights[lx*voxel.ChunkSize+lz]
			for ly := 0; ly < voxel.ChunkSize; ly++ {
				worldY := float32(originY + ly)
				dist := worldY - h // positive above surface, negative below
				weight := clampf(-dist, -0.5, 0.5)
				mat := materialForDepth(int(h - worldY))
				out[voxel.VoxelIndex(lx, ly, lz)] = voxel.Pack(weight, mat, 0)
			}
		}
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
