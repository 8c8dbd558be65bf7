// Package mesh implements the Surface Nets isosurface extraction mesher:
// edge-crossing vertex placement over an expanded 34^3 working grid, face
// emission with material-type slot splitting, and per-chunk-boundary seam
// suppression via a skip-high-boundary mask.
package mesh

import (
	"math"

	"voxelengine/internal/material"
	"voxelengine/internal/voxel"
)

// Slot is one of the three independent mesh outputs a chunk mesh splits
// into, by the dominant material's type.
type Slot int

const (
	SlotSolid Slot = iota
	SlotTransparent
	SlotLiquid
	numSlots
)

func slotFor(t material.Type) Slot {
	switch t {
	case material.TypeTransparent:
		return SlotTransparent
	case material.TypeLiquid:
		return SlotLiquid
	default:
		return SlotSolid
	}
}

// Geometry is one slot's expanded, flat-shaded output.
type Geometry struct {
	Positions      []float32 // 3 per vertex
	Normals        []float32 // 3 per vertex
	MaterialIDs    []uint8
	MaterialWeight []uint8 // 0..255 confidence/blend weight, currently always 255
	LightLevels    []uint8
	Indices        []uint32 // 3 per triangle
}

// Mesh holds the three independent slot outputs of one chunk mesh.
type Mesh struct {
	Slots [numSlots]Geometry
}

// SkipHighBoundary suppresses face emission that depends on the 33rd slab
// of the marked axes, used when the corresponding high neighbor chunk is
// not yet loaded (prevents seams appearing then disappearing later).
type SkipHighBoundary struct {
	X, Y, Z bool
}

// GridSource reads the expanded 34^3 working grid: local indices run
// 0..33, where 0..32 is GetWithMargin's own range and the function must
// behave identically to voxel.Chunk.GetWithMargin for a real chunk.
type GridSource interface {
	At(x, y, z int) voxel.Packed
}

// chunkGridSource adapts a chunk + neighbor source to GridSource.
type chunkGridSource struct {
	c         *voxel.Chunk
	neighbors voxel.NeighborSource
}

func (g chunkGridSource) At(x, y, z int) voxel.Packed {
	return g.c.GetWithMargin(x, y, z, g.neighbors)
}

// NewChunkGridSource builds the standard GridSource for meshing a real
// chunk against its (possibly partially loaded) neighbors.
func NewChunkGridSource(c *voxel.Chunk, neighbors voxel.NeighborSource) GridSource {
	return chunkGridSource{c: c, neighbors: neighbors}
}

type corner struct {
	weight   float32
	material uint8
	light    uint8
	solid    bool
}

// Build runs Surface Nets over grid and emits a Mesh with independent
// solid/transparent/liquid slots.
func Build(grid GridSource, reg *material.Registry, skip SkipHighBoundary, lightAt func(x, y, z int) uint8) *Mesh {
	m := &Mesh{}

	// Cache per-corner decoded values lazily; corners span 0..32 inclusive
	// in each axis (33 positions) because cells run 0..31 and read x..x+1.
	var cache [33][33][33]*corner
	getCorner := func(x, y, z int) *corner {
		if cache[x][y][z] != nil {
			return cache[x][y][z]
		}
		p := grid.At(x, y, z)
		w, mat, light := voxel.Unpack(p)
		c := &corner{weight: w, material: mat, light: light, solid: voxel.IsSolid(p)}
		cache[x][y][z] = c
		return c
	}

	// slot and vertex index of each cell that holds a surface vertex; cells
	// with no surface have no entry.
	type vref struct {
		slot Slot
		idx  uint32
	}
	vertexOf := make(map[[3]int]vref)

	for x := 0; x < voxel.ChunkSize; x++ {
		if skip.X && x == voxel.ChunkSize-1 {
			continue
		}
		for y := 0; y < voxel.ChunkSize; y++ {
			if skip.Y && y == voxel.ChunkSize-1 {
				continue
			}
			for z := 0; z < voxel.ChunkSize; z++ {
				if skip.Z && z == voxel.ChunkSize-1 {
					continue
				}

				corners := [8]*corner{
					getCorner(x, y, z), getCorner(x+1, y, z),
					getCorner(x, y+1, z), getCorner(x+1, y+1, z),
					getCorner(x, y, z+1), getCorner(x+1, y, z+1),
					getCorner(x, y+1, z+1), getCorner(x+1, y+1, z+1),
				}

				allPos, allNeg := true, true
				for _, c := range corners {
					if c.weight < 0 {
						allPos = false
					} else {
						allNeg = false
					}
				}
				if allPos || allNeg {
					continue
				}

				// Edge-crossing vertex estimate: average of zero-crossing
				// points on the 12 cube edges whose endpoints differ in sign.
				edgeOffsets := [12][2]int{
					{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x-edges
					{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y-edges
					{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z-edges
				}
				localCorner := [8][3]float32{
					{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
					{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
				}

				var sum [3]float32
				count := 0
				for _, e := range edgeOffsets {
					wa, wb := corners[e[0]].weight, corners[e[1]].weight
					if (wa < 0) == (wb < 0) {
						continue
					}
					t := wa / (wa - wb)
					for k := 0; k < 3; k++ {
						pa := localCorner[e[0]][k]
						pb := localCorner[e[1]][k]
						sum[k] += pa + t*(pb-pa)
					}
					count++
				}
				if count == 0 {
					continue
				}
				vx := float32(x) + sum[0]/float32(count)
				vy := float32(y) + sum[1]/float32(count)
				vz := float32(z) + sum[2]/float32(count)

				// Material: most common among positive-weight (solid) corners,
				// ties broken by lowest id.
				matCounts := map[uint8]int{}
				for _, c := range corners {
					if c.weight > 0 {
						matCounts[c.material]++
					}
				}
				var bestMat uint8
				bestCount := -1
				for matID := uint8(0); matID < 128; matID++ {
					if cnt, ok := matCounts[matID]; ok {
						if cnt > bestCount {
							bestCount = cnt
							bestMat = matID
						}
					}
				}

				var light uint8
				if lightAt != nil {
					light = lightAt(x, y, z)
				} else {
					light = corners[0].light
				}

				slot := slotFor(reg.TypeOf(bestMat))
				geo := &m.Slots[slot]
				idx := uint32(len(geo.Positions) / 3)
				geo.Positions = append(geo.Positions, vx*voxel.VoxelScale, vy*voxel.VoxelScale, vz*voxel.VoxelScale)
				geo.MaterialIDs = append(geo.MaterialIDs, bestMat)
				geo.MaterialWeight = append(geo.MaterialWeight, 255)
				geo.LightLevels = append(geo.LightLevels, light*8)
				vertexOf[[3]int{x, y, z}] = vref{slot: slot, idx: idx}
				// Normal filled in after face emission, averaged from faces.
				geo.Normals = append(geo.Normals, 0, 0, 0)
			}
		}
	}

	// Face emission: for each of the 3 positive-axis edges of a cell whose
	// endpoints have opposite sign, emit a quad over the 4 cells sharing
	// that edge.
	emitQuad := func(cells [4][3]int, flip bool) {
		var refs [4]vref
		var ok bool
		for i, c := range cells {
			r, found := vertexOf[c]
			if !found {
				return
			}
			refs[i] = r
			if i > 0 && refs[i].slot != refs[0].slot {
				return
			}
			ok = found
		}
		if !ok {
			return
		}
		geo := &m.Slots[refs[0].slot]
		order := [6]int{0, 1, 2, 0, 2, 3}
		if flip {
			order = [6]int{0, 2, 1, 0, 3, 2}
		}
		for _, o := range order {
			geo.Indices = append(geo.Indices, refs[o].idx)
		}
		computeAndAccumulateNormal(geo, refs[order[0]].idx, refs[order[1]].idx, refs[order[2]].idx)
		computeAndAccumulateNormal(geo, refs[order[3]].idx, refs[order[4]].idx, refs[order[5]].idx)
	}

	// Axis-aligned edges with a sign change emit a quad over the 4 cells
	// sharing that edge.
	for x := 0; x < voxel.ChunkSize; x++ {
		for y := 1; y < voxel.ChunkSize; y++ {
			for z := 1; z < voxel.ChunkSize; z++ {
				c0 := getCorner(x, y, z)
				c1 := getCorner(x+1, y, z)
				if (c0.weight < 0) == (c1.weight < 0) {
					continue
				}
				cells := [4][3]int{{x, y - 1, z - 1}, {x, y, z - 1}, {x, y, z}, {x, y - 1, z}}
				emitQuad(cells, c0.weight < 0)
			}
		}
	}
	for y := 0; y < voxel.ChunkSize; y++ {
		for x := 1; x < voxel.ChunkSize; x++ {
			for z := 1; z < voxel.ChunkSize; z++ {
				c0 := getCorner(x, y, z)
				c1 := getCorner(x, y+1, z)
				if (c0.weight < 0) == (c1.weight < 0) {
					continue
				}
				cells := [4][3]int{{x - 1, y, z - 1}, {x, y, z - 1}, {x, y, z}, {x - 1, y, z}}
				emitQuad(cells, !(c0.weight < 0))
			}
		}
	}
	for z := 0; z < voxel.ChunkSize; z++ {
		for x := 1; x < voxel.ChunkSize; x++ {
			for y := 1; y < voxel.ChunkSize; y++ {
				c0 := getCorner(x, y, z)
				c1 := getCorner(x, y, z+1)
				if (c0.weight < 0) == (c1.weight < 0) {
					continue
				}
				cells := [4][3]int{{x - 1, y - 1, z}, {x, y - 1, z}, {x, y, z}, {x - 1, y, z}}
				emitQuad(cells, c0.weight < 0)
			}
		}
	}

	for s := range m.Slots {
		normalizeNormals(&m.Slots[s])
	}
	return m
}

func computeAndAccumulateNormal(geo *Geometry, ia, ib, ic uint32) {
	p := func(i uint32) [3]float32 {
		return [3]float32{geo.Positions[i*3], geo.Positions[i*3+1], geo.Positions[i*3+2]}
	}
	a, b, c := p(ia), p(ib), p(ic)
	ux, uy, uz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	vx, vy, vz := c[0]-a[0], c[1]-a[1], c[2]-a[2]
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	for _, i := range [3]uint32{ia, ib, ic} {
		geo.Normals[i*3] += nx
		geo.Normals[i*3+1] += ny
		geo.Normals[i*3+2] += nz
	}
}

func normalizeNormals(geo *Geometry) {
	for i := 0; i < len(geo.Normals); i += 3 {
		x, y, z := geo.Normals[i], geo.Normals[i+1], geo.Normals[i+2]
		lenSq := x*x + y*y + z*z
		if lenSq < 1e-12 {
			geo.Normals[i+1] = 1
			continue
		}
		inv := invSqrt(lenSq)
		geo.Normals[i] = x * inv
		geo.Normals[i+1] = y * inv
		geo.Normals[i+2] = z * inv
	}
}

func invSqrt(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(1 / math.Sqrt(float64(v)))
}

// VertexCount reports the total vertex count across all slots.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, g := range m.Slots {
		n += len(g.Positions) / 3
	}
	return n
}

// TriangleCount reports the total triangle count across all slots.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, g := range m.Slots {
		n += len(g.Indices) / 3
	}
	return n
}
