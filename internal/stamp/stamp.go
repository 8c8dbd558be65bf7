// Package stamp implements deterministic, priority-ordered placement of
// baked voxel patterns (trees, rocks, buildings) and their application to
// chunks during generation.
package stamp

import (
	"voxelengine/internal/terrain"
	"voxelengine/internal/voxel"
)

// VoxelDelta is one voxel of a baked stamp pattern, relative to the
// stamp's anchor.
type VoxelDelta struct {
	DX, DY, DZ int
	Weight     float32
	Material   uint8
}

// Type groups variants of one stamp kind (e.g. TREE_OAK) and the
// distribution rule used to place instances of it.
type Type struct {
	Name            string
	Priority        int // ascending: buildings first, rocks next, trees last
	GridSize        float64
	Jitter          float64 // in [0, 0.5]
	ExclusionRadius float64
	Variants        [][]VoxelDelta
}

// Library is an ordered, priority-sorted set of stamp types.
type Library struct {
	Types []Type
}

// DefaultLibrary builds the three reference stamp types named in the
// spec: a hut, a large rock, and an oak tree, each with variants baked as
// simple voxel patterns.
func DefaultLibrary() *Library {
	return &Library{
		Types: []Type{
			{
				Name: "BUILDING_HUT", Priority: 0,
				GridSize: 48, Jitter: 0.1, ExclusionRadius: 10,
				Variants: [][]VoxelDelta{hutVariant(5), hutVariant(6)},
			},
			{
				Name: "ROCK_LARGE", Priority: 1,
				GridSize: 20, Jitter: 0.4, ExclusionRadius: 4,
				Variants: [][]VoxelDelta{rockVariant(2), rockVariant(3)},
			},
			{
				Name: "TREE_OAK", Priority: 2,
				GridSize: 8, Jitter: 0.5, ExclusionRadius: 2,
				Variants: [][]VoxelDelta{treeVariant(4), treeVariant(5), treeVariant(6)},
			},
		},
	}
}

const (
	matLog    uint8 = 10
	matLeaves uint8 = 11
	matStone  uint8 = 1
	matPlank  uint8 = 12
)

func treeVariant(trunkHeight int) []VoxelDelta {
	var vs []VoxelDelta
	for y := 0; y < trunkHeight; y++ {
		vs = append(vs, VoxelDelta{0, y, 0, 0.5, matLog})
	}
	topY := trunkHeight
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			for dy := 0; dy <= 2; dy++ {
				if dx*dx+dz*dz+(dy-1)*(dy-1)*2 <= 5 {
					vs = append(vs, VoxelDelta{dx, topY + dy, dz, 0.4, matLeaves})
				}
			}
		}
	}
	return vs
}

func rockVariant(radius int) []VoxelDelta {
	var vs []VoxelDelta
	for dx := -radius; dx <= radius; dx++ {
		for dy := 0; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				if dx*dx+dy*dy+dz*dz <= radius*radius {
					vs = append(vs, VoxelDelta{dx, dy, dz, 0.5, matStone})
				}
			}
		}
	}
	return vs
}

func hutVariant(size int) []VoxelDelta {
	var vs []VoxelDelta
	h := size / 2
	for dx := -h; dx <= h; dx++ {
		for dz := -h; dz <= h; dz++ {
			for dy := 0; dy < size; dy++ {
				onWall := dx == -h || dx == h || dz == -h || dz == h
				if onWall || dy == 0 {
					vs = append(vs, VoxelDelta{dx, dy, dz, 0.5, matPlank})
				}
			}
		}
	}
	return vs
}

// hash32 mixes (seed, gx, gz, typeIdx) into a 32-bit value, then derives a
// small seeded PRNG from it. Deterministic and platform-independent.
func hash32(seed uint32, gx, gz int32, typeIdx int) uint32 {
	h := seed
	h = h*2654435761 + uint32(gx)
	h ^= h >> 15
	h = h*2654435761 + uint32(gz)
	h ^= h >> 13
	h = h*2654435761 + uint32(typeIdx)
	h ^= h >> 17
	return h
}

type rng struct{ state uint32 }

func newRNG(seed uint32) *rng {
	if seed == 0 {
		seed = 1
	}
	return &rng{state: seed}
}

// Float64 returns a deterministic pseudo-random value in [0, 1).
func (r *rng) Float64() float64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 17
	r.state ^= r.state << 5
	return float64(r.state) / float64(1<<32)
}

// Instance is one placed stamp: its anchor world position, chosen
// variant, and rotation (0..3, quarter turns about Y).
type Instance struct {
	Type     *Type
	WorldX   float64
	WorldZ   float64
	Variant  int
	Rotation int
}

// Placer deterministically distributes stamp instances over a chunk's XZ
// footprint plus margin, and applies the resulting voxels to chunks.
type Placer struct {
	seed    uint32
	lib     *Library
	terrain *terrain.Generator
}

// NewPlacer builds a placer bound to a seed, stamp library, and terrain
// generator (used to anchor stamp Y to the sampled surface height).
func NewPlacer(seed uint32, lib *Library, t *terrain.Generator) *Placer {
	return &Placer{seed: seed, lib: lib, terrain: t}
}

// marginVoxels bounds the worst-case stamp footprint so instances anchored
// just outside a chunk can still paint into it.
const marginVoxels = 16

// InstancesNear returns all stamp instances whose footprint could overlap
// the chunk at (cx, cz) (any cy), found by iterating global grid cells
// (not chunk-relative) so placement is identical regardless of which
// chunk triggers generation first.
func (p *Placer) InstancesNear(cx, cz int) []Instance {
	minX := float64(cx*voxel.ChunkSize-marginVoxels) * voxel.VoxelScale
	maxX := float64(cx*voxel.ChunkSize+voxel.ChunkSize+marginVoxels) * voxel.VoxelScale
	minZ := float64(cz*voxel.ChunkSize-marginVoxels) * voxel.VoxelScale
	maxZ := float64(cz*voxel.ChunkSize+voxel.ChunkSize+marginVoxels) * voxel.VoxelScale

	var placed []Instance
	// Priority ascending: buildings, then rocks, then trees.
	types := make([]*Type, len(p.lib.Types))
	for i := range p.lib.Types {
		types[i] = &p.lib.Types[i]
	}
	for i := 0; i < len(types); i++ {
		for j := i + 1; j < len(types); j++ {
			if types[j].Priority < types[i].Priority {
				types[i], types[j] = types[j], types[i]
			}
		}
	}

	for ti := range types {
		tp := types[ti]
		gMinX := int32(minX/tp.GridSize) - 1
		gMaxX := int32(maxX/tp.GridSize) + 1
		gMinZ := int32(minZ/tp.GridSize) - 1
		gMaxZ := int32(maxZ/tp.GridSize) + 1

		for gx := gMinX; gx <= gMaxX; gx++ {
			for gz := gMinZ; gz <= gMaxZ; gz++ {
				h := hash32(p.seed, gx, gz, ti)
				r := newRNG(h)

				cellCenterX := (float64(gx) + 0.5) * tp.GridSize
				cellCenterZ := (float64(gz) + 0.5) * tp.GridSize
				jx := (r.Float64()*2 - 1) * tp.Jitter * tp.GridSize
				jz := (r.Float64()*2 - 1) * tp.Jitter * tp.GridSize
				wx := cellCenterX + jx
				wz := cellCenterZ + jz

				if wx < minX || wx > maxX || wz < minZ || wz > maxZ {
					continue
				}

				rejected := false
				for _, other := range placed {
					dx := other.WorldX - wx
					dz := other.WorldZ - wz
					minDist := tp.ExclusionRadius
					if other.Type.ExclusionRadius > minDist {
						minDist = other.Type.ExclusionRadius
					}
					if dx*dx+dz*dz < minDist*minDist {
						rejected = true
						break
					}
				}
				if rejected {
					continue
				}

				variant := int(r.Float64() * float64(len(tp.Variants)))
				if variant >= len(tp.Variants) {
					variant = len(tp.Variants) - 1
				}
				rotation := int(r.Float64() * 4)
				if rotation > 3 {
					rotation = 3
				}
				placed = append(placed, Instance{
					Type: tp, WorldX: wx, WorldZ: wz, Variant: variant, Rotation: rotation,
				})
			}
		}
	}
	return placed
}

func rotateDelta(dx, dz, rotation int) (int, int) {
	switch rotation & 3 {
	case 1:
		return -dz, dx
	case 2:
		return -dx, -dz
	case 3:
		return dz, -dx
	default:
		return dx, dz
	}
}

// ChunkSetter is the minimal interface the placer needs to write a stamp
// voxel into a chunk; satisfied by the chunk provider, so cross-boundary
// stamp voxels can recursively get-or-create the neighbor chunk they land in.
type ChunkSetter interface {
	SetVoxel(coord voxel.Coord, lx, ly, lz int, weight float32, material uint8)
}

// Apply paints every voxel of a stamp instance into whatever chunk(s) it
// overlaps, blending with existing voxels via max-weight (default blend).
func (p *Placer) Apply(inst Instance, dst ChunkSetter) {
	anchorY := p.terrain.SampleHeight(inst.WorldX/voxel.VoxelScale, inst.WorldZ/voxel.VoxelScale)
	anchorVX := int(inst.WorldX / voxel.VoxelScale)
	anchorVY := int(anchorY)
	anchorVZ := int(inst.WorldZ / voxel.VoxelScale)

	variant := inst.Type.Variants[inst.Variant]
	for _, d := range variant {
		rdx, rdz := rotateDelta(d.DX, d.DZ, inst.Rotation)
		wx := anchorVX + rdx
		wy := anchorVY + d.DY
		wz := anchorVZ + rdz

		coord := voxel.WorldToChunk(wx, wy, wz)
		lx, ly, lz := voxel.WorldToLocal(wx, wy, wz)
		dst.SetVoxel(coord, lx, ly, lz, d.Weight, d.Material)
	}
}

// BlendMax applies the default blend mode: keep whichever weight is
// larger (more solid) between the existing and incoming voxel.
func BlendMax(existing voxel.Packed, incomingWeight float32, incomingMaterial uint8) voxel.Packed {
	ew, em, el := voxel.Unpack(existing)
	if incomingWeight > ew {
		return voxel.Pack(incomingWeight, incomingMaterial, el)
	}
	return voxel.Pack(ew, em, el)
}
