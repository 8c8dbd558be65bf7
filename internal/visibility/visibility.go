// Package visibility computes the per-chunk 15-bit face-pair reachability
// graph used to cull chunk BFS traversal in the streaming renderer.
package visibility

import "voxelengine/internal/voxel"

// Face identifies one of the six chunk faces.
type Face int

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
	numFaces = 6
)

// pairIndex returns the lexicographic rank of the unordered pair (a, b)
// within C(6,2) = 15, matching the spec's bit layout.
func pairIndex(a, b Face) int {
	if a > b {
		a, b = b, a
	}
	idx := 0
	for i := Face(0); i < a; i++ {
		idx += numFaces - 1 - int(i)
	}
	idx += int(b - a - 1)
	return idx
}

// PairBit returns the bit for face pair (a, b).
func PairBit(a, b Face) uint16 {
	return 1 << uint(pairIndex(a, b))
}

// CanSeeThrough reports whether bits connects faces a and b. Symmetric by
// construction: PairBit ignores argument order.
func CanSeeThrough(bits uint16, a, b Face) bool {
	return bits&PairBit(a, b) != 0
}

// Grid is the minimal read interface the flood fill needs: a solid
// predicate over local 0..31 coordinates.
type Grid interface {
	IsSolidAt(x, y, z int) bool
}

// chunkGrid adapts a *voxel.Chunk to Grid.
type chunkGrid struct{ c *voxel.Chunk }

func (g chunkGrid) IsSolidAt(x, y, z int) bool { return voxel.IsSolid(g.c.Get(x, y, z)) }

// Compute returns the 15-bit visibility word for a chunk: early-exits to
// 0x0000 for fully solid, 0x7FFF for fully empty, otherwise BFS-floods
// 6-connected non-solid voxels from every unvisited boundary voxel.
func Compute(c *voxel.Chunk) uint16 {
	return ComputeGrid(chunkGrid{c})
}

const n = voxel.ChunkSize

// ComputeGrid runs the same algorithm against any Grid implementation,
// letting tests exercise it without allocating a full voxel.Chunk.
func ComputeGrid(g Grid) uint16 {
	allSolid, allEmpty := true, true
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				if g.IsSolidAt(x, y, z) {
					allEmpty = false
				} else {
					allSolid = false
				}
			}
		}
	}
	if allSolid {
		return 0x0000
	}
	if allEmpty {
		return 0x7FFF
	}

	var visited [voxel.ChunkVolume]bool
	var bits uint16

	type pt struct{ x, y, z int }
	var queue []pt

	visitFaces := func(x, y, z int) Face {
		switch {
		case x == 0:
			return FaceNegX
		case x == n-1:
			return FacePosX
		case y == 0:
			return FaceNegY
		case y == n-1:
			return FacePosY
		case z == 0:
			return FaceNegZ
		case z == n-1:
			return FacePosZ
		}
		return -1
	}

	isBoundary := func(x, y, z int) bool {
		return x == 0 || x == n-1 || y == 0 || y == n-1 || z == 0 || z == n-1
	}

	neighbors := [6][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}}

	for sx := 0; sx < n; sx++ {
		for sy := 0; sy < n; sy++ {
			for sz := 0; sz < n; sz++ {
				if !isBoundary(sx, sy, sz) {
					continue
				}
				idx := voxel.VoxelIndex(sx, sy, sz)
				if visited[idx] || g.IsSolidAt(sx, sy, sz) {
					continue
				}

				var reached []Face
				reachedMask := 0
				queue = queue[:0]
				queue = append(queue, pt{sx, sy, sz})
				visited[idx] = true

				for len(queue) > 0 {
					p := queue[len(queue)-1]
					queue = queue[:len(queue)-1]

					if isBoundary(p.x, p.y, p.z) {
						if f := visitFaces(p.x, p.y, p.z); f >= 0 {
							bit := 1 << uint(f)
							if reachedMask&bit == 0 {
								reachedMask |= bit
								reached = append(reached, f)
							}
						}
					}

					for _, d := range neighbors {
						nx, ny, nz := p.x+d[0], p.y+d[1], p.z+d[2]
						if nx < 0 || nx >= n || ny < 0 || ny >= n || nz < 0 || nz >= n {
							continue
						}
						nidx := voxel.VoxelIndex(nx, ny, nz)
						if visited[nidx] || g.IsSolidAt(nx, ny, nz) {
							continue
						}
						visited[nidx] = true
						queue = append(queue, pt{nx, ny, nz})
					}
				}

				for i := 0; i < len(reached); i++ {
					for j := i + 1; j < len(reached); j++ {
						bits |= PairBit(reached[i], reached[j])
					}
				}
			}
		}
	}
	return bits
}
