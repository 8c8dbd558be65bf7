// Package lighting implements the two in-place lighting passes run over a
// chunk's 32^3 grid: a top-down sunlight column pass, and a 6-neighbor BFS
// spread pass.
package lighting

import "voxelengine/internal/voxel"

const (
	FullSunlight uint8 = 31
)

// MaterialClass is the minimal opacity classification the lighting passes
// need from the material registry (avoids importing the material package
// directly and keeps lighting decoupled from registry internals).
type MaterialClass int

const (
	ClassAir MaterialClass = iota
	ClassOpaqueSolid
	ClassNonOpaque // transparent or liquid: light passes through, decremented
)

// Classifier maps a material id to its opacity class for lighting.
type Classifier func(material uint8) MaterialClass

// ComputeSunlightColumns runs the column pass in place over chunk. For
// each (lx, lz), it scans top to bottom starting from lightFromAbove[lx][lz]
// (or FullSunlight if atTopOfWorld). It returns the bottom row of light
// values, to be fed as lightFromAbove into the chunk below.
func ComputeSunlightColumns(c *voxel.Chunk, lightFromAbove *[voxel.ChunkSize][voxel.ChunkSize]uint8, atTopOfWorld bool, classify Classifier) [voxel.ChunkSize][voxel.ChunkSize]uint8 {
	var bottomRow [voxel.ChunkSize][voxel.ChunkSize]uint8

	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			var light uint8
			if atTopOfWorld {
				light = FullSunlight
			} else if lightFromAbove != nil {
				light = lightFromAbove[lx][lz]
			}

			for ly := voxel.ChunkSize - 1; ly >= 0; ly-- {
				v := c.Get(lx, ly, lz)
				mat := voxel.Material(v)
				solid := voxel.IsSolid(v)

				var cls MaterialClass
				if !solid {
					cls = ClassAir
				} else {
					cls = classify(mat)
				}

				switch cls {
				case ClassAir:
					c.Set(lx, ly, lz, voxel.WithLight(v, light))
				case ClassNonOpaque:
					c.Set(lx, ly, lz, voxel.WithLight(v, light))
					if light > 0 {
						light--
					}
				case ClassOpaqueSolid:
					c.Set(lx, ly, lz, voxel.WithLight(v, 0))
					light = 0
				}
			}
			bottomRow[lx][lz] = light
		}
	}
	return bottomRow
}

type point struct{ x, y, z int }

// PropagateLight runs the BFS spread pass: seeds a queue with every voxel
// whose light > 1, then relaxes 6-connected neighbors (skipping opaque
// solids) whenever src_light-1 exceeds the neighbor's current light.
func PropagateLight(c *voxel.Chunk, classify Classifier) {
	var queue []point
	queue = make([]point, 0, 1024)

	for x := 0; x < voxel.ChunkSize; x++ {
		for y := 0; y < voxel.ChunkSize; y++ {
			for z := 0; z < voxel.ChunkSize; z++ {
				if voxel.Light(c.Get(x, y, z)) > 1 {
					queue = append(queue, point{x, y, z})
				}
			}
		}
	}

	neighbors := [6][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		srcLight := voxel.Light(c.Get(p.x, p.y, p.z))
		if srcLight <= 1 {
			continue
		}
		for _, d := range neighbors {
			nx, ny, nz := p.x+d[0], p.y+d[1], p.z+d[2]
			if nx < 0 || nx >= voxel.ChunkSize || ny < 0 || ny >= voxel.ChunkSize || nz < 0 || nz >= voxel.ChunkSize {
				continue
			}
			nv := c.Get(nx, ny, nz)
			if voxel.IsSolid(nv) && classify(voxel.Material(nv)) == ClassOpaqueSolid {
				continue
			}
			if srcLight-1 > voxel.Light(nv) {
				c.Set(nx, ny, nz, voxel.WithLight(nv, srcLight-1))
				queue = append(queue, point{nx, ny, nz})
			}
		}
	}
}
