package voxel

// Chunk owns a flat 32768-voxel grid and tracks the bookkeeping the store
// and build pipeline need: a dirty bit and the build sequence that last
// touched it.
type Chunk struct {
	Coord Coord

	voxels [ChunkVolume]Packed

	dirty        bool
	lastBuildSeq uint32
}

// NewChunk allocates an all-air chunk at the given coordinate.
func NewChunk(coord Coord) *Chunk {
	return &Chunk{Coord: coord}
}

// Get returns the packed voxel at local (x,y,z). Out-of-range coordinates
// return a zero (air) voxel.
func (c *Chunk) Get(x, y, z int) Packed {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return 0
	}
	return c.voxels[VoxelIndex(x, y, z)]
}

// Set writes the packed voxel at local (x,y,z) and marks the chunk dirty
// if the value changed. Out-of-range coordinates are ignored.
func (c *Chunk) Set(x, y, z int, v Packed) {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return
	}
	idx := VoxelIndex(x, y, z)
	if c.voxels[idx] != v {
		c.voxels[idx] = v
		c.dirty = true
	}
}

// Fill sets every voxel in the chunk to the same packed value.
func (c *Chunk) Fill(weight float32, material, light uint8) {
	v := Pack(weight, material, light)
	for i := range c.voxels {
		c.voxels[i] = v
	}
	c.dirty = true
}

// FillFlat is a test helper: fills local Y rows [0, height) solid with
// material, and leaves the rest air. Used by meshing/lighting tests that
// need a deterministic flat slab.
func (c *Chunk) FillFlat(height int, material uint8) {
	for y := 0; y < ChunkSize; y++ {
		w := float32(-0.5)
		if y < height {
			w = 0.5
		}
		for x := 0; x < ChunkSize; x++ {
			for z := 0; z < ChunkSize; z++ {
				c.voxels[VoxelIndex(x, y, z)] = Pack(w, material, 0)
			}
		}
	}
	c.dirty = true
}

// IsDirty reports whether the chunk has unflushed/unmeshed mutations.
func (c *Chunk) IsDirty() bool { return c.dirty }

// SetClean clears the dirty bit (called after a successful flush).
func (c *Chunk) SetClean() { c.dirty = false }

// LastBuildSeq returns the last build sequence number that touched this chunk.
func (c *Chunk) LastBuildSeq() uint32 { return c.lastBuildSeq }

// SetLastBuildSeq records a new build sequence number.
func (c *Chunk) SetLastBuildSeq(seq uint32) { c.lastBuildSeq = seq }

// AllSolid reports whether every voxel in the chunk is solid.
func (c *Chunk) AllSolid() bool {
	for _, v := range c.voxels {
		if !IsSolid(v) {
			return false
		}
	}
	return true
}

// AllEmpty reports whether every voxel in the chunk is non-solid.
func (c *Chunk) AllEmpty() bool {
	for _, v := range c.voxels {
		if IsSolid(v) {
			return false
		}
	}
	return true
}

// RawVoxels returns the chunk's backing array for serialization. Callers
// must not retain a reference past the chunk's lifetime without copying.
func (c *Chunk) RawVoxels() *[ChunkVolume]Packed {
	return &c.voxels
}

// LoadRaw replaces the chunk's voxel grid wholesale (used by the chunk
// provider when it fills a chunk from the store or the terrain generator)
// and clears the dirty bit.
func (c *Chunk) LoadRaw(data [ChunkVolume]Packed) {
	c.voxels = data
	c.dirty = false
}

// NeighborSource resolves the chunk at a coordinate, or nil if unloaded.
// Implemented by the chunk provider/store; used by GetWithMargin.
type NeighborSource interface {
	Neighbor(coord Coord) *Chunk
}

// GetWithMargin reads a voxel from an expanded 0..32 index range (inclusive
// on the high edge). An index of 32 along an axis reads from the
// neighboring chunk in that direction; if that neighbor is unloaded, the
// read clamps to this chunk's own boundary voxel (extrapolation), per the
// mesher's 34-wide working-grid contract.
func (c *Chunk) GetWithMargin(x, y, z int, neighbors NeighborSource) Packed {
	dx, dy, dz := 0, 0, 0
	lx, ly, lz := x, y, z
	if x == ChunkSize {
		dx, lx = 1, ChunkSize-1
	}
	if y == ChunkSize {
		dy, ly = 1, ChunkSize-1
	}
	if z == ChunkSize {
		dz, lz = 1, ChunkSize-1
	}
	if dx == 0 && dy == 0 && dz == 0 {
		return c.Get(x, y, z)
	}
	if neighbors != nil {
		nc := neighbors.Neighbor(Coord{c.Coord.X + dx, c.Coord.Y + dy, c.Coord.Z + dz})
		if nc != nil {
			nx, ny, nz := lx, ly, lz
			if dx == 1 {
				nx = 0
			}
			if dy == 1 {
				ny = 0
			}
			if dz == 1 {
				nz = 0
			}
			return nc.Get(nx, ny, nz)
		}
	}
	// No neighbor loaded: extrapolate from our own boundary voxel.
	return c.Get(lx, ly, lz)
}
