package lighting

import (
	"testing"

	"voxelengine/internal/voxel"
)

func classifyOpaqueAbove1(material uint8) MaterialClass {
	if material > 1 {
		return ClassNonOpaque
	}
	return ClassOpaqueSolid
}

func TestColumnPassTopOfWorldFullSunlight(t *testing.T) {
	c := voxel.NewChunk(voxel.Coord{})
	// leave all-air, expect full sunlight everywhere.
	ComputeSunlightColumns(c, nil, true, classifyOpaqueAbove1)
	for ly := 0; ly < voxel.ChunkSize; ly++ {
		if voxel.Light(c.Get(5, ly, 5)) != FullSunlight {
			t.Fatalf("air column at top of world should be full sunlight at y=%d", ly)
		}
	}
}

func TestColumnPassOpaqueBlocksLight(t *testing.T) {
	c := voxel.NewChunk(voxel.Coord{})
	// Solid opaque stone (material 1) from y=0..15, air above.
	for ly := 0; ly < 16; ly++ {
		for lx := 0; lx < voxel.ChunkSize; lx++ {
			for lz := 0; lz < voxel.ChunkSize; lz++ {
				c.Set(lx, ly, lz, voxel.Pack(0.5, 1, 0))
			}
		}
	}
	ComputeSunlightColumns(c, nil, true, classifyOpaqueAbove1)
	if voxel.Light(c.Get(3, 20, 3)) != FullSunlight {
		t.Fatalf("air above the opaque slab should be lit")
	}
	if voxel.Light(c.Get(3, 5, 3)) != 0 {
		t.Fatalf("voxels below the opaque slab should be dark")
	}
}

func TestPropagateLightSpreadsIntoShadow(t *testing.T) {
	c := voxel.NewChunk(voxel.Coord{})
	// A single bright seed voxel in an otherwise air (dark) chunk.
	c.Set(16, 16, 16, voxel.WithLight(c.Get(16, 16, 16), FullSunlight))
	PropagateLight(c, classifyOpaqueAbove1)
	if voxel.Light(c.Get(17, 16, 16)) == 0 {
		t.Fatalf("light should spread to an adjacent non-solid voxel")
	}
	if voxel.Light(c.Get(17, 16, 16)) >= FullSunlight {
		t.Fatalf("propagated light should decrease by at least 1 per hop")
	}
}

func TestPropagateLightStopsAtOpaque(t *testing.T) {
	c := voxel.NewChunk(voxel.Coord{})
	c.Set(10, 10, 10, voxel.WithLight(c.Get(10, 10, 10), FullSunlight))
	c.Set(11, 10, 10, voxel.Pack(0.5, 1, 0)) // opaque solid neighbor
	PropagateLight(c, classifyOpaqueAbove1)
	if voxel.Light(c.Get(11, 10, 10)) != 0 {
		t.Fatalf("opaque solids must not receive propagated light")
	}
}
