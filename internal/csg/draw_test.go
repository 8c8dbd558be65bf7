package csg

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/voxel"
)

func TestDrawAddCube(t *testing.T) {
	chunk := voxel.NewChunk(voxel.Coord{0, 0, 0})
	op := Operation{
		Center:   mgl32.Vec3{4 * voxel.VoxelScale * 8, 4 * voxel.VoxelScale * 8, 4 * voxel.VoxelScale * 8},
		Rotation: mgl32.QuatIdent(),
		Config: Config{
			Shape:    Cube{Size: mgl32.Vec3{2, 2, 2}},
			Mode:     ModeAdd,
			Size:     mgl32.Vec3{2, 2, 2},
			Material: 7,
		},
	}
	changed := Draw(op, chunk)
	if !changed {
		t.Fatalf("expected cube add to change at least one voxel")
	}
	count := 0
	for i := 0; i < voxel.ChunkVolume; i++ {
		x, y, z := voxel.IndexToVoxel(i)
		if voxel.IsSolid(chunk.Get(x, y, z)) {
			count++
		}
	}
	if count == 0 {
		t.Fatalf("expected solid voxels after cube add")
	}
}

func TestSubtractZeroSizeIsNoop(t *testing.T) {
	chunk := voxel.NewChunk(voxel.Coord{0, 0, 0})
	chunk.Fill(0.5, 1, 10)
	chunk.SetClean()

	op := Operation{
		Center:   mgl32.Vec3{4, 4, 4},
		Rotation: mgl32.QuatIdent(),
		Config: Config{
			Shape:    Cube{Size: mgl32.Vec3{0, 0, 0}},
			Mode:     ModeSubtract,
			Size:     mgl32.Vec3{0, 0, 0},
			Material: 1,
		},
	}
	Draw(op, chunk)
	if chunk.IsDirty() {
		t.Fatalf("a draw with size=0 in every axis must not change the chunk")
	}
}

func TestPaintOnlyChangesMaterialOnSolid(t *testing.T) {
	chunk := voxel.NewChunk(voxel.Coord{0, 0, 0})
	chunk.Fill(0.5, 1, 5)
	chunk.SetClean()

	op := Operation{
		Center:   mgl32.Vec3{4, 4, 4},
		Rotation: mgl32.QuatIdent(),
		Config: Config{
			Shape:    Sphere{Size: mgl32.Vec3{4, 4, 4}},
			Mode:     ModePaint,
			Size:     mgl32.Vec3{4, 4, 4},
			Material: 9,
		},
	}
	Draw(op, chunk)
	_, m, _ := voxel.Unpack(chunk.Get(16, 16, 16))
	if m != 9 {
		t.Fatalf("paint inside the shape on a solid voxel should change material, got %d", m)
	}
}
