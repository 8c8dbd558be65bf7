package csg

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/voxel"
)

// Mode is one of the four CSG operations.
type Mode int

const (
	ModeAdd Mode = iota
	ModeSubtract
	ModePaint
	ModeFill
)

// Config is the shape-agnostic parameters of a build operation.
type Config struct {
	Shape     Shape
	Mode      Mode
	Size      mgl32.Vec3
	Material  uint8
	Thickness float32 // reserved for hollow shapes; 0 = solid
	Closed    bool
	ArcSweep  float32
}

// Operation is a complete, positioned build intent.
type Operation struct {
	Center   mgl32.Vec3 // world space, meters
	Rotation mgl32.Quat
	Config   Config
}

// maxAxis returns the largest component of v.
func maxAxis(v mgl32.Vec3) float32 {
	m := v.X()
	if v.Y() > m {
		m = v.Y()
	}
	if v.Z() > m {
		m = v.Z()
	}
	return m
}

// VoxelBBox returns the inclusive world-voxel-space bounding box of the
// operation: center +/- (max(size) converted to voxels, plus 2) voxels.
func (op Operation) VoxelBBox() (min, max [3]int) {
	centerVX := op.Center.X() / voxel.VoxelScale
	centerVY := op.Center.Y() / voxel.VoxelScale
	centerVZ := op.Center.Z() / voxel.VoxelScale
	marginV := maxAxis(op.Config.Size)/voxel.VoxelScale + 2

	min = [3]int{
		int(centerVX - marginV), int(centerVY - marginV), int(centerVZ - marginV),
	}
	max = [3]int{
		int(centerVX + marginV), int(centerVY + marginV), int(centerVZ + marginV),
	}
	return
}

// Draw applies the operation to the given chunk. It returns true iff any
// voxel in the chunk changed, so callers can enqueue re-meshing only for
// modified chunks. An operation whose size is zero or negative on any axis
// changes nothing.
func Draw(op Operation, chunk *voxel.Chunk) bool {
	if s := op.Config.Size; s.X() <= 0 || s.Y() <= 0 || s.Z() <= 0 {
		return false
	}
	invRot := op.Rotation.Conjugate()

	minW, maxW := op.VoxelBBox()

	originX := chunk.Coord.X * voxel.ChunkSize
	originY := chunk.Coord.Y * voxel.ChunkSize
	originZ := chunk.Coord.Z * voxel.ChunkSize

	loX := maxInt(minW[0]-originX, 0)
	hiX := minInt(maxW[0]-originX, voxel.ChunkSize-1)
	loY := maxInt(minW[1]-originY, 0)
	hiY := minInt(maxW[1]-originY, voxel.ChunkSize-1)
	loZ := maxInt(minW[2]-originZ, 0)
	hiZ := minInt(maxW[2]-originZ, voxel.ChunkSize-1)

	changed := false

	for lx := loX; lx <= hiX; lx++ {
		for ly := loY; ly <= hiY; ly++ {
			for lz := loZ; lz <= hiZ; lz++ {
				worldPos := mgl32.Vec3{
					float32(originX+lx) * voxel.VoxelScale,
					float32(originY+ly) * voxel.VoxelScale,
					float32(originZ+lz) * voxel.VoxelScale,
				}
				rel := worldPos.Sub(op.Center)
				local := invRot.Rotate(rel)

				d := op.Config.Shape.SDF(local)
				if d > 1.5 {
					continue
				}

				delta := SDFToWeight(d)
				if op.Config.Mode == ModeSubtract {
					delta = -delta
				}

				existing := chunk.Get(lx, ly, lz)
				ew, em, el := voxel.Unpack(existing)

				switch op.Config.Mode {
				case ModeAdd:
					newW := maxf(ew, maxf(ew+delta, delta))
					newW = clamp(newW, -0.5, 0.5)
					newMat := em
					if delta >= ew {
						newMat = op.Config.Material
					}
					if newW != ew || newMat != em {
						chunk.Set(lx, ly, lz, voxel.Pack(newW, newMat, el))
						changed = true
					}
				case ModeSubtract:
					if delta < ew {
						chunk.Set(lx, ly, lz, voxel.Pack(delta, em, el))
						changed = true
					}
				case ModePaint:
					if delta > 0 && ew > 0 && em != op.Config.Material {
						chunk.Set(lx, ly, lz, voxel.Pack(ew, op.Config.Material, el))
						changed = true
					}
				case ModeFill:
					if delta > ew && ew <= 0 {
						chunk.Set(lx, ly, lz, voxel.Pack(delta, op.Config.Material, el))
						changed = true
					}
				}
			}
		}
	}
	return changed
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
