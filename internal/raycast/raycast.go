// Package raycast implements the client-side spawn/respawn raycast: a
// straight-down probe against the union of currently meshed chunks, used
// to place a player on the terrain surface.
package raycast

import (
	"voxelengine/internal/voxel"
)

const (
	// SpawnRaycastHeight is the world-space Y (meters) the probe starts
	// from, chosen to sit above any plausible terrain height.
	SpawnRaycastHeight = float32(320)
	// PlayerHeight is the world-space eye-to-feet offset (meters) applied
	// on top of a raycast hit.
	PlayerHeight = float32(1.8)
	// SpawnHeightOffset is a small clearance added above PlayerHeight so
	// the player doesn't spawn embedded in the surface voxel.
	SpawnHeightOffset = float32(0.1)

	stepVoxels = 1
)

// World is the minimal read surface the raycast needs: whether a chunk
// has been meshed (and is therefore eligible to be hit), and whether the
// voxel at a world voxel coordinate is solid.
type World interface {
	IsMeshed(chunk voxel.Coord) bool
	IsSolidAt(worldX, worldY, worldZ int) bool
}

// Result is the outcome of a single downward probe.
type Result struct {
	HitY float32 // world-space Y (meters) of the hit surface
	Hit  bool
}

// Raycast steps straight down from (x, SpawnRaycastHeight, z) in
// world-voxel Y increments, skipping through any column whose chunk
// isn't meshed yet (it can't be "hit" before the renderer has it), and
// reports the first solid voxel found.
func Raycast(world World, x, z float32) Result {
	wx := int(x / voxel.VoxelScale)
	wz := int(z / voxel.VoxelScale)
	topY := int(SpawnRaycastHeight / voxel.VoxelScale)

	for wy := topY; wy > -topY; wy -= stepVoxels {
		coord := voxel.WorldToChunk(wx, wy, wz)
		if !world.IsMeshed(coord) {
			continue
		}
		if world.IsSolidAt(wx, wy, wz) {
			return Result{HitY: float32(wy) * voxel.VoxelScale, Hit: true}
		}
	}
	return Result{}
}

// FindRespawnPosition implements the priority chain from the spec: last
// grounded position, a raycast at the current XZ, a raycast at the
// origin; ok is false if none of those hit meshed terrain.
func FindRespawnPosition(world World, current [3]float32, lastGrounded *[3]float32) (pos [3]float32, ok bool) {
	if lastGrounded != nil {
		if r := Raycast(world, lastGrounded[0], lastGrounded[2]); r.Hit {
			return [3]float32{lastGrounded[0], r.HitY + PlayerHeight + SpawnHeightOffset, lastGrounded[2]}, true
		}
	}
	if r := Raycast(world, current[0], current[2]); r.Hit {
		return [3]float32{current[0], r.HitY + PlayerHeight + SpawnHeightOffset, current[2]}, true
	}
	if r := Raycast(world, 0, 0); r.Hit {
		return [3]float32{0, r.HitY + PlayerHeight + SpawnHeightOffset, 0}, true
	}
	return [3]float32{}, false
}
