package raycast

import (
	"testing"

	"voxelengine/internal/voxel"
)

// planeWorld is a fake World with a flat solid terrain plane at a fixed
// world Y, meshed only in a chosen set of chunk columns.
type planeWorld struct {
	planeY  int
	meshed  map[voxel.Coord]bool
}

func (w *planeWorld) IsMeshed(coord voxel.Coord) bool {
	return w.meshed[voxel.Coord{X: coord.X, Y: 0, Z: coord.Z}]
}

func (w *planeWorld) IsSolidAt(x, y, z int) bool {
	return y <= w.planeY
}

func originOnlyWorld(planeY int) *planeWorld {
	origin := voxel.WorldToChunk(0, 0, 0)
	return &planeWorld{
		planeY: planeY,
		meshed: map[voxel.Coord]bool{{X: origin.X, Y: 0, Z: origin.Z}: true},
	}
}

func TestRaycastHitsMeshedColumn(t *testing.T) {
	planeY := 15
	w := originOnlyWorld(planeY)
	r := Raycast(w, 0, 0)
	if !r.Hit {
		t.Fatal("expected a hit at the origin column")
	}
	want := float32(planeY) * voxel.VoxelScale
	if r.HitY != want {
		t.Fatalf("HitY = %v, want %v", r.HitY, want)
	}
}

func TestRaycastMissesUnmeshedColumn(t *testing.T) {
	w := originOnlyWorld(15)
	r := Raycast(w, 500, 500)
	if r.Hit {
		t.Fatal("expected a miss: (500, 500) is not in a meshed column")
	}
}

func TestFindRespawnPositionFallsBackToOrigin(t *testing.T) {
	planeY := 15
	w := originOnlyWorld(planeY)

	pos, ok := FindRespawnPosition(w, [3]float32{500, -100, 500}, nil)
	if !ok {
		t.Fatal("expected a respawn position from the origin fallback")
	}
	wantY := float32(planeY)*voxel.VoxelScale + PlayerHeight + SpawnHeightOffset
	want := [3]float32{0, wantY, 0}
	if pos != want {
		t.Fatalf("pos = %v, want %v", pos, want)
	}
}

func TestFindRespawnPositionPrefersLastGrounded(t *testing.T) {
	planeY := 15
	w := originOnlyWorld(planeY)
	lastGrounded := [3]float32{0, 20, 0}

	pos, ok := FindRespawnPosition(w, [3]float32{500, -100, 500}, &lastGrounded)
	if !ok {
		t.Fatal("expected a respawn position from last_grounded")
	}
	wantY := float32(planeY)*voxel.VoxelScale + PlayerHeight + SpawnHeightOffset
	if pos[1] != wantY || pos[0] != 0 || pos[2] != 0 {
		t.Fatalf("pos = %v, want Y=%v at (0, _, 0)", pos, wantY)
	}
}

func TestFindRespawnPositionFailsWhenNothingMeshed(t *testing.T) {
	w := &planeWorld{planeY: 15, meshed: map[voxel.Coord]bool{}}
	if _, ok := FindRespawnPosition(w, [3]float32{0, 0, 0}, nil); ok {
		t.Fatal("expected no respawn position when no column is meshed")
	}
}
