package build

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/csg"
	"voxelengine/internal/material"
	"voxelengine/internal/provider"
	"voxelengine/internal/ratelimit"
	"voxelengine/internal/stamp"
	"voxelengine/internal/store"
	"voxelengine/internal/terrain"
	"voxelengine/internal/tile"
	"voxelengine/internal/voxel"
)

type testWorld struct {
	chunks *provider.Provider
	tiles  *tile.Provider
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir, 7, time.Now())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tg := terrain.NewGenerator(7)
	pl := stamp.NewPlacer(7, stamp.DefaultLibrary(), tg)
	chunks := provider.New(st, tg, pl)
	tiles := tile.New(st, tg, chunks)
	return &testWorld{chunks: chunks, tiles: tiles}
}

func (w *testWorld) loadChunk(t *testing.T, coord voxel.Coord) *voxel.Chunk {
	t.Helper()
	done := make(chan *voxel.Chunk, 1)
	w.chunks.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) { done <- c })
	return <-done
}

func cubeOp(center mgl32.Vec3, mat uint8) csg.Operation {
	return csg.Operation{
		Center:   center,
		Rotation: mgl32.QuatIdent(),
		Config: csg.Config{
			Shape:    csg.Cube{Size: mgl32.Vec3{1, 1, 1}},
			Mode:     csg.ModeAdd,
			Size:     mgl32.Vec3{1, 1, 1},
			Material: mat,
		},
	}
}

func TestHandleBuildIntentSuccess(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)

	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 1),
	}

	res, commit := h.HandleBuildIntent(intent, time.Now())
	if res != ResultSuccess {
		t.Fatalf("expected SUCCESS, got %s", res)
	}
	if commit == nil || commit.BuildSeq != 1 {
		t.Fatalf("expected a commit with build_seq 1, got %+v", commit)
	}
}

func TestHandleBuildIntentRateLimited(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 1),
	}

	now := time.Now()
	if res, _ := h.HandleBuildIntent(intent, now); res != ResultSuccess {
		t.Fatalf("first build should succeed, got %s", res)
	}
	if res, commit := h.HandleBuildIntent(intent, now.Add(50*time.Millisecond)); res != ResultRateLimited || commit != nil {
		t.Fatalf("second build at +50ms should be rate limited, got %s", res)
	}
	if res, commit := h.HandleBuildIntent(intent, now.Add(150*time.Millisecond)); res != ResultSuccess || commit == nil {
		t.Fatalf("third build at +150ms should succeed, got %s", res)
	}
}

func TestHandleBuildIntentTooFar(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{100, 100, 100},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 1),
	}
	if res, commit := h.HandleBuildIntent(intent, time.Now()); res != ResultTooFar || commit != nil {
		t.Fatalf("expected TOO_FAR, got %s", res)
	}
}

func TestHandleBuildIntentInvalidMaterial(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 250),
	}
	if res, commit := h.HandleBuildIntent(intent, time.Now()); res != ResultInvalidMaterial || commit != nil {
		t.Fatalf("expected INVALID_MATERIAL, got %s", res)
	}
}

func TestHandleBuildIntentInvalidConfig(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	op := cubeOp(mgl32.Vec3{4, 4, 4}, 1)
	op.Config.Size = mgl32.Vec3{0, 1, 1}
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: op,
	}
	if res, commit := h.HandleBuildIntent(intent, time.Now()); res != ResultInvalidConfig || commit != nil {
		t.Fatalf("expected INVALID_CONFIG, got %s", res)
	}
}

func TestHandleBuildIntentTerrainNotReady(t *testing.T) {
	w := newTestWorld(t)
	// Deliberately never load the chunk at origin.
	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 1),
	}
	if res, commit := h.HandleBuildIntent(intent, time.Now()); res != ResultTerrainNotReady || commit != nil {
		t.Fatalf("expected TERRAIN_NOT_READY, got %s", res)
	}
}

func TestHandleBuildIntentInvalidatesTouchedTile(t *testing.T) {
	w := newTestWorld(t)
	w.loadChunk(t, voxel.Coord{X: 0, Y: 0, Z: 0})

	first := w.tiles.GetOrGenerateTile(tile.Coord{X: 0, Z: 0})

	h := New(ratelimit.New(DefaultRateLimitInterval), material.Default(), w.chunks, w.tiles)
	intent := Intent{
		RoomID:    "room1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{4, 4, 4},
		Operation: cubeOp(mgl32.Vec3{4, 4, 4}, 2),
	}
	if res, _ := h.HandleBuildIntent(intent, time.Now()); res != ResultSuccess {
		t.Fatalf("expected SUCCESS, got %s", res)
	}

	second := w.tiles.GetOrGenerateTile(tile.Coord{X: 0, Z: 0})
	if first == second {
		t.Fatalf("expected the tile to be invalidated and regenerated after a build touching it")
	}
}
