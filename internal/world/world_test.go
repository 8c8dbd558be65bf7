package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/build"
	"voxelengine/internal/csg"
	"voxelengine/internal/material"
	"voxelengine/internal/voxel"
)

func TestOpenWiresProvidersAndBuildHandler(t *testing.T) {
	w, err := Open(t.TempDir(), 1234, time.Unix(0, 0), material.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if w.Store.Meta().Seed != 1234 {
		t.Fatalf("seed = %d, want 1234", w.Store.Meta().Seed)
	}

	done := make(chan *voxel.Chunk, 1)
	w.Chunks.GetOrCreateAsync(voxel.Coord{X: 0, Y: 0, Z: 0}, false, func(c *voxel.Chunk) {
		done <- c
	})
	if c := <-done; c == nil {
		t.Fatal("expected chunk (0,0,0) to generate")
	}

	intent := build.Intent{
		RoomID:    "room-1",
		PlayerID:  "p1",
		PlayerPos: mgl32.Vec3{0, 0, 0},
		Operation: csg.Operation{
			Center:   mgl32.Vec3{4, 4, 4},
			Rotation: mgl32.QuatIdent(),
			Config:   csg.Config{Shape: csg.Cube{Size: mgl32.Vec3{2, 2, 2}}, Mode: csg.ModeAdd, Size: mgl32.Vec3{2, 2, 2}, Material: 1},
		},
	}
	result, commit := w.Build.HandleBuildIntent(intent, time.Now())
	if result != build.ResultSuccess {
		t.Fatalf("build result = %v, want SUCCESS", result)
	}
	if commit == nil || commit.BuildSeq != 1 {
		t.Fatalf("commit = %+v, want BuildSeq 1", commit)
	}
}
