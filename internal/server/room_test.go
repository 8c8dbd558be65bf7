package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/build"
	"voxelengine/internal/csg"
	"voxelengine/internal/logx"
	"voxelengine/internal/material"
	"voxelengine/internal/protocol"
	"voxelengine/internal/voxel"
	"voxelengine/internal/world"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	w, err := world.Open(t.TempDir(), 1, time.Unix(0, 0), material.Default())
	if err != nil {
		t.Fatalf("world.Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return NewRoom("test-room", w, material.Default(), logx.New(logx.LevelNone))
}

// loadOrigin synchronously pre-loads chunk (0,0,0), the way the chunk
// streamer would before a client can build against it.
func loadOrigin(t *testing.T, r *Room) {
	t.Helper()
	done := make(chan struct{})
	r.World.Chunks.GetOrCreateAsync(voxel.Coord{}, false, func(c *voxel.Chunk) { close(done) })
	<-done
}

func TestJoinAndLeave(t *testing.T) {
	r := newTestRoom(t)
	p, err := r.Join("p1", func([]byte) {})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if r.PlayerCount() != 1 {
		t.Fatalf("PlayerCount() = %d, want 1", r.PlayerCount())
	}
	if p.NumericID == 0 {
		t.Fatal("expected a non-zero numeric id")
	}
	r.Leave("p1")
	if r.PlayerCount() != 0 {
		t.Fatalf("PlayerCount() = %d after Leave, want 0", r.PlayerCount())
	}
}

func TestJoinRejectsOverCapacity(t *testing.T) {
	r := newTestRoom(t)
	for i := 0; i < MaxPlayersPerRoom; i++ {
		if _, err := r.Join(fmt.Sprintf("p%d", i), func([]byte) {}); err != nil {
			t.Fatalf("Join #%d: %v", i, err)
		}
	}
	if !r.IsFull() {
		t.Fatal("expected room to report full at MaxPlayersPerRoom")
	}
	if _, err := r.Join("one-too-many", func([]byte) {}); err == nil {
		t.Fatal("expected the (MaxPlayersPerRoom+1)th join to fail")
	}
}

func TestBuildSyncForReplaysCommittedIntents(t *testing.T) {
	r := newTestRoom(t)
	loadOrigin(t, r)
	p, err := r.Join("p1", func([]byte) {})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	r.mu.Lock()
	p.Pos = mgl32.Vec3{2, 2, 2}
	r.mu.Unlock()

	wire := protocol.BuildIntent{
		Center: mgl32.Vec3{2, 2, 2}, Rotation: mgl32.QuatIdent(),
		Shape: protocol.ShapeCube, Mode: protocol.ModeAdd,
		Size: mgl32.Vec3{1, 1, 1}, Material: 1,
	}
	body := protocol.EncodeBuildIntent(wire)[1:]
	r.Dispatch(p, protocol.MsgBuildIntent, body, time.Now())

	sync := r.BuildSyncFor(0)
	if len(sync.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(sync.Entries))
	}
	got := sync.Entries[0]
	if got.PlayerID != p.NumericID {
		t.Fatalf("PlayerID = %d, want %d", got.PlayerID, p.NumericID)
	}
	if got.Intent.Shape != protocol.ShapeCube || got.Intent.Mode != protocol.ModeAdd {
		t.Fatalf("unexpected replayed intent: %+v", got.Intent)
	}
}

func TestSnapshotFrameRoundTrips(t *testing.T) {
	r := newTestRoom(t)
	p, err := r.Join("p1", func([]byte) {})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	r.mu.Lock()
	p.Pos = mgl32.Vec3{1, 2, 3}
	p.Grounded = true
	r.mu.Unlock()

	frame := r.snapshotFrame()
	id, body, err := protocol.SplitFrame(frame)
	if err != nil || id != protocol.MsgSnapshot {
		t.Fatalf("SplitFrame: id=%d err=%v", id, err)
	}
	snap, err := protocol.DecodeSnapshot(body)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("len(Players) = %d, want 1", len(snap.Players))
	}
	if snap.Players[0].Flags&protocol.FlagGrounded == 0 {
		t.Fatal("expected FlagGrounded set")
	}
}

// sanity check that build rejection (no chunk loaded) never reaches the
// build log.
func TestHandleBuildIntentRejectedWhenTerrainNotLoaded(t *testing.T) {
	r := newTestRoom(t)
	p, err := r.Join("p1", func([]byte) {})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	intent := build.Intent{
		RoomID: r.ID, PlayerID: p.ID, PlayerPos: mgl32.Vec3{0, 0, 0},
		Operation: csg.Operation{Center: mgl32.Vec3{2, 2, 2}, Rotation: mgl32.QuatIdent(),
			Config: csg.Config{Shape: csg.Cube{Size: mgl32.Vec3{1, 1, 1}}, Mode: csg.ModeAdd, Size: mgl32.Vec3{1, 1, 1}, Material: 1}},
	}
	result, commit := r.World.Build.HandleBuildIntent(intent, time.Now())
	if result != build.ResultTerrainNotReady {
		t.Fatalf("result = %v, want TERRAIN_NOT_READY", result)
	}
	if commit != nil {
		t.Fatal("expected no commit")
	}
	if len(r.BuildSyncFor(0).Entries) != 0 {
		t.Fatal("expected an empty build log")
	}
}
