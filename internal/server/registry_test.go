package server

import (
	"testing"

	"voxelengine/internal/logx"
	"voxelengine/internal/material"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(t.TempDir(), material.Default(), logx.New(logx.LevelNone))
	t.Cleanup(reg.Shutdown)
	return reg
}

func TestJoinOpensARoomOnFirstCall(t *testing.T) {
	reg := newTestRegistry(t)
	roomID, playerID, token, err := reg.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if roomID == "" || playerID == "" || token == "" {
		t.Fatalf("expected non-empty ids, got room=%q player=%q token=%q", roomID, playerID, token)
	}
	rooms := reg.ListRooms()
	if len(rooms) != 1 {
		t.Fatalf("len(ListRooms()) = %d, want 1", len(rooms))
	}
}

func TestJoinRedeemMatchesIssuedRoomAndPlayer(t *testing.T) {
	reg := newTestRegistry(t)
	roomID, playerID, token, err := reg.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	room, redeemedPlayer, ok := reg.Redeem(token)
	if !ok {
		t.Fatal("expected Redeem to succeed")
	}
	if room.ID != roomID {
		t.Fatalf("room.ID = %q, want %q", room.ID, roomID)
	}
	if redeemedPlayer != playerID {
		t.Fatalf("redeemedPlayer = %q, want %q", redeemedPlayer, playerID)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	reg := newTestRegistry(t)
	_, _, token, err := reg.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, _, ok := reg.Redeem(token); !ok {
		t.Fatal("expected first Redeem to succeed")
	}
	if _, _, ok := reg.Redeem(token); ok {
		t.Fatal("expected second Redeem of the same token to fail")
	}
}

// TestRoomRolloverAt65thJoin exercises the 65th join opening a second
// room, leaving the first reporting exactly MaxPlayersPerRoom occupants.
func TestRoomRolloverAt65thJoin(t *testing.T) {
	reg := newTestRegistry(t)

	var firstRoomID string
	for i := 0; i < MaxPlayersPerRoom; i++ {
		roomID, playerID, _, err := reg.Join()
		if err != nil {
			t.Fatalf("Join #%d: %v", i, err)
		}
		if firstRoomID == "" {
			firstRoomID = roomID
		}
		reg.mu.Lock()
		var room *Room
		for _, r := range reg.rooms {
			if r.ID == roomID {
				room = r
				break
			}
		}
		reg.mu.Unlock()
		if room == nil {
			t.Fatalf("room %s not found in registry", roomID)
		}
		if _, err := room.Join(playerID, func([]byte) {}); err != nil {
			t.Fatalf("room.Join for player assigned by registry: %v", err)
		}
	}

	roomID, _, _, err := reg.Join()
	if err != nil {
		t.Fatalf("65th Join: %v", err)
	}
	if roomID == firstRoomID {
		t.Fatal("expected the 65th join to open a second room")
	}

	rooms := reg.ListRooms()
	var first RoomSummary
	for _, r := range rooms {
		if r.ID == firstRoomID {
			first = r
		}
	}
	if first.PlayerCount != MaxPlayersPerRoom {
		t.Fatalf("first room PlayerCount = %d, want %d", first.PlayerCount, MaxPlayersPerRoom)
	}
}
