package server

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxelengine/internal/logx"
	"voxelengine/internal/material"
	"voxelengine/internal/world"
)

// joinTokenTTL bounds how long a token issued by /api/join stays
// redeemable by the WebSocket handshake before it expires unused.
const joinTokenTTL = 30 * time.Second

// pendingJoin is a one-time, TTL-bounded join token awaiting redemption
// by the WebSocket upgrade.
type pendingJoin struct {
	roomID   string
	playerID string
	expires  time.Time
}

// RoomSummary is the /api/rooms listing shape.
type RoomSummary struct {
	ID          string
	PlayerCount int
}

// Registry owns every open room in the process and the join tokens
// handed out between the HTTP join handshake and the WebSocket upgrade.
type Registry struct {
	dataDir   string
	materials *material.Registry
	log       *logx.Logger

	mu     sync.Mutex
	rooms  []*Room
	tokens map[string]pendingJoin
}

// NewRegistry builds an empty registry rooted at dataDir; each room gets
// its own subdirectory named by its id.
func NewRegistry(dataDir string, materials *material.Registry, log *logx.Logger) *Registry {
	return &Registry{
		dataDir:   dataDir,
		materials: materials,
		log:       log,
		tokens:    make(map[string]pendingJoin),
	}
}

// Shutdown stops every room's loops and closes its store, flushing any
// pending writes. Rooms are closed concurrently; Shutdown waits for all
// of them before returning.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	rooms := append([]*Room(nil), reg.rooms...)
	reg.mu.Unlock()

	done := make(chan struct{}, len(rooms))
	for _, r := range rooms {
		go func(r *Room) {
			if err := r.Close(); err != nil {
				reg.log.Errorf("room %s: close: %v", r.ID, err)
			}
			done <- struct{}{}
		}(r)
	}
	for range rooms {
		<-done
	}
}

// ListRooms reports every open room's id and occupancy.
func (reg *Registry) ListRooms() []RoomSummary {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]RoomSummary, len(reg.rooms))
	for i, r := range reg.rooms {
		out[i] = RoomSummary{ID: r.ID, PlayerCount: r.PlayerCount()}
	}
	return out
}

// Join assigns the caller to the first room with free capacity, opening
// a new one if every existing room is full (or none exist yet), and
// issues a one-time token the WebSocket handshake must redeem within
// joinTokenTTL.
func (reg *Registry) Join() (roomID, playerID, token string, err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var room *Room
	for _, r := range reg.rooms {
		if !r.IsFull() {
			room = r
			break
		}
	}
	if room == nil {
		room, err = reg.openRoomLocked()
		if err != nil {
			return "", "", "", err
		}
	}

	playerID = uuid.NewString()
	token = uuid.NewString()
	reg.tokens[token] = pendingJoin{roomID: room.ID, playerID: playerID, expires: time.Now().Add(joinTokenTTL)}
	return room.ID, playerID, token, nil
}

// Redeem consumes a join token, returning the room and player id it was
// issued for. Tokens are single-use and expire after joinTokenTTL.
func (reg *Registry) Redeem(token string) (*Room, string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	pj, ok := reg.tokens[token]
	if !ok {
		return nil, "", false
	}
	delete(reg.tokens, token)
	if time.Now().After(pj.expires) {
		return nil, "", false
	}
	for _, r := range reg.rooms {
		if r.ID == pj.roomID {
			return r, pj.playerID, true
		}
	}
	return nil, "", false
}

// openRoomLocked opens a fresh room backed by its own data directory and
// starts its tick/snapshot loops. Callers must hold reg.mu.
func (reg *Registry) openRoomLocked() (*Room, error) {
	id := uuid.NewString()
	dir := filepath.Join(reg.dataDir, id)
	w, err := world.Open(dir, time.Now().UnixNano(), time.Now(), reg.materials)
	if err != nil {
		return nil, fmt.Errorf("server: open room %s: %w", id, err)
	}
	room := NewRoom(id, w, reg.materials, reg.log)
	reg.rooms = append(reg.rooms, room)

	go room.RunTickLoop()
	go room.RunSnapshotLoop()
	go room.World.RunPeriodicFlush(10*time.Second, room.stop, func(err error) {
		reg.log.Errorf("room %s: flush error: %v", id, err)
	})

	reg.log.Infof("opened room %s", id)
	return room, nil
}
