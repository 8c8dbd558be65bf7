// Package server implements the server room: the per-room player table,
// authoritative (client-relayed) positions, bounded build log, tick and
// snapshot broadcast loops, message dispatch, and the HTTP/WebSocket
// surface described in spec §6. Grounded on
// felipemarts-krakovia/pkg/signaling's register/broadcast connection
// model and pkg/api's HTTP handler shape.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/logx"
	"voxelengine/internal/material"
	"voxelengine/internal/profiling"
	"voxelengine/internal/protocol"
	"voxelengine/internal/world"
)

const (
	// TickHz is the rate of the tick loop, which (position being
	// client-authoritative) only advances the tick counter.
	TickHz = 30
	// SnapshotHz is the rate SNAPSHOT frames are broadcast at.
	SnapshotHz = 12
	// MaxPlayersPerRoom bounds room occupancy; §8 scenario 6 exercises
	// the rollover to a second room at the 65th join.
	MaxPlayersPerRoom = 64
)

// PlayerState is one connected player's relayed position/input state and
// the hook used to push frames to their connection.
type PlayerState struct {
	ID        string
	NumericID uint16

	Pos        mgl32.Vec3
	Yaw, Pitch float32
	Buttons    uint8
	Grounded   bool
	Sprinting  bool
	Building   bool
	LastSeq    uint16

	send func([]byte)
}

// Room is one authoritative game room.
type Room struct {
	ID        string
	World     *world.World
	Materials *material.Registry
	Log       *logx.Logger

	mu            sync.Mutex
	players       map[string]*PlayerState
	nextNumericID uint16
	tick          uint32

	buildLog *BuildLog
	stop     chan struct{}
}

// NewRoom builds a room bound to an already-open World.
func NewRoom(id string, w *world.World, materials *material.Registry, log *logx.Logger) *Room {
	return &Room{
		ID:        id,
		World:     w,
		Materials: materials,
		Log:       log,
		players:   make(map[string]*PlayerState),
		buildLog:  NewBuildLog(),
		stop:      make(chan struct{}),
	}
}

// PlayerCount returns the number of currently connected players.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// IsFull reports whether the room has reached MaxPlayersPerRoom.
func (r *Room) IsFull() bool {
	return r.PlayerCount() >= MaxPlayersPerRoom
}

// Join registers a new connected player. send is called (from the
// broadcast/dispatch goroutines) to push a frame to this player's
// connection; the caller owns wiring that up to an actual socket.
func (r *Room) Join(playerID string, send func([]byte)) (*PlayerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) >= MaxPlayersPerRoom {
		return nil, fmt.Errorf("server: room %s is full", r.ID)
	}
	r.nextNumericID++
	p := &PlayerState{ID: playerID, NumericID: r.nextNumericID, send: send}
	r.players[playerID] = p
	return p, nil
}

// Leave removes a player and clears its rate-limiter state.
func (r *Room) Leave(playerID string) {
	r.mu.Lock()
	delete(r.players, playerID)
	r.mu.Unlock()
	r.World.Limiter.RemoveByPrefix(r.ID + ":" + playerID)
}

// BuildSyncFor answers a reconnecting client's backfill request.
func (r *Room) BuildSyncFor(sinceSeq uint32) protocol.BuildSync {
	entries := r.buildLog.Since(sinceSeq)
	out := protocol.BuildSync{StartSeq: sinceSeq, Entries: make([]protocol.IntentWithPlayer, 0, len(entries))}
	r.mu.Lock()
	numericByID := make(map[string]uint16, len(r.players))
	for id, p := range r.players {
		numericByID[id] = p.NumericID
	}
	r.mu.Unlock()
	for _, e := range entries {
		out.Entries = append(out.Entries, protocol.IntentWithPlayer{
			PlayerID: numericByID[e.PlayerID],
			Intent:   wireIntent(e.Intent),
		})
	}
	return out
}

// Broadcast pushes frame to every connected player.
func (r *Room) Broadcast(frame []byte) {
	r.mu.Lock()
	players := make([]*PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	r.mu.Unlock()
	for _, p := range players {
		p.send(frame)
	}
}

// tickBudget is the wall-clock allowance for one tick at TickHz; a tick
// that runs over it logs its heaviest contributors so slow subsystems
// show up without attaching a profiler.
const tickBudget = time.Second / TickHz

// RunTickLoop advances the tick counter at TickHz until Stop is called.
func (r *Room) RunTickLoop() {
	ticker := time.NewTicker(tickBudget)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			profiling.ResetTick()
			func() {
				defer profiling.Track("server.tick")()
				r.mu.Lock()
				r.tick++
				r.mu.Unlock()
			}()
			if total := profiling.Total(); total > tickBudget {
				r.Log.Warnf("room %s: tick %d ran %s over budget %s (%s)", r.ID, r.tick, total-tickBudget, tickBudget, profiling.TopN(3))
			}
		case <-r.stop:
			return
		}
	}
}

// RunSnapshotLoop broadcasts a SNAPSHOT frame at SnapshotHz until Stop is
// called.
func (r *Room) RunSnapshotLoop() {
	ticker := time.NewTicker(time.Second / SnapshotHz)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Broadcast(r.snapshotFrame())
		case <-r.stop:
			return
		}
	}
}

func (r *Room) snapshotFrame() []byte {
	defer profiling.Track("server.snapshotFrame")()
	r.mu.Lock()
	snap := protocol.Snapshot{Tick: r.tick}
	for _, p := range r.players {
		var flags uint8
		if p.Grounded {
			flags |= protocol.FlagGrounded
		}
		if p.Sprinting {
			flags |= protocol.FlagSprinting
		}
		if p.Building {
			flags |= protocol.FlagBuilding
		}
		snap.Players = append(snap.Players, protocol.PlayerSnapshot{
			ID:      p.NumericID,
			XQ:      protocol.QuantizePos(p.Pos.X()),
			YQ:      protocol.QuantizePos(p.Pos.Y()),
			ZQ:      protocol.QuantizePos(p.Pos.Z()),
			YawQ:    protocol.QuantizeAngle(p.Yaw),
			PitchQ:  protocol.QuantizeAngle(p.Pitch),
			Buttons: p.Buttons,
			Flags:   flags,
		})
	}
	r.mu.Unlock()
	return protocol.EncodeSnapshot(snap)
}

// Stop ends the tick/snapshot loops.
func (r *Room) Stop() {
	close(r.stop)
}

// Close stops the loops and closes the room's World.
func (r *Room) Close() error {
	r.Stop()
	return r.World.Close()
}
