package server

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelengine/internal/build"
	"voxelengine/internal/csg"
	"voxelengine/internal/profiling"
	"voxelengine/internal/protocol"
	"voxelengine/internal/tile"
	"voxelengine/internal/voxel"
)

// csgOperationFor adapts a decoded wire BuildIntent to the internal CSG
// operation the build handler expects.
func csgOperationFor(wire protocol.BuildIntent) csg.Operation {
	return csg.Operation{
		Center:   wire.Center,
		Rotation: wire.Rotation,
		Config: csg.Config{
			Shape:     protocol.ShapeFor(wire.Shape, wire.Size),
			Mode:      protocol.ModeFor(wire.Mode),
			Size:      wire.Size,
			Material:  wire.Material,
			Thickness: wire.Thickness,
			Closed:    wire.Closed,
			ArcSweep:  wire.ArcSweep,
		},
	}
}

// wireIntent replays a committed build.Intent back onto the wire, the
// inverse of dispatch's build-intent decode — used for BUILD_COMMIT and
// BUILD_SYNC.
func wireIntent(in build.Intent) protocol.BuildIntent {
	op := in.Operation
	cfg := op.Config
	return protocol.BuildIntent{
		Center:    op.Center,
		Rotation:  op.Rotation,
		Shape:     protocol.ShapeID(cfg.Shape),
		Mode:      protocol.ModeID(cfg.Mode),
		Size:      cfg.Size,
		Material:  cfg.Material,
		Thickness: cfg.Thickness,
		Closed:    cfg.Closed,
		ArcSweep:  cfg.ArcSweep,
	}
}

// Dispatch routes one decoded client frame to its handler. now is passed
// explicitly so build rate-limiting stays on the caller's clock.
func (r *Room) Dispatch(p *PlayerState, id uint8, body []byte, now time.Time) {
	switch id {
	case protocol.MsgInput:
		r.handleInput(p, body)
	case protocol.MsgPing:
		r.handlePing(p, body)
	case protocol.MsgBuildIntent:
		r.handleBuildIntent(p, body, now)
	case protocol.MsgChunkRequest:
		r.handleChunkRequest(p, body)
	case protocol.MsgMapTileRequest:
		r.handleMapTileRequest(p, body)
	case protocol.MsgSurfaceColumnRequest:
		r.handleSurfaceColumnRequest(p, body)
	default:
		r.Log.Warnf("room %s: player %s sent unknown message id %d", r.ID, p.ID, id)
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrUnknownMessage}))
	}
}

func (r *Room) handleInput(p *PlayerState, body []byte) {
	in, err := protocol.DecodeInput(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}
	r.mu.Lock()
	p.Pos = mgl32.Vec3{in.X, in.Y, in.Z}
	p.Yaw = protocol.DequantizeAngle(in.YawQ)
	p.Pitch = protocol.DequantizeAngle(in.PitchQ)
	p.Buttons = in.Buttons
	p.Grounded = in.Buttons&buttonGrounded != 0
	p.Sprinting = in.Buttons&buttonSprint != 0
	p.Building = in.Buttons&buttonBuild != 0
	p.LastSeq = in.Seq
	r.mu.Unlock()
}

// Input button bits; the high bits (5-7) a client sets on its per-tick input
// sample to report movement state alongside position.
const (
	buttonGrounded uint8 = 1 << 5
	buttonSprint   uint8 = 1 << 6
	buttonBuild    uint8 = 1 << 7
)

func (r *Room) handlePing(p *PlayerState, body []byte) {
	ping, err := protocol.DecodePing(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}
	p.send(protocol.EncodePong(protocol.Pong{Timestamp: ping.Timestamp}))
}

func (r *Room) handleBuildIntent(p *PlayerState, body []byte, now time.Time) {
	defer profiling.Track("server.handleBuildIntent")()

	wire, err := protocol.DecodeBuildIntent(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}

	r.mu.Lock()
	playerPos := p.Pos
	r.mu.Unlock()

	intent := build.Intent{
		RoomID:    r.ID,
		PlayerID:  p.ID,
		PlayerPos: playerPos,
		Operation: csgOperationFor(wire),
	}

	result, commit := r.World.Build.HandleBuildIntent(intent, now)
	if result != build.ResultSuccess {
		r.Log.Debugf("room %s: build from %s rejected: %s", r.ID, p.ID, result)
		return
	}

	r.buildLog.Append(*commit)
	r.Broadcast(protocol.EncodeBuildCommit(protocol.BuildCommit{
		BuildSeq: commit.BuildSeq,
		PlayerID: p.NumericID,
		Intent:   wireIntent(commit.Intent),
	}))
}

func (r *Room) handleChunkRequest(p *PlayerState, body []byte) {
	req, err := protocol.DecodeChunkRequest(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}
	coord := voxel.Coord{X: int(req.CX), Y: int(req.CY), Z: int(req.CZ)}
	r.World.Chunks.GetOrCreateAsync(coord, false, func(c *voxel.Chunk) {
		data := protocol.ChunkData{CX: req.CX, CY: req.CY, CZ: req.CZ, LastBuildSeq: c.LastBuildSeq()}
		raw := c.RawVoxels()
		for i, v := range raw {
			data.Voxels[i] = v
		}
		p.send(protocol.EncodeChunkData(data))
	})
}

func (r *Room) handleMapTileRequest(p *PlayerState, body []byte) {
	req, err := protocol.DecodeMapTileRequest(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}
	t := r.World.Tiles.GetOrGenerateTile(tile.Coord{X: int(req.TX), Z: int(req.TZ)})
	p.send(protocol.EncodeMapTileData(protocol.MapTileData{
		TX:        req.TX,
		TZ:        req.TZ,
		Heights:   t.Heights,
		Materials: t.Materials,
	}))
}

func (r *Room) handleSurfaceColumnRequest(p *PlayerState, body []byte) {
	req, err := protocol.DecodeSurfaceColumnRequest(body)
	if err != nil {
		p.send(protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrMalformed}))
		return
	}
	tc := tile.Coord{X: int(req.TX), Z: int(req.TZ)}
	r.World.Tiles.LoadSurfaceColumn(tc, func(sc tile.SurfaceColumn) {
		out := protocol.SurfaceColumnData{
			Tile: protocol.MapTileData{
				TX:        req.TX,
				TZ:        req.TZ,
				Heights:   sc.Tile.Heights,
				Materials: sc.Tile.Materials,
			},
		}
		for _, c := range sc.Chunks {
			cd := protocol.ChunkData{CX: int32(c.Coord.X), CY: int32(c.Coord.Y), CZ: int32(c.Coord.Z), LastBuildSeq: c.LastBuildSeq()}
			raw := c.RawVoxels()
			for i, v := range raw {
				cd.Voxels[i] = v
			}
			out.Chunks = append(out.Chunks, cd)
		}
		p.send(protocol.EncodeSurfaceColumnData(out))
	})
}
