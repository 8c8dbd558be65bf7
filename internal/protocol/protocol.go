// Package protocol implements the binary wire codec shared by client and
// server: one byte-exact framing for every message named in the spec,
// little-endian throughout, with i16-quantized angles and centimeters for
// snapshot positions.
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"voxelengine/internal/csg"
	"voxelengine/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Message ids. Opaque; client and server must agree on this table.
const (
	MsgJoin                  uint8 = 1
	MsgInput                 uint8 = 2
	MsgPing                  uint8 = 3
	MsgBuildIntent           uint8 = 4
	MsgChunkRequest          uint8 = 5
	MsgMapTileRequest        uint8 = 6
	MsgSurfaceColumnRequest  uint8 = 7
	MsgWelcome               uint8 = 64
	MsgRoomInfo              uint8 = 65
	MsgSnapshot              uint8 = 66
	MsgBuildCommit           uint8 = 67
	MsgBuildSync             uint8 = 68
	MsgMapTileData           uint8 = 69
	MsgChunkData             uint8 = 70
	MsgSurfaceColumnData     uint8 = 71
	MsgPong                  uint8 = 72
	MsgError                 uint8 = 73
)

const (
	ProtocolVersion = 1

	angleScale = float32(32767.0 / math.Pi)
	posScale   = float32(100.0) // meters -> centimeters
)

// QuantizeAngle maps radians in [-pi, pi] to an i16.
func QuantizeAngle(rad float32) int16 {
	if rad > math.Pi {
		rad = math.Pi
	}
	if rad < -math.Pi {
		rad = -math.Pi
	}
	return int16(rad * angleScale)
}

// DequantizeAngle is the inverse of QuantizeAngle.
func DequantizeAngle(q int16) float32 {
	return float32(q) / angleScale
}

// QuantizePos maps a world-space meter coordinate to i16 centimeters.
func QuantizePos(m float32) int16 {
	v := m * posScale
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(v)
}

// DequantizePos is the inverse of QuantizePos.
func DequantizePos(q int16) float32 {
	return float32(q) / posScale
}

// ErrTruncated is returned by every Decode* function when the supplied
// buffer is shorter than the message requires.
var ErrTruncated = fmt.Errorf("protocol: truncated frame")

// writer accumulates a message body with the wire's little-endian layout.
type writer struct{ buf []byte }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) i16(v int16)  { w.u16(uint16(v)) }
func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}
func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

// reader consumes a message body in the same order it was written,
// reporting ErrTruncated rather than panicking on a short buffer.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return ErrTruncated
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) take(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// --- C -> S ---

// Join is the first client frame.
type Join struct {
	ProtoVersion uint8
	PlayerID     uint16
}

func EncodeJoin(m Join) []byte {
	w := &writer{buf: []byte{MsgJoin}}
	w.u8(m.ProtoVersion)
	w.u16(m.PlayerID)
	return w.buf
}

func DecodeJoin(body []byte) (Join, error) {
	r := &reader{buf: body}
	var m Join
	var err error
	if m.ProtoVersion, err = r.u8(); err != nil {
		return m, err
	}
	m.PlayerID, err = r.u16()
	return m, err
}

// Input is a per-tick client input sample.
type Input struct {
	Buttons uint8
	YawQ    int16
	PitchQ  int16
	Seq     uint16
	X, Y, Z float32
}

func EncodeInput(m Input) []byte {
	w := &writer{buf: []byte{MsgInput}}
	w.u8(m.Buttons)
	w.i16(m.YawQ)
	w.i16(m.PitchQ)
	w.u16(m.Seq)
	w.f32(m.X)
	w.f32(m.Y)
	w.f32(m.Z)
	return w.buf
}

func DecodeInput(body []byte) (Input, error) {
	r := &reader{buf: body}
	var m Input
	var err error
	if m.Buttons, err = r.u8(); err != nil {
		return m, err
	}
	if m.YawQ, err = r.i16(); err != nil {
		return m, err
	}
	if m.PitchQ, err = r.i16(); err != nil {
		return m, err
	}
	if m.Seq, err = r.u16(); err != nil {
		return m, err
	}
	if m.X, err = r.f32(); err != nil {
		return m, err
	}
	if m.Y, err = r.f32(); err != nil {
		return m, err
	}
	m.Z, err = r.f32()
	return m, err
}

// Ping carries a client timestamp the server echoes back in Pong.
type Ping struct{ Timestamp uint32 }

func EncodePing(m Ping) []byte {
	w := &writer{buf: []byte{MsgPing}}
	w.u32(m.Timestamp)
	return w.buf
}

func DecodePing(body []byte) (Ping, error) {
	r := &reader{buf: body}
	ts, err := r.u32()
	return Ping{Timestamp: ts}, err
}

// shape/mode ids for BuildIntent's config encoding.
const (
	ShapeCube     uint8 = 0
	ShapeSphere   uint8 = 1
	ShapeCylinder uint8 = 2
	ShapePrism    uint8 = 3

	ModeAdd      uint8 = 0
	ModeSubtract uint8 = 1
	ModePaint    uint8 = 2
	ModeFill     uint8 = 3
)

// BuildIntent is the wire form of a build op: center, rotation, and
// config (shape/mode/size/material/thickness/closed/arc_sweep).
type BuildIntent struct {
	Center       mgl32.Vec3
	Rotation     mgl32.Quat
	Shape        uint8
	Mode         uint8
	Size         mgl32.Vec3
	Material     uint8
	Thickness    float32
	Closed       bool
	ArcSweep     float32
}

func EncodeBuildIntent(m BuildIntent) []byte {
	w := &writer{buf: []byte{MsgBuildIntent}}
	w.f32(m.Center.X())
	w.f32(m.Center.Y())
	w.f32(m.Center.Z())
	w.f32(m.Rotation.W)
	w.f32(m.Rotation.V.X())
	w.f32(m.Rotation.V.Y())
	w.f32(m.Rotation.V.Z())
	w.u8(m.Shape)
	w.u8(m.Mode)
	w.f32(m.Size.X())
	w.f32(m.Size.Y())
	w.f32(m.Size.Z())
	w.u8(m.Material)
	w.f32(m.Thickness)
	closed := uint8(0)
	if m.Closed {
		closed = 1
	}
	w.u8(closed)
	w.f32(m.ArcSweep)
	return w.buf
}

// buildIntentBodySize is the fixed wire length of an encoded BuildIntent,
// id byte excluded: 3 center + 4 quat floats (28), shape+mode bytes (2),
// 3 size floats (12), material byte (1), thickness float (4), closed
// byte (1), arc_sweep float (4).
const buildIntentBodySize = 3*4 + 4*4 + 2 + 3*4 + 1 + 4 + 1 + 4

func DecodeBuildIntent(body []byte) (BuildIntent, error) {
	r := &reader{buf: body}
	var m BuildIntent
	var err error
	var cx, cy, cz, qw, qx, qy, qz float32
	for _, dst := range []*float32{&cx, &cy, &cz, &qw, &qx, &qy, &qz} {
		if *dst, err = r.f32(); err != nil {
			return m, err
		}
	}
	m.Center = mgl32.Vec3{cx, cy, cz}
	m.Rotation = mgl32.Quat{W: qw, V: mgl32.Vec3{qx, qy, qz}}
	if m.Shape, err = r.u8(); err != nil {
		return m, err
	}
	if m.Mode, err = r.u8(); err != nil {
		return m, err
	}
	var sx, sy, sz float32
	for _, dst := range []*float32{&sx, &sy, &sz} {
		if *dst, err = r.f32(); err != nil {
			return m, err
		}
	}
	m.Size = mgl32.Vec3{sx, sy, sz}
	if m.Material, err = r.u8(); err != nil {
		return m, err
	}
	if m.Thickness, err = r.f32(); err != nil {
		return m, err
	}
	closed, err := r.u8()
	if err != nil {
		return m, err
	}
	m.Closed = closed != 0
	m.ArcSweep, err = r.f32()
	return m, err
}

// ShapeFor/ModeFor adapt the wire enums to internal/csg's types.
func ShapeFor(id uint8, size mgl32.Vec3) csg.Shape {
	switch id {
	case ShapeSphere:
		return csg.Sphere{Size: size}
	case ShapeCylinder:
		return csg.Cylinder{Size: size}
	case ShapePrism:
		return csg.Prism{Size: size}
	default:
		return csg.Cube{Size: size}
	}
}

// ShapeID/ModeID are the inverse of ShapeFor/ModeFor, used when replaying
// a committed build's csg.Operation back onto the wire (e.g. for BUILD_SYNC).
func ShapeID(s csg.Shape) uint8 {
	switch s.(type) {
	case csg.Sphere:
		return ShapeSphere
	case csg.Cylinder:
		return ShapeCylinder
	case csg.Prism:
		return ShapePrism
	default:
		return ShapeCube
	}
}

func ModeID(m csg.Mode) uint8 {
	switch m {
	case csg.ModeSubtract:
		return ModeSubtract
	case csg.ModePaint:
		return ModePaint
	case csg.ModeFill:
		return ModeFill
	default:
		return ModeAdd
	}
}

func ModeFor(id uint8) csg.Mode {
	switch id {
	case ModeSubtract:
		return csg.ModeSubtract
	case ModePaint:
		return csg.ModePaint
	case ModeFill:
		return csg.ModeFill
	default:
		return csg.ModeAdd
	}
}

// ChunkRequest/MapTileRequest/SurfaceColumnRequest ask for one piece of
// world data by coordinate.

type ChunkRequest struct{ CX, CY, CZ int32 }

func EncodeChunkRequest(m ChunkRequest) []byte {
	w := &writer{buf: []byte{MsgChunkRequest}}
	w.i32(m.CX)
	w.i32(m.CY)
	w.i32(m.CZ)
	return w.buf
}

func DecodeChunkRequest(body []byte) (ChunkRequest, error) {
	r := &reader{buf: body}
	var m ChunkRequest
	var err error
	if m.CX, err = r.i32(); err != nil {
		return m, err
	}
	if m.CY, err = r.i32(); err != nil {
		return m, err
	}
	m.CZ, err = r.i32()
	return m, err
}

type TileRequest struct{ TX, TZ int32 }

func encodeTileRequest(id uint8, m TileRequest) []byte {
	w := &writer{buf: []byte{id}}
	w.i32(m.TX)
	w.i32(m.TZ)
	return w.buf
}

func decodeTileRequest(body []byte) (TileRequest, error) {
	r := &reader{buf: body}
	var m TileRequest
	var err error
	if m.TX, err = r.i32(); err != nil {
		return m, err
	}
	m.TZ, err = r.i32()
	return m, err
}

func EncodeMapTileRequest(m TileRequest) []byte { return encodeTileRequest(MsgMapTileRequest, m) }
func DecodeMapTileRequest(body []byte) (TileRequest, error) { return decodeTileRequest(body) }

func EncodeSurfaceColumnRequest(m TileRequest) []byte {
	return encodeTileRequest(MsgSurfaceColumnRequest, m)
}
func DecodeSurfaceColumnRequest(body []byte) (TileRequest, error) { return decodeTileRequest(body) }

// --- S -> C ---

type Welcome struct {
	PlayerID uint16
	RoomID   string
}

func EncodeWelcome(m Welcome) []byte {
	w := &writer{buf: []byte{MsgWelcome}}
	w.u16(m.PlayerID)
	w.u16(uint16(len(m.RoomID)))
	w.bytes([]byte(m.RoomID))
	return w.buf
}

func DecodeWelcome(body []byte) (Welcome, error) {
	r := &reader{buf: body}
	var m Welcome
	var err error
	if m.PlayerID, err = r.u16(); err != nil {
		return m, err
	}
	n, err := r.u16()
	if err != nil {
		return m, err
	}
	raw, err := r.take(int(n))
	if err != nil {
		return m, err
	}
	m.RoomID = string(raw)
	return m, nil
}

type RoomInfo struct{ PlayerCount uint8 }

func EncodeRoomInfo(m RoomInfo) []byte {
	return []byte{MsgRoomInfo, m.PlayerCount}
}

func DecodeRoomInfo(body []byte) (RoomInfo, error) {
	r := &reader{buf: body}
	v, err := r.u8()
	return RoomInfo{PlayerCount: v}, err
}

// PlayerSnapshot flags.
const (
	FlagGrounded  uint8 = 1 << 0
	FlagSprinting uint8 = 1 << 1
	FlagBuilding  uint8 = 1 << 2
)

// PlayerSnapshot is one player's 14-byte slice of a SNAPSHOT frame.
type PlayerSnapshot struct {
	ID                 uint16
	XQ, YQ, ZQ         int16
	YawQ, PitchQ       int16
	Buttons            uint8
	Flags              uint8
}

const playerSnapshotSize = 14

func (p PlayerSnapshot) encode(w *writer) {
	w.u16(p.ID)
	w.i16(p.XQ)
	w.i16(p.YQ)
	w.i16(p.ZQ)
	w.i16(p.YawQ)
	w.i16(p.PitchQ)
	w.u8(p.Buttons)
	w.u8(p.Flags)
}

func decodePlayerSnapshot(r *reader) (PlayerSnapshot, error) {
	var p PlayerSnapshot
	var err error
	if p.ID, err = r.u16(); err != nil {
		return p, err
	}
	if p.XQ, err = r.i16(); err != nil {
		return p, err
	}
	if p.YQ, err = r.i16(); err != nil {
		return p, err
	}
	if p.ZQ, err = r.i16(); err != nil {
		return p, err
	}
	if p.YawQ, err = r.i16(); err != nil {
		return p, err
	}
	if p.PitchQ, err = r.i16(); err != nil {
		return p, err
	}
	if p.Buttons, err = r.u8(); err != nil {
		return p, err
	}
	p.Flags, err = r.u8()
	return p, err
}

type Snapshot struct {
	Tick    uint32
	Players []PlayerSnapshot
}

func EncodeSnapshot(m Snapshot) []byte {
	w := &writer{buf: []byte{MsgSnapshot}}
	w.u32(m.Tick)
	w.u8(uint8(len(m.Players)))
	for _, p := range m.Players {
		p.encode(w)
	}
	return w.buf
}

func DecodeSnapshot(body []byte) (Snapshot, error) {
	r := &reader{buf: body}
	var m Snapshot
	var err error
	if m.Tick, err = r.u32(); err != nil {
		return m, err
	}
	n, err := r.u8()
	if err != nil {
		return m, err
	}
	m.Players = make([]PlayerSnapshot, n)
	for i := range m.Players {
		if m.Players[i], err = decodePlayerSnapshot(r); err != nil {
			return m, err
		}
	}
	return m, nil
}

// IntentWithPlayer bundles a build intent's wire payload with the
// committing player's id, the shared shape of BUILD_COMMIT and the
// per-entry payload of BUILD_SYNC.
type IntentWithPlayer struct {
	PlayerID uint16
	Intent   BuildIntent
}

func (e IntentWithPlayer) encode(w *writer) {
	w.u16(e.PlayerID)
	body := EncodeBuildIntent(e.Intent)
	w.bytes(body[1:]) // drop the embedded message id; this is an inline payload
}

func decodeIntentWithPlayer(r *reader) (IntentWithPlayer, error) {
	var e IntentWithPlayer
	var err error
	if e.PlayerID, err = r.u16(); err != nil {
		return e, err
	}
	if err := r.need(buildIntentBodySize); err != nil {
		return e, err
	}
	e.Intent, err = DecodeBuildIntent(r.buf[r.pos : r.pos+buildIntentBodySize])
	if err != nil {
		return e, err
	}
	r.pos += buildIntentBodySize
	return e, nil
}

type BuildCommit struct {
	BuildSeq uint32
	PlayerID uint16
	Intent   BuildIntent
}

func EncodeBuildCommit(m BuildCommit) []byte {
	w := &writer{buf: []byte{MsgBuildCommit}}
	w.u32(m.BuildSeq)
	w.u16(m.PlayerID)
	body := EncodeBuildIntent(m.Intent)
	w.bytes(body[1:])
	return w.buf
}

func DecodeBuildCommit(body []byte) (BuildCommit, error) {
	r := &reader{buf: body}
	var m BuildCommit
	var err error
	if m.BuildSeq, err = r.u32(); err != nil {
		return m, err
	}
	if m.PlayerID, err = r.u16(); err != nil {
		return m, err
	}
	rest := r.buf[r.pos:]
	m.Intent, err = DecodeBuildIntent(rest)
	return m, err
}

type BuildSync struct {
	StartSeq uint32
	Entries  []IntentWithPlayer
}

func EncodeBuildSync(m BuildSync) []byte {
	w := &writer{buf: []byte{MsgBuildSync}}
	w.u32(m.StartSeq)
	w.u16(uint16(len(m.Entries)))
	for _, e := range m.Entries {
		e.encode(w)
	}
	return w.buf
}

func DecodeBuildSync(body []byte) (BuildSync, error) {
	r := &reader{buf: body}
	var m BuildSync
	var err error
	if m.StartSeq, err = r.u32(); err != nil {
		return m, err
	}
	n, err := r.u16()
	if err != nil {
		return m, err
	}
	m.Entries = make([]IntentWithPlayer, n)
	for i := range m.Entries {
		if m.Entries[i], err = decodeIntentWithPlayer(r); err != nil {
			return m, err
		}
	}
	return m, nil
}

const tileVoxels = 32 * 32

type MapTileData struct {
	TX, TZ    int32
	Heights   [tileVoxels]int16
	Materials [tileVoxels]uint8
}

func EncodeMapTileData(m MapTileData) []byte {
	w := &writer{buf: []byte{MsgMapTileData}}
	w.i32(m.TX)
	w.i32(m.TZ)
	for _, h := range m.Heights {
		w.i16(h)
	}
	w.bytes(m.Materials[:])
	return w.buf
}

func DecodeMapTileData(body []byte) (MapTileData, error) {
	r := &reader{buf: body}
	var m MapTileData
	var err error
	if m.TX, err = r.i32(); err != nil {
		return m, err
	}
	if m.TZ, err = r.i32(); err != nil {
		return m, err
	}
	for i := range m.Heights {
		if m.Heights[i], err = r.i16(); err != nil {
			return m, err
		}
	}
	raw, err := r.take(len(m.Materials))
	if err != nil {
		return m, err
	}
	copy(m.Materials[:], raw)
	return m, nil
}

const chunkVoxels = voxel.ChunkVolume

type ChunkData struct {
	CX, CY, CZ   int32
	LastBuildSeq uint32
	Voxels       [chunkVoxels]uint16
}

func encodeChunkBody(w *writer, m ChunkData) {
	w.i32(m.CX)
	w.i32(m.CY)
	w.i32(m.CZ)
	w.u32(m.LastBuildSeq)
	for _, v := range m.Voxels {
		w.u16(v)
	}
}

func decodeChunkBody(r *reader) (ChunkData, error) {
	var m ChunkData
	var err error
	if m.CX, err = r.i32(); err != nil {
		return m, err
	}
	if m.CY, err = r.i32(); err != nil {
		return m, err
	}
	if m.CZ, err = r.i32(); err != nil {
		return m, err
	}
	if m.LastBuildSeq, err = r.u32(); err != nil {
		return m, err
	}
	for i := range m.Voxels {
		if m.Voxels[i], err = r.u16(); err != nil {
			return m, err
		}
	}
	return m, nil
}

func EncodeChunkData(m ChunkData) []byte {
	w := &writer{buf: []byte{MsgChunkData}}
	encodeChunkBody(w, m)
	return w.buf
}

func DecodeChunkData(body []byte) (ChunkData, error) {
	r := &reader{buf: body}
	return decodeChunkBody(r)
}

type SurfaceColumnData struct {
	Tile   MapTileData
	Chunks []ChunkData // CX/CZ are implied by Tile and omitted on the wire
}

func EncodeSurfaceColumnData(m SurfaceColumnData) []byte {
	w := &writer{buf: []byte{MsgSurfaceColumnData}}
	tileBody := EncodeMapTileData(m.Tile)
	w.bytes(tileBody[1:])
	w.u16(uint16(len(m.Chunks)))
	for _, c := range m.Chunks {
		w.i32(c.CY)
		w.u32(c.LastBuildSeq)
		for _, v := range c.Voxels {
			w.u16(v)
		}
	}
	return w.buf
}

func DecodeSurfaceColumnData(body []byte) (SurfaceColumnData, error) {
	r := &reader{buf: body}
	var m SurfaceColumnData
	var err error
	if m.Tile.TX, err = r.i32(); err != nil {
		return m, err
	}
	if m.Tile.TZ, err = r.i32(); err != nil {
		return m, err
	}
	for i := range m.Tile.Heights {
		if m.Tile.Heights[i], err = r.i16(); err != nil {
			return m, err
		}
	}
	raw, err := r.take(len(m.Tile.Materials))
	if err != nil {
		return m, err
	}
	copy(m.Tile.Materials[:], raw)

	n, err := r.u16()
	if err != nil {
		return m, err
	}
	m.Chunks = make([]ChunkData, n)
	for i := range m.Chunks {
		c := ChunkData{CX: m.Tile.TX, CZ: m.Tile.TZ}
		if c.CY, err = r.i32(); err != nil {
			return m, err
		}
		if c.LastBuildSeq, err = r.u32(); err != nil {
			return m, err
		}
		for j := range c.Voxels {
			if c.Voxels[j], err = r.u16(); err != nil {
				return m, err
			}
		}
		m.Chunks[i] = c
	}
	return m, nil
}

type Pong struct{ Timestamp uint32 }

func EncodePong(m Pong) []byte {
	w := &writer{buf: []byte{MsgPong}}
	w.u32(m.Timestamp)
	return w.buf
}

func DecodePong(body []byte) (Pong, error) {
	r := &reader{buf: body}
	v, err := r.u32()
	return Pong{Timestamp: v}, err
}

// Error codes for the ERROR frame.
const (
	ErrUnknownMessage uint8 = 1
	ErrBadVersion     uint8 = 2
	ErrRoomFull       uint8 = 3
	ErrMalformed      uint8 = 4
)

type ErrorMsg struct{ Code uint8 }

func EncodeError(m ErrorMsg) []byte {
	return []byte{MsgError, m.Code}
}

func DecodeError(body []byte) (ErrorMsg, error) {
	r := &reader{buf: body}
	v, err := r.u8()
	return ErrorMsg{Code: v}, err
}

// SplitFrame separates a raw wire frame into its message id and body.
func SplitFrame(frame []byte) (id uint8, body []byte, err error) {
	if len(frame) < 1 {
		return 0, nil, ErrTruncated
	}
	return frame[0], frame[1:], nil
}
