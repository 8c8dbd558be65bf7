package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"voxelengine/internal/protocol"
)

// upgrader accepts any origin: the room/token handshake already happened
// over HTTP, so by the time a client reaches here it holds a short-lived,
// single-use token.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const sendBufferSize = 256

// WSHandler upgrades a redeemed join token to a persistent connection and
// pumps frames between it and the owning room.
type WSHandler struct {
	registry *Registry
}

// NewWSHandler builds a WebSocket front end over an already-running
// registry.
func NewWSHandler(registry *Registry) *WSHandler {
	return &WSHandler{registry: registry}
}

// ServeHTTP redeems the token query parameter, upgrades the connection,
// joins the room, and starts the read/write pumps.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	room, playerID, ok := h.registry.Redeem(token)
	if !ok {
		http.Error(w, "unknown or expired join token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		room.Log.Warnf("room %s: websocket upgrade for %s failed: %v", room.ID, playerID, err)
		return
	}

	sendCh := make(chan []byte, sendBufferSize)
	player, err := room.Join(playerID, func(frame []byte) {
		select {
		case sendCh <- frame:
		default:
			// Backed-up client; drop the frame rather than block the
			// room's broadcast loop.
		}
	})
	if err != nil {
		_ = conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeError(protocol.ErrorMsg{Code: protocol.ErrRoomFull}))
		_ = conn.Close()
		return
	}

	sendCh <- protocol.EncodeWelcome(protocol.Welcome{PlayerID: player.NumericID, RoomID: room.ID})
	sendCh <- protocol.EncodeRoomInfo(protocol.RoomInfo{PlayerCount: uint8(room.PlayerCount())})

	go writePump(conn, sendCh)
	readPump(room, player, conn, sendCh)
}

func writePump(conn *websocket.Conn, sendCh <-chan []byte) {
	defer conn.Close()
	for frame := range sendCh {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

func readPump(room *Room, player *PlayerState, conn *websocket.Conn, sendCh chan []byte) {
	defer func() {
		room.Leave(player.ID)
		close(sendCh)
		conn.Close()
	}()

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				room.Log.Warnf("room %s: player %s: %v", room.ID, player.ID, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		id, body, err := protocol.SplitFrame(frame)
		if err != nil {
			continue
		}
		room.Dispatch(player, id, body, time.Now())
	}
}
