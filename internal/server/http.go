package server

import (
	"encoding/json"
	"net/http"

	"voxelengine/internal/protocol"
)

// HTTPServer exposes the registry's room directory and join handshake
// over plain JSON, ahead of the WebSocket upgrade.
type HTTPServer struct {
	registry *Registry
}

// NewHTTPServer builds an HTTP front end over an already-running registry.
func NewHTTPServer(registry *Registry) *HTTPServer {
	return &HTTPServer{registry: registry}
}

// Routes registers every handler on mux.
func (h *HTTPServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/api/rooms", h.handleRooms)
	mux.HandleFunc("/api/join", h.handleJoin)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	rooms := h.registry.ListRooms()
	players := 0
	for _, rm := range rooms {
		players += rm.PlayerCount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"room_count":   len(rooms),
		"player_count": players,
	})
}

func (h *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.registry.ListRooms()
	out := make([]map[string]any, len(rooms))
	for i, rm := range rooms {
		out[i] = map[string]any{"id": rm.ID, "player_count": rm.PlayerCount}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

type joinRequest struct {
	ProtocolVersion uint8 `json:"protocol_version"`
}

type joinResponse struct {
	RoomID          string `json:"room_id"`
	PlayerID        string `json:"player_id"`
	Token           string `json:"token"`
	ProtocolVersion uint8  `json:"protocol_version"`
}

func (h *HTTPServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if req.ProtocolVersion != protocol.ProtocolVersion {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported protocol version"})
		return
	}

	roomID, playerID, token, err := h.registry.Join()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{
		RoomID:          roomID,
		PlayerID:        playerID,
		Token:           token,
		ProtocolVersion: protocol.ProtocolVersion,
	})
}
