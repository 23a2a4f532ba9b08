package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/oddcard/go/internal/session"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for game sessions
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	sessions          Sessions
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, sessions Sessions) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		sessions:          sessions,
	}
}

// HandlePlayConnection attaches a WebSocket to a session. Without a
// session_id a new session is created.
func (h *WebSocketHandler) HandlePlayConnection(w http.ResponseWriter, r *http.Request) {
	var (
		engine *session.Engine
		err    error
	)

	sessionIDStr := r.URL.Query().Get("session_id")
	if sessionIDStr == "" {
		engine, err = h.sessions.Create()
	} else {
		sessionID, parseErr := uuid.Parse(sessionIDStr)
		if parseErr != nil {
			http.Error(w, "invalid session_id format", http.StatusBadRequest)
			return
		}
		engine, err = h.sessions.GetOrCreate(sessionID)
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionIDStr).Msg("failed to open session")
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, engine); err != nil {
		// The upgrader has already written an HTTP error response.
		log.Error().
			Err(err).
			Str("session_id", engine.ID().String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"total_connections": stats["total_connections"],
		"active_sessions":   stats["active_sessions"],
	}); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/play", h.HandlePlayConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound)
}
