package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/mcdev12/oddcard/go/internal/session"
	"github.com/rs/zerolog/log"
)

// Sessions is the part of the session store the gateway needs
type Sessions interface {
	Create() (*session.Engine, error)
	Get(id uuid.UUID) (*session.Engine, error)
	GetOrCreate(id uuid.UUID) (*session.Engine, error)
}

// ConnectionManager manages WebSocket connections for game sessions
type ConnectionManager struct {
	// Connection pools organized by session ID
	sessionConnections map[uuid.UUID]map[*Connection]bool
	// Snapshot forwarders, one per session with at least one connection
	forwarders map[uuid.UUID]context.CancelFunc
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a player
type Connection struct {
	ID        string
	SessionID uuid.UUID
	Engine    *session.Engine
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	CommandTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	SessionID uuid.UUID
	Message   *GameMessage
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		CommandTimeout:  5 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sessionConnections: make(map[uuid.UUID]map[*Connection]bool),
		forwarders:         make(map[uuid.UUID]context.CancelFunc),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.stopForwarders()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and attaches it
// to engine
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, engine *session.Engine) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		SessionID:   engine.ID(),
		Engine:      engine,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	// First message is always the current state.
	if msg, err := snapshotMessage(engine.Snapshot()); err == nil {
		connection.send(msg)
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("session_id", connection.SessionID.String()).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.sessionConnections[conn.SessionID] == nil {
		cm.sessionConnections[conn.SessionID] = make(map[*Connection]bool)

		// Subscribe before returning so no snapshot after registration is missed.
		snaps, unsubscribe := conn.Engine.Subscribe(64)
		ctx, cancel := context.WithCancel(context.Background())
		cm.forwarders[conn.SessionID] = cancel
		go cm.forwardSnapshots(ctx, conn.Engine, snaps, unsubscribe)
	}
	cm.sessionConnections[conn.SessionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("session_id", conn.SessionID.String()).
		Int("total_connections", len(cm.sessionConnections[conn.SessionID])).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.sessionConnections[conn.SessionID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}

	delete(connections, conn)
	close(conn.Send)

	if len(connections) == 0 {
		delete(cm.sessionConnections, conn.SessionID)
		if cancel, ok := cm.forwarders[conn.SessionID]; ok {
			cancel()
			delete(cm.forwarders, conn.SessionID)
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("session_id", conn.SessionID.String()).
		Msg("connection unregistered")
}

// forwardSnapshots relays every engine snapshot to the session's connections
func (cm *ConnectionManager) forwardSnapshots(ctx context.Context, engine *session.Engine, snaps <-chan game.Snapshot, unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			msg, err := snapshotMessage(snap)
			if err != nil {
				log.Error().Err(err).Str("session_id", engine.ID().String()).Msg("failed to build snapshot message")
				continue
			}
			cm.BroadcastToSession(engine.ID(), msg)
		}
	}
}

func (cm *ConnectionManager) stopForwarders() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for id, cancel := range cm.forwarders {
		cancel()
		delete(cm.forwarders, id)
	}
}

// BroadcastToSession sends a message to all connections of a session
func (cm *ConnectionManager) BroadcastToSession(sessionID uuid.UUID, message *GameMessage) {
	select {
	case cm.broadcastCh <- BroadcastMessage{SessionID: sessionID, Message: message}:
	default:
		log.Warn().Str("session_id", sessionID.String()).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast processes a broadcast message
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.sessionConnections[message.SessionID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	targetConnections := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targetConnections = append(targetConnections, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.Message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}

	for _, conn := range targetConnections {
		if !conn.trySend(data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Trace().
		Str("message_type", string(message.Message.Type)).
		Str("session_id", message.SessionID.String()).
		Int("connections", len(targetConnections)).
		Msg("message broadcasted")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	sessionCounts := make(map[string]int)

	for sessionID, connections := range cm.sessionConnections {
		count := len(connections)
		totalConnections += count
		sessionCounts[sessionID.String()] = count
	}

	return map[string]interface{}{
		"total_connections":   totalConnections,
		"active_sessions":     len(cm.sessionConnections),
		"session_connections": sessionCounts,
	}
}

// trySend queues data without blocking. It reports false if the buffer is
// full or the connection was already unregistered.
func (c *Connection) trySend(data []byte) (ok bool) {
	defer func() {
		// Send was closed by unregisterConnection.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) send(msg *GameMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal message")
		return
	}
	if !c.trySend(data) {
		log.Warn().Str("connection_id", c.ID).Msg("dropping message for slow connection")
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage dispatches a player command to the session engine
func (c *Connection) handleClientMessage(message []byte) {
	var cmd ClientMessage
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.sendError("malformed message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.CommandTimeout)
	defer cancel()

	var (
		accepted bool
		err      error
	)
	switch cmd.Type {
	case ClientStart:
		accepted, err = c.Engine.Start(ctx)
	case ClientTap:
		if cmd.Index == nil {
			c.sendError("tap requires an index")
			return
		}
		accepted, err = c.Engine.Tap(ctx, *cmd.Index)
	case ClientAck:
		accepted, err = c.Engine.Acknowledge(ctx)
	default:
		c.sendError(fmt.Sprintf("unknown command %q", cmd.Type))
		return
	}
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Str("command", cmd.Type).Msg("command failed")
		c.sendError("command failed")
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("session_id", c.SessionID.String()).
		Str("command", cmd.Type).
		Bool("accepted", accepted).
		Msg("client command")

	msg, err := newMessage(c.SessionID, MessageTypeCommandResult, CommandResultPayload{Command: cmd.Type, Accepted: accepted})
	if err != nil {
		return
	}
	c.send(msg)
}

func (c *Connection) sendError(text string) {
	msg, err := newMessage(c.SessionID, MessageTypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	c.send(msg)
}
