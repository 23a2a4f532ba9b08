package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/mcdev12/oddcard/go/internal/publisher"
	"github.com/mcdev12/oddcard/go/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	ts    *httptest.Server
	store *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	table, err := content.NewTable([]content.Entry{{Normal: "AB", Target: "AC"}})
	require.NoError(t, err)

	store := session.NewStore(table, session.DefaultConfig(), clockwork.NewFakeClock(), publisher.NewLogPublisher(), nil)
	t.Cleanup(store.Close)

	svc := NewService(DefaultConfig(), store)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, store: store}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws/play" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) GameMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg GameMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readUntil(t *testing.T, conn *websocket.Conn, pred func(GameMessage) bool) GameMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if pred(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return GameMessage{}
}

func decodeSnapshot(t *testing.T, msg GameMessage) game.Snapshot {
	t.Helper()
	require.Equal(t, MessageTypeSnapshot, msg.Type)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap
}

func TestPlayConnection_FirstMessageIsSnapshot(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")

	snap := decodeSnapshot(t, readMessage(t, conn))
	assert.Equal(t, game.PhaseCover, snap.Phase)
	assert.NotEqual(t, uuid.Nil, snap.SessionID)
	assert.Equal(t, 1, s.store.Count())
}

func TestPlayConnection_StartCommand(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")
	first := decodeSnapshot(t, readMessage(t, conn))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientStart}))

	// The command result and the broadcast snapshot may arrive in either order.
	var (
		payload   CommandResultPayload
		countdown *GameMessage
		gotResult bool
	)
	for i := 0; i < 20 && (!gotResult || countdown == nil); i++ {
		msg := readMessage(t, conn)
		switch msg.Type {
		case MessageTypeCommandResult:
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
			gotResult = true
		case MessageTypeSnapshot:
			if decodeSnapshot(t, msg).Phase == game.PhaseCountdown {
				countdown = &msg
			}
		}
	}
	require.True(t, gotResult)
	require.NotNil(t, countdown)
	assert.Equal(t, CommandResultPayload{Command: ClientStart, Accepted: true}, payload)
	assert.Equal(t, first.SessionID.String(), countdown.SessionID)

	// A tap during the countdown is ignored.
	idx := 0
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientTap, Index: &idx}))
	result := readUntil(t, conn, func(m GameMessage) bool { return m.Type == MessageTypeCommandResult })
	require.NoError(t, json.Unmarshal(result.Data, &payload))
	assert.False(t, payload.Accepted)
}

func TestPlayConnection_RejectsBadMessages(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readUntil(t, conn, func(m GameMessage) bool { return m.Type == MessageTypeError })
	assert.Contains(t, string(msg.Data), "malformed")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientTap}))
	msg = readUntil(t, conn, func(m GameMessage) bool { return m.Type == MessageTypeError })
	assert.Contains(t, string(msg.Data), "index")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "jump"}))
	msg = readUntil(t, conn, func(m GameMessage) bool { return m.Type == MessageTypeError })
	assert.Contains(t, string(msg.Data), "unknown command")
}

func TestPlayConnection_SharedSession(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()

	a := s.dial(t, "?session_id="+id.String())
	b := s.dial(t, "?session_id="+id.String())
	readMessage(t, a)
	readMessage(t, b)
	assert.Equal(t, 1, s.store.Count())

	require.NoError(t, a.WriteJSON(ClientMessage{Type: ClientStart}))
	readUntil(t, b, func(m GameMessage) bool {
		return m.Type == MessageTypeSnapshot && decodeSnapshot(t, m).Phase == game.PhaseCountdown
	})
}

func TestPlayConnection_InvalidSessionID(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.ts.URL + "/ws/play?session_id=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionState(t *testing.T) {
	s := newTestServer(t)
	engine, err := s.store.Create()
	require.NoError(t, err)

	t.Run("known session", func(t *testing.T) {
		resp, err := http.Get(s.ts.URL + "/api/sessions/" + engine.ID().String() + "/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var snap game.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, game.PhaseCover, snap.Phase)
		assert.Equal(t, engine.ID(), snap.SessionID)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp, err := http.Get(s.ts.URL + "/api/sessions/" + uuid.New().String() + "/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, err := http.Get(s.ts.URL + "/api/sessions/abc/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestConnectionStats(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")
	readMessage(t, conn)

	require.Eventually(t, func() bool {
		resp, err := http.Get(s.ts.URL + "/ws/stats")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var stats map[string]int
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return false
		}
		return stats["total_connections"] == 1 && stats["active_sessions"] == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestExtractSessionIDFromPath(t *testing.T) {
	id := uuid.New().String()
	assert.Equal(t, id, extractSessionIDFromPath("/api/sessions/"+id+"/state"))
	assert.Equal(t, "", extractSessionIDFromPath("/api/sessions/state"))
	assert.Equal(t, "", extractSessionIDFromPath("/api/other/"+id+"/state"))
}
