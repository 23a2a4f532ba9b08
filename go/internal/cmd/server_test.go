package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/mcdev12/oddcard/go/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	services, err := setupServices(ctx, defaultConfig())
	require.NoError(t, err)
	t.Cleanup(services.Close)
	go services.Gateway.Start(ctx)

	ts := httptest.NewServer(setupServer(services).Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Info(t *testing.T) {
	ts := newTestHTTPServer(t)

	resp, err := http.Get(ts.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info infoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "IE Heart Lab", info.App)
	assert.Equal(t, 3, info.Rounds)
	assert.Equal(t, []int{4, 5, 6}, info.GridSizes)
	assert.Equal(t, 10.0, info.RoundSeconds)
	assert.Equal(t, 15, info.Entries)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestHTTPServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Create a session over RPC so the active-sessions gauge moves.
	client := rpc.NewGameServiceClient(ts.Client(), ts.URL)
	created, err := client.CreateSession(context.Background(), connect.NewRequest(&rpc.CreateSessionRequest{}))
	require.NoError(t, err)
	assert.Equal(t, game.PhaseCover, created.Msg.Snapshot.Phase)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "oddcard_active_sessions 1")
	assert.Contains(t, string(body), "oddcard_healthy 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestHTTPServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+rpc.GameServiceStartGameProcedure, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
