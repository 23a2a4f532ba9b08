package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions int

func (f fakeSessions) Count() int { return int(f) }

type fakeDB struct{ err error }

func (f fakeDB) PingContext(ctx context.Context) error { return f.err }

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func TestChecker_Check(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("no optional dependencies", func(t *testing.T) {
		checker := NewChecker(fakeSessions(2), WithClock(clock))
		clock.Advance(90 * time.Second)

		status := checker.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Equal(t, 2, status.ActiveSessions)
		assert.Equal(t, 90*time.Second, status.Uptime)
		assert.False(t, status.DatabaseConnected)
		assert.False(t, status.NATSConnected)
		assert.Empty(t, status.Errors)
	})

	t.Run("all dependencies up", func(t *testing.T) {
		checker := NewChecker(fakeSessions(0), WithDatabase(fakeDB{}), WithNATS(fakeConn(true)))
		status := checker.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.True(t, status.DatabaseConnected)
		assert.True(t, status.NATSConnected)
	})

	t.Run("database down", func(t *testing.T) {
		checker := NewChecker(fakeSessions(0), WithDatabase(fakeDB{err: errors.New("refused")}))
		status := checker.Check(context.Background())
		assert.False(t, status.Healthy)
		require.Len(t, status.Errors, 1)
		assert.Contains(t, status.Errors[0], "refused")
	})

	t.Run("nats down", func(t *testing.T) {
		checker := NewChecker(fakeSessions(0), WithNATS(fakeConn(false)))
		status := checker.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.Equal(t, []string{"NATS disconnected"}, status.Errors)
	})
}

func TestChecker_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		checker    *Checker
		wantStatus int
		wantHealth bool
	}{
		{"healthy", NewChecker(fakeSessions(1)), http.StatusOK, true},
		{"unhealthy", NewChecker(fakeSessions(1), WithNATS(fakeConn(false))), http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantHealth, body["healthy"])
			assert.Equal(t, float64(1), body["active_sessions"])
		})
	}
}

func TestRegisterGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	checker := NewChecker(fakeSessions(0), WithDatabase(fakeDB{}), WithNATS(fakeConn(false)))
	require.NoError(t, RegisterGauges(reg, checker))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, 0.0, values["oddcard_healthy"])
	assert.Equal(t, 1.0, values["oddcard_database_connected"])
	assert.Equal(t, 0.0, values["oddcard_nats_connected"])

	assert.Error(t, RegisterGauges(reg, checker), "registering twice must fail")
}
