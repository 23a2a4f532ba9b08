package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnStatus is satisfied by *nats.Conn.
type ConnStatus interface {
	IsConnected() bool
}

// SessionCounter is satisfied by *session.Store.
type SessionCounter interface {
	Count() int
}

type HealthStatus struct {
	Healthy           bool
	Uptime            time.Duration
	ActiveSessions    int
	DatabaseConnected bool
	NATSConnected     bool
	Errors            []string
}

type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// Checker reports on the server's dependencies. Database and NATS checks are
// skipped when those dependencies are not configured.
type Checker struct {
	sessions SessionCounter
	db       Pinger
	nats     ConnStatus
	clock    clockwork.Clock
	started  time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithDatabase adds a database ping to the check.
func WithDatabase(db Pinger) Option {
	return func(c *Checker) { c.db = db }
}

// WithNATS adds a NATS connection check.
func WithNATS(conn ConnStatus) Option {
	return func(c *Checker) { c.nats = conn }
}

// WithClock replaces the real clock used for uptime.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Checker) { c.clock = clock }
}

func NewChecker(sessions SessionCounter, opts ...Option) *Checker {
	c := &Checker{
		sessions: sessions,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.clock.Now()
	return c
}

func (h *Checker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Uptime:  h.clock.Since(h.started),
		Errors:  []string{},
	}

	if h.sessions != nil {
		status.ActiveSessions = h.sessions.Count()
	}

	// Check database connection
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		} else {
			status.DatabaseConnected = true
		}
	}

	// Check NATS connection
	if h.nats != nil {
		status.NATSConnected = h.nats.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

// HTTP handler helper
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	response := map[string]interface{}{
		"healthy":            status.Healthy,
		"uptime_seconds":     int64(status.Uptime.Seconds()),
		"active_sessions":    status.ActiveSessions,
		"database_connected": status.DatabaseConnected,
		"nats_connected":     status.NATSConnected,
		"errors":             status.Errors,
	}

	w.Header().Set("Content-Type", "application/json")

	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}

// RegisterGauges exposes the checker's view as Prometheus gauges.
func RegisterGauges(reg prometheus.Registerer, checker HealthChecker) error {
	check := func(pick func(HealthStatus) bool) func() float64 {
		return func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if pick(checker.Check(ctx)) {
				return 1
			}
			return 0
		}
	}

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "oddcard_healthy",
			Help: "Whether the server and its dependencies are healthy",
		}, check(func(s HealthStatus) bool { return s.Healthy })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "oddcard_database_connected",
			Help: "Whether the content database answered a ping",
		}, check(func(s HealthStatus) bool { return s.DatabaseConnected })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "oddcard_nats_connected",
			Help: "Whether the NATS connection is up",
		}, check(func(s HealthStatus) bool { return s.NATSConnected })),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return fmt.Errorf("failed to register health gauge: %w", err)
		}
	}
	return nil
}
