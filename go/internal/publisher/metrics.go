package publisher

import (
	"context"
	"time"

	"github.com/mcdev12/oddcard/go/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines the interface for collecting game metrics
type MetricsCollector interface {
	RecordEventPublished(eventType string, success bool, duration time.Duration)
	RecordPhaseTransition(from, to string)
	SetActiveSessions(n int)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordEventPublished(eventType string, success bool, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordPhaseTransition(from, to string)                                     {}
func (n *NoOpMetricsCollector) SetActiveSessions(count int)                                               {}

// MetricPublisher wraps an EventPublisher with metrics collection
type MetricPublisher struct {
	publisher EventPublisher
	metrics   MetricsCollector
}

func NewMetricPublisher(publisher EventPublisher, metrics MetricsCollector) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event events.Event) error {
	start := time.Now()

	err := p.publisher.Publish(ctx, event)

	p.metrics.RecordEventPublished(string(event.EventType), err == nil, time.Since(start))
	return err
}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	eventCounter   *prometheus.CounterVec
	eventDuration  *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewPrometheusMetrics registers the game collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		eventCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddcard",
			Name:      "events_published_total",
			Help:      "Game events handed to the publisher, by type and status.",
		}, []string{"event_type", "status"}),
		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oddcard",
			Name:      "event_publish_duration_seconds",
			Help:      "Time spent publishing a game event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddcard",
			Name:      "phase_transitions_total",
			Help:      "Phase transitions across all sessions.",
		}, []string{"from", "to"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "oddcard",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

func (m *PrometheusMetrics) RecordEventPublished(eventType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.eventCounter.WithLabelValues(eventType, status).Inc()
	m.eventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPhaseTransition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}
