package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/dbconfig"
	"github.com/mcdev12/oddcard/go/internal/gateway"
	"github.com/mcdev12/oddcard/go/internal/health"
	"github.com/mcdev12/oddcard/go/internal/publisher"
	"github.com/mcdev12/oddcard/go/internal/rpc"
	"github.com/mcdev12/oddcard/go/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Config   *Config
	Table    *content.Table
	Sessions *session.Store
	Gateway  *gateway.Service
	Game     *rpc.Service
	Health   *health.Checker
	Registry *prometheus.Registry

	database  *sql.DB
	jetstream *publisher.JetStreamPublisher
}

func setupServices(ctx context.Context, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Content → Publisher → Session store → Transports

	services := &Services{Config: config}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	services.Registry = registry

	// Content
	table, err := services.loadTable(ctx)
	if err != nil {
		services.Close()
		return nil, err
	}
	services.Table = table

	// Publisher
	metrics := publisher.NewPrometheusMetrics(registry)
	var eventPublisher publisher.EventPublisher = publisher.NewLogPublisher()
	if config.NATS.Enabled {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.URL = config.NATS.URL
		jsCfg.StreamName = config.NATS.StreamName
		jsCfg.SubjectPrefix = config.NATS.SubjectPrefix

		js, err := publisher.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to set up event publisher: %w", err)
		}
		services.jetstream = js
		eventPublisher = js
	}
	eventPublisher = publisher.NewMetricPublisher(eventPublisher, metrics)

	// Sessions
	storeCfg := session.DefaultConfig()
	storeCfg.Rules = config.Game
	storeCfg.IdleTimeout = config.Server.SessionIdleTimeout
	services.Sessions = session.NewStore(table, storeCfg, clockwork.NewRealClock(), eventPublisher, metrics)

	// Transports
	services.Gateway = gateway.NewService(gateway.DefaultConfig(), services.Sessions)
	services.Game = rpc.NewService(services.Sessions)

	// Health
	var healthOpts []health.Option
	if services.database != nil {
		healthOpts = append(healthOpts, health.WithDatabase(services.database))
	}
	if services.jetstream != nil {
		healthOpts = append(healthOpts, health.WithNATS(services.jetstream.Conn()))
	}
	services.Health = health.NewChecker(services.Sessions, healthOpts...)
	if err := health.RegisterGauges(registry, services.Health); err != nil {
		services.Close()
		return nil, err
	}

	return services, nil
}

func (s *Services) loadTable(ctx context.Context) (*content.Table, error) {
	var (
		table *content.Table
		err   error
	)

	switch s.Config.Content.Source {
	case ContentSourceFile:
		table, err = content.LoadFile(s.Config.Content.File)
	case ContentSourcePostgres:
		s.database, err = setupDatabase(ctx, dbconfig.NewConfigFromEnv())
		if err != nil {
			return nil, err
		}
		table, err = content.NewRepository(s.database).LoadTable(ctx)
	default:
		table, err = content.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s content: %w", s.Config.Content.Source, err)
	}

	log.Info().
		Str("source", s.Config.Content.Source).
		Int("entries", table.Len()).
		Msg("content table loaded")
	return table, nil
}

// Close releases the store, the event publisher and the database.
func (s *Services) Close() {
	if s.Sessions != nil {
		s.Sessions.Close()
	}
	if s.jetstream != nil {
		if err := s.jetstream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}
	if s.database != nil {
		if err := s.database.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}
