package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/oddcard/go/internal/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const appName = "IE Heart Lab"

func setupServer(services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerServices(mux, services)

	// Health, info and metrics endpoints
	mux.Handle("/health", services.Health)
	setupInfo(mux, services)
	mux.Handle("/metrics", promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}))

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", services.Config.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Register game RPC service
	gameServicePath, gameServiceHandler := rpc.NewGameServiceHandler(services.Game)
	mux.Handle(gameServicePath, gameServiceHandler)

	// Register WebSocket and REST gateway
	services.Gateway.RegisterRoutes(mux)
}

type infoResponse struct {
	App          string         `json:"app"`
	Rounds       int            `json:"rounds"`
	GridSizes    []int          `json:"grid_sizes"`
	RoundSeconds float64        `json:"round_seconds"`
	Countdown    int            `json:"countdown"`
	Entries      int            `json:"entries"`
	Gateway      map[string]any `json:"gateway"`
}

func setupInfo(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		rules := services.Sessions.Rules()
		response := infoResponse{
			App:          appName,
			Rounds:       rules.TotalRounds(),
			GridSizes:    rules.GridSizes,
			RoundSeconds: rules.RoundDuration.Seconds(),
			Countdown:    rules.CountdownFrom,
			Entries:      services.Table.Len(),
			Gateway:      services.Gateway.GetStats(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})
}
