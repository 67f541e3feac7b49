package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/closeloop/backend/internal/api"
	"github.com/closeloop/backend/internal/attribution"
	"github.com/closeloop/backend/internal/config"
	"github.com/closeloop/backend/internal/feed"
	"github.com/closeloop/backend/internal/ledger"
	"github.com/closeloop/backend/internal/metrics"
	"github.com/closeloop/backend/internal/performance"
	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Float64("weight_floor", cfg.WeightFloor).
		Float64("weight_ceiling", cfg.WeightCeiling).
		Msg("starting closeloop backend server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create store (DynamoDB or in-memory depending on DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create store")
	}

	// Create feed hub
	hub := feed.NewHub(log.Logger)
	go hub.Run()

	// Create feed handler
	feedHandler := feed.NewHandler(hub, cfg, log.Logger)

	// Create touchpoint ledger
	touchpointLedger := ledger.New(store, hub, log.Logger)

	// Create attribution calculator
	calculator := attribution.NewCalculator(store, attribution.WeightConfig{
		Floor:   cfg.WeightFloor,
		Ceiling: cfg.WeightCeiling,
	}, log.Logger)

	// Create performance aggregator
	aggregator := performance.NewAggregator(store, log.Logger)

	// Create API handlers
	touchpointHandler := api.NewTouchpointHandler(touchpointLedger, log.Logger)
	attributionHandler := api.NewAttributionHandler(calculator, log.Logger)
	performanceHandler := api.NewPerformanceHandler(aggregator, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Internal routes (for upstream agent pipelines)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/touchpoints", touchpointHandler.Record)
		r.Get("/touchpoints/stats", touchpointHandler.GetStats)
	})

	// Read API
	r.Route("/api", func(r chi.Router) {
		r.Get("/deals/{dealId}/attribution", attributionHandler.GetAttribution)
		r.Get("/performance", performanceHandler.GetReport)
	})

	// Live touchpoint feed
	r.Get("/ws", feedHandler.ServeHTTP)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"closeloop-backend"}`)
}
