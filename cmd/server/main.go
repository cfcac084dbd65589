// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package main is the entry point for the Melodex server.
//
// Melodex serves blended music-track recommendations: precomputed offline
// tables (personal per-user lists with a popularity fallback) merged with
// online recommendations derived from the user's recent interaction events
// through an item-to-item similarity table.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered settings (defaults, YAML file, env)
//  2. Database: DuckDB as the parquet loading engine
//  3. Similarity + catalog tables: loaded from parquet artifacts
//  4. Stores: event store and offline recommendation store
//  5. Offline tables: auto-loaded so the blended endpoint serves immediately
//  6. HTTP server: Chi router under a Suture supervision tree
//
// A missing or malformed artifact at startup degrades to empty tables with a
// warning; the process still starts and the reload endpoint can install
// fresh tables later.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops accepting
// connections, waits for in-flight requests up to the shutdown timeout, and
// closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/melodex/internal/api"
	"github.com/tomtom215/melodex/internal/catalog"
	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/database"
	"github.com/tomtom215/melodex/internal/events"
	"github.com/tomtom215/melodex/internal/logging"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/recs"
	"github.com/tomtom215/melodex/internal/similarity"
	"github.com/tomtom215/melodex/internal/supervisor"
	"github.com/tomtom215/melodex/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("personal_path", cfg.Recommend.PersonalPath).
		Str("default_path", cfg.Recommend.DefaultPath).
		Msg("Starting Melodex")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	handler := buildHandler(ctx, cfg, db)
	router := api.NewRouter(handler, api.RouterConfig{RateLimit: cfg.Server.RateLimit})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	logging.Info().Msg("Stopped")
}

// buildHandler wires the stores, the similarity capability and the
// recommendation pipeline, auto-loading all parquet artifacts.
func buildHandler(ctx context.Context, cfg *config.Config, db *database.DB) *api.Handler {
	logger := logging.Logger()

	// Similarity neighbor table. A load failure means no online
	// recommendations until a restart, but the service still runs.
	neighbors, err := db.LoadNeighbors(ctx, cfg.Similarity.NeighborsPath)
	if err != nil {
		logging.Warn().Err(err).
			Str("path", cfg.Similarity.NeighborsPath).
			Msg("Failed to load similar-track table, online recommendations will be empty")
	}
	simProvider := similarity.NewBreaker(
		similarity.NewStaticProvider(neighbors),
		similarity.BreakerConfig{
			RateLimit: cfg.Similarity.RateLimit,
			Burst:     cfg.Similarity.Burst,
		},
	)

	// Track catalog for the diagnostic side channel.
	var resolver recs.TrackResolver
	if cfg.Recommend.DiagnosticLookups {
		items, err := db.LoadCatalog(ctx, cfg.Catalog.ItemsPath)
		if err != nil {
			logging.Warn().Err(err).
				Str("path", cfg.Catalog.ItemsPath).
				Msg("Failed to load track catalog, diagnostic lookups disabled")
		} else {
			resolver = catalog.New(items)
		}
	}

	eventStore := events.NewStore(cfg.Recommend.MaxEventsPerUser)
	offline := recs.NewOfflineStore(logger)
	online := recs.NewOnlineRecommender(eventStore, simProvider, cfg.Similarity.Timeout, logger)
	svc := recs.NewService(offline, online, resolver, logger)

	// Auto-load the offline tables. Until loaded, lookups degrade to empty
	// results rather than crashing.
	loadOfflineTable(ctx, db, offline, "personal", cfg.Recommend.PersonalPath)
	loadOfflineTable(ctx, db, offline, "default", cfg.Recommend.DefaultPath)

	return api.NewHandler(svc, eventStore, db, &cfg.Recommend)
}

// loadOfflineTable loads one offline table at startup, degrading to an empty
// table on failure.
func loadOfflineTable(ctx context.Context, db *database.DB, offline *recs.OfflineStore, kind, path string) {
	var err error
	switch kind {
	case "personal":
		var table map[recs.UserID][]recs.ScoredTrack
		if table, err = db.LoadPersonal(ctx, path); err == nil {
			offline.SetPersonal(table)
		}
	case "default":
		var table []recs.ScoredTrack
		if table, err = db.LoadDefault(ctx, path); err == nil {
			offline.SetDefault(table)
		}
	}

	if err != nil {
		metrics.OfflineTableLoads.WithLabelValues(kind, "failure").Inc()
		logging.Warn().Err(err).
			Str("kind", kind).
			Str("path", path).
			Msg("Failed to auto-load offline recommendations, serving empty table until reload")
		return
	}
	metrics.OfflineTableLoads.WithLabelValues(kind, "success").Inc()
}
