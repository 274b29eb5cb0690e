// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the entry point for the Marquee server.
//
// Marquee recommends movies from a MovieLens style dataset: given a few
// titles a user liked, it ranks other titles by how strongly their ratings
// correlate across all users. A genre and year similarity model answers
// requests with the "content" strategy.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml, then environment (koanf)
//  2. Logging: zerolog, also bridged to slog for the supervisor
//  3. DuckDB: in-memory unless DUCKDB_PATH is set; used to scan the CSVs
//  4. Engine: collaborative index plus optional content model
//  5. Supervisor tree: index service (data layer), event hub and HTTP
//     server (api layer)
//
// # Usage
//
//	export RATINGS_PATH=/data/ml-latest-small/ratings.csv
//	export MOVIES_PATH=/data/ml-latest-small/movies.csv
//	export ADMIN_JWT_SECRET=$(openssl rand -base64 48)
//	./marquee
//
// Mint a token for POST /api/v1/index/rebuild with the same secret:
//
//	./marquee token -subject ops -ttl 24h
//
// SIGINT and SIGTERM stop the tree; in-flight requests get ten seconds.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/database"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
	ws "github.com/tomtom215/marquee/internal/websocket"
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

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runTokenCommand(cfg, os.Args[2:], os.Stdout); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue admin token")
		}
		return
	}

	logging.Info().
		Str("ratings_path", cfg.Dataset.RatingsPath).
		Str("movies_path", cfg.Dataset.MoviesPath).
		Int("min_raters", cfg.Index.MinRaters).
		Int("max_join_rows", cfg.Index.MaxJoinRows).
		Bool("content_enabled", cfg.Recommend.ContentEnabled).
		Bool("admin_auth", cfg.Security.AdminJWTSecret != "").
		Msg("Starting Marquee")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	source, err := database.NewMovieLensSource(db, cfg.Dataset, cfg.Index.MaxJoinRows)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure dataset source")
	}

	components, err := initRecommend(cfg, source, logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	adminAuth, err := initAdminAuth(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize admin authentication")
	}

	hub := ws.NewHub()
	components.Service.SetNotifier(hub)

	handler := api.NewHandler(components.Engine, components.Service)
	handler.SetDefaultStrategy(cfg.Recommend.DefaultStrategy)
	handler.SetEventHub(hub, cfg.Security.CORSOrigins)

	router := api.NewRouter(
		handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		adminAuth,
	)
	server := services.NewHTTPServer(&cfg.Server, router.SetupChi())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(components.Service)
	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logging.WithComponent("http")))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Marquee stopped")
}

// initAdminAuth returns the rebuild guard. Without a secret the endpoint is
// open, which is only appropriate behind a trusted network boundary.
func initAdminAuth(sec *config.SecurityConfig) (*auth.Middleware, error) {
	if sec.AdminJWTSecret == "" {
		logging.Warn().Msg("ADMIN_JWT_SECRET not set, index rebuild endpoint is unauthenticated")
		return auth.NewMiddleware(nil, api.AdminErrorWriter), nil
	}
	manager, err := auth.NewJWTManager(sec.AdminJWTSecret)
	if err != nil {
		return nil, err
	}
	return auth.NewMiddleware(manager, api.AdminErrorWriter), nil
}
