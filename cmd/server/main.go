// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/feedgraph/internal/api"
	"github.com/tomtom215/feedgraph/internal/app"
	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/middleware"
	"github.com/tomtom215/feedgraph/internal/supervisor"
	"github.com/tomtom215/feedgraph/internal/supervisor/services"
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
		Str("db_path", cfg.Database.Path).
		Str("catalog", cfg.Catalog.ItemsPath).
		Str("id_mapping", cfg.Graph.IDMapping).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting Feedgraph with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.Open(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer func() {
		if err := components.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing components")
		}
	}()
	logging.Info().
		Int("items", components.Catalog.Current().Len()).
		Int("feeds", len(components.Catalog.Current().FeedIDs())).
		Msg("Catalog loaded")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (security.rate_limit_disabled=true)")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	if cfg.Catalog.Watch {
		watcher := catalog.NewWatcher(components.Catalog, logging.Logger())
		tree.AddDataService(services.NewCatalogWatchService(watcher))
	}
	tree.AddDataService(services.NewIngestService(components.Ingestor, cfg.Ingest, logging.Logger()))

	// Messaging layer
	if components.Bus != nil {
		tree.AddMessagingService(services.NewEventListenerService(components.Bus, components.Ranker.HandleEvent, logging.Logger()))
	}

	// API layer
	perfMon := middleware.NewPerformanceMonitor(1000, time.Second)
	handler := api.NewHandler(components.Graph, components.Ranker, components.Ingestor, perfMon, cfg.Server.Timeout)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second, logging.Logger()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
		cancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Feedgraph stopped")
}
