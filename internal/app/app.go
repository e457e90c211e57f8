// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

// Package app opens the feedgraph components in dependency order and closes
// them in reverse. It is shared by the server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/database"
	"github.com/tomtom215/feedgraph/internal/events"
	"github.com/tomtom215/feedgraph/internal/feed"
	"github.com/tomtom215/feedgraph/internal/graph"
	"github.com/tomtom215/feedgraph/internal/idmap"
	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/scoring"
)

// shutdownTimeout bounds how long Close waits for a background ingestion.
const shutdownTimeout = 30 * time.Second

// openDatabase is replaced in tests to observe the store handle.
var openDatabase = database.New

// App holds the wired components.
type App struct {
	Config   *config.Config
	DB       *database.DB
	Mapper   idmap.Mapper
	Bus      *events.Bus // nil when events are disabled
	Graph    *graph.Store
	Catalog  *catalog.Holder
	Ingestor *ingest.Ingestor
	Ranker   *feed.Ranker

	logger  zerolog.Logger
	closers []func() error
}

// Open builds every component from cfg. On failure whatever was already
// opened is closed again.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}
	if err := a.open(ctx); err != nil {
		if cerr := a.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Cleanup after failed start returned an error")
		}
		return nil, err
	}
	return a, nil
}

// open fills a in dependency order, registering a closer for everything it
// opens so Close can undo a partial start.
func (a *App) open(ctx context.Context) (err error) {
	cfg, logger := a.Config, a.logger

	a.DB, err = openDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)

	a.Mapper, err = idmap.New(cfg.Graph.IDMapping, cfg.Graph.StripToken)
	if err != nil {
		return err
	}

	// The feed cache is invalidated in the writer's goroutine before the
	// write returns; the bus only carries the event onwards.
	var pub events.Publisher = events.PublisherFunc(a.invalidateFeeds)
	if cfg.Events.Enabled {
		a.Bus, err = events.NewBus(cfg.Events, logger.With().Str("component", "events").Logger())
		if err != nil {
			return fmt.Errorf("create event bus: %w", err)
		}
		a.closers = append(a.closers, a.Bus.Close)
		pub = events.Fanout(pub, a.Bus)
	}

	a.Graph = graph.NewStore(a.DB, a.Mapper, pub, logger)

	a.Catalog, err = catalog.Open(cfg.Catalog.ItemsPath, cfg.Catalog.FeedsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	scorer, err := scoring.New(&cfg.Scorer, a.Catalog, a.Mapper)
	if err != nil {
		return err
	}

	var progress ingest.ProgressTracker = ingest.NewInMemoryProgress()
	if cfg.Ingest.ProgressPath != "" {
		bp, perr := ingest.OpenBadgerProgress(cfg.Ingest.ProgressPath)
		if perr != nil {
			return fmt.Errorf("open ingestion journal: %w", perr)
		}
		progress = bp
	}
	if c, ok := progress.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.Ingestor = ingest.NewIngestor(&cfg.Ingest, a.Graph, a.Catalog.Current, scorer, progress, pub, logger)
	a.closers = append(a.closers, func() error {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.Ingestor.Shutdown(sctx)
	})

	a.Ranker = feed.NewRanker(&cfg.Feed, &cfg.Catalog, a.Graph, a.Catalog.Current, logger)
	a.closers = append(a.closers, func() error {
		a.Ranker.Close()
		return nil
	})

	// Registers the loaded ids with the mapper now and again after each reload.
	a.Catalog.OnChange(a.catalogChanged)
	return nil
}

// catalogChanged keeps the id mapping and the feed cache in step with the
// catalog snapshot.
func (a *App) catalogChanged(idx *catalog.Index) {
	ctx := context.Background()
	if collisions := a.Graph.Register(ctx, idx.IDs()...); len(collisions) > 0 {
		a.logger.Warn().Int("collisions", len(collisions)).Msg("Catalog has colliding store ids")
	}
	a.Ranker.InvalidateAll()
	a.logger.Debug().Int("items", idx.Len()).Msg("Catalog snapshot applied")
}

// invalidateFeeds evicts cached feed weights a committed write affects.
func (a *App) invalidateFeeds(ctx context.Context, ev events.Event) error {
	if a.Ranker == nil {
		return nil
	}
	return a.Ranker.HandleEvent(ctx, &ev)
}

// Close releases everything in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
