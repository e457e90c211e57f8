// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/models"
)

// IngestRunner is the part of *ingest.Ingestor the scheduler drives.
type IngestRunner interface {
	DefaultWipe() bool
	Run(ctx context.Context, opts ingest.Options) (*models.IngestionRun, error)
	Start(ctx context.Context, opts ingest.Options) (*models.IngestionRun, error)
	Shutdown(ctx context.Context) error
}

// IngestService runs similarity ingestion on startup and on a cron
// schedule. A tick that fires while a run is active is skipped. On shutdown
// the active run is canceled and awaited.
type IngestService struct {
	runner          IngestRunner
	cfg             config.IngestConfig
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewIngestService creates the scheduler service.
func NewIngestService(runner IngestRunner, cfg config.IngestConfig, logger zerolog.Logger) *IngestService {
	return &IngestService{
		runner:          runner,
		cfg:             cfg,
		shutdownTimeout: 30 * time.Second,
		logger:          logger.With().Str("service", "ingest-scheduler").Logger(),
	}
}

func (s *IngestService) options() ingest.Options {
	return ingest.Options{
		WipeEdges:    s.runner.DefaultWipe(),
		RebuildItems: s.cfg.RebuildItems,
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	var c *cron.Cron
	if s.cfg.Schedule != "" {
		cl := cronLogger{s.logger}
		c = cron.New(
			cron.WithParser(config.CronParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
		if _, err := c.AddFunc(s.cfg.Schedule, func() { s.scheduled(ctx) }); err != nil {
			// A bad spec will not fix itself on restart.
			return fmt.Errorf("ingest schedule %q: %w: %w", s.cfg.Schedule, err, suture.ErrDoNotRestart)
		}
		c.Start()
		s.logger.Info().Str("schedule", s.cfg.Schedule).Msg("Ingestion schedule active")
	}

	if s.cfg.RunOnStartup {
		if run, err := s.runner.Start(ctx, s.options()); err != nil {
			s.logger.Warn().Err(err).Msg("Startup ingestion not started")
		} else {
			s.logger.Info().Str("run_id", run.ID).Msg("Startup ingestion started")
		}
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.runner.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Ingestion did not stop in time")
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-shutdownCtx.Done():
			s.logger.Warn().Msg("Scheduled ingestion did not stop in time")
		}
	}
	return ctx.Err()
}

func (s *IngestService) scheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	run, err := s.runner.Run(ctx, s.options())
	switch {
	case errors.Is(err, ingest.ErrIngestionInProgress):
		s.logger.Info().Msg("Scheduled ingestion skipped: a run is already active")
	case err != nil:
		evt := s.logger.Error().Err(err)
		if run != nil {
			evt = evt.Str("run_id", run.ID)
		}
		evt.Msg("Scheduled ingestion failed")
	default:
		s.logger.Info().
			Str("run_id", run.ID).
			Int("edges_written", run.EdgesWritten).
			Dur("duration", run.Duration()).
			Msg("Scheduled ingestion completed")
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *IngestService) String() string {
	return "ingest-scheduler"
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
