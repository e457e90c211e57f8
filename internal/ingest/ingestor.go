// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package ingest rebuilds the affinity graph from similarity scores.

A run optionally wipes every edge, optionally ensures a node for every
catalog item, then asks the scorer, item by item in catalog order, how
similar every other catalog item is. Non-zero scores become edges from the
reference item to the candidate.

Two failure policies apply. Item creation is SkipAndContinue: a failed node
is logged, counted and skipped. Scoring is FailFast: a scorer error or an
empty score map aborts the run, and edges already written stay committed.

Only one run is active at a time. A second trigger is rejected with
ErrIngestionInProgress rather than queued.
*/
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/events"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/scoring"
	"github.com/tomtom215/feedgraph/internal/validation"
)

var (
	// ErrIngestionInProgress is returned when a run is triggered while
	// another is active.
	ErrIngestionInProgress = errors.New("ingestion already in progress")

	// ErrEmptyScoreResponse is returned when the scorer answers without scores.
	ErrEmptyScoreResponse = errors.New("scorer returned no scores")
)

// interruptedMsg marks a journaled run that never finished.
const interruptedMsg = "interrupted before completion"

// ErrorPolicy decides what a failed step does to the run.
type ErrorPolicy int

const (
	// SkipAndContinue logs and counts the failure, then moves on.
	SkipAndContinue ErrorPolicy = iota
	// FailFast aborts the run.
	FailFast
)

func (p ErrorPolicy) String() string {
	switch p {
	case SkipAndContinue:
		return "skip_and_continue"
	case FailFast:
		return "fail_fast"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// Options selects what a run does before scoring.
type Options struct {
	WipeEdges    bool
	RebuildItems bool
}

// GraphWriter is the part of the graph store a run writes through.
type GraphWriter interface {
	DeleteAllEdges(ctx context.Context) (int64, error)
	EnsureCatalogItem(ctx context.Context, item *models.Item) (*models.GraphItem, bool, error)
	UpsertEdge(ctx context.Context, from, to string, weight float64) (*models.Edge, error)
}

// journalEvery is how many scored references pass between journal saves.
const journalEvery = 25

// Ingestor runs similarity ingestion.
type Ingestor struct {
	graph    GraphWriter
	catalog  func() *catalog.Index
	scorer   scoring.Scorer
	progress ProgressTracker
	pub      events.Publisher
	logger   zerolog.Logger

	defaultWipe bool
	runTimeout  time.Duration

	// ItemPolicy applies to node creation, ScorePolicy to scoring calls.
	ItemPolicy  ErrorPolicy
	ScorePolicy ErrorPolicy

	runMu sync.Mutex // held for the whole run

	mu      sync.RWMutex
	current *models.IngestionRun
	last    *models.IngestionRun

	// background runs started by Start
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewIngestor creates an Ingestor. progress and pub may be nil.
func NewIngestor(
	cfg *config.IngestConfig,
	graph GraphWriter,
	index func() *catalog.Index,
	scorer scoring.Scorer,
	progress ProgressTracker,
	pub events.Publisher,
	logger zerolog.Logger,
) *Ingestor {
	if progress == nil {
		progress = NewInMemoryProgress()
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Ingestor{
		graph:       graph,
		catalog:     index,
		scorer:      scorer,
		progress:    progress,
		pub:         pub,
		logger:      logger.With().Str("component", "ingest").Logger(),
		defaultWipe: cfg.WipeEdges,
		runTimeout:  cfg.RunTimeout,
		ItemPolicy:  SkipAndContinue,
		ScorePolicy: FailFast,
	}
}

// RunIngestion runs with WipeEdges taken from configuration.
func (ing *Ingestor) RunIngestion(ctx context.Context, rebuildItems bool) (*models.IngestionRun, error) {
	return ing.Run(ctx, Options{WipeEdges: ing.defaultWipe, RebuildItems: rebuildItems})
}

// DefaultWipe reports the configured WipeEdges default.
func (ing *Ingestor) DefaultWipe() bool {
	return ing.defaultWipe
}

// Run performs a run and waits for it. The returned run is non-nil whenever
// the run started, including when it failed.
func (ing *Ingestor) Run(ctx context.Context, opts Options) (*models.IngestionRun, error) {
	if !ing.runMu.TryLock() {
		metrics.RecordIngestRejected()
		return nil, ErrIngestionInProgress
	}
	defer ing.runMu.Unlock()

	run := ing.begin(opts)
	err := ing.execute(ctx, run, opts)
	return ing.snapshotOf(run), err
}

// Start launches a run in the background and returns its initial state. The
// run outlives ctx's cancellation but not Shutdown.
func (ing *Ingestor) Start(ctx context.Context, opts Options) (*models.IngestionRun, error) {
	if !ing.runMu.TryLock() {
		metrics.RecordIngestRejected()
		return nil, ErrIngestionInProgress
	}

	run := ing.begin(opts)
	initial := ing.snapshotOf(run)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ing.mu.Lock()
	ing.cancel = cancel
	ing.mu.Unlock()

	ing.wg.Add(1)
	go func() {
		defer ing.wg.Done()
		defer ing.runMu.Unlock()
		defer cancel()
		_ = ing.execute(runCtx, run, opts) //nolint:errcheck // outcome is journaled and logged
	}()
	return initial, nil
}

// Shutdown cancels a background run and waits for it to stop or ctx to end.
func (ing *Ingestor) Shutdown(ctx context.Context) error {
	ing.mu.Lock()
	if ing.cancel != nil {
		ing.cancel()
	}
	ing.mu.Unlock()

	done := make(chan struct{})
	go func() {
		ing.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a run is active.
func (ing *Ingestor) Running() bool {
	ing.mu.RLock()
	defer ing.mu.RUnlock()
	return ing.current != nil
}

// Current returns a copy of the active run, or nil.
func (ing *Ingestor) Current() *models.IngestionRun {
	ing.mu.RLock()
	defer ing.mu.RUnlock()
	return copyRun(ing.current)
}

// LastRun returns the most recent finished run, falling back to the journal
// after a restart. A journaled run still marked running was cut short by a
// crash and is reported as failed.
func (ing *Ingestor) LastRun(ctx context.Context) (*models.IngestionRun, error) {
	ing.mu.RLock()
	last := copyRun(ing.last)
	ing.mu.RUnlock()
	if last != nil {
		return last, nil
	}

	run, err := ing.progress.Load(ctx)
	if err != nil || run == nil {
		return run, err
	}
	if run.Status == models.IngestStatusRunning && !ing.Running() {
		run.Status = models.IngestStatusFailed
		if run.Error == "" {
			run.Error = interruptedMsg
		}
	}
	return run, nil
}

// Status returns the active run if there is one, otherwise the last run.
func (ing *Ingestor) Status(ctx context.Context) (running bool, run *models.IngestionRun, err error) {
	if cur := ing.Current(); cur != nil {
		return true, cur, nil
	}
	run, err = ing.LastRun(ctx)
	return false, run, err
}

func (ing *Ingestor) begin(opts Options) *models.IngestionRun {
	run := &models.IngestionRun{
		ID:           uuid.New().String(),
		Status:       models.IngestStatusRunning,
		StartedAt:    time.Now().UTC(),
		WipeEdges:    opts.WipeEdges,
		RebuildItems: opts.RebuildItems,
	}
	ing.mu.Lock()
	ing.current = run
	ing.mu.Unlock()
	metrics.SetIngestRunning(true)
	return run
}

func (ing *Ingestor) snapshotOf(run *models.IngestionRun) *models.IngestionRun {
	ing.mu.RLock()
	defer ing.mu.RUnlock()
	return copyRun(run)
}

// update applies fn to run under the state lock.
func (ing *Ingestor) update(run *models.IngestionRun, fn func(r *models.IngestionRun)) {
	ing.mu.Lock()
	fn(run)
	ing.mu.Unlock()
}

func (ing *Ingestor) execute(ctx context.Context, run *models.IngestionRun, opts Options) (err error) {
	if ing.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ing.runTimeout)
		defer cancel()
	}
	ctx = logging.ContextWithCorrelationID(ctx, run.ID)
	logger := ing.logger.With().Str("run_id", run.ID).Logger()

	defer func() { ing.finish(ctx, logger, run, err) }()

	logger.Info().
		Bool("wipe_edges", opts.WipeEdges).
		Bool("rebuild_items", opts.RebuildItems).
		Msg("Starting similarity ingestion")
	ing.journal(ctx, logger, run)

	idx := ing.catalog()
	if idx == nil {
		idx = catalog.NewIndex(nil, nil)
	}
	items := idx.Items()
	ing.update(run, func(r *models.IngestionRun) { r.CatalogItems = len(items) })

	if opts.WipeEdges {
		n, err := ing.graph.DeleteAllEdges(ctx)
		if err != nil {
			return fmt.Errorf("wipe edges: %w", err)
		}
		ing.update(run, func(r *models.IngestionRun) { r.EdgesDeleted = n })
		logger.Info().Int64("edges_deleted", n).Msg("Wiped existing edges")
	}

	if opts.RebuildItems {
		if err := ing.ensureItems(ctx, logger, run, items); err != nil {
			return err
		}
	}

	ids := idx.IDs()
	for i, ref := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ing.scoreReference(ctx, logger, run, ref, ids); err != nil {
			if ing.ScorePolicy == FailFast {
				ing.update(run, func(r *models.IngestionRun) { r.FailedItem = ref })
				logger.Error().Err(err).Str("item_id", ref).Msg("Scoring failed, aborting ingestion")
				return err
			}
			logger.Warn().Err(err).Str("item_id", ref).Msg("Scoring failed, skipping item")
			continue
		}
		if (i+1)%journalEvery == 0 {
			ing.journal(ctx, logger, run)
		}
	}
	return nil
}

func (ing *Ingestor) ensureItems(ctx context.Context, logger zerolog.Logger, run *models.IngestionRun, items []models.Item) error {
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := &items[i]
		_, created, err := ing.graph.EnsureCatalogItem(ctx, item)
		if err != nil {
			if ing.ItemPolicy == FailFast {
				ing.update(run, func(r *models.IngestionRun) { r.FailedItem = item.ID })
				return fmt.Errorf("ensure item %s: %w", item.ID, err)
			}
			logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to create item node, skipping")
			ing.update(run, func(r *models.IngestionRun) { r.ItemsSkipped++ })
			continue
		}
		ing.update(run, func(r *models.IngestionRun) {
			r.ItemsEnsured++
			if created {
				r.ItemsCreated++
			}
		})
	}
	logger.Info().
		Int("ensured", run.ItemsEnsured).
		Int("skipped", run.ItemsSkipped).
		Msg("Item nodes ensured")
	return nil
}

// scoreReference scores every other catalog id against ref and writes the
// non-zero scores as edges from ref.
func (ing *Ingestor) scoreReference(ctx context.Context, logger zerolog.Logger, run *models.IngestionRun, ref string, ids []string) error {
	candidates := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != ref {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	resp, err := ing.scorer.Score(ctx, scoring.Request{ReferenceItem: ref, CandidateItems: candidates})
	if err != nil {
		return fmt.Errorf("score %s: %w", ref, err)
	}
	if resp == nil || len(resp.Scores) == 0 {
		return fmt.Errorf("score %s: %w", ref, ErrEmptyScoreResponse)
	}

	var written, zeros, skipped int
	for _, cand := range candidates {
		score, ok := resp.Scores[cand]
		if !ok || score == 0 {
			zeros++
			continue
		}
		if _, err := ing.graph.UpsertEdge(ctx, ref, cand, score); err != nil {
			// A missing node or an invalid score loses one edge, not the run.
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, validation.ErrInvalidWeight) {
				logger.Debug().Err(err).Str("from", ref).Str("to", cand).Msg("Edge skipped")
				skipped++
				continue
			}
			ing.update(run, func(r *models.IngestionRun) {
				r.EdgesWritten += written
				r.ZeroScores += zeros
				r.EdgesSkipped += skipped
			})
			return fmt.Errorf("write edge %s->%s: %w", ref, cand, err)
		}
		written++
	}

	ing.update(run, func(r *models.IngestionRun) {
		r.ReferencesScored++
		r.EdgesWritten += written
		r.ZeroScores += zeros
		r.EdgesSkipped += skipped
	})
	return nil
}

func (ing *Ingestor) finish(ctx context.Context, logger zerolog.Logger, run *models.IngestionRun, err error) {
	now := time.Now().UTC()
	ing.mu.Lock()
	run.FinishedAt = &now
	if err != nil {
		run.Status = models.IngestStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = models.IngestStatusCompleted
	}
	final := copyRun(run)
	ing.last = final
	ing.current = nil
	ing.cancel = nil
	ing.mu.Unlock()

	metrics.SetIngestRunning(false)
	metrics.RecordIngestRun(final)

	// The run context may already be done; the journal and event must still land.
	ctx = context.WithoutCancel(ctx)
	ing.journal(ctx, logger, final)

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if perr := ing.pub.Publish(pubCtx, events.GraphRebuilt(final.ID, int64(final.EdgesWritten))); perr != nil {
		logger.Warn().Err(perr).Msg("Failed to publish graph rebuilt event")
	}

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err).Str("failed_item", final.FailedItem)
	}
	event.
		Str("status", final.Status).
		Int("references_scored", final.ReferencesScored).
		Int("edges_written", final.EdgesWritten).
		Int("zero_scores_skipped", final.ZeroScores).
		Int("items_skipped", final.ItemsSkipped).
		Dur("duration", final.Duration()).
		Msg("Similarity ingestion finished")
}

func (ing *Ingestor) journal(ctx context.Context, logger zerolog.Logger, run *models.IngestionRun) {
	if err := ing.progress.Save(ctx, ing.snapshotOf(run)); err != nil {
		logger.Warn().Err(err).Msg("Failed to save ingest journal")
	}
}
