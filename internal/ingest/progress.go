// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedgraph/internal/models"
)

// lastRunKey is the BadgerDB key holding the most recent ingestion run.
const lastRunKey = "ingest:last_run"

// ProgressTracker persists the journal of the most recent ingestion run.
type ProgressTracker interface {
	Save(ctx context.Context, run *models.IngestionRun) error
	// Load returns nil, nil when nothing has been saved.
	Load(ctx context.Context) (*models.IngestionRun, error)
	Clear(ctx context.Context) error
}

// BadgerProgress keeps the run journal in BadgerDB so the last run survives
// restarts.
type BadgerProgress struct {
	db     *badger.DB
	closer func() error
}

// NewBadgerProgress wraps an already open BadgerDB. The caller owns db.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// OpenBadgerProgress opens (or creates) a BadgerDB at path. Close releases it.
func OpenBadgerProgress(path string) (*BadgerProgress, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for ingest journal: %w", err)
	}
	return &BadgerProgress{db: db, closer: db.Close}, nil
}

// Save persists run under lastRunKey.
func (p *BadgerProgress) Save(_ context.Context, run *models.IngestionRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lastRunKey), data)
	})
}

// Load retrieves the last saved run.
func (p *BadgerProgress) Load(_ context.Context) (*models.IngestionRun, error) {
	var run *models.IngestionRun

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastRunKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			run = &models.IngestionRun{}
			return json.Unmarshal(val, run)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load ingest journal: %w", err)
	}
	return run, nil
}

// Clear removes the journal.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(lastRunKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the database if this tracker opened it.
func (p *BadgerProgress) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// InMemoryProgress keeps the journal in memory. Used in tests and when no
// progress path is configured.
type InMemoryProgress struct {
	mu  sync.Mutex
	run *models.IngestionRun
}

// NewInMemoryProgress creates an empty in-memory journal.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of run.
func (p *InMemoryProgress) Save(_ context.Context, run *models.IngestionRun) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run = copyRun(run)
	return nil
}

// Load returns a copy of the stored run.
func (p *InMemoryProgress) Load(_ context.Context) (*models.IngestionRun, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyRun(p.run), nil
}

// Clear drops the stored run.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run = nil
	return nil
}

func copyRun(run *models.IngestionRun) *models.IngestionRun {
	if run == nil {
		return nil
	}
	c := *run
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
