// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/database"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
)

const itemsJSON = `[
  {"id": "m1", "title": "Harbor", "year": 2001, "genres": [{"name": "Drama"}]},
  {"id": "m2", "title": "Night Run", "year": 2003, "genres": [{"name": "Drama"}, {"name": "Crime"}]}
]`

const feedsJSON = `{"new_releases": ["m2", "m1"]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	itemsPath := filepath.Join(dir, "items.json")
	feedsPath := filepath.Join(dir, "feeds.json")
	if err := os.WriteFile(itemsPath, []byte(itemsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(feedsPath, []byte(feedsJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2},
		Graph:    config.GraphConfig{IDMapping: "identity"},
		Catalog:  config.CatalogConfig{ItemsPath: itemsPath, FeedsPath: feedsPath, ImageWidth: 640, ImageHeight: 360},
		Ingest:   config.IngestConfig{WipeEdges: true},
		Events:   config.EventsConfig{Enabled: true, TopicPrefix: "feedgraph"},
	}
}

func TestOpenWiresComponents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := Open(ctx, testConfig(t), logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	if a.Bus == nil {
		t.Fatal("event bus not created although events are enabled")
	}
	if err := a.Graph.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	run, err := a.Ingestor.RunIngestion(ctx, true)
	if err != nil {
		t.Fatalf("RunIngestion() error = %v", err)
	}
	if run.Status != models.IngestStatusCompleted || run.ItemsEnsured != 2 {
		t.Errorf("run = %+v", run)
	}

	f, err := a.Ranker.GetFeed(ctx, "new_releases", "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(f.Items) != 2 || f.Items[0].ID != "m1" {
		t.Errorf("feed items = %+v", f.Items)
	}
}

func TestOpenFailureClosesOpenedComponents(t *testing.T) {
	// Not parallel: swaps openDatabase.
	var opened *database.DB
	defer func(orig func(*config.DatabaseConfig) (*database.DB, error)) { openDatabase = orig }(openDatabase)
	openDatabase = func(cfg *config.DatabaseConfig) (*database.DB, error) {
		db, err := database.New(cfg)
		opened = db
		return db, err
	}

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"unknown id mapping", func(cfg *config.Config) { cfg.Graph.IDMapping = "reverse" }},
		{"missing catalog", func(cfg *config.Config) { cfg.Catalog.ItemsPath = filepath.Join(t.TempDir(), "absent.json") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened = nil
			cfg := testConfig(t)
			tt.mutate(cfg)

			a, err := Open(context.Background(), cfg, logging.NewTestLogger(io.Discard))
			if err == nil {
				_ = a.Close()
				t.Fatal("Open() succeeded")
			}
			if a != nil {
				t.Errorf("Open() returned %v alongside error", a)
			}
			if opened == nil {
				t.Fatal("database was never opened")
			}
			if err := opened.Ping(context.Background()); err == nil {
				t.Error("database still reachable after failed Open")
			}
		})
	}
}

func TestEdgeWriteIsVisibleToNextFeed(t *testing.T) {
	t.Parallel()

	for _, eventsOn := range []bool{true, false} {
		t.Run(fmt.Sprintf("events=%v", eventsOn), func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.Events.Enabled = eventsOn
			cfg.Feed = config.FeedConfig{BatchLookups: true, CacheTTL: time.Minute}

			ctx := context.Background()
			a, err := Open(ctx, cfg, logging.NewTestLogger(io.Discard))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer func() { _ = a.Close() }()

			if _, err := a.Ingestor.RunIngestion(ctx, true); err != nil {
				t.Fatalf("RunIngestion() error = %v", err)
			}
			// Fill the cache.
			if _, err := a.Ranker.GetFeed(ctx, "new_releases", "m1"); err != nil {
				t.Fatalf("GetFeed() error = %v", err)
			}

			if _, err := a.Graph.UpsertEdge(ctx, "m1", "m2", 0.42); err != nil {
				t.Fatalf("UpsertEdge() error = %v", err)
			}
			f, err := a.Ranker.GetFeed(ctx, "new_releases", "m1")
			if err != nil {
				t.Fatalf("GetFeed() error = %v", err)
			}
			for _, e := range f.Items {
				if e.ID == "m2" && (e.Weight == nil || *e.Weight != 0.42) {
					t.Errorf("m2 weight = %v, want 0.42", e.Weight)
				}
			}
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	a, err := Open(context.Background(), testConfig(t), logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
