// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedgraph/internal/models"
)

const itemsJSON = `[
  {"id": "m1", "title": "Harbor", "year": 2001, "genres": [{"name": "Drama"}]},
  {"id": "m2", "title": "Night Run", "year": 2003, "genres": [{"name": "Drama"}, {"name": "Crime"}]},
  {"id": "m3", "title": "Glass Tide", "year": 2009, "genres": [{"name": "Crime"}]}
]`

// writeConfig lays out a catalog and a config file in a temp dir and
// returns the config path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"items.json": itemsJSON,
		"feeds.json": `{"NEW_RELEASES": ["m3", "m1", "m2"]}`,
		"config.yaml": fmt.Sprintf(`database:
  path: %s
graph:
  id_mapping: identity
catalog:
  items_path: %s
  feeds_path: %s
  watch: false
ingest:
  progress_path: ""
events:
  enabled: false
`, filepath.Join(dir, "graph.duckdb"), filepath.Join(dir, "items.json"), filepath.Join(dir, "feeds.json")),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "config.yaml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeedctlIngestThenInspect(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "ingest", "--rebuild-items")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var run models.IngestionRun
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("ingest output %q: %v", out, err)
	}
	if run.Status != models.IngestStatusCompleted || run.ItemsEnsured != 3 {
		t.Errorf("run = %+v", run)
	}

	out, err = execute(t, "--config", cfgPath, "feed", "new_releases")
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	var f models.Feed
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("feed output %q: %v", out, err)
	}
	if len(f.Items) != 3 || f.Items[0].ID != "m1" {
		t.Errorf("feed = %+v", f)
	}

	out, err = execute(t, "--config", cfgPath, "top", "-n", "2")
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	var rows []models.AggregateRating
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("top output %q: %v", out, err)
	}
	if len(rows) > 2 {
		t.Errorf("top returned %d rows, want at most 2", len(rows))
	}

	out, err = execute(t, "--config", cfgPath, "feeds")
	if err != nil {
		t.Fatalf("feeds: %v", err)
	}
	if !strings.Contains(strings.ToLower(out), "new_releases") {
		t.Errorf("feeds output = %s", out)
	}
}

func TestFeedctlErrors(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown feed", []string{"--config", cfgPath, "feed", "missing_feed"}},
		{"feed without id", []string{"--config", cfgPath, "feed"}},
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
