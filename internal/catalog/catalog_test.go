// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
)

const exportJSON = `{
  "data": {
    "listAssets": {
      "items": [
        {
          "id": "tt0de1",
          "title": "The Heist",
          "description": "A crew plans one last job.",
          "year": 2011,
          "genres": [{"name": "Crime"}, {"name": "Drama, Thriller"}],
          "credits": [{"person": {"name": "Ana Lima"}}, {"person": null}, {"person": {"name": "Bo Chen"}}],
          "images": [
            {"aspectRatio": [
              {"resolutions": [
                {"width": 1280, "height": 720, "url": "https://img/1-720.jpg"},
                {"width": 640, "height": 360, "url": "https://img/1-360.jpg"}
              ]}
            ]}
          ]
        },
        {"id": "tt0de2", "title": "Quiet Harbor", "description": "Fishermen and secrets.", "genres": [{"name": "Drama"}]},
        {"id": "tt0de3", "title": "Night Run", "description": "A courier races dawn."}
      ]
    }
  }
}`

const feedsJSON = `{"TRENDING_MOVIES": ["tt0de3", "tt0de1", "missing"], "new_releases": ["tt0de2"]}`

func writeCatalog(t *testing.T, items, feeds string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	itemsPath := filepath.Join(dir, "items.json")
	feedsPath := filepath.Join(dir, "feeds.json")
	if err := os.WriteFile(itemsPath, []byte(items), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(feedsPath, []byte(feeds), 0o600); err != nil {
		t.Fatal(err)
	}
	return itemsPath, feedsPath
}

func TestParseItemsExport(t *testing.T) {
	t.Parallel()

	items, err := ParseItems([]byte(exportJSON))
	if err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	first := items[0]
	if first.ID != "tt0de1" || first.Title != "The Heist" || first.Year != 2011 {
		t.Errorf("first item = %+v", first)
	}
	if len(first.Genre) != 2 || first.Genre[1] != "Drama, Thriller" {
		t.Errorf("Genre = %v", first.Genre)
	}
	if len(first.Cast) != 2 || first.Cast[0] != "Ana Lima" || first.Cast[1] != "Bo Chen" {
		t.Errorf("Cast = %v, null persons should be skipped", first.Cast)
	}
	if len(first.Images) != 2 {
		t.Errorf("Images = %v", first.Images)
	}
	if items[2].Genre == nil || items[2].Cast == nil {
		t.Error("missing genres/credits should decode as empty, not nil")
	}
}

func TestParseItemsBareArray(t *testing.T) {
	t.Parallel()

	items, err := ParseItems([]byte(` [{"id": "a", "title": "A"}, {"id": "b"}]`))
	if err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}
	if len(items) != 2 || items[0].Title != "A" {
		t.Errorf("items = %+v", items)
	}

	if _, err := ParseItems([]byte(`{"data":`)); err == nil {
		t.Error("truncated export should fail")
	}
}

func TestIndexFeedItems(t *testing.T) {
	t.Parallel()

	items, _ := ParseItems([]byte(exportJSON))
	feeds, err := ParseFeeds([]byte(feedsJSON))
	if err != nil {
		t.Fatal(err)
	}
	idx := NewIndex(items, feeds)

	tests := []struct {
		feed    string
		want    []string
		wantErr bool
	}{
		// catalog order, not membership order; unknown members skipped
		{"TRENDING_MOVIES", []string{"tt0de1", "tt0de3"}, false},
		{"trending_movies", []string{"tt0de1", "tt0de3"}, false},
		{"NEW_RELEASES", []string{"tt0de2"}, false},
		{"UNKNOWN", nil, true},
	}
	for _, tt := range tests {
		got, err := idx.FeedItems(tt.feed)
		if tt.wantErr {
			if !errors.Is(err, ErrFeedNotFound) || !errors.Is(err, models.ErrNotFound) {
				t.Errorf("FeedItems(%s) err = %v, want ErrFeedNotFound", tt.feed, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("FeedItems(%s) error = %v", tt.feed, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("FeedItems(%s) = %d items, want %d", tt.feed, len(got), len(tt.want))
		}
		for i := range got {
			if got[i].ID != tt.want[i] {
				t.Errorf("FeedItems(%s)[%d] = %s, want %s", tt.feed, i, got[i].ID, tt.want[i])
			}
		}
	}

	if ids := idx.FeedIDs(); len(ids) != 2 || ids[0] != "NEW_RELEASES" {
		t.Errorf("FeedIDs() = %v", ids)
	}
	sums := idx.Summaries()
	if len(sums) != 2 || sums[1].FeedID != "Trending Movies" || sums[1].Members != 3 {
		t.Errorf("Summaries() = %+v", sums)
	}
}

func TestNewIndexDeduplicates(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]models.Item{{ID: "a", Title: "first"}, {ID: ""}, {ID: "a", Title: "second"}, {ID: "b"}}, nil)
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
	item, ok := idx.Item("a")
	if !ok || item.Title != "first" {
		t.Errorf("Item(a) = %+v, %v; first occurrence wins", item, ok)
	}
	if ids := idx.IDs(); ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs() = %v", ids)
	}
	if _, ok := idx.Item("zzz"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"TRENDING_MOVIES":  "Trending Movies",
		"new_releases":     "New Releases",
		"TOP":              "Top",
		"A__B":             "A  B",
		"":                 "",
		"because_YOU_like": "Because You Like",
		"ÉTÉ_ÀLA_UNE":      "Été Àla Une",
		"ñandú":            "Ñandú",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectImage(t *testing.T) {
	t.Parallel()

	variants := []models.ImageVariant{
		{Width: 1280, Height: 720, URL: "big"},
		{Width: 640, Height: 360, URL: "target"},
		{Width: 360, Height: 640, URL: "portrait"},
	}
	if got := SelectImage(variants, 640, 360); got != "target" {
		t.Errorf("SelectImage() = %q", got)
	}
	if got := SelectImage(variants, 320, 180); got != "" {
		t.Errorf("SelectImage() with no match = %q, want empty", got)
	}
	if got := SelectImage(nil, 640, 360); got != "" {
		t.Errorf("SelectImage(nil) = %q", got)
	}
}

func TestHolderReload(t *testing.T) {
	t.Parallel()

	itemsPath, feedsPath := writeCatalog(t, exportJSON, feedsJSON)
	h, err := Open(itemsPath, feedsPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var mu sync.Mutex
	var seen []int
	h.OnChange(func(idx *Index) {
		mu.Lock()
		seen = append(seen, idx.Len())
		mu.Unlock()
	})

	if err := os.WriteFile(itemsPath, []byte(`[{"id":"x"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if h.Current().Len() != 1 {
		t.Errorf("Current().Len() = %d, want 1", h.Current().Len())
	}

	// A broken file keeps the previous snapshot.
	if err := os.WriteFile(itemsPath, []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err == nil {
		t.Error("Reload() of broken file should fail")
	}
	if h.Current().Len() != 1 {
		t.Errorf("snapshot lost after failed reload: %d", h.Current().Len())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 3 || seen[1] != 1 {
		t.Errorf("OnChange saw %v, want [3 1]", seen)
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "nope.json"), ""); err == nil {
		t.Error("Open() of missing file should fail")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	t.Parallel()

	itemsPath, feedsPath := writeCatalog(t, exportJSON, feedsJSON)
	h, err := Open(itemsPath, feedsPath)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	callbacks := map[string]func(){}
	w := NewWatcher(h, logging.NewTestLogger(io.Discard))
	w.debounce = 10 * time.Millisecond
	w.watch = func(path string, cb func()) (func() error, error) {
		mu.Lock()
		callbacks[path] = cb
		mu.Unlock()
		return func() error { return nil }, nil
	}

	reloaded := make(chan struct{}, 1)
	h.OnChange(func(idx *Index) {
		if idx.Len() == 1 {
			reloaded <- struct{}{}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for both watches to register.
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(callbacks)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watches not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := os.WriteFile(itemsPath, []byte(`[{"id":"only"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	cb := callbacks[itemsPath]
	mu.Unlock()
	cb()
	cb()

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog not reloaded")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
