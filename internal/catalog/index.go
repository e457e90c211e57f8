// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

// Package catalog holds the read-only item metadata and the feed membership
// table the ranker decorates its results with.
//
// An Index is an immutable snapshot. Holder swaps snapshots atomically so
// readers never see a half-loaded catalog, and Watcher reloads the snapshot
// when the files on disk change.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/feedgraph/internal/models"
)

// ErrFeedNotFound is returned for feed ids missing from the membership table.
var ErrFeedNotFound = fmt.Errorf("feed %w", models.ErrNotFound)

// Index is a catalog snapshot. It must not be mutated after NewIndex.
type Index struct {
	items []models.Item
	byID  map[string]int
	feeds map[string][]string
}

// NewIndex builds a snapshot. Items keep their order; a repeated id keeps its
// first occurrence. Feed ids are normalized with NormalizeFeedID.
func NewIndex(items []models.Item, feeds map[string][]string) *Index {
	idx := &Index{
		items: make([]models.Item, 0, len(items)),
		byID:  make(map[string]int, len(items)),
		feeds: make(map[string][]string, len(feeds)),
	}
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, dup := idx.byID[item.ID]; dup {
			continue
		}
		idx.byID[item.ID] = len(idx.items)
		idx.items = append(idx.items, item)
	}
	for id, members := range feeds {
		key := NormalizeFeedID(id)
		idx.feeds[key] = append(idx.feeds[key], members...)
	}
	return idx
}

// NormalizeFeedID is the lookup key for a feed id.
func NormalizeFeedID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Len returns the number of items.
func (idx *Index) Len() int {
	return len(idx.items)
}

// Items returns every item in catalog order. Callers must not modify it.
func (idx *Index) Items() []models.Item {
	return idx.items
}

// IDs returns every item id in catalog order.
func (idx *Index) IDs() []string {
	ids := make([]string, len(idx.items))
	for i := range idx.items {
		ids[i] = idx.items[i].ID
	}
	return ids
}

// Item looks up one item.
func (idx *Index) Item(id string) (*models.Item, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return nil, false
	}
	return &idx.items[i], true
}

// FeedIDs returns the normalized feed ids, sorted.
func (idx *Index) FeedIDs() []string {
	ids := make([]string, 0, len(idx.feeds))
	for id := range idx.feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Members returns the raw membership list of a feed.
func (idx *Index) Members(feedID string) ([]string, error) {
	members, ok := idx.feeds[NormalizeFeedID(feedID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, feedID)
	}
	return members, nil
}

// FeedItems returns the feed's member items in catalog order. Members that
// are not in the catalog are skipped.
func (idx *Index) FeedItems(feedID string) ([]models.Item, error) {
	members, err := idx.Members(feedID)
	if err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(members))
	for _, id := range members {
		want[id] = struct{}{}
	}

	out := make([]models.Item, 0, len(members))
	for _, item := range idx.items {
		if _, ok := want[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Summaries describes every feed, sorted by id.
func (idx *Index) Summaries() []models.FeedSummary {
	ids := idx.FeedIDs()
	out := make([]models.FeedSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.FeedSummary{
			Key:     id,
			FeedID:  TitleCase(id),
			Members: len(idx.feeds[id]),
		})
	}
	return out
}

// TitleCase renders a feed id for display: TRENDING_MOVIES -> Trending Movies.
func TitleCase(feedID string) string {
	parts := strings.Split(feedID, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + strings.ToLower(p[size:])
	}
	return strings.Join(parts, " ")
}

// SelectImage returns the url of the variant with exactly width x height, or
// "" when there is none.
func SelectImage(variants []models.ImageVariant, width, height int) string {
	for _, v := range variants {
		if v.Width == width && v.Height == height {
			return v.URL
		}
	}
	return ""
}
