// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package feed ranks the members of a feed against an anchor item.

Without an anchor a feed is its member items in catalog order. With one,
every member gets the weight of the edge anchor -> member when it exists and
a percentage derived from it, or a random low fallback percentage when it
does not. Entries are then stably sorted by raw weight, highest first, with
missing weights last.

Weights for an (anchor, feed) pair are cached for a short TTL. Graph change
events evict the entries they can affect; see HandleEvent. A lookup that
overlapped an eviction does not fill the cache.
*/
package feed

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/cache"
	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/events"
	"github.com/tomtom215/feedgraph/internal/metrics"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

// EdgeReader is the read side of the graph store used for ranking.
type EdgeReader interface {
	GetEdge(ctx context.Context, from, to string) (float64, bool, error)
	GetEdges(ctx context.Context, from string, targets []string) (map[string]float64, error)
}

type cacheKey struct {
	anchor string
	feed   string
}

// Ranker builds ranked feeds.
type Ranker struct {
	graph   EdgeReader
	catalog func() *catalog.Index
	logger  zerolog.Logger

	batch          bool
	requestTimeout time.Duration
	imageWidth     int
	imageHeight    int

	percentage PercentageFunc
	fallback   FallbackFunc

	weights *cache.Cache[cacheKey, map[string]float64] // nil when caching is off

	// fillMu orders cache fills against evictions. generation is bumped by
	// every eviction; a fill whose read started in an older generation is
	// dropped.
	fillMu     sync.Mutex
	generation uint64
}

// Option customizes a Ranker.
type Option func(*Ranker)

// WithPercentageFunc replaces CosinePercentage.
func WithPercentageFunc(fn PercentageFunc) Option {
	return func(r *Ranker) { r.percentage = fn }
}

// WithFallbackFunc replaces the seeded random fallback.
func WithFallbackFunc(fn FallbackFunc) Option {
	return func(r *Ranker) { r.fallback = fn }
}

// NewRanker creates a Ranker reading edges from graph and feeds from index.
func NewRanker(cfg *config.FeedConfig, catalogCfg *config.CatalogConfig, graph EdgeReader, index func() *catalog.Index, logger zerolog.Logger, opts ...Option) *Ranker {
	r := &Ranker{
		graph:          graph,
		catalog:        index,
		logger:         logger.With().Str("component", "feed").Logger(),
		batch:          cfg.BatchLookups,
		requestTimeout: cfg.RequestTimeout,
		imageWidth:     catalogCfg.ImageWidth,
		imageHeight:    catalogCfg.ImageHeight,
		percentage:     CosinePercentage,
		fallback:       NewRandomFallback(cfg.FallbackSeed),
	}
	if cfg.CacheTTL > 0 {
		r.weights = cache.New[cacheKey, map[string]float64]("feed_edges", cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close stops the cache sweep.
func (r *Ranker) Close() {
	if r.weights != nil {
		r.weights.Close()
	}
}

// FeedIDs lists the configured feeds.
func (r *Ranker) FeedIDs() []models.FeedSummary {
	return r.catalog().Summaries()
}

// GetFeed returns the members of feedID, ranked against anchor when anchor
// is not empty. An unknown feed yields catalog.ErrFeedNotFound; a store
// failure is returned as is. Missing metadata or edges never fail the call.
func (r *Ranker) GetFeed(ctx context.Context, feedID, anchor string) (*models.Feed, error) {
	if r.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.requestTimeout)
		defer cancel()
	}

	key := catalog.NormalizeFeedID(feedID)
	if !validation.IsFeedID(key) {
		validation.ReportWarning(ctx, models.ValidationWarning{
			Kind:    models.WarningMalformedFeedID,
			Subject: feedID,
			Message: "feed id should contain only letters, digits and underscores",
		})
	}
	items, err := r.catalog().FeedItems(key)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FeedEntry, len(items))
	for i := range items {
		entries[i] = r.decorate(&items[i])
	}

	result := &models.Feed{
		FeedID: catalog.TitleCase(key),
		Key:    key,
		Items:  entries,
	}

	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		metrics.RecordFeedRequest(false, 0, 0, len(entries))
		return result, nil
	}
	result.Anchor = anchor

	weights, err := r.lookup(ctx, anchor, key, items)
	if err != nil {
		return nil, err
	}

	weighted, fallback := 0, 0
	for i := range entries {
		e := &entries[i]
		if w, ok := weights[e.ID]; ok {
			if warn := validation.WeightWarning(anchor, e.ID, w); warn != nil {
				validation.ReportWarning(ctx, *warn)
			}
			weight := w
			pct := r.percentage(w)
			e.Weight, e.Percentage = &weight, &pct
			weighted++
			continue
		}
		pct := r.fallback()
		e.Percentage = &pct
		fallback++
	}

	slices.SortStableFunc(entries, func(a, b models.FeedEntry) int {
		return cmp.Compare(sortWeight(b), sortWeight(a))
	})

	metrics.RecordFeedRequest(true, weighted, fallback, 0)
	return result, nil
}

// sortWeight treats a missing weight as -Inf so those entries sink.
func sortWeight(e models.FeedEntry) float64 {
	if e.Weight == nil {
		return math.Inf(-1)
	}
	return *e.Weight
}

func (r *Ranker) decorate(item *models.Item) models.FeedEntry {
	return models.FeedEntry{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Genre:       nonNil(item.Genre),
		Cast:        nonNil(item.Cast),
		Image:       catalog.SelectImage(item.Images, r.imageWidth, r.imageHeight),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// lookup returns anchor's edge weights to the feed members, from cache when
// possible.
func (r *Ranker) lookup(ctx context.Context, anchor, feedKey string, items []models.Item) (map[string]float64, error) {
	ck := cacheKey{anchor: anchor, feed: feedKey}
	var gen uint64
	if r.weights != nil {
		if w, ok := r.weights.Get(ck); ok {
			return w, nil
		}
		gen = r.currentGeneration()
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var weights map[string]float64
	if r.batch {
		var err error
		if weights, err = r.graph.GetEdges(ctx, anchor, ids); err != nil {
			return nil, err
		}
	} else {
		weights = make(map[string]float64, len(ids))
		for _, id := range ids {
			w, ok, err := r.graph.GetEdge(ctx, anchor, id)
			if err != nil {
				return nil, err
			}
			if ok {
				weights[id] = w
			}
		}
	}

	if r.weights != nil {
		r.fill(ck, weights, gen)
	}
	return weights, nil
}

func (r *Ranker) currentGeneration() uint64 {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	return r.generation
}

// fill caches weights unless an eviction ran since gen was read.
func (r *Ranker) fill(ck cacheKey, weights map[string]float64, gen uint64) {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	if r.generation != gen {
		return
	}
	r.weights.Set(ck, weights)
}

// HandleEvent evicts cached weights a graph change may have made stale. It
// has the events.Handler signature.
func (r *Ranker) HandleEvent(_ context.Context, ev *events.Event) error {
	if r.weights == nil {
		return nil
	}
	r.fillMu.Lock()
	r.generation++
	n := r.weights.DeleteFunc(func(k cacheKey, _ map[string]float64) bool {
		return ev.Touches(k.anchor)
	})
	r.fillMu.Unlock()
	if n > 0 {
		r.logger.Debug().
			Str("event_type", ev.Type).
			Int("evicted", n).
			Msg("Feed cache entries invalidated")
	}
	return nil
}

// InvalidateAll drops every cached weight, e.g. after a catalog reload.
func (r *Ranker) InvalidateAll() {
	if r.weights == nil {
		return
	}
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	r.generation++
	r.weights.Clear()
}
