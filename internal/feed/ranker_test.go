// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package feed

import (
	"context"
	"errors"
	"io"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/events"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
	"github.com/tomtom215/feedgraph/internal/models"
)

// fakeEdges serves weights from a map keyed by "from|to" and counts calls.
type fakeEdges struct {
	mu         sync.Mutex
	weights    map[string]float64
	err        error
	batchCalls int
	singleCall int
}

func (f *fakeEdges) GetEdge(_ context.Context, from, to string) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCall++
	if f.err != nil {
		return 0, false, f.err
	}
	w, ok := f.weights[from+"|"+to]
	return w, ok, nil
}

func (f *fakeEdges) GetEdges(_ context.Context, from string, targets []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, t := range targets {
		if w, ok := f.weights[from+"|"+t]; ok {
			out[t] = w
		}
	}
	return out, nil
}

func (f *fakeEdges) calls() (batch, single int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls, f.singleCall
}

// gatedEdges holds its first batched read open until release is closed,
// after the result has been read.
type gatedEdges struct {
	*fakeEdges
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedEdges) GetEdges(ctx context.Context, from string, targets []string) (map[string]float64, error) {
	w, err := g.fakeEdges.GetEdges(ctx, from, targets)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return w, err
}

func testCatalog() func() *catalog.Index {
	items := []models.Item{
		{ID: "m1", Title: "First", Genre: []string{"Drama"}, Images: []models.ImageVariant{
			{Width: 1280, Height: 720, URL: "https://img/m1-720.jpg"},
			{Width: 640, Height: 360, URL: "https://img/m1-360.jpg"},
		}},
		{ID: "m2", Title: "Second", Cast: []string{"A. Actor"}},
		{ID: "m3", Title: "Third"},
		{ID: "m4", Title: "Fourth"},
		{ID: "m5", Title: "Outside the feed"},
	}
	// Membership order differs from catalog order on purpose.
	feeds := map[string][]string{
		"TRENDING_MOVIES": {"m4", "m3", "m2", "m1", "ghost"},
	}
	idx := catalog.NewIndex(items, feeds)
	return func() *catalog.Index { return idx }
}

func newTestRanker(edges EdgeReader, cfg config.FeedConfig, opts ...Option) *Ranker {
	r := NewRanker(&cfg, &config.CatalogConfig{ImageWidth: 640, ImageHeight: 360}, edges, testCatalog(),
		logging.NewTestLogger(io.Discard), opts...)
	return r
}

func entryIDs(f *models.Feed) []string {
	ids := make([]string, len(f.Items))
	for i, e := range f.Items {
		ids[i] = e.ID
	}
	return ids
}

func TestGetFeedWithoutAnchor(t *testing.T) {
	t.Parallel()

	edges := &fakeEdges{}
	r := newTestRanker(edges, config.FeedConfig{BatchLookups: true})
	defer r.Close()

	f, err := r.GetFeed(context.Background(), "trending_movies", "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	if f.FeedID != "Trending Movies" || f.Key != "TRENDING_MOVIES" {
		t.Errorf("FeedID/Key = %q/%q", f.FeedID, f.Key)
	}
	if got := entryIDs(f); !slices.Equal(got, []string{"m1", "m2", "m3", "m4"}) {
		t.Errorf("order = %v, want catalog order without the missing member", got)
	}
	for _, e := range f.Items {
		if e.Weight != nil || e.Percentage != nil {
			t.Errorf("%s: weight/percentage set without anchor", e.ID)
		}
	}
	if f.Items[0].Image != "https://img/m1-360.jpg" {
		t.Errorf("image = %q, want the 640x360 variant", f.Items[0].Image)
	}
	if f.Items[1].Image != "" {
		t.Errorf("item without variants got image %q", f.Items[1].Image)
	}
	if f.Items[2].Genre == nil || f.Items[2].Cast == nil {
		t.Error("nil genre/cast should render as empty lists")
	}
	if b, s := edges.calls(); b+s != 0 {
		t.Error("store queried without an anchor")
	}
}

func TestGetFeedRanksAgainstAnchor(t *testing.T) {
	t.Parallel()

	edges := &fakeEdges{weights: map[string]float64{
		"x|m2": 0.5,
		"x|m4": 1.0,
		"x|m1": -1.0,
	}}
	fallbacks := 0
	r := newTestRanker(edges, config.FeedConfig{BatchLookups: true},
		WithFallbackFunc(func() models.Percentage { fallbacks++; return 7 }))
	defer r.Close()

	f, err := r.GetFeed(context.Background(), "TRENDING_MOVIES", "x")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	if got := entryIDs(f); !slices.Equal(got, []string{"m4", "m2", "m1", "m3"}) {
		t.Errorf("order = %v, want [m4 m2 m1 m3]", got)
	}
	wantPct := map[string]models.Percentage{"m4": 120, "m2": 95, "m1": 20, "m3": 7}
	for _, e := range f.Items {
		if e.Percentage == nil || *e.Percentage != wantPct[e.ID] {
			t.Errorf("%s percentage = %v, want %v", e.ID, e.Percentage, wantPct[e.ID])
		}
	}
	if f.Items[3].Weight != nil {
		t.Error("fallback entry must not carry a weight")
	}
	if fallbacks != 1 {
		t.Errorf("fallback called %d times, want 1", fallbacks)
	}
	if f.Anchor != "x" {
		t.Errorf("Anchor = %q", f.Anchor)
	}
}

func TestMissingWeightsKeepCatalogOrder(t *testing.T) {
	t.Parallel()

	r := newTestRanker(&fakeEdges{}, config.FeedConfig{BatchLookups: true})
	defer r.Close()

	f, err := r.GetFeed(context.Background(), "TRENDING_MOVIES", "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got := entryIDs(f); !slices.Equal(got, []string{"m1", "m2", "m3", "m4"}) {
		t.Errorf("order = %v, want stable catalog order", got)
	}
	for _, e := range f.Items {
		if e.Percentage == nil || *e.Percentage < FallbackMin || *e.Percentage > FallbackMax {
			t.Errorf("%s fallback percentage = %v, want within [1, 20]", e.ID, e.Percentage)
		}
	}
}

func TestBatchAndPerItemLookupsAgree(t *testing.T) {
	t.Parallel()

	weights := map[string]float64{"x|m1": 0.2, "x|m3": 0.9}
	fixed := WithFallbackFunc(func() models.Percentage { return 1 })

	batchEdges := &fakeEdges{weights: weights}
	batch := newTestRanker(batchEdges, config.FeedConfig{BatchLookups: true}, fixed)
	defer batch.Close()
	singleEdges := &fakeEdges{weights: weights}
	single := newTestRanker(singleEdges, config.FeedConfig{BatchLookups: false}, fixed)
	defer single.Close()

	a, err := batch.GetFeed(context.Background(), "TRENDING_MOVIES", "x")
	if err != nil {
		t.Fatal(err)
	}
	b, err := single.GetFeed(context.Background(), "TRENDING_MOVIES", "x")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(entryIDs(a), entryIDs(b)) {
		t.Errorf("batch order %v != per-item order %v", entryIDs(a), entryIDs(b))
	}
	if bc, sc := batchEdges.calls(); bc != 1 || sc != 0 {
		t.Errorf("batch ranker calls = %d batch, %d single; want 1, 0", bc, sc)
	}
	if bc, sc := singleEdges.calls(); bc != 0 || sc != 4 {
		t.Errorf("per-item ranker calls = %d batch, %d single; want 0, 4", bc, sc)
	}
}

func TestGetFeedErrors(t *testing.T) {
	t.Parallel()

	storeDown := errors.Join(models.ErrStoreUnavailable, errors.New("connection refused"))
	r := newTestRanker(&fakeEdges{err: storeDown}, config.FeedConfig{BatchLookups: true})
	defer r.Close()

	if _, err := r.GetFeed(context.Background(), "NO_SUCH_FEED", ""); !errors.Is(err, catalog.ErrFeedNotFound) {
		t.Errorf("unknown feed error = %v, want ErrFeedNotFound", err)
	}
	if _, err := r.GetFeed(context.Background(), "TRENDING_MOVIES", "x"); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("store failure error = %v, want ErrStoreUnavailable", err)
	}
	// The unanchored path never touches the store.
	if _, err := r.GetFeed(context.Background(), "TRENDING_MOVIES", ""); err != nil {
		t.Errorf("unanchored feed with store down: %v", err)
	}
}

func TestOutOfRangeWeightWarns(t *testing.T) {
	t.Parallel()

	counter := metrics.ValidationWarnings.WithLabelValues(models.WarningWeightOutOfRange)
	before := testutil.ToFloat64(counter)

	r := newTestRanker(&fakeEdges{weights: map[string]float64{"x|m2": 3}}, config.FeedConfig{BatchLookups: true})
	defer r.Close()

	f, err := r.GetFeed(context.Background(), "TRENDING_MOVIES", "x")
	if err != nil {
		t.Fatalf("out-of-range weight must not fail the feed: %v", err)
	}
	if f.Items[0].ID != "m2" || *f.Items[0].Percentage != 220 {
		t.Errorf("first entry = %s at %v, want m2 at 220", f.Items[0].ID, *f.Items[0].Percentage)
	}
	if after := testutil.ToFloat64(counter); after < before+1 {
		t.Errorf("warning counter = %v, want >= %v", after, before+1)
	}
}

func TestMalformedFeedIDWarns(t *testing.T) {
	t.Parallel()

	counter := metrics.ValidationWarnings.WithLabelValues(models.WarningMalformedFeedID)
	before := testutil.ToFloat64(counter)

	r := newTestRanker(&fakeEdges{}, config.FeedConfig{BatchLookups: true})
	defer r.Close()

	if _, err := r.GetFeed(context.Background(), "trending-movies", ""); !errors.Is(err, catalog.ErrFeedNotFound) {
		t.Errorf("malformed feed id error = %v, want ErrFeedNotFound", err)
	}
	if after := testutil.ToFloat64(counter); after < before+1 {
		t.Errorf("warning counter = %v, want >= %v", after, before+1)
	}
}

func TestWeightCacheInvalidation(t *testing.T) {
	t.Parallel()

	edges := &fakeEdges{weights: map[string]float64{"x|m1": 0.1}}
	r := newTestRanker(edges, config.FeedConfig{BatchLookups: true, CacheTTL: time.Minute})
	defer r.Close()
	ctx := context.Background()

	get := func() *models.Feed {
		t.Helper()
		f, err := r.GetFeed(ctx, "TRENDING_MOVIES", "x")
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	get()
	get()
	if b, _ := edges.calls(); b != 1 {
		t.Fatalf("store calls = %d after two identical requests, want 1", b)
	}

	// An edge change from another anchor leaves the entry alone.
	_ = r.HandleEvent(ctx, &events.Event{Type: events.TypeEdgeUpserted, From: "y", To: "m1"})
	get()
	if b, _ := edges.calls(); b != 1 {
		t.Errorf("unrelated event evicted the entry: %d store calls", b)
	}

	edges.mu.Lock()
	edges.weights["x|m2"] = 0.8
	edges.mu.Unlock()
	_ = r.HandleEvent(ctx, &events.Event{Type: events.TypeEdgeUpserted, From: "x", To: "m2"})

	f := get()
	if b, _ := edges.calls(); b != 2 {
		t.Errorf("store calls = %d after invalidation, want 2", b)
	}
	if f.Items[0].ID != "m2" {
		t.Errorf("stale ranking served: first = %s", f.Items[0].ID)
	}

	_ = r.HandleEvent(ctx, &events.Event{Type: events.TypeEdgesCleared})
	get()
	if b, _ := edges.calls(); b != 3 {
		t.Errorf("store calls = %d after edges.cleared, want 3", b)
	}

	r.InvalidateAll()
	get()
	if b, _ := edges.calls(); b != 4 {
		t.Errorf("store calls = %d after InvalidateAll, want 4", b)
	}
}

func TestLookupOverlappingEvictionIsNotCached(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		evict func(r *Ranker)
	}{
		{"edge event", func(r *Ranker) {
			ev := events.EdgeUpserted("x", "m2", 0.9)
			_ = r.HandleEvent(context.Background(), &ev)
		}},
		{"invalidate all", func(r *Ranker) { r.InvalidateAll() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			edges := &gatedEdges{
				fakeEdges: &fakeEdges{weights: map[string]float64{"x|m2": 0.1}},
				entered:   make(chan struct{}),
				release:   make(chan struct{}),
			}
			r := newTestRanker(edges, config.FeedConfig{BatchLookups: true, CacheTTL: time.Minute})
			defer r.Close()
			ctx := context.Background()

			done := make(chan error, 1)
			go func() {
				_, err := r.GetFeed(ctx, "TRENDING_MOVIES", "x")
				done <- err
			}()

			<-edges.entered
			edges.mu.Lock()
			edges.weights["x|m2"] = 0.9
			edges.mu.Unlock()
			tt.evict(r)
			close(edges.release)
			if err := <-done; err != nil {
				t.Fatalf("GetFeed() error = %v", err)
			}

			f, err := r.GetFeed(ctx, "TRENDING_MOVIES", "x")
			if err != nil {
				t.Fatalf("GetFeed() error = %v", err)
			}
			if f.Items[0].ID != "m2" || f.Items[0].Weight == nil || *f.Items[0].Weight != 0.9 {
				t.Errorf("first entry = %+v, want m2 with weight 0.9", f.Items[0])
			}

			// The fresh read is cacheable again.
			_, _ = r.GetFeed(ctx, "TRENDING_MOVIES", "x")
			if b, _ := edges.calls(); b != 2 {
				t.Errorf("store calls = %d, want 2", b)
			}
		})
	}
}

func TestCosinePercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		weight float64
		want   models.Percentage
	}{
		{1.0, 120},
		{-1.0, 20},
		{0, 70},
		{0.5, 95},
	}
	for _, tt := range tests {
		if got := CosinePercentage(tt.weight); math.Abs(float64(got-tt.want)) > 1e-9 {
			t.Errorf("CosinePercentage(%v) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestRandomFallbackRange(t *testing.T) {
	t.Parallel()

	fn := NewRandomFallback(42)
	seen := make(map[models.Percentage]bool)
	for i := 0; i < 2000; i++ {
		p := fn()
		if p < FallbackMin || p > FallbackMax || p != models.Percentage(math.Trunc(float64(p))) {
			t.Fatalf("fallback %v outside integer range [1, 20]", p)
		}
		seen[p] = true
	}
	if len(seen) != FallbackMax-FallbackMin+1 {
		t.Errorf("saw %d distinct values in 2000 draws, want all 20", len(seen))
	}

	a, b := NewRandomFallback(7), NewRandomFallback(7)
	for i := 0; i < 10; i++ {
		if a() != b() {
			t.Fatal("equal seeds produced different sequences")
		}
	}
}
