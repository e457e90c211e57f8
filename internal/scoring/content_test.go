// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/models"
)

func testIndex() *catalog.Index {
	return catalog.NewIndex([]models.Item{
		{ID: "heist", Title: "The Heist", Description: "A crew plans one last bank job.", Cast: []string{"Ana Lima", "Bo Chen"}, Genre: []string{"Crime", "Drama"}},
		{ID: "heist2", Title: "The Heist Returns", Description: "The crew plans another bank job.", Cast: []string{"Ana Lima"}, Genre: []string{"Crime"}},
		{ID: "harbor", Title: "Quiet Harbor", Description: "Fishermen keep secrets.", Cast: []string{"Cy Diaz"}, Genre: []string{"Romance"}},
		{ID: "clone", Title: "The Heist", Description: "A crew plans one last bank job.", Cast: []string{"Ana Lima", "Bo Chen"}, Genre: []string{"Crime", "Drama"}},
		{ID: "empty"},
	}, nil)
}

func TestContentScorer(t *testing.T) {
	t.Parallel()

	idx := testIndex()
	s := NewContentScorer(func() *catalog.Index { return idx })

	resp, err := s.Score(context.Background(), Request{
		ReferenceItem:  "heist",
		CandidateItems: []string{"heist2", "harbor", "clone", "empty", "ghost"},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if got := resp.Scores["clone"]; math.Abs(got-1) > 1e-9 {
		t.Errorf("identical content = %v, want 1", got)
	}
	if got := resp.Scores["harbor"]; got != 0 {
		t.Errorf("disjoint content = %v, want 0", got)
	}
	if got := resp.Scores["empty"]; got != 0 {
		t.Errorf("empty item = %v, want 0", got)
	}
	if got, ok := resp.Scores["ghost"]; !ok || got != 0 {
		t.Errorf("unknown candidate = %v, %v; want explicit 0", got, ok)
	}
	related := resp.Scores["heist2"]
	if related <= 0 || related >= 1 {
		t.Errorf("related content = %v, want in (0,1)", related)
	}
}

func TestContentScorerUnknownReference(t *testing.T) {
	t.Parallel()

	idx := testIndex()
	s := NewContentScorer(func() *catalog.Index { return idx })
	if _, err := s.Score(context.Background(), Request{ReferenceItem: "ghost"}); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("Score() err = %v, want ErrUnknownReference", err)
	}
}

func TestTokenSet(t *testing.T) {
	t.Parallel()

	set := tokenSet("The Heist: a CREW's plan, in 2 parts!")
	for _, want := range []string{"heist", "crew", "plan", "parts"} {
		if _, ok := set[want]; !ok {
			t.Errorf("tokenSet missing %q: %v", want, set)
		}
	}
	for _, stop := range []string{"the", "a", "in", "2", "s"} {
		if _, ok := set[stop]; ok {
			t.Errorf("tokenSet kept %q", stop)
		}
	}
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	a := valueSet([]string{"x", "y", "z"})
	b := valueSet([]string{" Y ", "z", "w"})
	if got := jaccard(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("jaccard = %v, want 0.5", got)
	}
	if got := jaccard(a, nil); got != 0 {
		t.Errorf("jaccard with empty = %v", got)
	}
}

func TestNewSelectsScorer(t *testing.T) {
	t.Parallel()

	holder := catalog.NewHolder(testIndex(), "", "")

	s, err := New(&config.ScorerConfig{}, holder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*ContentScorer); !ok {
		t.Errorf("no URL: got %T, want *ContentScorer", s)
	}

	s, err = New(&config.ScorerConfig{URL: "http://scorer:8000", BreakerEnabled: true}, holder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*CircuitBreaker); !ok {
		t.Errorf("URL with breaker: got %T, want *CircuitBreaker", s)
	}
}
