// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

// Package scoring talks to item similarity scorers.
//
// A Scorer answers one question: how similar is each candidate item to a
// reference item. HTTPClient calls the external scoring service,
// CircuitBreaker protects any Scorer from a failing dependency and
// ContentScorer computes a content overlap score in process when no service
// is configured.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/idmap"
)

// ErrUnknownReference is returned when the reference item cannot be scored.
var ErrUnknownReference = errors.New("reference item not known to scorer")

// Request asks for the similarity of every candidate to ReferenceItem.
type Request struct {
	ReferenceItem  string
	CandidateItems []string
}

// Response maps candidate ids to scores. Candidates the scorer knows nothing
// about may be missing or scored 0.
type Response struct {
	Scores map[string]float64
}

// Scorer scores candidates against a reference item.
type Scorer interface {
	Score(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function to Scorer.
type Func func(ctx context.Context, req Request) (*Response, error)

// Score implements Scorer.
func (f Func) Score(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// New builds the scorer described by cfg: the HTTP client when a URL is set,
// otherwise the content scorer over the live catalog. The breaker wraps
// either when enabled. mapper translates catalog ids into the service's id
// namespace and may be nil.
func New(cfg *config.ScorerConfig, holder *catalog.Holder, mapper idmap.Mapper) (Scorer, error) {
	var s Scorer
	name := "content"
	if cfg.URL != "" {
		client, err := NewHTTPClient(cfg, mapper)
		if err != nil {
			return nil, fmt.Errorf("create scorer client: %w", err)
		}
		s, name = client, "http"
	} else {
		s = NewContentScorer(holder.Current)
	}

	if cfg.BreakerEnabled {
		s = NewCircuitBreaker(s, "scorer-"+name, cfg)
	}
	return s, nil
}
