// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/tomtom215/feedgraph/internal/catalog"
	"github.com/tomtom215/feedgraph/internal/metrics"
	"github.com/tomtom215/feedgraph/internal/models"
)

// Feature weights of the content score.
const (
	TitleWeight       = 1.2
	DescriptionWeight = 0.8
	CastWeight        = 1.6
	GenreWeight       = 0.7
)

const totalWeight = TitleWeight + DescriptionWeight + CastWeight + GenreWeight

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "her": {}, "his": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "she": {}, "that": {}, "the": {},
	"their": {}, "they": {}, "this": {}, "to": {}, "was": {}, "were": {}, "who": {},
	"will": {}, "with": {},
}

// features are the token sets compared between two items.
type features struct {
	title       map[string]struct{}
	description map[string]struct{}
	cast        map[string]struct{}
	genre       map[string]struct{}
}

func extract(item *models.Item) features {
	return features{
		title:       tokenSet(item.Title),
		description: tokenSet(item.Description),
		cast:        valueSet(item.Cast),
		genre:       valueSet(item.Genre),
	}
}

// ContentScorer scores candidates by weighted Jaccard overlap of title and
// description tokens, cast and genres against the reference item. Scores are
// in [0, 1]; identical content scores 1 and unknown candidates score 0.
type ContentScorer struct {
	index func() *catalog.Index
}

// NewContentScorer creates a scorer reading items from index.
func NewContentScorer(index func() *catalog.Index) *ContentScorer {
	return &ContentScorer{index: index}
}

// Score implements Scorer.
func (s *ContentScorer) Score(ctx context.Context, req Request) (_ *Response, err error) {
	start := time.Now()
	defer func() { metrics.RecordScorerRequest("content", time.Since(start), err) }()

	idx := s.index()
	ref, ok := idx.Item(req.ReferenceItem)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, req.ReferenceItem)
	}
	refFeatures := extract(ref)

	resp := &Response{Scores: make(map[string]float64, len(req.CandidateItems))}
	for i, id := range req.CandidateItems {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cand, ok := idx.Item(id)
		if !ok {
			resp.Scores[id] = 0
			continue
		}
		resp.Scores[id] = similarity(refFeatures, extract(cand))
	}
	return resp, nil
}

// similarity is the weighted Jaccard score of two feature sets.
func similarity(a, b features) float64 {
	score := TitleWeight*jaccard(a.title, b.title) +
		DescriptionWeight*jaccard(a.description, b.description) +
		CastWeight*jaccard(a.cast, b.cast) +
		GenreWeight*jaccard(a.genre, b.genre)
	return score / totalWeight
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
