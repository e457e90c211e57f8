// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package feed

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tomtom215/feedgraph/internal/models"
)

// Fallback percentages are whole numbers in this range.
const (
	FallbackMin = 1
	FallbackMax = 20
)

// PercentageFunc maps a stored edge weight to a display percentage.
type PercentageFunc func(weight float64) models.Percentage

// FallbackFunc produces the percentage shown when no edge exists.
type FallbackFunc func() models.Percentage

// CosinePercentage maps a cosine-like weight in [-1, 1] onto [20, 120]:
// ((w+1)/2)*100 + 20. A weight of -1 lands on 20, which a fallback score can
// also produce.
func CosinePercentage(weight float64) models.Percentage {
	return models.Percentage(((weight+1)/2)*100 + 20)
}

// NewRandomFallback returns a FallbackFunc drawing uniformly from
// [FallbackMin, FallbackMax]. A zero seed seeds from the clock.
func NewRandomFallback(seed int64) FallbackFunc {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)) //nolint:gosec // display jitter, not security

	return func() models.Percentage {
		mu.Lock()
		defer mu.Unlock()
		return models.Percentage(rng.IntN(FallbackMax-FallbackMin+1) + FallbackMin)
	}
}
