// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
	"github.com/tomtom215/feedgraph/internal/models"
)

// ErrInvalidWeight rejects NaN and infinite edge weights.
var ErrInvalidWeight = errors.New("edge weight must be a finite number")

// Weights outside this range are accepted and stored but reported.
const (
	MinWeight = -1.0
	MaxWeight = 1.0
)

// CheckWeight returns ErrInvalidWeight for NaN or infinite weights.
func CheckWeight(w float64) error {
	if !IsFinite(w) {
		return fmt.Errorf("%w: got %v", ErrInvalidWeight, w)
	}
	return nil
}

// WeightWarning returns a warning when w is outside [MinWeight, MaxWeight],
// or nil.
func WeightWarning(from, to string, w float64) *models.ValidationWarning {
	if w >= MinWeight && w <= MaxWeight {
		return nil
	}
	return &models.ValidationWarning{
		Kind:    models.WarningWeightOutOfRange,
		Subject: from + "->" + to,
		Message: fmt.Sprintf("weight %g outside [%g, %g]", w, MinWeight, MaxWeight),
	}
}

// ReportWarning logs w at warn level with the request's correlation ids and
// counts it. The caller carries on.
func ReportWarning(ctx context.Context, w models.ValidationWarning) {
	metrics.RecordValidationWarning(w.Kind)
	logging.Ctx(ctx).Warn().
		Str("kind", w.Kind).
		Str("subject", logging.SanitizeValue(w.Subject)).
		Msg(w.Message)
}
