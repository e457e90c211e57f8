// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a referenced item, edge or feed that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks a failure to reach the persistence layer.
	// The core never retries it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Validation warning kinds.
const (
	WarningWeightOutOfRange = "weight_out_of_range"
	WarningMalformedFeedID  = "malformed_feed_id"
	WarningIDCollision      = "id_collision"
)

// ValidationWarning is a non-fatal anomaly. The operation that raised it
// proceeds; the warning is logged and counted.
type ValidationWarning struct {
	Kind    string
	Subject string
	Message string
}

func (w ValidationWarning) Error() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s (%s): %s", w.Kind, w.Subject, w.Message)
}
