// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package models

import "time"

// Edge is a directed affinity from one item to another. At most one edge
// exists per ordered pair.
type Edge struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Weight    float64   `json:"weight"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Neighbor is the far endpoint of an edge returned by ListOutgoing or
// ListIncoming.
type Neighbor struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// AggregateRating is the mean of all incoming edge weights of one item.
type AggregateRating struct {
	ItemID     string  `json:"item_id"`
	MeanWeight float64 `json:"mean_weight"`
	Count      int64   `json:"count"`
}

// EdgeWeightRequest is the body of PUT and PATCH on an edge.
type EdgeWeightRequest struct {
	Weight *float64 `json:"weight" validate:"required,finite"`
}

// DeleteResult reports whether a delete removed anything.
type DeleteResult struct {
	Deleted bool  `json:"deleted"`
	Count   int64 `json:"count,omitempty"`
}
