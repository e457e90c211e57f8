// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

// ListItemsRequest holds the validated query of GET /items.
type ListItemsRequest struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0,max=1000000"`
}

// TopRankingsRequest holds the validated query of GET /rankings/top.
type TopRankingsRequest struct {
	Limit int `validate:"min=1,max=1000"`
}

// Defaults for list endpoints.
const (
	defaultItemsLimit = 100
	defaultTopLimit   = 10
)
