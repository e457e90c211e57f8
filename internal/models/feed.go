// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package models

import "strconv"

// Percentage is a display score. It always serializes with two decimals.
type Percentage float64

// MarshalJSON implements json.Marshaler.
func (p Percentage) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(p), 'f', 2, 64), nil
}

// FeedEntry is one ranked, decorated member of a feed. Weight and Percentage
// are present only when the feed was ranked against an anchor; Weight is nil
// when no edge connects the anchor to the item.
type FeedEntry struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Genre       []string    `json:"genre"`
	Cast        []string    `json:"cast"`
	Image       string      `json:"image,omitempty"`
	Weight      *float64    `json:"weight,omitempty"`
	Percentage  *Percentage `json:"percentage,omitempty"`
}

// Feed is the result of ranking a feed.
type Feed struct {
	FeedID string      `json:"feedId"`
	Key    string      `json:"key"`
	Anchor string      `json:"anchor,omitempty"`
	Items  []FeedEntry `json:"items"`
}

// FeedSummary describes one configured feed.
type FeedSummary struct {
	Key     string `json:"key"`
	FeedID  string `json:"feedId"`
	Members int    `json:"members"`
}
