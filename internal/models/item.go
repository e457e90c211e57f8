// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package models

import (
	"strings"
	"time"
)

// Item is a catalog entry. The core only reads items.
type Item struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Year        int            `json:"year,omitempty"`
	Genre       []string       `json:"genre"`
	Cast        []string       `json:"cast"`
	Images      []ImageVariant `json:"images,omitempty"`
}

// ImageVariant is one resolution of an item image.
type ImageVariant struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// GraphItem is an item node as stored in the affinity graph.
type GraphItem struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}

// GraphGenre flattens catalog genres into the stored form: genres joined with
// "|", with commas inside a genre name replaced by ":".
func GraphGenre(genres []string) string {
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		parts = append(parts, strings.ReplaceAll(g, ",", ":"))
	}
	return strings.Join(parts, "|")
}

// NewGraphItem builds the graph node for a catalog item.
func NewGraphItem(item *Item) GraphItem {
	return GraphItem{
		ID:    item.ID,
		Year:  item.Year,
		Genre: GraphGenre(item.Genre),
	}
}

// CreateItemRequest creates a graph node directly (administrative surface).
type CreateItemRequest struct {
	ID    string `json:"id" validate:"required,max=256"`
	Year  int    `json:"year" validate:"gte=0,lte=9999"`
	Genre string `json:"genre" validate:"max=1024"`
}

// UpdateItemRequest patches a graph node. Nil fields are left unchanged.
type UpdateItemRequest struct {
	Year  *int    `json:"year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Genre *string `json:"genre,omitempty" validate:"omitempty,max=1024"`
}

// Empty reports whether the patch changes nothing.
func (r *UpdateItemRequest) Empty() bool {
	return r.Year == nil && r.Genre == nil
}
