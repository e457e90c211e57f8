// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
)

// anchorParam reads the anchor, accepting the lastWatchedItem alias.
func anchorParam(r *http.Request) string {
	q := r.URL.Query()
	if a := q.Get("anchor"); a != "" {
		return a
	}
	return q.Get("lastWatchedItem")
}

// ListFeeds handles GET /api/v1/feeds.
func (h *Handler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds := h.feeds.FeedIDs()
	NewResponseWriter(w, r).SuccessWithPagination(feeds, &PaginationMeta{
		Total: int64(len(feeds)),
		Count: len(feeds),
	})
}

// GetFeed handles GET /api/v1/feeds/{feedID}.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	result, ok := h.rankFeed(w, r, respondError)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// GetFeedLegacy handles GET /feed/{feedID}. It returns the bare feed
// document, and a bare error object on failure.
func (h *Handler) GetFeedLegacy(w http.ResponseWriter, r *http.Request) {
	result, ok := h.rankFeed(w, r, func(w http.ResponseWriter, r *http.Request, err error) {
		status, code := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Legacy feed request failed")
			msg = http.StatusText(status)
		}
		writeRaw(w, r, status, APIError{Code: code, Message: msg})
	})
	if !ok {
		return
	}
	writeRaw(w, r, http.StatusOK, result)
}

func (h *Handler) rankFeed(w http.ResponseWriter, r *http.Request, onErr func(http.ResponseWriter, *http.Request, error)) (*models.Feed, bool) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	feedID := chi.URLParam(r, "feedID")
	anchor := anchorParam(r)

	result, err := h.feeds.GetFeed(ctx, feedID, anchor)
	if err != nil {
		onErr(w, r, err)
		return nil, false
	}

	logging.Ctx(r.Context()).Debug().
		Str("feed", result.Key).
		Str("anchor", anchor).
		Int("items", len(result.Items)).
		Msg("Feed served")
	return result, true
}
