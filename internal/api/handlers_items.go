// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

// ListItems handles GET /api/v1/items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	req := ListItemsRequest{
		Limit:  getIntParam(r, "limit", defaultItemsLimit),
		Offset: getIntParam(r, "offset", 0),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	items, err := h.graph.ListItems(ctx, req.Limit, req.Offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := h.graph.CountItems(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(items, &PaginationMeta{
		Total:   total,
		Count:   len(items),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: int64(req.Offset+len(items)) < total,
	})
}

// CreateItem handles POST /api/v1/items. Creating an existing id is not an
// error: the stored node is returned with 200 instead of 201.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	item, created, err := h.graph.EnsureItem(ctx, models.GraphItem{
		ID:    req.ID,
		Year:  req.Year,
		Genre: req.Genre,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if created {
		NewResponseWriter(w, r).Created(item)
		return
	}
	NewResponseWriter(w, r).Success(item)
}

// GetItem handles GET /api/v1/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	item, err := h.graph.GetItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(item)
}

// UpdateItem handles PATCH /api/v1/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if req.Empty() {
		NewResponseWriter(w, r).BadRequest("Nothing to update")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	item, err := h.graph.UpdateItem(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(item)
}

// DeleteItem handles DELETE /api/v1/items/{id}. The item's edges go with it.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	deleted, err := h.graph.DeleteItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !deleted {
		NewResponseWriter(w, r).NotFound("Item not found")
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// ListOutgoing handles GET /api/v1/items/{id}/outgoing.
func (h *Handler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	h.listNeighbors(w, r, h.graph.ListOutgoing)
}

// ListIncoming handles GET /api/v1/items/{id}/incoming.
func (h *Handler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.listNeighbors(w, r, h.graph.ListIncoming)
}

func (h *Handler) listNeighbors(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, id string) ([]models.Neighbor, error)) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	neighbors, err := list(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(neighbors, &PaginationMeta{
		Total: int64(len(neighbors)),
		Count: len(neighbors),
	})
}
