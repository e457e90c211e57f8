// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

func edgeParams(r *http.Request) (from, to string) {
	return chi.URLParam(r, "from"), chi.URLParam(r, "to")
}

// GetEdge handles GET /api/v1/edges/{from}/{to}.
func (h *Handler) GetEdge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	from, to := edgeParams(r)
	edge, err := h.graph.GetEdgeRecord(ctx, from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(edge)
}

// PutEdge handles PUT /api/v1/edges/{from}/{to}: create or overwrite.
func (h *Handler) PutEdge(w http.ResponseWriter, r *http.Request) {
	h.writeEdge(w, r, h.graph.UpsertEdge)
}

// PatchEdge handles PATCH /api/v1/edges/{from}/{to}: update an existing
// edge only.
func (h *Handler) PatchEdge(w http.ResponseWriter, r *http.Request) {
	h.writeEdge(w, r, h.graph.UpdateEdge)
}

func (h *Handler) writeEdge(w http.ResponseWriter, r *http.Request, write func(ctx context.Context, from, to string, weight float64) (*models.Edge, error)) {
	var req models.EdgeWeightRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	from, to := edgeParams(r)
	edge, err := write(ctx, from, to, *req.Weight)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := map[string]interface{}{"edge": edge}
	if warn := validation.WeightWarning(from, to, *req.Weight); warn != nil {
		resp["warning"] = warn.Error()
	}
	NewResponseWriter(w, r).Success(resp)
}

// DeleteEdge handles DELETE /api/v1/edges/{from}/{to}.
func (h *Handler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	from, to := edgeParams(r)
	deleted, err := h.graph.DeleteEdge(ctx, from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !deleted {
		NewResponseWriter(w, r).NotFound("Edge not found")
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// DeleteAllEdges handles DELETE /api/v1/edges.
func (h *Handler) DeleteAllEdges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	n, err := h.graph.DeleteAllEdges(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Warn().Int64("edges", n).Msg("All edges deleted")
	NewResponseWriter(w, r).Success(models.DeleteResult{Deleted: n > 0, Count: n})
}

// TopRankings handles GET /api/v1/rankings/top.
func (h *Handler) TopRankings(w http.ResponseWriter, r *http.Request) {
	req := TopRankingsRequest{Limit: getIntParam(r, "limit", defaultTopLimit)}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	top, err := h.graph.TopAggregate(ctx, req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(top, &PaginationMeta{
		Count: len(top),
		Limit: req.Limit,
	})
}
