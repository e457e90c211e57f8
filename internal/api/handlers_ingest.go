// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
)

// TriggerIngest handles POST /api/v1/ingest.
//
// Without "wait" the run starts in the background and the response is 202
// with the initial run record. With "wait" the handler blocks until the run
// ends. A second trigger while a run is active gets 409.
func (h *Handler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	opts := ingest.Options{
		WipeEdges:    h.ingestor.DefaultWipe(),
		RebuildItems: req.RebuildItems,
	}
	if req.WipeEdges != nil {
		opts.WipeEdges = *req.WipeEdges
	}

	logger := logging.Ctx(r.Context())

	if !req.Wait {
		run, err := h.ingestor.Start(r.Context(), opts)
		if err != nil {
			respondError(w, r, err)
			return
		}
		logger.Info().Str("run_id", run.ID).Bool("wipe_edges", opts.WipeEdges).Msg("Ingestion started")
		NewResponseWriter(w, r).Accepted(run)
		return
	}

	run, err := h.ingestor.Run(r.Context(), opts)
	switch {
	case err == nil:
		NewResponseWriter(w, r).Success(run)
	case run == nil || errors.Is(err, ingest.ErrIngestionInProgress):
		respondError(w, r, err)
	default:
		status, code := statusFor(err)
		logger.Error().Err(err).Str("run_id", run.ID).Msg("Awaited ingestion failed")
		NewResponseWriter(w, r).ErrorWithDetails(status, code, "Ingestion failed", run)
	}
}

// IngestStatus handles GET /api/v1/ingest/status.
func (h *Handler) IngestStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	running, run, err := h.ingestor.Status(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	edges, err := h.graph.CountEdges(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Success(models.IngestStatus{
		Running: running,
		LastRun: run,
		Edges:   edges,
	})
}
