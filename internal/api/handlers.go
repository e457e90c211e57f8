// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/middleware"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// GraphService is the edge store as the handlers use it.
type GraphService interface {
	Ping(ctx context.Context) error

	EnsureItem(ctx context.Context, item models.GraphItem) (*models.GraphItem, bool, error)
	GetItem(ctx context.Context, id string) (*models.GraphItem, error)
	ListItems(ctx context.Context, limit, offset int) ([]models.GraphItem, error)
	UpdateItem(ctx context.Context, id string, patch models.UpdateItemRequest) (*models.GraphItem, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	CountItems(ctx context.Context) (int64, error)

	UpsertEdge(ctx context.Context, from, to string, weight float64) (*models.Edge, error)
	UpdateEdge(ctx context.Context, from, to string, weight float64) (*models.Edge, error)
	GetEdgeRecord(ctx context.Context, from, to string) (*models.Edge, error)
	DeleteEdge(ctx context.Context, from, to string) (bool, error)
	DeleteAllEdges(ctx context.Context) (int64, error)
	CountEdges(ctx context.Context) (int64, error)

	ListOutgoing(ctx context.Context, from string) ([]models.Neighbor, error)
	ListIncoming(ctx context.Context, to string) ([]models.Neighbor, error)
	TopAggregate(ctx context.Context, limit int) ([]models.AggregateRating, error)
}

// FeedService ranks feeds.
type FeedService interface {
	FeedIDs() []models.FeedSummary
	GetFeed(ctx context.Context, feedID, anchor string) (*models.Feed, error)
}

// IngestService triggers and reports similarity ingestion.
type IngestService interface {
	DefaultWipe() bool
	Run(ctx context.Context, opts ingest.Options) (*models.IngestionRun, error)
	Start(ctx context.Context, opts ingest.Options) (*models.IngestionRun, error)
	Status(ctx context.Context) (bool, *models.IngestionRun, error)
}

// Handler serves the HTTP API.
type Handler struct {
	graph     GraphService
	feeds     FeedService
	ingestor  IngestService
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
	timeout   time.Duration
}

// NewHandler creates a Handler. perfMon may be nil; timeout <= 0 leaves
// request contexts unbounded.
func NewHandler(graph GraphService, feeds FeedService, ingestor IngestService, perfMon *middleware.PerformanceMonitor, timeout time.Duration) *Handler {
	return &Handler{
		graph:     graph,
		feeds:     feeds,
		ingestor:  ingestor,
		perfMon:   perfMon,
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// requestContext applies the configured request timeout.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// decodeBody reads a JSON body into v and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	if !(allowEmpty && (r.Body == nil || r.ContentLength == 0)) {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
			NewResponseWriter(w, r).BadRequest("Invalid JSON body: " + err.Error())
			return false
		}
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		respondValidation(w, r, verr)
		return false
	}
	return true
}

// getIntParam parses a query parameter, falling back to defaultValue when
// absent or malformed.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
