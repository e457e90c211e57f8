// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/feedgraph/internal/models"
)

var (
	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedgraph_store_query_duration_seconds",
			Help:    "Duration of edge store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_store_query_errors_total",
			Help: "Total number of edge store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedgraph_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedgraph_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Ingestion Metrics
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_ingest_runs_total",
			Help: "Total number of similarity ingestion runs by outcome",
		},
		[]string{"status"}, // completed, failed, rejected
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedgraph_ingest_duration_seconds",
			Help:    "Duration of similarity ingestion runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	IngestEdgesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedgraph_ingest_edges_written_total",
			Help: "Total number of edges written by ingestion",
		},
	)

	IngestItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedgraph_ingest_items_skipped_total",
			Help: "Total number of catalog items skipped because their node could not be created",
		},
	)

	IngestZeroScores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedgraph_ingest_zero_scores_total",
			Help: "Total number of zero similarity scores skipped by ingestion",
		},
	)

	IngestRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedgraph_ingest_running",
			Help: "1 while an ingestion run is in progress",
		},
	)

	IngestLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedgraph_ingest_last_success_timestamp",
			Help: "Unix timestamp of the last completed ingestion run",
		},
	)

	// Scorer Metrics
	ScorerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedgraph_scorer_request_duration_seconds",
			Help:    "Duration of similarity scorer calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scorer", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Feed Metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_feed_requests_total",
			Help: "Total number of ranked feed requests",
		},
		[]string{"anchored"},
	)

	FeedEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_feed_entries_total",
			Help: "Total number of feed entries returned, by how they were scored",
		},
		[]string{"kind"}, // weighted, fallback, unranked
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Catalog Metrics
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedgraph_catalog_items",
			Help: "Number of items in the loaded catalog",
		},
	)

	CatalogFeeds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedgraph_catalog_feeds",
			Help: "Number of feeds in the loaded membership table",
		},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_catalog_reloads_total",
			Help: "Total number of catalog reload attempts",
		},
		[]string{"result"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_events_published_total",
			Help: "Total number of graph change events published",
		},
		[]string{"type"},
	)

	EventsPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_events_publish_errors_total",
			Help: "Total number of graph change events that failed to publish",
		},
		[]string{"type"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_events_consumed_total",
			Help: "Total number of graph change events handled by local listeners",
		},
		[]string{"type"},
	)

	// Validation Metrics
	ValidationWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedgraph_validation_warnings_total",
			Help: "Total number of non-fatal validation warnings",
		},
		[]string{"kind"},
	)
)

// RecordDBQuery records a store query and classifies its error, if any.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIngestRun records the outcome of a finished ingestion run.
func RecordIngestRun(run *models.IngestionRun) {
	IngestRunsTotal.WithLabelValues(run.Status).Inc()
	IngestDuration.Observe(run.Duration().Seconds())
	IngestEdgesWritten.Add(float64(run.EdgesWritten))
	IngestItemsSkipped.Add(float64(run.ItemsSkipped))
	IngestZeroScores.Add(float64(run.ZeroScores))
	if run.Status == models.IngestStatusCompleted && run.FinishedAt != nil {
		IngestLastSuccess.Set(float64(run.FinishedAt.Unix()))
	}
}

// RecordIngestRejected counts a trigger refused because a run was active.
func RecordIngestRejected() {
	IngestRunsTotal.WithLabelValues("rejected").Inc()
}

// SetIngestRunning flips the running gauge.
func SetIngestRunning(running bool) {
	if running {
		IngestRunning.Set(1)
	} else {
		IngestRunning.Set(0)
	}
}

// RecordScorerRequest records one similarity scorer call.
func RecordScorerRequest(scorer string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ScorerRequestDuration.WithLabelValues(scorer, result).Observe(duration.Seconds())
}

// RecordFeedRequest records a ranked feed and how each entry was scored.
func RecordFeedRequest(anchored bool, weighted, fallback, unranked int) {
	FeedRequestsTotal.WithLabelValues(strconv.FormatBool(anchored)).Inc()
	FeedEntriesTotal.WithLabelValues("weighted").Add(float64(weighted))
	FeedEntriesTotal.WithLabelValues("fallback").Add(float64(fallback))
	FeedEntriesTotal.WithLabelValues("unranked").Add(float64(unranked))
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCatalogReload records a catalog load and the resulting sizes.
func RecordCatalogReload(items, feeds int, err error) {
	if err != nil {
		CatalogReloads.WithLabelValues("error").Inc()
		return
	}
	CatalogReloads.WithLabelValues("success").Inc()
	CatalogItems.Set(float64(items))
	CatalogFeeds.Set(float64(feeds))
}

// RecordEventPublished records a published (or failed) graph event.
func RecordEventPublished(eventType string, err error) {
	if err != nil {
		EventsPublishErrors.WithLabelValues(eventType).Inc()
		return
	}
	EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventConsumed records a handled graph event.
func RecordEventConsumed(eventType string) {
	EventsConsumed.WithLabelValues(eventType).Inc()
}

// RecordValidationWarning counts a non-fatal validation warning.
func RecordValidationWarning(kind string) {
	ValidationWarnings.WithLabelValues(kind).Inc()
}
