// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package middleware provides HTTP middleware shared by the API router.

All middleware here has the chi signature func(http.Handler) http.Handler:

  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by
    the chi route pattern so path parameters do not explode label cardinality
  - Compression: gzip for clients that accept it
  - PerformanceMonitor: a sliding window of request latencies with
    per-route percentiles, and a warning log line for slow requests

Typical stack:

	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)
	r.With(middleware.Compression).Get("/feeds/{feedID}", h.GetFeed)
*/
package middleware
