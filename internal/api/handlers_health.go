// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status         string  `json:"status"`
	StoreConnected bool    `json:"store_connected"`
	IngestRunning  bool    `json:"ingest_running"`
	Feeds          int     `json:"feeds"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// Health reports overall status. It always answers 200; a store outage
// shows as "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeUp := h.graph.Ping(r.Context()) == nil

	status := "healthy"
	if !storeUp {
		status = "degraded"
	}

	running := false
	if h.ingestor != nil {
		running, _, _ = h.ingestor.Status(r.Context())
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:         status,
		StoreConnected: storeUp,
		IngestRunning:  running,
		Feeds:          len(h.feeds.FeedIDs()),
		UptimeSeconds:  time.Since(h.startTime).Seconds(),
	})
}

// HealthLive answers 200 while the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 only when the store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.Ping(r.Context()); err != nil {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Store not reachable", map[string]interface{}{"store_connected": false})
		return
	}
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"store_connected": true,
		"ready_to_serve":  true,
	})
}

// EndpointStats serves the performance monitor window.
func (h *Handler) EndpointStats(w http.ResponseWriter, r *http.Request) {
	if h.perfMon == nil {
		NewResponseWriter(w, r).NotFound("Performance monitoring disabled")
		return
	}
	NewResponseWriter(w, r).Success(h.perfMon.Stats())
}
