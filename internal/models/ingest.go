// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package models

import "time"

// Ingestion run statuses.
const (
	IngestStatusRunning   = "running"
	IngestStatusCompleted = "completed"
	IngestStatusFailed    = "failed"
)

// IngestionRun records the progress and outcome of one similarity ingestion run.
type IngestionRun struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	WipeEdges        bool       `json:"wipe_edges"`
	RebuildItems     bool       `json:"rebuild_items"`
	CatalogItems     int        `json:"catalog_items"`
	EdgesDeleted     int64      `json:"edges_deleted"`
	ItemsEnsured     int        `json:"items_ensured"`
	ItemsCreated     int        `json:"items_created"`
	ItemsSkipped     int        `json:"items_skipped"`
	ReferencesScored int        `json:"references_scored"`
	EdgesWritten     int        `json:"edges_written"`
	ZeroScores       int        `json:"zero_scores_skipped"`
	EdgesSkipped     int        `json:"edges_skipped"`
	FailedItem       string     `json:"failed_item,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// Duration returns how long the run took, or how long it has been running.
func (r *IngestionRun) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	RebuildItems bool  `json:"rebuild_items"`
	WipeEdges    *bool `json:"wipe_edges,omitempty"`
	Wait         bool  `json:"wait"`
}

// IngestStatus is returned by GET /api/v1/ingest/status.
type IngestStatus struct {
	Running bool          `json:"running"`
	LastRun *IngestionRun `json:"last_run,omitempty"`
	Edges   int64         `json:"edges"`
}
