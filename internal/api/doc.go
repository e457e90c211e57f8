// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package api serves the Feedgraph HTTP API on a chi router.

Route groups:
  - /api/v1/health: liveness, readiness (store ping) and a status summary
  - /api/v1/feeds and /feed/{feedID}: ranked feeds, gzip-compressed
  - /api/v1/ingest: trigger and inspect similarity ingestion
  - /api/v1/items, /api/v1/edges: administrative graph CRUD
  - /api/v1/rankings/top: mean incoming weight per item
  - /metrics: Prometheus exposition

Every JSON response except the legacy /feed path uses the APIResponse
envelope. Errors are classified with errors.Is against the shared taxonomy
in the models package: not found is 404, invalid input is 400, an ingestion
already running is 409, an unreachable store is 503 and anything else is 500.
Messages of 5xx errors are replaced by the status text; the cause is logged
with the request id.
*/
package api
