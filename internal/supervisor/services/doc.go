// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package services adapts feedgraph components to suture.Service.

  - HTTPServerService: ListenAndServe until canceled, then a bounded Shutdown
  - IngestService: cron-scheduled and startup ingestion runs
  - EventListenerService: delivers graph events to the feed ranker
  - CatalogWatchService: reloads the catalog when its files change

Every wrapper returns ctx.Err() after a requested shutdown and a wrapped
error when the underlying component fails, so the supervisor restarts it.
All of them implement fmt.Stringer for suture's log lines.
*/
package services
