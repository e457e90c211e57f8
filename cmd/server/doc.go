// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Command server runs the Feedgraph HTTP API.

Feedgraph stores a directed, weighted affinity graph between catalog items in
DuckDB, rebuilds it from a similarity scorer, and ranks feed members by their
affinity to an anchor item the viewer last watched.

Startup order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Components (internal/app): DuckDB edge store, id mapper, event bus,
    catalog index, scorer, ingestor with its BadgerDB journal, feed ranker
 4. Supervisor tree (suture v4):

	feedgraph
	├── data-layer
	│   ├── catalog-watch (catalog.watch=true)
	│   └── ingest-scheduler
	├── messaging-layer
	│   └── event-listener (events.enabled=true)
	└── api-layer
	    └── http-server

SIGINT and SIGTERM cancel the tree. The HTTP server drains for up to ten
seconds and a running ingestion is canceled before the store is closed.

Example:

	export CATALOG_ITEMS_PATH=/data/catalog.json
	export CATALOG_FEEDS_PATH=/data/feeds.json
	export INGEST_SCHEDULE="0 0 3 * * *"
	./server
*/
package main
