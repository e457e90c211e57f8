// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package supervisor runs the long-lived parts of the feedgraph server under a
suture v4 supervisor tree.

	RootSupervisor ("feedgraph")
	├── DataSupervisor ("data-layer")
	│   ├── CatalogWatchService (if catalog.watch)
	│   └── IngestService (schedule and run-on-startup)
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventListenerService (feed cache invalidation)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service that returns an error is restarted by its layer. Failures are
counted with exponential decay; past FailureThreshold the layer waits
FailureBackoff before the next restart. Returning an error wrapping
suture.ErrDoNotRestart stops the service for good, which is how an invalid
ingestion schedule is reported.

The DuckDB store and the BadgerDB progress journal are libraries opened in
main and are not supervised. Supervisor events are logged through slog via
sutureslog.

If shutdown hangs, UnstoppedServiceReport names the services that ignored
cancellation.
*/
package supervisor
