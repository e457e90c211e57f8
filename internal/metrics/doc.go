// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package metrics defines the Prometheus metrics exported by Feedgraph.

All collectors are registered with the default registry through promauto and
served at /metrics by the HTTP API.

# Available Metrics

Store:
  - feedgraph_store_query_duration_seconds{operation,table}
  - feedgraph_store_query_errors_total{operation,table,error_type}

HTTP API:
  - feedgraph_api_requests_total{method,endpoint,status}
  - feedgraph_api_request_duration_seconds{method,endpoint}
  - feedgraph_api_active_requests

Ingestion:
  - feedgraph_ingest_runs_total{status}
  - feedgraph_ingest_duration_seconds
  - feedgraph_ingest_edges_written_total
  - feedgraph_ingest_items_skipped_total
  - feedgraph_ingest_zero_scores_total
  - feedgraph_ingest_running
  - feedgraph_ingest_last_success_timestamp

Scorer:
  - feedgraph_scorer_request_duration_seconds{scorer,result}
  - circuit_breaker_state{name}, circuit_breaker_requests_total{name,result},
    circuit_breaker_consecutive_failures{name},
    circuit_breaker_state_transitions_total{name,from_state,to_state}

Feeds:
  - feedgraph_feed_requests_total{anchored}
  - feedgraph_feed_entries_total{kind}
  - feedgraph_cache_hits_total{cache}, feedgraph_cache_misses_total{cache}

Catalog, events and validation:
  - feedgraph_catalog_items, feedgraph_catalog_feeds
  - feedgraph_catalog_reloads_total{result}
  - feedgraph_events_published_total{type}, feedgraph_events_publish_errors_total{type}
  - feedgraph_events_consumed_total{type}
  - feedgraph_validation_warnings_total{kind}
*/
package metrics
