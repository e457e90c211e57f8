// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package models defines the data structures shared across Feedgraph.

Catalog Models:
  - Item: read-only catalog entry (title, description, cast, genres, image variants)
  - ImageVariant: one rendition of an item image at a given resolution

Graph Models:
  - GraphItem: a node of the affinity graph as persisted by the store
  - Edge: a directed weighted affinity between two items
  - Neighbor: one side of an edge as returned by directional lookups
  - AggregateRating: mean incoming weight and edge count for one item

Feed Models:
  - FeedEntry: a decorated, optionally weighted member of a ranked feed
  - Feed: the ranked feed returned to callers
  - Percentage: display score serialized with two decimals

Ingestion Models:
  - IngestionRun: statistics journaled for each similarity ingestion run

Request Models carry validator/v10 tags and are checked by the validation
package before they reach the store.

The error taxonomy (ErrNotFound, ErrStoreUnavailable, ValidationWarning) lives
here so every layer can classify failures with errors.Is without importing
the layer that produced them.
*/
package models
