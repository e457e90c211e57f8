// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// tableQueries holds the graph schema. Edges reference items by id; the
// reference is enforced by the write paths rather than a foreign key so
// cascading deletes can run in one transaction.
var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id VARCHAR PRIMARY KEY,
		year INTEGER NOT NULL DEFAULT 0,
		genre VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		from_id VARCHAR NOT NULL,
		to_id VARCHAR NOT NULL,
		weight DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (from_id, to_id)
	)`,
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id)`,
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}
	return db.CreateIndexes()
}

// CreateIndexes creates the secondary indexes. Exposed for tests that set
// SkipIndexes and later need them.
func (db *DB) CreateIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
