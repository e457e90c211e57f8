// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/feedgraph/internal/models"
)

// DefaultTopLimit is used by TopAggregate when limit <= 0.
const DefaultTopLimit = 10

// lockEndpointsQuery rewrites the key of both endpoint rows to itself.
// DuckDB runs a key update as delete plus insert, so it conflicts with any
// concurrent delete of the same rows.
const lockEndpointsQuery = `UPDATE items SET id = id WHERE id IN (?, ?)`

// maxInClause bounds the number of placeholders in one GetEdges query.
const maxInClause = 500

// UpsertEdge creates the edge from -> to or overwrites its weight. Both
// endpoint nodes must exist; otherwise ErrItemNotFound is returned and
// nothing is written.
//
// The endpoint rows are rewritten before the check, so a concurrent
// DeleteItem of either endpoint conflicts with this transaction instead of
// committing beside it and leaving a dangling edge.
func (db *DB) UpsertEdge(ctx context.Context, from, to string, weight float64) (_ *models.Edge, err error) {
	defer observe("upsert_edge", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	edge := &models.Edge{From: from, To: to, Weight: weight, UpdatedAt: db.now()}

	err = db.withTxRetry(ctx, "upsert edge", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockEndpointsQuery, from, to); err != nil {
			return wrapErr("lock endpoints", err)
		}

		var fromCount, toCount int
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM items WHERE id = ?), (SELECT COUNT(*) FROM items WHERE id = ?)`,
			from, to).Scan(&fromCount, &toCount); err != nil {
			return wrapErr("check endpoints", err)
		}
		if fromCount == 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, from)
		}
		if toCount == 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, to)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (from_id, to_id, weight, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (from_id, to_id) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
			from, to, weight, edge.UpdatedAt); err != nil {
			return wrapErr(fmt.Sprintf("upsert edge %s->%s", from, to), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// UpdateEdge overwrites the weight of an existing edge. A missing edge yields
// ErrEdgeNotFound.
func (db *DB) UpdateEdge(ctx context.Context, from, to string, weight float64) (_ *models.Edge, err error) {
	defer observe("update_edge", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE edges SET weight = ?, updated_at = ? WHERE from_id = ? AND to_id = ?`,
		weight, now, from, to)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("update edge %s->%s", from, to), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("update edge %s->%s", from, to), err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s->%s", ErrEdgeNotFound, from, to)
	}
	return &models.Edge{From: from, To: to, Weight: weight, UpdatedAt: now}, nil
}

// GetEdge returns the weight of from -> to. A missing edge is reported with
// ok == false and a nil error.
func (db *DB) GetEdge(ctx context.Context, from, to string) (weight float64, ok bool, err error) {
	defer observe("get_edge", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		`SELECT weight FROM edges WHERE from_id = ? AND to_id = ?`, from, to).Scan(&weight)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapErr(fmt.Sprintf("get edge %s->%s", from, to), err)
	}
	return weight, true, nil
}

// GetEdgeRecord returns the full edge or ErrEdgeNotFound.
func (db *DB) GetEdgeRecord(ctx context.Context, from, to string) (_ *models.Edge, err error) {
	defer observe("get_edge_record", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	edge := models.Edge{From: from, To: to}
	err = db.conn.QueryRowContext(ctx,
		`SELECT weight, updated_at FROM edges WHERE from_id = ? AND to_id = ?`, from, to).
		Scan(&edge.Weight, &edge.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s->%s", ErrEdgeNotFound, from, to)
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get edge %s->%s", from, to), err)
	}
	return &edge, nil
}

// GetEdges returns the weights of every existing edge from -> t for t in
// targets, keyed by target. Targets without an edge are absent from the map.
func (db *DB) GetEdges(ctx context.Context, from string, targets []string) (_ map[string]float64, err error) {
	defer observe("get_edges", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	weights := make(map[string]float64, len(targets))
	for start := 0; start < len(targets); start += maxInClause {
		end := min(start+maxInClause, len(targets))
		chunk := targets[start:end]

		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, from)
		for _, t := range chunk {
			args = append(args, t)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")

		//nolint:gosec // placeholders only
		query := `SELECT to_id, weight FROM edges WHERE from_id = ? AND to_id IN (` + placeholders + `)`
		if err = db.scanWeights(ctx, query, args, weights); err != nil {
			return nil, err
		}
	}
	return weights, nil
}

func (db *DB) scanWeights(ctx context.Context, query string, args []interface{}, into map[string]float64) error {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return wrapErr("get edges", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var w float64
		if err := rows.Scan(&id, &w); err != nil {
			return wrapErr("scan edge", err)
		}
		into[id] = w
	}
	if err := rows.Err(); err != nil {
		return wrapErr("get edges", err)
	}
	return nil
}

// ListOutgoing returns the targets of every edge leaving from, by weight
// descending then id ascending.
func (db *DB) ListOutgoing(ctx context.Context, from string) (_ []models.Neighbor, err error) {
	defer observe("list_outgoing", "edges", time.Now(), &err)
	return db.listNeighbors(ctx,
		`SELECT to_id, weight FROM edges WHERE from_id = ? ORDER BY weight DESC, to_id ASC`, from)
}

// ListIncoming returns the sources of every edge arriving at to, by weight
// descending then id ascending.
func (db *DB) ListIncoming(ctx context.Context, to string) (_ []models.Neighbor, err error) {
	defer observe("list_incoming", "edges", time.Now(), &err)
	return db.listNeighbors(ctx,
		`SELECT from_id, weight FROM edges WHERE to_id = ? ORDER BY weight DESC, from_id ASC`, to)
}

func (db *DB) listNeighbors(ctx context.Context, query, id string) ([]models.Neighbor, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, wrapErr("list edges of "+id, err)
	}
	defer rows.Close()

	neighbors := make([]models.Neighbor, 0)
	for rows.Next() {
		var n models.Neighbor
		if err := rows.Scan(&n.ID, &n.Weight); err != nil {
			return nil, wrapErr("scan neighbor", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list edges of "+id, err)
	}
	return neighbors, nil
}

// TopAggregate ranks items by the mean weight of their incoming edges, ties
// broken by item id. limit <= 0 uses DefaultTopLimit.
func (db *DB) TopAggregate(ctx context.Context, limit int) (_ []models.AggregateRating, err error) {
	defer observe("top_aggregate", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = DefaultTopLimit
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT to_id, AVG(weight) AS mean_weight, COUNT(*) AS edge_count
		 FROM edges
		 GROUP BY to_id
		 ORDER BY mean_weight DESC, to_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, wrapErr("top aggregate", err)
	}
	defer rows.Close()

	ratings := make([]models.AggregateRating, 0, limit)
	for rows.Next() {
		var r models.AggregateRating
		if err = rows.Scan(&r.ItemID, &r.MeanWeight, &r.Count); err != nil {
			return nil, wrapErr("scan aggregate", err)
		}
		ratings = append(ratings, r)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr("top aggregate", err)
	}
	return ratings, nil
}

// DeleteEdge removes one edge and reports whether it existed.
func (db *DB) DeleteEdge(ctx context.Context, from, to string) (deleted bool, err error) {
	defer observe("delete_edge", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM edges WHERE from_id = ? AND to_id = ?`, from, to)
	if err != nil {
		return false, wrapErr(fmt.Sprintf("delete edge %s->%s", from, to), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(fmt.Sprintf("delete edge %s->%s", from, to), err)
	}
	return n > 0, nil
}

// DeleteAllEdges removes every edge and returns how many were removed.
func (db *DB) DeleteAllEdges(ctx context.Context) (n int64, err error) {
	defer observe("delete_all_edges", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM edges`)
	if err != nil {
		return 0, wrapErr("delete all edges", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, wrapErr("delete all edges", err)
	}
	return n, nil
}

// CountEdges returns the number of edges.
func (db *DB) CountEdges(ctx context.Context) (n int64, err error) {
	defer observe("count_edges", "edges", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, wrapErr("count edges", err)
	}
	return n, nil
}
