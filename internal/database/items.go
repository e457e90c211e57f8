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

// EnsureItem creates the node if it does not exist. It returns the stored
// node and whether this call created it. Existing nodes are left untouched.
func (db *DB) EnsureItem(ctx context.Context, item models.GraphItem) (_ *models.GraphItem, created bool, err error) {
	defer observe("ensure_item", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if item.ID == "" {
		return nil, false, fmt.Errorf("ensure item: id is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = db.now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (id, year, genre, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		item.ID, item.Year, item.Genre, item.CreatedAt)
	if err != nil {
		if isTransactionConflict(err) {
			// A concurrent EnsureItem inserted the same id first.
			stored, getErr := db.GetItem(ctx, item.ID)
			return stored, false, getErr
		}
		return nil, false, wrapErr("ensure item "+item.ID, err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n > 0 {
		created = true
	}

	stored, err := db.GetItem(ctx, item.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// GetItem returns one node or ErrItemNotFound.
func (db *DB) GetItem(ctx context.Context, id string) (_ *models.GraphItem, err error) {
	defer observe("get_item", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var item models.GraphItem
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, year, genre, created_at FROM items WHERE id = ?`, id).
		Scan(&item.ID, &item.Year, &item.Genre, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, wrapErr("get item "+id, err)
	}
	return &item, nil
}

// ListItems returns nodes ordered by id. limit <= 0 returns all nodes.
func (db *DB) ListItems(ctx context.Context, limit, offset int) (_ []models.GraphItem, err error) {
	defer observe("list_items", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, year, genre, created_at FROM items ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(offset, 0))
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list items", err)
	}
	defer rows.Close()

	items := make([]models.GraphItem, 0)
	for rows.Next() {
		var item models.GraphItem
		if err = rows.Scan(&item.ID, &item.Year, &item.Genre, &item.CreatedAt); err != nil {
			return nil, wrapErr("scan item", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr("list items", err)
	}
	return items, nil
}

// UpdateItem applies a patch to an existing node.
func (db *DB) UpdateItem(ctx context.Context, id string, patch models.UpdateItemRequest) (_ *models.GraphItem, err error) {
	defer observe("update_item", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if patch.Empty() {
		return db.GetItem(ctx, id)
	}

	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if patch.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *patch.Year)
	}
	if patch.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *patch.Genre)
	}
	args = append(args, id)

	//nolint:gosec // column names come from the fixed set above
	res, err := db.conn.ExecContext(ctx, `UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapErr("update item "+id, err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return db.GetItem(ctx, id)
}

// DeleteItem removes a node and every edge touching it in one transaction.
// It reports whether the node existed.
func (db *DB) DeleteItem(ctx context.Context, id string) (deleted bool, err error) {
	defer observe("delete_item", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	err = db.withTxRetry(ctx, "delete item", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
			return wrapErr("delete edges of "+id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return wrapErr("delete item "+id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapErr("delete item "+id, err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CountItems returns the number of nodes.
func (db *DB) CountItems(ctx context.Context) (n int64, err error) {
	defer observe("count_items", "items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, wrapErr("count items", err)
	}
	return n, nil
}
