// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/feedgraph/internal/models"
)

var (
	// ErrItemNotFound is returned when a referenced item node does not exist.
	ErrItemNotFound = fmt.Errorf("item %w", models.ErrNotFound)

	// ErrEdgeNotFound is returned when a referenced edge does not exist.
	ErrEdgeNotFound = fmt.Errorf("edge %w", models.ErrNotFound)

	errUnavailable = models.ErrStoreUnavailable
)

// wrapErr adds the operation name and tags connection-level failures with
// ErrStoreUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, errUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isConnectionError reports whether err means the store cannot be reached.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errUnavailable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
		"connection is closed",
		"could not set lock on file",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isTransactionConflict reports a DuckDB write-write conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "Conflict on tuple deletion")
}

// closeQuietly closes a resource on an error path where the close error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
