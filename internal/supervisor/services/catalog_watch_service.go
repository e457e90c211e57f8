// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package services

import (
	"context"
	"fmt"
)

// CatalogWatcher is satisfied by *catalog.Watcher.
type CatalogWatcher interface {
	Run(ctx context.Context) error
}

// CatalogWatchService reloads the catalog whenever its files change.
type CatalogWatchService struct {
	watcher CatalogWatcher
}

// NewCatalogWatchService wraps watcher.
func NewCatalogWatchService(watcher CatalogWatcher) *CatalogWatchService {
	return &CatalogWatchService{watcher: watcher}
}

// Serve implements suture.Service.
func (s *CatalogWatchService) Serve(ctx context.Context) error {
	if err := s.watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *CatalogWatchService) String() string {
	return "catalog-watch"
}
