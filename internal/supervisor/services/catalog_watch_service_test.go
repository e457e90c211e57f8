// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package services

import (
	"context"
	"errors"
	"testing"
)

type watcherFunc func(ctx context.Context) error

func (f watcherFunc) Run(ctx context.Context) error { return f(ctx) }

func TestCatalogWatchService(t *testing.T) {
	t.Parallel()

	watchErr := errors.New("catalog watcher: no files to watch")

	tests := []struct {
		name    string
		run     watcherFunc
		cancel  bool
		wantErr error
	}{
		{
			name:    "watch failure is returned",
			run:     func(context.Context) error { return watchErr },
			wantErr: watchErr,
		},
		{
			name:    "cancellation",
			run:     func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() },
			cancel:  true,
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			} else {
				defer cancel()
			}
			err := NewCatalogWatchService(tt.run).Serve(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
