// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/config"
)

// DefaultDebounce coalesces bursts of file events (editors often write a
// file in several steps).
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Holder when its files change.
type Watcher struct {
	holder   *Holder
	logger   zerolog.Logger
	debounce time.Duration
	watch    func(path string, cb func()) (func() error, error)
}

// NewWatcher creates a Watcher for holder's files.
func NewWatcher(holder *Holder, logger zerolog.Logger) *Watcher {
	return &Watcher{
		holder:   holder,
		logger:   logger.With().Str("component", "catalog_watcher").Logger(),
		debounce: DefaultDebounce,
		watch:    config.WatchFile,
	}
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	itemsPath, feedsPath := w.holder.Paths()
	var stops []func() error
	defer func() {
		for _, stop := range stops {
			if err := stop(); err != nil {
				w.logger.Debug().Err(err).Msg("Unwatch failed")
			}
		}
	}()

	for _, path := range []string{itemsPath, feedsPath} {
		if path == "" {
			continue
		}
		stop, err := w.watch(path, notify)
		if err != nil {
			return err
		}
		stops = append(stops, stop)
	}
	if len(stops) == 0 {
		return errors.New("catalog watcher: no files to watch")
	}
	w.logger.Info().Str("items_path", itemsPath).Str("feeds_path", feedsPath).Msg("Watching catalog files")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-changed:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			// Reload logs and keeps the old snapshot on failure.
			_ = w.holder.Reload()
		}
	}
}
