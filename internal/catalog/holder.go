// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package catalog

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
)

// Holder publishes the current Index.
type Holder struct {
	current atomic.Pointer[Index]

	itemsPath string
	feedsPath string

	mu       sync.Mutex // serializes Reload and listener registration
	onChange []func(*Index)
}

// NewHolder creates a Holder serving idx and reloading from the given paths.
func NewHolder(idx *Index, itemsPath, feedsPath string) *Holder {
	h := &Holder{itemsPath: itemsPath, feedsPath: feedsPath}
	if idx == nil {
		idx = NewIndex(nil, nil)
	}
	h.current.Store(idx)
	return h
}

// Open loads the catalog from disk and wraps it in a Holder.
func Open(itemsPath, feedsPath string) (*Holder, error) {
	idx, err := Load(itemsPath, feedsPath)
	metrics.RecordCatalogReload(lenOf(idx), feedsOf(idx), err)
	if err != nil {
		return nil, err
	}
	return NewHolder(idx, itemsPath, feedsPath), nil
}

// Current returns the live snapshot.
func (h *Holder) Current() *Index {
	return h.current.Load()
}

// OnChange registers fn to run after every successful swap, and once now
// with the current snapshot.
func (h *Holder) OnChange(fn func(*Index)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
	fn(h.current.Load())
}

func (h *Holder) swapLocked(idx *Index) {
	h.current.Store(idx)
	for _, fn := range h.onChange {
		fn(idx)
	}
}

// Reload reads the files again. On failure the previous snapshot stays live.
func (h *Holder) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx, err := Load(h.itemsPath, h.feedsPath)
	metrics.RecordCatalogReload(lenOf(idx), feedsOf(idx), err)
	if err != nil {
		logging.Warn().Err(err).Str("items_path", h.itemsPath).Msg("Catalog reload failed, keeping previous snapshot")
		return err
	}
	h.swapLocked(idx)
	logging.Info().Int("items", idx.Len()).Int("feeds", len(idx.feeds)).Msg("Catalog reloaded")
	return nil
}

// Paths returns the files the holder reloads from.
func (h *Holder) Paths() (itemsPath, feedsPath string) {
	return h.itemsPath, h.feedsPath
}

func lenOf(idx *Index) int {
	if idx == nil {
		return 0
	}
	return idx.Len()
}

func feedsOf(idx *Index) int {
	if idx == nil {
		return 0
	}
	return len(idx.feeds)
}
