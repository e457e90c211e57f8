// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

// Package idmap translates between catalog item ids and the ids under which
// items are stored in the affinity graph.
//
// The catalog and the graph use different id namespaces: graph ids are
// catalog ids with a fixed token removed. The mapping lives behind the Mapper
// interface and is applied only at the graph store boundary, so no other
// package rewrites ids.
package idmap

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mapper converts ids in both directions.
type Mapper interface {
	// ToStore returns the store id for a catalog id.
	ToStore(catalogID string) string
	// ToCatalog returns the catalog id for a store id. Store ids that were
	// never registered come back unchanged.
	ToCatalog(storeID string) string
}

// Identity is a Mapper that leaves ids untouched.
type Identity struct{}

// ToStore implements Mapper.
func (Identity) ToStore(catalogID string) string { return catalogID }

// ToCatalog implements Mapper.
func (Identity) ToCatalog(storeID string) string { return storeID }

// Collision reports catalog ids that normalize to the same store id.
type Collision struct {
	StoreID    string
	CatalogIDs []string
}

func (c Collision) String() string {
	return fmt.Sprintf("%s <- %s", c.StoreID, strings.Join(c.CatalogIDs, ", "))
}

// SubstringMapper removes every occurrence of Token from catalog ids.
// The reverse direction is resolved through ids passed to Register.
type SubstringMapper struct {
	token string

	mu      sync.RWMutex
	reverse map[string]string
	claims  map[string]map[string]struct{}
}

// NewSubstringMapper creates a mapper stripping token. An empty token makes
// the mapper behave like Identity.
func NewSubstringMapper(token string) *SubstringMapper {
	return &SubstringMapper{
		token:   token,
		reverse: make(map[string]string),
		claims:  make(map[string]map[string]struct{}),
	}
}

// Token returns the stripped substring.
func (m *SubstringMapper) Token() string {
	return m.token
}

// ToStore implements Mapper.
func (m *SubstringMapper) ToStore(catalogID string) string {
	if m.token == "" {
		return catalogID
	}
	return strings.ReplaceAll(catalogID, m.token, "")
}

// ToCatalog implements Mapper.
func (m *SubstringMapper) ToCatalog(storeID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.reverse[storeID]; ok {
		return id
	}
	return storeID
}

// Register records catalog ids for reverse lookup and returns any store ids
// claimed by more than one catalog id across all registrations. The first
// catalog id registered for a store id wins the reverse mapping.
func (m *SubstringMapper) Register(catalogIDs ...string) []Collision {
	m.mu.Lock()
	defer m.mu.Unlock()

	touched := make(map[string]struct{})
	for _, id := range catalogIDs {
		storeID := m.ToStore(id)
		if _, ok := m.reverse[storeID]; !ok {
			m.reverse[storeID] = id
		}
		set, ok := m.claims[storeID]
		if !ok {
			set = make(map[string]struct{}, 1)
			m.claims[storeID] = set
		}
		set[id] = struct{}{}
		touched[storeID] = struct{}{}
	}

	var collisions []Collision
	for storeID := range touched {
		set := m.claims[storeID]
		if len(set) < 2 {
			continue
		}
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		collisions = append(collisions, Collision{StoreID: storeID, CatalogIDs: ids})
	}
	sort.Slice(collisions, func(i, j int) bool { return collisions[i].StoreID < collisions[j].StoreID })
	return collisions
}

// Reset forgets all registered ids.
func (m *SubstringMapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverse = make(map[string]string)
	m.claims = make(map[string]map[string]struct{})
}

// New builds the Mapper named by kind ("substring" or "identity").
func New(kind, token string) (Mapper, error) {
	switch kind {
	case "", "substring":
		return NewSubstringMapper(token), nil
	case "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unknown id mapping %q", kind)
	}
}
