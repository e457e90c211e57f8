// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package graph is the edge store as the rest of the application sees it.

Store wraps the DuckDB persistence layer with the id-mapping boundary:
every method takes and returns catalog ids, translating them to store ids
with an idmap.Mapper on the way in and back on the way out. Nothing outside
this package rewrites ids.

Store also enforces the weight rules shared by every caller. NaN and
infinite weights are rejected with validation.ErrInvalidWeight; finite
weights outside [-1, 1] are stored and reported as validation warnings.
Successful mutations are announced on the event publisher.
*/
package graph

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/database"
	"github.com/tomtom215/feedgraph/internal/events"
	"github.com/tomtom215/feedgraph/internal/idmap"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

// registrar is implemented by mappers that need catalog ids for the
// reverse direction.
type registrar interface {
	Register(catalogIDs ...string) []idmap.Collision
}

// Store is the id-mapped, event-publishing edge store.
type Store struct {
	db     *database.DB
	mapper idmap.Mapper
	pub    events.Publisher
	logger zerolog.Logger
}

// NewStore creates a Store. A nil mapper means identity; a nil publisher
// discards events.
func NewStore(db *database.DB, mapper idmap.Mapper, pub events.Publisher, logger zerolog.Logger) *Store {
	if mapper == nil {
		mapper = idmap.Identity{}
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Store{
		db:     db,
		mapper: mapper,
		pub:    pub,
		logger: logger.With().Str("component", "graph").Logger(),
	}
}

// Register makes catalog ids resolvable from store ids and reports
// normalization collisions as validation warnings.
func (s *Store) Register(ctx context.Context, catalogIDs ...string) []idmap.Collision {
	r, ok := s.mapper.(registrar)
	if !ok {
		return nil
	}
	collisions := r.Register(catalogIDs...)
	for _, c := range collisions {
		validation.ReportWarning(ctx, models.ValidationWarning{
			Kind:    models.WarningIDCollision,
			Subject: c.StoreID,
			Message: "catalog ids share a store id: " + c.String(),
		})
	}
	return collisions
}

// Ping checks that the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// EnsureItem creates the node for item if it is missing.
func (s *Store) EnsureItem(ctx context.Context, item models.GraphItem) (*models.GraphItem, bool, error) {
	catalogID := item.ID
	s.Register(ctx, catalogID)
	item.ID = s.mapper.ToStore(catalogID)

	stored, created, err := s.db.EnsureItem(ctx, item)
	if err != nil {
		return nil, false, err
	}
	stored.ID = catalogID
	return stored, created, nil
}

// EnsureCatalogItem creates the node for a catalog item.
func (s *Store) EnsureCatalogItem(ctx context.Context, item *models.Item) (*models.GraphItem, bool, error) {
	return s.EnsureItem(ctx, models.NewGraphItem(item))
}

// GetItem returns one node.
func (s *Store) GetItem(ctx context.Context, id string) (*models.GraphItem, error) {
	item, err := s.db.GetItem(ctx, s.mapper.ToStore(id))
	if err != nil {
		return nil, err
	}
	item.ID = s.mapper.ToCatalog(item.ID)
	return item, nil
}

// ListItems pages through nodes in store-id order.
func (s *Store) ListItems(ctx context.Context, limit, offset int) ([]models.GraphItem, error) {
	items, err := s.db.ListItems(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = s.mapper.ToCatalog(items[i].ID)
	}
	return items, nil
}

// UpdateItem patches a node.
func (s *Store) UpdateItem(ctx context.Context, id string, patch models.UpdateItemRequest) (*models.GraphItem, error) {
	item, err := s.db.UpdateItem(ctx, s.mapper.ToStore(id), patch)
	if err != nil {
		return nil, err
	}
	item.ID = id
	return item, nil
}

// DeleteItem removes a node and every edge touching it.
func (s *Store) DeleteItem(ctx context.Context, id string) (bool, error) {
	deleted, err := s.db.DeleteItem(ctx, s.mapper.ToStore(id))
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, events.ItemDeleted(id, 0))
	return true, nil
}

// CountItems returns the number of nodes.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	return s.db.CountItems(ctx)
}

// UpsertEdge creates or overwrites from -> to.
func (s *Store) UpsertEdge(ctx context.Context, from, to string, weight float64) (*models.Edge, error) {
	if err := s.checkWeight(ctx, from, to, weight); err != nil {
		return nil, err
	}
	edge, err := s.db.UpsertEdge(ctx, s.mapper.ToStore(from), s.mapper.ToStore(to), weight)
	if err != nil {
		return nil, err
	}
	edge.From, edge.To = from, to
	s.publish(ctx, events.EdgeUpserted(from, to, weight))
	return edge, nil
}

// UpdateEdge overwrites the weight of an existing edge.
func (s *Store) UpdateEdge(ctx context.Context, from, to string, weight float64) (*models.Edge, error) {
	if err := s.checkWeight(ctx, from, to, weight); err != nil {
		return nil, err
	}
	edge, err := s.db.UpdateEdge(ctx, s.mapper.ToStore(from), s.mapper.ToStore(to), weight)
	if err != nil {
		return nil, err
	}
	edge.From, edge.To = from, to
	s.publish(ctx, events.EdgeUpserted(from, to, weight))
	return edge, nil
}

func (s *Store) checkWeight(ctx context.Context, from, to string, weight float64) error {
	if err := validation.CheckWeight(weight); err != nil {
		return err
	}
	if w := validation.WeightWarning(from, to, weight); w != nil {
		validation.ReportWarning(ctx, *w)
	}
	return nil
}

// GetEdge returns the weight of from -> to; ok is false when there is no edge.
func (s *Store) GetEdge(ctx context.Context, from, to string) (float64, bool, error) {
	return s.db.GetEdge(ctx, s.mapper.ToStore(from), s.mapper.ToStore(to))
}

// GetEdgeRecord returns the full edge or a not-found error.
func (s *Store) GetEdgeRecord(ctx context.Context, from, to string) (*models.Edge, error) {
	edge, err := s.db.GetEdgeRecord(ctx, s.mapper.ToStore(from), s.mapper.ToStore(to))
	if err != nil {
		return nil, err
	}
	edge.From, edge.To = from, to
	return edge, nil
}

// GetEdges returns the weights of from -> t for every t in targets that has
// an edge, keyed by catalog id, in one store query.
func (s *Store) GetEdges(ctx context.Context, from string, targets []string) (map[string]float64, error) {
	storeTargets := make([]string, 0, len(targets))
	byStore := make(map[string][]string, len(targets))
	for _, t := range targets {
		sid := s.mapper.ToStore(t)
		if _, seen := byStore[sid]; !seen {
			storeTargets = append(storeTargets, sid)
		}
		byStore[sid] = append(byStore[sid], t)
	}

	weights, err := s.db.GetEdges(ctx, s.mapper.ToStore(from), storeTargets)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(weights))
	for sid, w := range weights {
		for _, t := range byStore[sid] {
			out[t] = w
		}
	}
	return out, nil
}

// ListOutgoing returns from's targets by weight descending.
func (s *Store) ListOutgoing(ctx context.Context, from string) ([]models.Neighbor, error) {
	neighbors, err := s.db.ListOutgoing(ctx, s.mapper.ToStore(from))
	return s.toCatalog(neighbors), err
}

// ListIncoming returns to's sources by weight descending.
func (s *Store) ListIncoming(ctx context.Context, to string) ([]models.Neighbor, error) {
	neighbors, err := s.db.ListIncoming(ctx, s.mapper.ToStore(to))
	return s.toCatalog(neighbors), err
}

func (s *Store) toCatalog(neighbors []models.Neighbor) []models.Neighbor {
	for i := range neighbors {
		neighbors[i].ID = s.mapper.ToCatalog(neighbors[i].ID)
	}
	return neighbors
}

// TopAggregate ranks items by mean incoming weight.
func (s *Store) TopAggregate(ctx context.Context, limit int) ([]models.AggregateRating, error) {
	ratings, err := s.db.TopAggregate(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range ratings {
		ratings[i].ItemID = s.mapper.ToCatalog(ratings[i].ItemID)
	}
	return ratings, nil
}

// DeleteEdge removes one edge and reports whether it existed.
func (s *Store) DeleteEdge(ctx context.Context, from, to string) (bool, error) {
	deleted, err := s.db.DeleteEdge(ctx, s.mapper.ToStore(from), s.mapper.ToStore(to))
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, events.EdgeDeleted(from, to))
	return true, nil
}

// DeleteAllEdges removes every edge and returns the count removed.
func (s *Store) DeleteAllEdges(ctx context.Context) (int64, error) {
	n, err := s.db.DeleteAllEdges(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.EdgesCleared(n))
	return n, nil
}

// CountEdges returns the number of edges.
func (s *Store) CountEdges(ctx context.Context) (int64, error) {
	return s.db.CountEdges(ctx)
}

// publish announces ev. Failures are logged; the write already committed.
func (s *Store) publish(ctx context.Context, ev events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event_type", ev.Type).Msg("Failed to publish graph event")
	}
}
