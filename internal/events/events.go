// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package events carries graph change notifications.

The edge store publishes an Event after every successful mutation and the
ingestor publishes one when a run finishes. Consumers inside the process
(the feed ranker's edge cache) subscribe through a Watermill gochannel;
when a NATS URL is configured every event is mirrored to core NATS so other
processes can follow the graph.

Publishing is best effort. A failed publish is logged and counted and never
fails the write that produced it.
*/
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types.
const (
	TypeEdgeUpserted = "edge.upserted"
	TypeEdgeDeleted  = "edge.deleted"
	TypeEdgesCleared = "edges.cleared"
	TypeItemDeleted  = "item.deleted"
	TypeGraphRebuilt = "graph.rebuilt"
)

// Event describes one change to the graph. Ids are catalog ids.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	ItemID     string    `json:"item_id,omitempty"`
	Weight     *float64  `json:"weight,omitempty"`
	Count      int64     `json:"count,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Touches reports whether the event may change the outgoing edges of id.
// Events that are not scoped to a single source touch every item.
func (e *Event) Touches(id string) bool {
	switch e.Type {
	case TypeEdgeUpserted, TypeEdgeDeleted:
		return e.From == id
	default:
		return true
	}
}

// Validate checks the fields required by the event type.
func (e *Event) Validate() error {
	switch e.Type {
	case TypeEdgeUpserted:
		if e.From == "" || e.To == "" || e.Weight == nil {
			return fmt.Errorf("%s requires from, to and weight", e.Type)
		}
	case TypeEdgeDeleted:
		if e.From == "" || e.To == "" {
			return fmt.Errorf("%s requires from and to", e.Type)
		}
	case TypeItemDeleted:
		if e.ItemID == "" {
			return fmt.Errorf("%s requires item_id", e.Type)
		}
	case TypeEdgesCleared, TypeGraphRebuilt:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// EdgeUpserted builds an edge.upserted event.
func EdgeUpserted(from, to string, weight float64) Event {
	return Event{Type: TypeEdgeUpserted, From: from, To: to, Weight: &weight}
}

// EdgeDeleted builds an edge.deleted event.
func EdgeDeleted(from, to string) Event {
	return Event{Type: TypeEdgeDeleted, From: from, To: to}
}

// EdgesCleared builds an edges.cleared event.
func EdgesCleared(count int64) Event {
	return Event{Type: TypeEdgesCleared, Count: count}
}

// ItemDeleted builds an item.deleted event.
func ItemDeleted(id string, edgesRemoved int64) Event {
	return Event{Type: TypeItemDeleted, ItemID: id, Count: edgesRemoved}
}

// GraphRebuilt builds a graph.rebuilt event for a finished ingestion run.
func GraphRebuilt(runID string, edgesWritten int64) Event {
	return Event{Type: TypeGraphRebuilt, RunID: runID, Count: edgesWritten}
}

// Publisher accepts graph events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

type fanout []Publisher

// Fanout publishes every event to each of pubs in order. All of them are
// tried; their errors are joined.
func Fanout(pubs ...Publisher) Publisher {
	return fanout(pubs)
}

func (f fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Encode stamps missing ids and timestamps, validates ev and marshals it.
func Encode(ev *Event) ([]byte, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Decode unmarshals an event payload.
func Decode(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &ev, nil
}
