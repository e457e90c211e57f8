// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/logging"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := NewBus(config.EventsConfig{Enabled: true, TopicPrefix: "test"}, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

type subscriberFunc func(ctx context.Context) (<-chan *message.Message, error)

func (f subscriberFunc) Subscribe(ctx context.Context) (<-chan *message.Message, error) { return f(ctx) }

func TestEventValidate(t *testing.T) {
	t.Parallel()

	w := 0.5
	tests := []struct {
		name    string
		ev      Event
		wantErr bool
	}{
		{"upsert", EdgeUpserted("a", "b", 0.5), false},
		{"upsert without weight", Event{Type: TypeEdgeUpserted, From: "a", To: "b"}, true},
		{"delete", EdgeDeleted("a", "b"), false},
		{"delete without to", Event{Type: TypeEdgeDeleted, From: "a"}, true},
		{"item deleted", ItemDeleted("a", 3), false},
		{"item deleted without id", Event{Type: TypeItemDeleted}, true},
		{"cleared", EdgesCleared(10), false},
		{"rebuilt", GraphRebuilt("run", 4), false},
		{"unknown", Event{Type: "edge.moved", Weight: &w}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.ev.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	ev := EdgeUpserted("a", "b", -0.25)
	data, err := Encode(&ev)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if ev.ID == "" || ev.OccurredAt.IsZero() {
		t.Error("Encode should stamp ID and OccurredAt")
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Type != TypeEdgeUpserted || got.From != "a" || got.To != "b" || got.Weight == nil || *got.Weight != -0.25 {
		t.Errorf("Decode() = %+v", got)
	}

	if _, err := Decode([]byte("{")); err == nil {
		t.Error("Decode of truncated JSON should fail")
	}
}

func TestTouches(t *testing.T) {
	t.Parallel()

	up := EdgeUpserted("a", "b", 1)
	if !up.Touches("a") || up.Touches("b") {
		t.Error("edge events touch only their source")
	}
	cleared := EdgesCleared(1)
	if !cleared.Touches("anything") {
		t.Error("edges.cleared touches every item")
	}
	del := ItemDeleted("b", 1)
	if !del.Touches("a") {
		t.Error("item.deleted may touch any source")
	}
}

func TestBusDeliversToListener(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Event
	received := make(chan struct{}, 4)

	// Subscribe before publishing; gochannel drops messages with no subscribers.
	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sub := subscriberFunc(func(context.Context) (<-chan *message.Message, error) { return messages, nil })

	done := make(chan error, 1)
	go func() {
		done <- Listen(ctx, sub, func(_ context.Context, ev *Event) error {
			mu.Lock()
			got = append(got, *ev)
			mu.Unlock()
			received <- struct{}{}
			if ev.Type == TypeEdgeDeleted {
				return errors.New("handler failure is not fatal")
			}
			return nil
		}, logging.NewTestLogger(io.Discard))
	}()

	pubCtx := logging.ContextWithCorrelationID(context.Background(), "corr1")
	for _, ev := range []Event{EdgeUpserted("a", "b", 1), EdgeDeleted("a", "b"), EdgesCleared(1)} {
		if err := bus.Publish(pubCtx, ev); err != nil {
			t.Fatalf("Publish(%s) error = %v", ev.Type, err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Listen() = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[string]bool)
	for _, ev := range got {
		seen[ev.Type] = true
	}
	for _, typ := range []string{TypeEdgeUpserted, TypeEdgeDeleted, TypeEdgesCleared} {
		if !seen[typ] {
			t.Errorf("event %s not delivered", typ)
		}
	}
}

func TestBusRejectsInvalidAndClosed(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	if err := bus.Publish(context.Background(), Event{Type: "bogus"}); err == nil {
		t.Error("invalid event should be rejected")
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := bus.Publish(context.Background(), EdgesCleared(0)); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Publish after Close = %v, want ErrBusClosed", err)
	}
	if _, err := bus.Subscribe(context.Background()); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrBusClosed", err)
	}
}

func TestTopic(t *testing.T) {
	t.Parallel()

	if got := Topic(""); got != "feedgraph.graph" {
		t.Errorf("Topic(\"\") = %q", got)
	}
	if got := Topic("prod"); got != "prod.graph" {
		t.Errorf("Topic(prod) = %q", got)
	}
}

func TestFanoutTriesEveryPublisher(t *testing.T) {
	t.Parallel()

	var got []string
	record := func(name string, err error) Publisher {
		return PublisherFunc(func(_ context.Context, ev Event) error {
			got = append(got, name+":"+ev.Type)
			return err
		})
	}
	errFirst := errors.New("first failed")

	pub := Fanout(record("cache", errFirst), record("bus", nil))
	err := pub.Publish(context.Background(), EdgeDeleted("a", "b"))

	if !errors.Is(err, errFirst) {
		t.Errorf("Publish() error = %v, want %v", err, errFirst)
	}
	want := []string{"cache:" + TypeEdgeDeleted, "bus:" + TypeEdgeDeleted}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if err := Fanout().Publish(context.Background(), EdgesCleared(1)); err != nil {
		t.Errorf("empty fanout error = %v", err)
	}
}
