// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
)

// Subscriber is the subscribe half of Bus.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, ev *Event) error

// Listen feeds every event from sub to handler until ctx is canceled or the
// stream closes. Handler failures are logged and the message is acked anyway;
// graph events are notifications and redelivery would not help.
func Listen(ctx context.Context, sub Subscriber, handler Handler, logger zerolog.Logger) error {
	messages, err := sub.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to graph events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			handle(ctx, msg, handler, logger)
		}
	}
}

func handle(ctx context.Context, msg *message.Message, handler Handler, logger zerolog.Logger) {
	defer msg.Ack()

	ev, err := Decode(msg.Payload)
	if err != nil {
		logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable event")
		return
	}
	metrics.RecordEventConsumed(ev.Type)

	if id := msg.Metadata.Get("correlation_id"); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	if err := handler(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("event_type", ev.Type).Str("event_id", ev.ID).Msg("Event handler failed")
	}
}
