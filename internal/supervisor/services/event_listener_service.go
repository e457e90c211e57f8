// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/feedgraph/internal/events"
)

// EventListenerService delivers graph events from the bus to a handler,
// normally the feed ranker's cache invalidation.
type EventListenerService struct {
	sub     events.Subscriber
	handler events.Handler
	logger  zerolog.Logger
}

// NewEventListenerService creates the listener service.
func NewEventListenerService(sub events.Subscriber, handler events.Handler, logger zerolog.Logger) *EventListenerService {
	return &EventListenerService{
		sub:     sub,
		handler: handler,
		logger:  logger.With().Str("service", "event-listener").Logger(),
	}
}

// Serve implements suture.Service. A closed bus is final.
func (s *EventListenerService) Serve(ctx context.Context) error {
	s.logger.Debug().Msg("Listening for graph events")
	err := events.Listen(ctx, s.sub, s.handler, s.logger)
	switch {
	case errors.Is(err, events.ErrBusClosed):
		return fmt.Errorf("event listener: %w: %w", err, suture.ErrDoNotRestart)
	case err != nil && ctx.Err() == nil:
		return fmt.Errorf("event listener: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *EventListenerService) String() string {
	return "event-listener"
}
