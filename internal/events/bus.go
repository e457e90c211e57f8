// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/metrics"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

const metadataType = "event_type"

// Bus publishes graph events to in-process subscribers and, optionally,
// mirrors them to NATS.
type Bus struct {
	local  *gochannel.GoChannel
	remote message.Publisher
	topic  string
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus from cfg. A non-empty NATSURL adds the NATS mirror;
// the connection is retried in the background so a missing server does not
// block startup.
func NewBus(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	wmLogger := NewLoggerAdapter(logger)

	b := &Bus{
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, wmLogger),
		topic:  Topic(cfg.TopicPrefix),
		logger: logger,
	}

	if cfg.NATSURL != "" {
		pub, err := newNATSPublisher(cfg.NATSURL, wmLogger)
		if err != nil {
			_ = b.local.Close()
			return nil, err
		}
		b.remote = pub
	}
	return b, nil
}

// Topic is the subject events are published on.
func Topic(prefix string) string {
	if prefix == "" {
		prefix = "feedgraph"
	}
	return prefix + ".graph"
}

func newNATSPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return pub, nil
}

// Publish implements Publisher. A failing NATS mirror is logged and does not
// affect the return value.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := Encode(&ev)
	if err != nil {
		metrics.RecordEventPublished(ev.Type, err)
		return err
	}

	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set(metadataType, ev.Type)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	if b.remote != nil {
		if rerr := b.remote.Publish(b.topic, msg.Copy()); rerr != nil {
			b.logger.Warn().Err(rerr).Str("event_type", ev.Type).Msg("Failed to mirror event to NATS")
			metrics.RecordEventPublished(ev.Type, rerr)
		}
	}

	err = b.local.Publish(b.topic, msg)
	metrics.RecordEventPublished(ev.Type, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe returns the raw message stream. Every message must be acked or
// nacked. The channel closes when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.local.Subscribe(ctx, b.topic)
}

// Close stops the bus. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.remote != nil {
		if err := b.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close NATS publisher: %w", err))
		}
	}
	if err := b.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local pubsub: %w", err))
	}
	return errors.Join(errs...)
}
