// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package stream carries recorded engagement events to in-process
// subscribers over Watermill's gochannel pub/sub. Recording stays
// synchronous in the ledger; the stream only feeds derived consumers
// (pattern detection, cache invalidation), so a slow subscriber never
// blocks the write path beyond its channel buffer.
package stream

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

// TopicEngagement is the topic recorded engagement events are published on.
const TopicEngagement = "engagement.recorded"

// Stream is the in-process event bus.
type Stream struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// New creates the event bus with the configured per-subscriber buffer.
func New(cfg config.StreamConfig) *Stream {
	logger := NewLoggerAdapter()
	return &Stream{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(cfg.BufferSize),
		}, logger),
		logger: logger,
	}
}

// PublishEvent serializes and publishes one engagement event. Implements
// ledger.Publisher.
func (s *Stream) PublishEvent(_ context.Context, event models.EngagementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal engagement event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", event.ID)
	msg.Metadata.Set("kind", string(event.Kind))

	if err := s.pubsub.Publish(TopicEngagement, msg); err != nil {
		return fmt.Errorf("publish engagement event: %w", err)
	}

	metrics.StreamEventsPublished.Inc()
	return nil
}

// Subscriber exposes the underlying subscriber for router handlers.
func (s *Stream) Subscriber() message.Subscriber {
	return s.pubsub
}

// Close shuts down the pub/sub and closes all subscriber channels.
func (s *Stream) Close() error {
	return s.pubsub.Close()
}

// DecodeEvent unmarshals an engagement event from a stream message.
func DecodeEvent(msg *message.Message) (models.EngagementEvent, error) {
	var event models.EngagementEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return models.EngagementEvent{}, fmt.Errorf("unmarshal engagement event: %w", err)
	}
	return event, nil
}

// NewRouter creates a Watermill router with the standard middleware stack.
// Handlers are registered by consumers before the router runs.
func NewRouter(cfg config.StreamConfig) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, NewLoggerAdapter())
	if err != nil {
		return nil, fmt.Errorf("create stream router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
	)

	return router, nil
}
