// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package engine

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/stream"
)

// RegisterInvalidator subscribes a cache invalidation handler to the
// engagement topic. Each recorded event drops the acting user's cached
// profile and feed so the next read reflects it.
func (e *Engine) RegisterInvalidator(router *message.Router, sub message.Subscriber) {
	router.AddNoPublisherHandler(
		"cache-invalidator",
		stream.TopicEngagement,
		sub,
		e.handleInvalidation,
	)
}

func (e *Engine) handleInvalidation(msg *message.Message) error {
	event, err := stream.DecodeEvent(msg)
	if err != nil {
		metrics.StreamHandlerErrors.WithLabelValues("cache_invalidator").Inc()
		// Malformed payloads are dropped, not retried.
		e.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable event")
		return nil
	}

	e.Invalidate(event.UserID)
	metrics.StreamEventsProcessed.WithLabelValues("cache_invalidator").Inc()
	return nil
}
