// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package ledger implements the append-only engagement ledger. Every
// engagement event flows through Ledger.Record, which validates, weights,
// persists and publishes the event to the in-process stream. Recorded events
// are immediately visible to queries on the same instance.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

var (
	// ErrInvalidEventKind indicates an event kind outside the recognized set.
	ErrInvalidEventKind = errors.New("invalid engagement event kind")

	// ErrUnknownTarget indicates a target type outside the recognized set.
	ErrUnknownTarget = errors.New("unknown engagement target type")

	// ErrEmptyField indicates a missing user or target identifier.
	ErrEmptyField = errors.New("engagement event missing required field")

	// ErrLedgerClosed indicates an operation on a closed ledger.
	ErrLedgerClosed = errors.New("ledger is closed")
)

// Store persists engagement events and serves time-bounded range queries.
// Implementations must return events in ascending timestamp order.
type Store interface {
	Append(ctx context.Context, event models.EngagementEvent) error
	EventsByUser(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error)
	EventsByTarget(ctx context.Context, targetType models.TargetType, targetID string, since time.Time) ([]models.EngagementEvent, error)
	EventsByTargetType(ctx context.Context, targetType models.TargetType, since time.Time) ([]models.EngagementEvent, error)
	Close() error
}

// Publisher delivers recorded events to downstream subscribers. Publishing
// happens after the store append succeeds; a publish failure is logged but
// never fails the Record call.
type Publisher interface {
	PublishEvent(ctx context.Context, event models.EngagementEvent) error
}

// Ledger is the validated write path and read path for engagement events.
type Ledger struct {
	store  Store
	pub    Publisher
	logger zerolog.Logger
}

// New creates a Ledger over the given store. pub may be nil when no
// downstream subscribers exist (tests, offline rebuilds).
func New(store Store, pub Publisher) *Ledger {
	return &Ledger{
		store:  store,
		pub:    pub,
		logger: logging.With().Str("component", "ledger").Logger(),
	}
}

// Record validates and appends one engagement event. The event's weight is
// always derived from its kind; any caller-supplied weight is ignored.
// Missing IDs and timestamps are filled in. Returns the stored event.
func (l *Ledger) Record(ctx context.Context, event models.EngagementEvent) (models.EngagementEvent, error) {
	start := time.Now()

	if err := validate(event); err != nil {
		metrics.RecordLedgerRejection(rejectionReason(err))
		return models.EngagementEvent{}, err
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}
	event.Weight = event.Kind.Weight()

	if err := l.store.Append(ctx, event); err != nil {
		return models.EngagementEvent{}, err
	}

	metrics.RecordLedgerAppend(string(event.Kind), string(event.TargetType), time.Since(start))

	if l.pub != nil {
		if err := l.pub.PublishEvent(ctx, event); err != nil {
			l.logger.Error().Err(err).
				Str("event_id", event.ID).
				Msg("failed to publish engagement event")
		}
	}

	return event, nil
}

// RecordBatch appends a batch of events, continuing past individual
// failures. Returns the number recorded and a map of input index to failure
// message for the rest.
func (l *Ledger) RecordBatch(ctx context.Context, events []models.EngagementEvent) (int, map[int]string) {
	recorded := 0
	failures := make(map[int]string)

	for i, event := range events {
		if _, err := l.Record(ctx, event); err != nil {
			failures[i] = err.Error()
			continue
		}
		recorded++
	}

	return recorded, failures
}

// UserHistory returns the user's events since the given time, ascending.
func (l *Ledger) UserHistory(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error) {
	if userID == "" {
		return nil, ErrEmptyField
	}

	start := time.Now()
	events, err := l.store.EventsByUser(ctx, userID, since)
	metrics.RecordLedgerQuery("user", time.Since(start))
	return events, err
}

// TargetHistory returns events against one target since the given time.
func (l *Ledger) TargetHistory(ctx context.Context, targetType models.TargetType, targetID string, since time.Time) ([]models.EngagementEvent, error) {
	if !targetType.Valid() {
		return nil, ErrUnknownTarget
	}
	if targetID == "" {
		return nil, ErrEmptyField
	}

	start := time.Now()
	events, err := l.store.EventsByTarget(ctx, targetType, targetID, since)
	metrics.RecordLedgerQuery("target", time.Since(start))
	return events, err
}

// TargetTypeHistory returns all events against targets of one type since the
// given time. Used by the trending ranking.
func (l *Ledger) TargetTypeHistory(ctx context.Context, targetType models.TargetType, since time.Time) ([]models.EngagementEvent, error) {
	if !targetType.Valid() {
		return nil, ErrUnknownTarget
	}

	start := time.Now()
	events, err := l.store.EventsByTargetType(ctx, targetType, since)
	metrics.RecordLedgerQuery("target", time.Since(start))
	return events, err
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

func validate(event models.EngagementEvent) error {
	if !event.Kind.Valid() {
		return ErrInvalidEventKind
	}
	if !event.TargetType.Valid() {
		return ErrUnknownTarget
	}
	if event.UserID == "" || event.TargetID == "" {
		return ErrEmptyField
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEventKind):
		return "invalid_kind"
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	default:
		return "empty_field"
	}
}
