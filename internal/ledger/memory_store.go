// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clawspace/pulse/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by deployments that
// opt out of persistence. Events are held per user and per target with the
// same ascending-timestamp contract as BadgerStore.
type MemoryStore struct {
	mu       sync.RWMutex
	byUser   map[string][]models.EngagementEvent
	byTarget map[string][]models.EngagementEvent
	byType   map[models.TargetType][]models.EngagementEvent
	closed   bool
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser:   make(map[string][]models.EngagementEvent),
		byTarget: make(map[string][]models.EngagementEvent),
		byType:   make(map[models.TargetType][]models.EngagementEvent),
	}
}

// Append stores the event in all three indexes.
func (s *MemoryStore) Append(ctx context.Context, event models.EngagementEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrLedgerClosed
	}

	targetKey := string(event.TargetType) + ":" + event.TargetID
	s.byUser[event.UserID] = insertByTime(s.byUser[event.UserID], event)
	s.byTarget[targetKey] = insertByTime(s.byTarget[targetKey], event)
	s.byType[event.TargetType] = insertByTime(s.byType[event.TargetType], event)

	return nil
}

// EventsByUser returns the user's events at or after since, ascending.
func (s *MemoryStore) EventsByUser(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrLedgerClosed
	}
	return filterSince(s.byUser[userID], since), nil
}

// EventsByTarget returns events against one target at or after since, ascending.
func (s *MemoryStore) EventsByTarget(ctx context.Context, targetType models.TargetType, targetID string, since time.Time) ([]models.EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrLedgerClosed
	}
	return filterSince(s.byTarget[string(targetType)+":"+targetID], since), nil
}

// EventsByTargetType returns all events against targets of one type at or
// after since, ascending.
func (s *MemoryStore) EventsByTargetType(ctx context.Context, targetType models.TargetType, since time.Time) ([]models.EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrLedgerClosed
	}
	return filterSince(s.byType[targetType], since), nil
}

// Close marks the store closed. Subsequent operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// insertByTime appends the event, keeping the slice sorted by timestamp.
// Events almost always arrive in order, so the common case is a plain append.
func insertByTime(events []models.EngagementEvent, event models.EngagementEvent) []models.EngagementEvent {
	if n := len(events); n == 0 || !event.Timestamp.Before(events[n-1].Timestamp) {
		return append(events, event)
	}

	i := sort.Search(len(events), func(i int) bool {
		return events[i].Timestamp.After(event.Timestamp)
	})
	events = append(events, models.EngagementEvent{})
	copy(events[i+1:], events[i:])
	events[i] = event
	return events
}

// filterSince copies the tail of a sorted slice at or after since.
func filterSince(events []models.EngagementEvent, since time.Time) []models.EngagementEvent {
	i := sort.Search(len(events), func(i int) bool {
		return !events[i].Timestamp.Before(since)
	})
	out := make([]models.EngagementEvent, len(events)-i)
	copy(out, events[i:])
	return out
}

// sortEventsByTime sorts events ascending by timestamp, breaking ties by ID
// so results are deterministic.
func sortEventsByTime(events []models.EngagementEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
}

var _ Store = (*MemoryStore)(nil)
