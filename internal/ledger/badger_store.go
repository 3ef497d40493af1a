// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/models"
)

// BadgerStore persists engagement events in BadgerDB. Each event is written
// under two keys so both the user index and the target index are single
// prefix scans:
//
//	evt:u:<userID>:<ts>:<eventID>              user index
//	evt:t:<targetType>:<targetID>:<ts>:<eventID>  target index
//
// Timestamps are zero-padded nanoseconds so lexicographic key order matches
// chronological order. Entries carry Badger's native TTL for retention; no
// separate pruning job is needed.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration

	mu     sync.RWMutex
	closed bool

	stopGC chan struct{}
	gcOnce sync.Once
}

const (
	prefixUser   = "evt:u:"
	prefixTarget = "evt:t:"
)

// BadgerStoreConfig configures a BadgerStore.
type BadgerStoreConfig struct {
	// Path is the database directory. Empty opens an in-memory database.
	Path string

	// Retention is the event TTL. Zero disables expiry.
	Retention time.Duration

	// GCInterval is how often the value log garbage collector runs.
	// Zero disables the background GC loop.
	GCInterval time.Duration
}

// OpenBadgerStore opens (or creates) the event database.
func OpenBadgerStore(cfg BadgerStoreConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:        db,
		retention: cfg.Retention,
		stopGC:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 && cfg.Path != "" {
		go s.gcLoop(cfg.GCInterval)
	}

	logging.Info().
		Str("component", "ledger").
		Str("path", cfg.Path).
		Dur("retention", cfg.Retention).
		Msg("event store opened")

	return s, nil
}

// Append writes the event under both index keys in one transaction.
// Re-appending an event with the same ID and timestamp overwrites the same
// keys, making retried writes idempotent.
func (s *BadgerStore) Append(ctx context.Context, event models.EngagementEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrLedgerClosed
	}
	s.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	userKey := []byte(userKey(event.UserID, event.Timestamp, event.ID))
	targetKey := []byte(targetKey(event.TargetType, event.TargetID, event.Timestamp, event.ID))

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{userKey, targetKey} {
			e := badger.NewEntry(key, data)
			if s.retention > 0 {
				e = e.WithTTL(s.retention)
			}
			if err := txn.SetEntry(e); err != nil {
				return fmt.Errorf("write event key: %w", err)
			}
		}
		return nil
	})
}

// EventsByUser returns the user's events at or after since, ascending.
func (s *BadgerStore) EventsByUser(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error) {
	return s.scan(ctx, prefixUser+userID+":", since)
}

// EventsByTarget returns events against one target at or after since, ascending.
func (s *BadgerStore) EventsByTarget(ctx context.Context, targetType models.TargetType, targetID string, since time.Time) ([]models.EngagementEvent, error) {
	return s.scan(ctx, prefixTarget+string(targetType)+":"+targetID+":", since)
}

// EventsByTargetType returns all events against targets of one type at or
// after since. Keys under a type prefix are grouped by target ID, so results
// are re-sorted by timestamp before returning.
func (s *BadgerStore) EventsByTargetType(ctx context.Context, targetType models.TargetType, since time.Time) ([]models.EngagementEvent, error) {
	events, err := s.scan(ctx, prefixTarget+string(targetType)+":", since)
	if err != nil {
		return nil, err
	}
	sortEventsByTime(events)
	return events, nil
}

// scan iterates all keys under prefix and keeps events at or after since.
func (s *BadgerStore) scan(ctx context.Context, prefix string, since time.Time) ([]models.EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrLedgerClosed
	}
	s.mu.RUnlock()

	var events []models.EngagementEvent
	prefixBytes := []byte(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixBytes
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var event models.EngagementEvent
				if err := json.Unmarshal(val, &event); err != nil {
					return fmt.Errorf("unmarshal event: %w", err)
				}
				if !event.Timestamp.Before(since) {
					events = append(events, event)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.gcOnce.Do(func() { close(s.stopGC) })
	return s.db.Close()
}

// gcLoop runs the Badger value log garbage collector periodically.
func (s *BadgerStore) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means nothing was reclaimable this round.
			if err := s.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				logging.Warn().Err(err).
					Str("component", "ledger").
					Msg("value log GC failed")
			}
		case <-s.stopGC:
			return
		}
	}
}

func userKey(userID string, ts time.Time, eventID string) string {
	return fmt.Sprintf("%s%s:%020d:%s", prefixUser, userID, ts.UnixNano(), eventID)
}

func targetKey(targetType models.TargetType, targetID string, ts time.Time, eventID string) string {
	return fmt.Sprintf("%s%s:%s:%020d:%s", prefixTarget, targetType, targetID, ts.UnixNano(), eventID)
}

var _ Store = (*BadgerStore)(nil)
