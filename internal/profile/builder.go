// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package profile builds per-user preference profiles from engagement
// history. Each engagement inside the profile window contributes its event
// weight, decayed exponentially by age, to the topics, community and author
// of the engaged content. Every dimension is then normalized to sum to one
// so profiles are comparable across users with different activity levels.
package profile

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/clawspace/pulse/internal/cache"
	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

// EventSource supplies a user's engagement history. *ledger.Ledger
// implements it.
type EventSource interface {
	UserHistory(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error)
}

// PostSource resolves post metadata for engaged post IDs. Posts unknown to
// the source are skipped, not errors.
type PostSource interface {
	PostsByIDs(ctx context.Context, ids []string) (map[string]models.Post, error)
}

// Builder computes preference profiles with TTL caching.
type Builder struct {
	events   EventSource
	posts    PostSource
	window   time.Duration
	halfLife time.Duration
	cache    *cache.Cache
	logger   zerolog.Logger
}

// NewBuilder creates a profile builder. resultCache may be nil to disable
// caching (used in tests).
func NewBuilder(events EventSource, posts PostSource, window, halfLife time.Duration, resultCache *cache.Cache) *Builder {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	if halfLife <= 0 {
		halfLife = 14 * 24 * time.Hour
	}
	return &Builder{
		events:   events,
		posts:    posts,
		window:   window,
		halfLife: halfLife,
		cache:    resultCache,
		logger:   logging.With().Str("component", "profile").Logger(),
	}
}

// Build returns the user's preference profile, from cache when fresh.
// A user with no engagement in the window gets an empty profile, not an
// error; callers decide how to handle cold starts.
func (b *Builder) Build(ctx context.Context, userID string) (models.UserPreferences, error) {
	key := cacheKey(userID)
	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			metrics.RecordCacheAccess("profile", true)
			return cached.(models.UserPreferences), nil
		}
		metrics.RecordCacheAccess("profile", false)
	}

	prefs, err := b.build(ctx, userID, time.Now().UTC())
	if err != nil {
		return models.UserPreferences{}, err
	}

	if b.cache != nil {
		b.cache.Set(key, prefs)
	}
	return prefs, nil
}

// Invalidate drops the user's cached profile. Called when new engagement
// arrives so the next Build recomputes.
func (b *Builder) Invalidate(userID string) {
	if b.cache != nil {
		b.cache.InvalidatePrefix(cacheKey(userID))
		metrics.CacheInvalidations.WithLabelValues("profile").Inc()
	}
}

// build computes the profile at the given instant. Exposed to tests via the
// fixed now for deterministic decay.
func (b *Builder) build(ctx context.Context, userID string, now time.Time) (models.UserPreferences, error) {
	start := time.Now()

	events, err := b.events.UserHistory(ctx, userID, now.Add(-b.window))
	if err != nil {
		return models.UserPreferences{}, err
	}

	prefs := models.UserPreferences{
		UserID:           userID,
		TopicWeights:     make(map[string]float64),
		CommunityWeights: make(map[string]float64),
		AuthorAffinities: make(map[string]float64),
		LastUpdated:      now,
	}

	if len(events) == 0 {
		metrics.RecordProfileBuild(time.Since(start), true)
		return prefs, nil
	}

	postIDs := make([]string, 0, len(events))
	for _, event := range events {
		if event.TargetType == models.TargetPost {
			postIDs = append(postIDs, event.TargetID)
		}
	}

	posts := map[string]models.Post{}
	if len(postIDs) > 0 {
		posts, err = b.posts.PostsByIDs(ctx, postIDs)
		if err != nil {
			return models.UserPreferences{}, err
		}
	}

	for _, event := range events {
		if event.Timestamp.After(now) {
			continue
		}
		w := float64(event.Weight) * b.decay(now.Sub(event.Timestamp))

		switch event.TargetType {
		case models.TargetPost:
			post, ok := posts[event.TargetID]
			if !ok {
				continue
			}
			for _, topic := range post.Topics {
				prefs.TopicWeights[topic] += w
			}
			if post.CommunityID != "" {
				prefs.CommunityWeights[post.CommunityID] += w
			}
			if post.AuthorID != "" {
				prefs.AuthorAffinities[post.AuthorID] += w
			}
		case models.TargetAgent:
			// Direct agent engagement counts toward author affinity.
			prefs.AuthorAffinities[event.TargetID] += w
		case models.TargetPattern:
			// Pattern engagement carries no topic, community or author
			// signal; it feeds pattern matching instead.
		}
	}

	normalize(prefs.TopicWeights)
	normalize(prefs.CommunityWeights)
	normalize(prefs.AuthorAffinities)

	metrics.RecordProfileBuild(time.Since(start), prefs.Empty())

	b.logger.Debug().
		Str("user_id", userID).
		Int("events", len(events)).
		Int("topics", len(prefs.TopicWeights)).
		Msg("profile built")

	return prefs, nil
}

// decay returns the exponential age decay factor for an event.
func (b *Builder) decay(age time.Duration) float64 {
	if age < 0 {
		return 1
	}
	return math.Exp2(-age.Hours() / b.halfLife.Hours())
}

// normalize scales weights in place so they sum to one. An all-zero map is
// left untouched.
func normalize(weights map[string]float64) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return
	}
	for k, w := range weights {
		weights[k] = w / total
	}
}

func cacheKey(userID string) string {
	return "profile:" + userID
}
