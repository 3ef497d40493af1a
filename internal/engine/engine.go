// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package engine assembles recommendations. It joins the engagement ledger,
// velocity estimator, preference profiles and match scorers against the
// content directory and social graph, and serves every recommendation
// surface: the discovery feed, trending rankings, agent and collaboration
// suggestions, pattern recommendations, similar content and score
// explanations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/clawspace/pulse/internal/cache"
	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/ledger"
	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/match"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/profile"
	"github.com/clawspace/pulse/internal/velocity"
)

var (
	// ErrNotFound indicates an unknown post, agent or pattern.
	ErrNotFound = errors.New("target not found")
)

// EventLedger is the slice of the ledger the engine reads.
// *ledger.Ledger implements it.
type EventLedger interface {
	UserHistory(ctx context.Context, userID string, since time.Time) ([]models.EngagementEvent, error)
	TargetHistory(ctx context.Context, targetType models.TargetType, targetID string, since time.Time) ([]models.EngagementEvent, error)
	TargetTypeHistory(ctx context.Context, targetType models.TargetType, since time.Time) ([]models.EngagementEvent, error)
}

// ContentDirectory resolves post metadata. It is an external collaborator:
// the feed service owns posts, Pulse only reads them.
type ContentDirectory interface {
	PostsByIDs(ctx context.Context, ids []string) (map[string]models.Post, error)
	RecentPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error)
}

// SocialGraph resolves agent metadata and connections. Agents returns up to
// limit agents; a limit of zero or less returns all of them.
type SocialGraph interface {
	Agent(ctx context.Context, id string) (models.Agent, bool, error)
	Agents(ctx context.Context, limit int) ([]models.Agent, error)
}

// PatternCatalog serves detected behavioral patterns.
// *patterns.Detector implements it.
type PatternCatalog interface {
	Patterns() []models.Pattern
	Pattern(pt models.PatternType) (models.Pattern, bool)
	UserPatterns(userID string) []models.PatternType
	UserPatternDistribution(userID string) map[models.PatternType]float64
}

// ProfileSource builds preference profiles. *profile.Builder implements it.
type ProfileSource interface {
	Build(ctx context.Context, userID string) (models.UserPreferences, error)
	Invalidate(userID string)
}

// Engine is the recommendation assembler.
type Engine struct {
	cfg       config.EngineConfig
	ledger    EventLedger
	estimator *velocity.Estimator
	profiles  ProfileSource
	directory ContentDirectory
	graph     SocialGraph
	catalog   PatternCatalog
	cache     *cache.Cache
	logger    zerolog.Logger

	// now is replaceable in tests for deterministic decay.
	now func() time.Time
}

// New creates the engine. resultCache may be nil to disable caching.
func New(
	cfg config.EngineConfig,
	eventLedger EventLedger,
	profiles ProfileSource,
	directory ContentDirectory,
	graph SocialGraph,
	catalog PatternCatalog,
	resultCache *cache.Cache,
) *Engine {
	return &Engine{
		cfg:       cfg,
		ledger:    eventLedger,
		estimator: velocity.NewEstimator(cfg.VelocityWindow, cfg.VelocityBucket, cfg.VelocityHalfLife),
		profiles:  profiles,
		directory: directory,
		graph:     graph,
		catalog:   catalog,
		cache:     resultCache,
		logger:    logging.With().Str("component", "engine").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ClampLimit normalizes a requested result count against the configured
// default and maximum.
func (e *Engine) ClampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// FeedResult is a page of feed recommendations.
type FeedResult struct {
	Items   []models.Recommendation
	HasMore bool

	// Fallback is true when the user was cold-started onto trending.
	Fallback bool
}

// DiscoverFeed assembles the personalized post feed for a user. Users with
// fewer than the configured minimum of engagement events fall back to the
// trending ranking. Posts the user already engaged with are excluded. offset
// skips that many ranked items for pagination.
func (e *Engine) DiscoverFeed(ctx context.Context, userID string, limit, offset int) (FeedResult, error) {
	started := time.Now()
	limit = e.ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	now := e.now()

	key := fmt.Sprintf("feed:%s:%d:%d", userID, limit, offset)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			metrics.RecordCacheAccess("feed", true)
			return cached.(FeedResult), nil
		}
		metrics.RecordCacheAccess("feed", false)
	}

	history, err := e.ledger.UserHistory(ctx, userID, now.Add(-e.cfg.ProfileWindow))
	if err != nil {
		return FeedResult{}, err
	}

	var result FeedResult
	if len(history) < e.cfg.MinEvents {
		result, err = e.trendingFallback(ctx, userID, limit, offset, now)
	} else {
		result, err = e.personalizedFeed(ctx, userID, history, limit, offset, now)
	}
	if err != nil {
		return FeedResult{}, err
	}

	if e.cache != nil {
		e.cache.Set(key, result)
	}
	metrics.RecordRecommendation("feed", time.Since(started), result.Fallback)
	return result, nil
}

// personalizedFeed scores recent posts against the user's profile.
func (e *Engine) personalizedFeed(ctx context.Context, userID string, history []models.EngagementEvent, limit, offset int, now time.Time) (FeedResult, error) {
	prefs, err := e.profiles.Build(ctx, userID)
	if err != nil {
		return FeedResult{}, err
	}

	engaged := make(map[string]struct{}, len(history))
	for _, event := range history {
		if event.TargetType == models.TargetPost {
			engaged[event.TargetID] = struct{}{}
		}
	}

	candidates, err := e.directory.RecentPosts(ctx, now.Add(-e.estimator.Window()), e.candidateBudget(limit+offset))
	if err != nil {
		return FeedResult{}, err
	}

	rates, err := e.ratesByTarget(ctx, models.TargetPost, now)
	if err != nil {
		return FeedResult{}, err
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, post := range candidates {
		if _, seen := engaged[post.ID]; seen {
			continue
		}
		if post.AuthorID == userID {
			continue
		}
		s := match.ScorePost(prefs, post, rates[post.ID])
		recs = append(recs, models.Recommendation{
			SubjectID:  userID,
			TargetID:   post.ID,
			TargetType: models.TargetPost,
			Score:      s.Score,
			ReasonCode: s.Reason,
			ReasonText: s.ReasonText,
			Tier:       match.Tier(s.Score),
			TierColor:  match.TierColor(s.Score),
		})
	}

	// Equal scores rank by current velocity so fresher activity surfaces
	// first; the ID comparison keeps pagination stable beyond that.
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if rates[recs[i].TargetID] != rates[recs[j].TargetID] {
			return rates[recs[i].TargetID] > rates[recs[j].TargetID]
		}
		return recs[i].TargetID < recs[j].TargetID
	})
	recs, hasMore := page(recs, limit, offset)
	return FeedResult{Items: recs, HasMore: hasMore}, nil
}

// trendingFallback serves the trending ranking shaped as recommendations.
func (e *Engine) trendingFallback(ctx context.Context, userID string, limit, offset int, now time.Time) (FeedResult, error) {
	items, err := e.trending(ctx, models.TargetPost, e.estimator, limit+offset+1, now)
	if err != nil {
		return FeedResult{}, err
	}

	items, hasMore := page(items, limit, offset)

	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		score := match.NormalizeRate(item.Velocity)
		recs = append(recs, models.Recommendation{
			SubjectID:  userID,
			TargetID:   item.TargetID,
			TargetType: models.TargetPost,
			Score:      score,
			ReasonCode: models.ReasonTrending,
			ReasonText: "Trending right now at " + velocity.FormatVelocity(item.Velocity),
			Tier:       match.Tier(score),
			TierColor:  match.TierColor(score),
		})
	}
	return FeedResult{Items: recs, HasMore: hasMore, Fallback: true}, nil
}

// TrendingPosts ranks posts by engagement rate over the given window.
// windowHours of 0 uses the configured window.
func (e *Engine) TrendingPosts(ctx context.Context, limit, windowHours int) ([]models.TrendingItem, error) {
	return e.trendingForWindow(ctx, models.TargetPost, limit, windowHours)
}

// TrendingAgents ranks agents by engagement rate over the given window.
func (e *Engine) TrendingAgents(ctx context.Context, limit, windowHours int) ([]models.TrendingItem, error) {
	return e.trendingForWindow(ctx, models.TargetAgent, limit, windowHours)
}

func (e *Engine) trendingForWindow(ctx context.Context, targetType models.TargetType, limit, windowHours int) ([]models.TrendingItem, error) {
	limit = e.ClampLimit(limit)
	now := e.now()

	estimator := e.estimator
	if windowHours > 0 {
		window := time.Duration(windowHours) * time.Hour
		if window != e.cfg.VelocityWindow {
			estimator = velocity.NewEstimator(window, e.cfg.VelocityBucket, e.cfg.VelocityHalfLife)
		}
	}

	key := fmt.Sprintf("trending:%s:%d:%d", targetType, limit, windowHours)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			metrics.RecordCacheAccess("trending", true)
			return cached.([]models.TrendingItem), nil
		}
		metrics.RecordCacheAccess("trending", false)
	}

	items, err := e.trending(ctx, targetType, estimator, limit, now)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(key, items)
	}
	return items, nil
}

func (e *Engine) trending(ctx context.Context, targetType models.TargetType, estimator *velocity.Estimator, limit int, now time.Time) ([]models.TrendingItem, error) {
	events, err := e.ledger.TargetTypeHistory(ctx, targetType, now.Add(-estimator.Window()))
	if err != nil {
		return nil, err
	}
	created, err := e.creationTimes(ctx, targetType, events)
	if err != nil {
		return nil, err
	}
	return estimator.Trending(events, targetType, limit, now, created), nil
}

// creationTimes resolves creation timestamps for every target in the event
// set, feeding the earlier-wins trending tiebreak. Targets the catalogs
// cannot resolve stay absent and rank after resolved ones on ties.
func (e *Engine) creationTimes(ctx context.Context, targetType models.TargetType, events []models.EngagementEvent) (map[string]time.Time, error) {
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, event := range events {
		if _, ok := seen[event.TargetID]; ok {
			continue
		}
		seen[event.TargetID] = struct{}{}
		ids = append(ids, event.TargetID)
	}

	created := make(map[string]time.Time, len(ids))
	switch targetType {
	case models.TargetPost:
		posts, err := e.directory.PostsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for id, post := range posts {
			created[id] = post.CreatedAt
		}
	case models.TargetAgent:
		for _, id := range ids {
			agent, ok, err := e.graph.Agent(ctx, id)
			if err != nil {
				return nil, err
			}
			if ok {
				created[id] = agent.CreatedAt
			}
		}
	}
	return created, nil
}

// PreferenceProfile returns the user's current preference profile.
func (e *Engine) PreferenceProfile(ctx context.Context, userID string) (models.UserPreferences, error) {
	return e.profiles.Build(ctx, userID)
}

// ratesByTarget computes the engagement rate for every target of a type.
func (e *Engine) ratesByTarget(ctx context.Context, targetType models.TargetType, now time.Time) (map[string]float64, error) {
	events, err := e.ledger.TargetTypeHistory(ctx, targetType, now.Add(-e.estimator.Window()))
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.EngagementEvent)
	for _, event := range events {
		grouped[event.TargetID] = append(grouped[event.TargetID], event)
	}

	rates := make(map[string]float64, len(grouped))
	for targetID, targetEvents := range grouped {
		rates[targetID] = e.estimator.Rate(targetEvents, now)
	}
	return rates, nil
}

// candidateBudget is how many candidates to pull for a page of the given
// size. One extra detects HasMore; the multiplier absorbs exclusions.
func (e *Engine) candidateBudget(limit int) int {
	return limit*5 + 1
}

// page applies offset and limit to a ranked slice and reports whether more
// items follow the returned window.
func page[T any](items []T, limit, offset int) ([]T, bool) {
	if offset >= len(items) {
		return nil, false
	}
	items = items[offset:]
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

// sortRecommendations orders by score descending, target ID ascending on
// ties, so pagination is stable.
func sortRecommendations(recs []models.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].TargetID < recs[j].TargetID
	})
}

// Invalidate drops a user's cached profile and feed after new engagement.
// Trending caches are left to expire by TTL; they change slowly and are
// shared across users.
func (e *Engine) Invalidate(userID string) {
	e.profiles.Invalidate(userID)
	if e.cache != nil {
		e.cache.InvalidatePrefix("feed:" + userID + ":")
		metrics.CacheInvalidations.WithLabelValues("feed").Inc()
	}
}

var _ EventLedger = (*ledger.Ledger)(nil)
var _ ProfileSource = (*profile.Builder)(nil)
