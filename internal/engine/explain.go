// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package engine

import (
	"context"
	"strings"

	"github.com/clawspace/pulse/internal/match"
	"github.com/clawspace/pulse/internal/models"
)

// Signal is one named contribution to a score.
type Signal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Explanation breaks a recommendation score down into its signals. It runs
// the same scoring path as the list endpoints, so an explanation never
// disagrees with the reason shown in a feed.
type Explanation struct {
	SubjectID  string            `json:"subject_id"`
	TargetID   string            `json:"target_id"`
	TargetType models.TargetType `json:"target_type"`
	Score      float64           `json:"score"`
	Tier       string            `json:"tier"`
	TierColor  string            `json:"tier_color"`
	ReasonCode models.ReasonCode `json:"reason_code"`
	ReasonText string            `json:"reason_text"`
	Signals    []Signal          `json:"signals"`
}

// Explain scores one (subject, target) pair and reports the contributing
// signals. Unknown targets return ErrNotFound.
func (e *Engine) Explain(ctx context.Context, userID string, targetType models.TargetType, targetID string) (Explanation, error) {
	switch targetType {
	case models.TargetPost:
		return e.explainPost(ctx, userID, targetID)
	case models.TargetAgent:
		return e.explainAgent(ctx, userID, targetID)
	case models.TargetPattern:
		return e.explainPattern(userID, targetID)
	default:
		return Explanation{}, ErrNotFound
	}
}

func (e *Engine) explainPost(ctx context.Context, userID, postID string) (Explanation, error) {
	posts, err := e.directory.PostsByIDs(ctx, []string{postID})
	if err != nil {
		return Explanation{}, err
	}
	post, ok := posts[postID]
	if !ok {
		return Explanation{}, ErrNotFound
	}

	prefs, err := e.profiles.Build(ctx, userID)
	if err != nil {
		return Explanation{}, err
	}

	now := e.now()
	events, err := e.ledger.TargetHistory(ctx, models.TargetPost, postID, now.Add(-e.estimator.Window()))
	if err != nil {
		return Explanation{}, err
	}

	s := match.ScorePost(prefs, post, e.estimator.Rate(events, now))
	return e.explanation(userID, postID, models.TargetPost, s.Score, s.Reason, s.ReasonText, []Signal{
		{Name: "topic_match", Value: s.Topic},
		{Name: "community_affinity", Value: s.Community},
		{Name: "author_affinity", Value: s.Author},
		{Name: "velocity", Value: s.Velocity},
	}), nil
}

func (e *Engine) explainAgent(ctx context.Context, userID, agentID string) (Explanation, error) {
	candidate, ok, err := e.graph.Agent(ctx, agentID)
	if err != nil {
		return Explanation{}, err
	}
	if !ok {
		return Explanation{}, ErrNotFound
	}

	subject := e.agentSignals(ctx, userID, e.catalog.UserPatterns(userID))
	s := match.ScoreAgents(subject, match.AgentSignals{
		AgentID:  candidate.ID,
		Patterns: e.catalog.UserPatterns(candidate.ID),
		Skills:   candidate.Skills,
	})
	return e.explanation(userID, agentID, models.TargetAgent, s.Score, s.Reason, s.ReasonText, []Signal{
		{Name: "pattern_similarity", Value: s.Jaccard},
		{Name: "skill_complementarity", Value: s.Complementarity},
		{Name: "shared_patterns", Value: float64(len(s.SharedPatterns))},
	}), nil
}

func (e *Engine) explainPattern(userID, targetID string) (Explanation, error) {
	// Pattern targets may arrive as the catalog ID ("pattern:curation") or
	// as the bare type.
	pt := models.PatternType(strings.TrimPrefix(targetID, "pattern:"))
	pattern, ok := e.catalog.Pattern(pt)
	if !ok {
		return Explanation{}, ErrNotFound
	}

	s := match.ScorePattern(e.catalog.UserPatternDistribution(userID), pattern)
	return e.explanation(userID, targetID, models.TargetPattern, s.Score, s.Reason, s.ReasonText, []Signal{
		{Name: "pattern_affinity", Value: s.Exhibit},
		{Name: "trending_score", Value: pattern.TrendingScore},
		{Name: "frequency", Value: float64(pattern.Frequency)},
	}), nil
}

func (e *Engine) explanation(userID, targetID string, targetType models.TargetType, score float64, reason models.ReasonCode, text string, signals []Signal) Explanation {
	return Explanation{
		SubjectID:  userID,
		TargetID:   targetID,
		TargetType: targetType,
		Score:      score,
		Tier:       match.Tier(score),
		TierColor:  match.TierColor(score),
		ReasonCode: reason,
		ReasonText: text,
		Signals:    signals,
	}
}

// SimilarContent ranks recent posts by content similarity to a source post.
// The source itself is excluded. Unknown posts return ErrNotFound.
func (e *Engine) SimilarContent(ctx context.Context, postID string, limit int) (FeedResult, error) {
	limit = e.ClampLimit(limit)

	posts, err := e.directory.PostsByIDs(ctx, []string{postID})
	if err != nil {
		return FeedResult{}, err
	}
	source, ok := posts[postID]
	if !ok {
		return FeedResult{}, ErrNotFound
	}

	candidates, err := e.directory.RecentPosts(ctx, e.now().Add(-e.estimator.Window()), e.candidateBudget(limit))
	if err != nil {
		return FeedResult{}, err
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == postID {
			continue
		}
		s := match.ScoreSimilar(source, candidate)
		if s.Score == 0 {
			continue
		}
		recs = append(recs, models.Recommendation{
			SubjectID:  postID,
			TargetID:   candidate.ID,
			TargetType: models.TargetPost,
			Score:      s.Score,
			ReasonCode: s.Reason,
			ReasonText: s.ReasonText,
			Tier:       match.Tier(s.Score),
			TierColor:  match.TierColor(s.Score),
		})
	}

	sortRecommendations(recs)
	recs, hasMore := page(recs, limit, 0)
	return FeedResult{Items: recs, HasMore: hasMore}, nil
}
