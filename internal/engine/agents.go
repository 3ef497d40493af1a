// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package engine

import (
	"context"
	"sort"
	"time"

	"github.com/clawspace/pulse/internal/match"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/velocity"
)

// AgentRecommendations suggests agents to follow, ranked by behavioral
// pattern similarity. The subject, their existing connections and agents
// with no detected patterns at all are excluded. Users without detected
// patterns fall back to the trending agent ranking.
func (e *Engine) AgentRecommendations(ctx context.Context, userID string, limit int) (FeedResult, error) {
	started := time.Now()
	limit = e.ClampLimit(limit)

	subjectPatterns := e.catalog.UserPatterns(userID)
	if len(subjectPatterns) == 0 {
		result, err := e.trendingAgentFallback(ctx, userID, limit)
		if err != nil {
			return FeedResult{}, err
		}
		metrics.RecordRecommendation("agents", time.Since(started), true)
		return result, nil
	}

	subject := e.agentSignals(ctx, userID, subjectPatterns)
	scored, err := e.scoredAgents(ctx, userID, subject)
	if err != nil {
		return FeedResult{}, err
	}

	recs := make([]models.Recommendation, 0, len(scored))
	for _, c := range scored {
		recs = append(recs, models.Recommendation{
			SubjectID:  userID,
			TargetID:   c.signals.AgentID,
			TargetType: models.TargetAgent,
			Score:      c.score.Score,
			ReasonCode: c.score.Reason,
			ReasonText: c.score.ReasonText,
			Tier:       match.Tier(c.score.Score),
			TierColor:  match.TierColor(c.score.Score),
		})
	}

	sortRecommendations(recs)
	recs, hasMore := page(recs, limit, 0)
	metrics.RecordRecommendation("agents", time.Since(started), false)
	return FeedResult{Items: recs, HasMore: hasMore}, nil
}

// CollaborationSuggestions proposes collaborators: agents whose pattern set
// overlaps the subject's, with a bonus for complementary skills. Candidates
// sharing no patterns with the subject are omitted.
func (e *Engine) CollaborationSuggestions(ctx context.Context, userID string, limit int) ([]models.CollaborationSuggestion, error) {
	started := time.Now()
	limit = e.ClampLimit(limit)

	subjectPatterns := e.catalog.UserPatterns(userID)
	if len(subjectPatterns) == 0 {
		metrics.RecordRecommendation("collaborations", time.Since(started), false)
		return nil, nil
	}

	subject := e.agentSignals(ctx, userID, subjectPatterns)
	scored, err := e.scoredAgents(ctx, userID, subject)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.CollaborationSuggestion, 0, len(scored))
	for _, c := range scored {
		if len(c.score.SharedPatterns) == 0 {
			continue
		}
		shared := make([]string, len(c.score.SharedPatterns))
		for i, pt := range c.score.SharedPatterns {
			shared[i] = string(pt)
		}
		suggestions = append(suggestions, models.CollaborationSuggestion{
			UserID:           userID,
			CandidateAgentID: c.signals.AgentID,
			Score:            c.score.Score,
			SharedPatterns:   shared,
			ReasonText:       c.score.ReasonText,
		})
	}

	sortCollaborations(suggestions)
	suggestions, _ = page(suggestions, limit, 0)
	metrics.RecordRecommendation("collaborations", time.Since(started), false)
	return suggestions, nil
}

// PatternRecommendations ranks detected behavioral patterns for a user by
// how much of their own signal each pattern type carries, plus global
// momentum.
func (e *Engine) PatternRecommendations(ctx context.Context, userID string, limit int) (FeedResult, error) {
	started := time.Now()
	limit = e.ClampLimit(limit)

	userDist := e.catalog.UserPatternDistribution(userID)
	catalog := e.catalog.Patterns()

	recs := make([]models.Recommendation, 0, len(catalog))
	for _, pattern := range catalog {
		s := match.ScorePattern(userDist, pattern)
		recs = append(recs, models.Recommendation{
			SubjectID:  userID,
			TargetID:   pattern.ID,
			TargetType: models.TargetPattern,
			Score:      s.Score,
			ReasonCode: s.Reason,
			ReasonText: s.ReasonText,
			Tier:       match.Tier(s.Score),
			TierColor:  match.TierColor(s.Score),
		})
	}

	sortRecommendations(recs)
	recs, hasMore := page(recs, limit, 0)
	metrics.RecordRecommendation("patterns", time.Since(started), false)
	return FeedResult{Items: recs, HasMore: hasMore}, nil
}

type scoredAgent struct {
	signals match.AgentSignals
	score   match.AgentScore
}

// scoredAgents scores every known agent against the subject, excluding the
// subject, their connections and agents with no detected patterns.
func (e *Engine) scoredAgents(ctx context.Context, userID string, subject match.AgentSignals) ([]scoredAgent, error) {
	candidates, err := e.graph.Agents(ctx, 0)
	if err != nil {
		return nil, err
	}

	connected := make(map[string]struct{})
	if agent, ok, err := e.graph.Agent(ctx, userID); err != nil {
		return nil, err
	} else if ok {
		for _, id := range agent.Connections {
			connected[id] = struct{}{}
		}
	}

	scored := make([]scoredAgent, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == userID {
			continue
		}
		if _, ok := connected[candidate.ID]; ok {
			continue
		}
		patterns := e.catalog.UserPatterns(candidate.ID)
		if len(patterns) == 0 {
			continue
		}
		signals := match.AgentSignals{
			AgentID:  candidate.ID,
			Patterns: patterns,
			Skills:   candidate.Skills,
		}
		scored = append(scored, scoredAgent{
			signals: signals,
			score:   match.ScoreAgents(subject, signals),
		})
	}
	return scored, nil
}

// agentSignals assembles the subject's side of an agent pairing. A subject
// missing from the graph still scores on patterns alone.
func (e *Engine) agentSignals(ctx context.Context, userID string, patterns []models.PatternType) match.AgentSignals {
	signals := match.AgentSignals{AgentID: userID, Patterns: patterns}
	if agent, ok, err := e.graph.Agent(ctx, userID); err == nil && ok {
		signals.Skills = agent.Skills
	}
	return signals
}

// trendingAgentFallback shapes the trending agent ranking as recommendations
// for users with no detected patterns yet.
func (e *Engine) trendingAgentFallback(ctx context.Context, userID string, limit int) (FeedResult, error) {
	items, err := e.trending(ctx, models.TargetAgent, e.estimator, limit+1, e.now())
	if err != nil {
		return FeedResult{}, err
	}

	items, hasMore := page(items, limit, 0)
	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		if item.TargetID == userID {
			continue
		}
		score := match.NormalizeRate(item.Velocity)
		recs = append(recs, models.Recommendation{
			SubjectID:  userID,
			TargetID:   item.TargetID,
			TargetType: models.TargetAgent,
			Score:      score,
			ReasonCode: models.ReasonTrending,
			ReasonText: "Trending right now at " + velocity.FormatVelocity(item.Velocity),
			Tier:       match.Tier(score),
			TierColor:  match.TierColor(score),
		})
	}
	return FeedResult{Items: recs, HasMore: hasMore, Fallback: true}, nil
}

// sortCollaborations orders by score descending, candidate ID ascending.
func sortCollaborations(suggestions []models.CollaborationSuggestion) {
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].CandidateAgentID < suggestions[j].CandidateAgentID
	})
}
