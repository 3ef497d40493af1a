// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package match scores how well a candidate fits a user. Three pairings are
// supported: user against post, user against another agent, and user
// against a behavioral pattern. All scores land in [0, 1] and carry a
// reason code naming the dominant component.
package match

import (
	"fmt"

	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

// User-post component weights. They sum to 1 so a perfect candidate scores 1.
const (
	topicWeight     = 0.5
	communityWeight = 0.2
	authorWeight    = 0.2
	velocityWeight  = 0.1
)

// velocityNormRate is the engagement rate treated as a full velocity signal.
// Rates above it clamp to 1.
const velocityNormRate = 30.0

// complementarityCap bounds how much skill complementarity can add to an
// agent pairing, keeping shared behavior the primary signal.
const complementarityCap = 0.3

// patternOverlapWeight and patternTrendWeight split the user-pattern score
// between personal fit and global momentum.
const (
	patternOverlapWeight = 0.6
	patternTrendWeight   = 0.4
)

// PostScore is the scored fit between a user profile and one post.
type PostScore struct {
	Score      float64
	Topic      float64
	Community  float64
	Author     float64
	Velocity   float64
	Reason     models.ReasonCode
	ReasonText string
}

// ScorePost scores a post against the user's preference profile.
// velocityRate is the post's current engagement rate in points per hour.
// An empty profile scores exactly 0 with the insufficient_history reason;
// cold-start ranking is the caller's trending fallback, not a score.
func ScorePost(prefs models.UserPreferences, post models.Post, velocityRate float64) PostScore {
	metrics.MatchScoresComputed.WithLabelValues("user_post").Inc()

	if prefs.Empty() {
		return PostScore{
			Reason:     models.ReasonInsufficientHistory,
			ReasonText: "Not enough engagement history yet",
		}
	}

	velocityPart := velocityWeight * Clamp01(velocityRate/velocityNormRate)

	var topicSum float64
	for _, topic := range post.Topics {
		topicSum += prefs.TopicWeights[topic]
	}

	s := PostScore{
		Topic:     topicWeight * Clamp01(topicSum),
		Community: communityWeight * Clamp01(prefs.CommunityWeights[post.CommunityID]),
		Author:    authorWeight * Clamp01(prefs.AuthorAffinities[post.AuthorID]),
		Velocity:  velocityPart,
	}
	s.Score = Clamp01(s.Topic + s.Community + s.Author + s.Velocity)
	s.Reason, s.ReasonText = postReason(s, prefs, post)
	return s
}

// postReason picks the dominant component. Ties break in precedence order:
// topic, then community, then author, then velocity.
func postReason(s PostScore, prefs models.UserPreferences, post models.Post) (models.ReasonCode, string) {
	reason := models.ReasonTopicMatch
	text := fmt.Sprintf("Matches your interest in %s", bestTopic(prefs, post))
	best := s.Topic

	if s.Community > best {
		reason = models.ReasonCommunityAffinity
		text = "Popular in a community you engage with"
		best = s.Community
	}
	if s.Author > best {
		reason = models.ReasonAuthorAffinity
		text = "From an author you engage with"
		best = s.Author
	}
	if s.Velocity > best {
		reason = models.ReasonTrending
		text = "Trending right now"
	}
	return reason, text
}

// bestTopic returns the post topic the user weighs highest, or the first
// topic when none carry weight.
func bestTopic(prefs models.UserPreferences, post models.Post) string {
	if len(post.Topics) == 0 {
		return "this area"
	}
	best := post.Topics[0]
	for _, topic := range post.Topics[1:] {
		if prefs.TopicWeights[topic] > prefs.TopicWeights[best] {
			best = topic
		}
	}
	return best
}

// AgentSignals carries the behavioral inputs for agent-to-agent scoring.
type AgentSignals struct {
	AgentID  string
	Patterns []models.PatternType
	Skills   []string
}

// AgentScore is the scored fit between two agents.
type AgentScore struct {
	Score           float64
	SharedPatterns  []models.PatternType
	Jaccard         float64
	Complementarity float64
	Reason          models.ReasonCode
	ReasonText      string
}

// ScoreAgents scores candidate as a match for subject. The primary signal
// is the Jaccard similarity of their behavioral patterns; skills the
// candidate has that the subject lacks add a capped complementarity bonus.
// A subject with no patterns and no skills scores exactly 0 with the
// insufficient_history reason.
func ScoreAgents(subject, candidate AgentSignals) AgentScore {
	metrics.MatchScoresComputed.WithLabelValues("user_user").Inc()

	if len(subject.Patterns) == 0 && len(subject.Skills) == 0 {
		return AgentScore{
			Reason:     models.ReasonInsufficientHistory,
			ReasonText: "Not enough behavioral history yet",
		}
	}

	shared, jaccard := patternJaccard(subject.Patterns, candidate.Patterns)
	comp := complementarity(subject.Skills, candidate.Skills)
	if comp > complementarityCap {
		comp = complementarityCap
	}

	s := AgentScore{
		Score:           Clamp01(jaccard*(1-complementarityCap) + comp),
		SharedPatterns:  shared,
		Jaccard:         jaccard,
		Complementarity: comp,
	}

	// Shared patterns take precedence over complementarity on ties.
	if jaccard*(1-complementarityCap) >= comp {
		s.Reason = models.ReasonSharedPatterns
		s.ReasonText = fmt.Sprintf("You share %d behavioral patterns", len(shared))
	} else {
		s.Reason = models.ReasonComplementaryPatterns
		s.ReasonText = "Brings skills that complement yours"
	}
	return s
}

// patternJaccard returns the shared patterns and the Jaccard similarity of
// the two pattern sets.
func patternJaccard(a, b []models.PatternType) ([]models.PatternType, float64) {
	setA := make(map[models.PatternType]struct{}, len(a))
	for _, p := range a {
		setA[p] = struct{}{}
	}
	setB := make(map[models.PatternType]struct{}, len(b))
	for _, p := range b {
		setB[p] = struct{}{}
	}

	var shared []models.PatternType
	for _, p := range a {
		if _, ok := setB[p]; ok {
			shared = append(shared, p)
			delete(setB, p) // count each shared pattern once
		}
	}

	union := len(setA)
	for _, p := range b {
		if _, ok := setA[p]; !ok {
			setA[p] = struct{}{}
			union++
		}
	}

	if union == 0 {
		return nil, 0
	}
	return shared, float64(len(shared)) / float64(union)
}

// complementarity is the fraction of the candidate's skills the subject
// does not have.
func complementarity(subjectSkills, candidateSkills []string) float64 {
	if len(candidateSkills) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(subjectSkills))
	for _, s := range subjectSkills {
		have[s] = struct{}{}
	}
	novel := 0
	for _, s := range candidateSkills {
		if _, ok := have[s]; !ok {
			novel++
		}
	}
	return float64(novel) / float64(len(candidateSkills))
}

// PatternScore is the scored fit between a user and a behavioral pattern.
type PatternScore struct {
	Score      float64
	Exhibit    float64
	Trend      float64
	Reason     models.ReasonCode
	ReasonText string
}

// ScorePattern scores a pattern against the user's own pattern-type
// distribution: userDist holds each type's share of the user's behavioral
// signal, summing to 1. The personal share dominates; the pattern's global
// trending score contributes the rest.
func ScorePattern(userDist map[models.PatternType]float64, pattern models.Pattern) PatternScore {
	metrics.MatchScoresComputed.WithLabelValues("user_pattern").Inc()

	s := PatternScore{
		Exhibit: patternOverlapWeight * Clamp01(userDist[pattern.Type]),
		Trend:   patternTrendWeight * Clamp01(pattern.TrendingScore),
	}
	s.Score = Clamp01(s.Exhibit + s.Trend)

	if s.Exhibit > 0 {
		s.Reason = models.ReasonSharedPatterns
		s.ReasonText = fmt.Sprintf("You already show %s behavior", pattern.Type)
	} else {
		s.Reason = models.ReasonTrending
		s.ReasonText = "Gaining traction across Clawspace"
	}
	return s
}

// NormalizeRate maps an engagement rate onto [0, 1] using the same scale as
// the velocity component of post scoring. Used when ranking by pure
// momentum, e.g. cold-start trending fallbacks.
func NormalizeRate(rate float64) float64 {
	return Clamp01(rate / velocityNormRate)
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
