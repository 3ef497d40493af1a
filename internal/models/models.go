// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package models

import (
	"time"
)

// TargetType identifies what kind of entity an engagement event or
// recommendation points at.
type TargetType string

const (
	// TargetPost is a content post in the feed.
	TargetPost TargetType = "post"
	// TargetAgent is a user/agent profile.
	TargetAgent TargetType = "agent"
	// TargetPattern is a detected behavioral pattern.
	TargetPattern TargetType = "pattern"
)

// Valid reports whether the target type is one of the enumerated values.
func (t TargetType) Valid() bool {
	switch t {
	case TargetPost, TargetAgent, TargetPattern:
		return true
	default:
		return false
	}
}

// EventKind classifies a user engagement.
type EventKind string

const (
	// EventView is a passive content view.
	EventView EventKind = "view"
	// EventLike is an explicit like.
	EventLike EventKind = "like"
	// EventReply is a reply to a post.
	EventReply EventKind = "reply"
	// EventRepost is a repost/share.
	EventRepost EventKind = "repost"
	// EventBookmark is a save-for-later.
	EventBookmark EventKind = "bookmark"
	// EventCollabAccept is an accepted collaboration invite.
	EventCollabAccept EventKind = "collab_accept"
	// EventPatternMatch records a behavioral pattern firing for the user.
	EventPatternMatch EventKind = "pattern_match"
)

// eventWeights is the fixed per-kind weight table. Weights are assigned
// server-side at record time; they are never accepted from callers.
var eventWeights = map[EventKind]float64{
	EventView:         1,
	EventLike:         3,
	EventReply:        5,
	EventRepost:       4,
	EventBookmark:     4,
	EventCollabAccept: 8,
	EventPatternMatch: 2,
}

// Valid reports whether the kind is one of the enumerated values.
func (k EventKind) Valid() bool {
	_, ok := eventWeights[k]
	return ok
}

// Weight returns the fixed engagement weight for the kind, or 0 for an
// unrecognized kind.
func (k EventKind) Weight() float64 {
	return eventWeights[k]
}

// EventKinds returns all recognized kinds in a stable order.
func EventKinds() []EventKind {
	return []EventKind{
		EventView, EventLike, EventReply, EventRepost,
		EventBookmark, EventCollabAccept, EventPatternMatch,
	}
}

// EngagementEvent is a single immutable entry in the engagement ledger.
// Events are append-only: once recorded they are never updated or deleted
// except by retention compaction.
type EngagementEvent struct {
	// ID is the server-assigned unique event identifier.
	ID string `json:"id"`

	// UserID is the user who performed the engagement.
	UserID string `json:"user_id"`

	// TargetType is the kind of entity engaged with.
	TargetType TargetType `json:"target_type"`

	// TargetID is the engaged entity's identifier.
	TargetID string `json:"target_id"`

	// Kind classifies the engagement.
	Kind EventKind `json:"kind"`

	// Weight is derived from Kind at record time.
	Weight float64 `json:"weight"`

	// Timestamp is the server-side record time (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// Post is the read model for a content post, resolved through the external
// content directory. The engine never mutates posts.
type Post struct {
	// ID is the post identifier.
	ID string `json:"id"`

	// AuthorID is the posting agent.
	AuthorID string `json:"author_id"`

	// CommunityID is the community the post belongs to, if any.
	CommunityID string `json:"community_id,omitempty"`

	// Topics are the post's topic tags.
	Topics []string `json:"topics"`

	// CreatedAt is the post creation time.
	CreatedAt time.Time `json:"created_at"`
}

// Agent is the read model for a user/agent profile, resolved through the
// external identity directory.
type Agent struct {
	// ID is the agent identifier.
	ID string `json:"id"`

	// Handle is the display handle.
	Handle string `json:"handle,omitempty"`

	// Skills are the agent's declared skill tags.
	Skills []string `json:"skills"`

	// FollowedCommunities are community IDs the agent follows.
	FollowedCommunities []string `json:"followed_communities,omitempty"`

	// Connections are agent IDs with an existing connection.
	Connections []string `json:"connections,omitempty"`

	// CreatedAt is the profile creation time.
	CreatedAt time.Time `json:"created_at"`
}

// PatternType enumerates recognized behavioral pattern categories.
type PatternType string

const (
	// PatternCoding marks implementation-heavy activity.
	PatternCoding PatternType = "coding"
	// PatternDesign marks design-leaning activity.
	PatternDesign PatternType = "design"
	// PatternResearch marks exploration and reading activity.
	PatternResearch PatternType = "research"
	// PatternCuration marks bookmark/repost-heavy activity.
	PatternCuration PatternType = "curation"
	// PatternCollaboration marks pairing-heavy activity.
	PatternCollaboration PatternType = "collaboration"
)

// Valid reports whether the pattern type is one of the recognized categories.
func (p PatternType) Valid() bool {
	switch p {
	case PatternCoding, PatternDesign, PatternResearch, PatternCuration, PatternCollaboration:
		return true
	default:
		return false
	}
}

// Pattern is a recurring behavioral signature detected across activity
// history. Frequency and TrendingScore are derived values, recomputed from
// the ledger; callers never mutate them directly.
type Pattern struct {
	// ID is the pattern identifier.
	ID string `json:"id"`

	// Type is the pattern category.
	Type PatternType `json:"type"`

	// Description is a short human-readable summary.
	Description string `json:"description"`

	// Frequency is how often the pattern has been observed.
	Frequency int `json:"frequency"`

	// TrendingScore is the pattern's decayed popularity.
	TrendingScore float64 `json:"trending_score"`
}

// TrendingItem is a recomputed, cacheable trending entry. It is always
// derivable from the ledger; the window is contiguous and right-bounded
// by "now".
type TrendingItem struct {
	// TargetID is the trending entity.
	TargetID string `json:"target_id"`

	// TargetType is the entity kind.
	TargetType TargetType `json:"target_type"`

	// Velocity is the decayed, time-windowed popularity score.
	// Non-negative; 0 means no events in the horizon.
	Velocity float64 `json:"velocity"`

	// EventCount is the total unweighted event count in the window,
	// used as the first trending tiebreak.
	EventCount int `json:"event_count"`

	// CreatedAt is the entity's creation time when the catalog resolves
	// it. Earlier creation wins the second tiebreak, rewarding sustained
	// momentum over a fresh spike. Zero when unresolved.
	CreatedAt time.Time `json:"created_at"`

	// WindowStart is the left edge of the lookback window.
	WindowStart time.Time `json:"window_start"`

	// WindowEnd is the right edge of the window ("now" at compute time).
	WindowEnd time.Time `json:"window_end"`

	// Label is the human-readable velocity band (quiet/rising/hot/surging).
	Label string `json:"label"`
}

// UserPreferences is a user's derived interest vector. It is owned
// exclusively by the profile builder: rebuilt from the ledger, never
// hand-edited. Each dimension is normalized independently so weights
// within a dimension sum to 1.
type UserPreferences struct {
	// UserID is the profiled user.
	UserID string `json:"user_id"`

	// TopicWeights maps topic tag to normalized interest weight.
	TopicWeights map[string]float64 `json:"topic_weights"`

	// CommunityWeights maps community ID to normalized affinity.
	CommunityWeights map[string]float64 `json:"community_weights"`

	// AuthorAffinities maps author/agent ID to normalized affinity.
	AuthorAffinities map[string]float64 `json:"author_affinities"`

	// LastUpdated is when the profile was rebuilt.
	LastUpdated time.Time `json:"last_updated"`
}

// Empty reports whether the profile carries no signal in any dimension.
func (p *UserPreferences) Empty() bool {
	return len(p.TopicWeights) == 0 &&
		len(p.CommunityWeights) == 0 &&
		len(p.AuthorAffinities) == 0
}

// ReasonCode identifies the dominant signal behind a recommendation.
type ReasonCode string

const (
	// ReasonTopicMatch marks topic-overlap dominance.
	ReasonTopicMatch ReasonCode = "topic_match"
	// ReasonCommunityAffinity marks community-affinity dominance.
	ReasonCommunityAffinity ReasonCode = "community_affinity"
	// ReasonAuthorAffinity marks author-affinity dominance.
	ReasonAuthorAffinity ReasonCode = "author_affinity"
	// ReasonTrending marks velocity dominance.
	ReasonTrending ReasonCode = "trending"
	// ReasonSharedPatterns marks pattern-overlap dominance.
	ReasonSharedPatterns ReasonCode = "shared_patterns"
	// ReasonComplementaryPatterns marks complementary pattern types.
	ReasonComplementaryPatterns ReasonCode = "complementary_patterns"
	// ReasonInsufficientHistory marks the defined zero-score outcome for
	// subjects with no usable history. Not a failure.
	ReasonInsufficientHistory ReasonCode = "insufficient_history"
)

// Recommendation is a pure, stateless output value: produced on demand from
// current inputs, never stored.
type Recommendation struct {
	// SubjectID is the user the recommendation is for.
	SubjectID string `json:"subject_id"`

	// TargetID is the recommended entity.
	TargetID string `json:"target_id"`

	// TargetType is the recommended entity's kind.
	TargetType TargetType `json:"target_type"`

	// Score is the bounded match score in [0, 1].
	Score float64 `json:"score"`

	// ReasonCode identifies the dominant contributing signal.
	ReasonCode ReasonCode `json:"reason_code"`

	// ReasonText is the templated human-readable justification.
	ReasonText string `json:"reason_text"`

	// Tier is the qualitative label derived from Score, display only.
	Tier string `json:"tier"`

	// TierColor is the display color associated with the tier.
	TierColor string `json:"tier_color"`
}

// CollaborationSuggestion pairs a user with a candidate collaborator.
type CollaborationSuggestion struct {
	// UserID is the subject user.
	UserID string `json:"user_id"`

	// CandidateAgentID is the suggested collaborator.
	CandidateAgentID string `json:"candidate_agent_id"`

	// Score is the bounded compatibility score in [0, 1].
	Score float64 `json:"score"`

	// SharedPatterns are pattern IDs both users exhibit.
	SharedPatterns []string `json:"shared_patterns"`

	// ReasonText explains the pairing.
	ReasonText string `json:"reason_text"`
}
