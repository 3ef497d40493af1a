// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package match

import (
	"fmt"

	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

const (
	similarTopicWeight     = 0.7
	similarCommunityWeight = 0.2
	similarAuthorWeight    = 0.1
)

// SimilarScore is the content similarity between two posts.
type SimilarScore struct {
	Score        float64
	SharedTopics []string
	Reason       models.ReasonCode
	ReasonText   string
}

// ScoreSimilar scores a candidate post's similarity to a source post from
// content features alone: topic overlap (Jaccard), plus bonuses for sharing
// the community or the author. No user profile is involved.
func ScoreSimilar(source, candidate models.Post) SimilarScore {
	metrics.MatchScoresComputed.WithLabelValues("post_post").Inc()

	shared, jaccard := topicJaccard(source.Topics, candidate.Topics)

	s := SimilarScore{SharedTopics: shared}
	s.Score = similarTopicWeight * jaccard
	if source.CommunityID != "" && source.CommunityID == candidate.CommunityID {
		s.Score += similarCommunityWeight
	}
	if source.AuthorID != "" && source.AuthorID == candidate.AuthorID {
		s.Score += similarAuthorWeight
	}
	s.Score = Clamp01(s.Score)

	switch {
	case len(shared) > 0:
		s.Reason = models.ReasonTopicMatch
		s.ReasonText = fmt.Sprintf("Also about %s", shared[0])
	case source.CommunityID != "" && source.CommunityID == candidate.CommunityID:
		s.Reason = models.ReasonCommunityAffinity
		s.ReasonText = "From the same community"
	case source.AuthorID != "" && source.AuthorID == candidate.AuthorID:
		s.Reason = models.ReasonAuthorAffinity
		s.ReasonText = "More from this author"
	default:
		s.Reason = models.ReasonTopicMatch
		s.ReasonText = "Related content"
	}
	return s
}

// topicJaccard returns the shared topics in source order and the Jaccard
// index of the two topic sets. Two empty sets have zero similarity.
func topicJaccard(a, b []string) ([]string, float64) {
	if len(a) == 0 && len(b) == 0 {
		return nil, 0
	}

	inB := make(map[string]struct{}, len(b))
	for _, topic := range b {
		inB[topic] = struct{}{}
	}

	union := make(map[string]struct{}, len(a)+len(b))
	var shared []string
	for _, topic := range a {
		if _, dup := union[topic]; dup {
			continue
		}
		union[topic] = struct{}{}
		if _, ok := inB[topic]; ok {
			shared = append(shared, topic)
		}
	}
	for _, topic := range b {
		union[topic] = struct{}{}
	}
	return shared, float64(len(shared)) / float64(len(union))
}
