// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/clawspace/pulse/internal/match"
	"github.com/clawspace/pulse/internal/models"
)

// trendingBoostWeight is the share of a search result's relevance handed to
// current engagement momentum when the caller asks for a trending boost.
const trendingBoostWeight = 0.2

// SearchResult is one discovery search hit. Exactly one of Post and Agent
// is set, matching TargetType.
type SearchResult struct {
	TargetID       string            `json:"target_id"`
	TargetType     models.TargetType `json:"target_type"`
	RelevanceScore float64           `json:"relevance_score"`
	MatchedTerms   []string          `json:"matched_terms"`
	Post           *models.Post      `json:"post,omitempty"`
	Agent          *models.Agent     `json:"agent,omitempty"`
}

// SearchDiscover matches posts and agents against the query terms.
// targetType narrows the search to one entity kind; empty searches both.
// Relevance is the matched share of the query terms; with includeTrending
// set, part of the score shifts to the target's engagement momentum so
// active matches outrank dormant ones.
func (e *Engine) SearchDiscover(ctx context.Context, query string, targetType models.TargetType, limit int, includeTrending bool) ([]SearchResult, error) {
	limit = e.ClampLimit(limit)

	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var results []SearchResult
	if targetType == "" || targetType == models.TargetPost {
		hits, err := e.searchPosts(ctx, terms, includeTrending)
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}
	if targetType == "" || targetType == models.TargetAgent {
		hits, err := e.searchAgents(ctx, terms, includeTrending)
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].TargetID < results[j].TargetID
	})
	results, _ = page(results, limit, 0)
	return results, nil
}

func (e *Engine) searchPosts(ctx context.Context, terms []string, includeTrending bool) ([]SearchResult, error) {
	posts, err := e.directory.RecentPosts(ctx, e.now().Add(-e.cfg.ProfileWindow), 0)
	if err != nil {
		return nil, err
	}

	var rates map[string]float64
	if includeTrending {
		if rates, err = e.ratesByTarget(ctx, models.TargetPost, e.now()); err != nil {
			return nil, err
		}
	}

	var results []SearchResult
	for i := range posts {
		post := posts[i]
		matched := matchTerms(terms, postTerms(post))
		if len(matched) == 0 {
			continue
		}
		results = append(results, SearchResult{
			TargetID:       post.ID,
			TargetType:     models.TargetPost,
			RelevanceScore: relevance(matched, terms, rates[post.ID], includeTrending),
			MatchedTerms:   matched,
			Post:           &post,
		})
	}
	return results, nil
}

func (e *Engine) searchAgents(ctx context.Context, terms []string, includeTrending bool) ([]SearchResult, error) {
	agents, err := e.graph.Agents(ctx, 0)
	if err != nil {
		return nil, err
	}

	var rates map[string]float64
	if includeTrending {
		if rates, err = e.ratesByTarget(ctx, models.TargetAgent, e.now()); err != nil {
			return nil, err
		}
	}

	var results []SearchResult
	for i := range agents {
		agent := agents[i]
		matched := matchTerms(terms, agentTerms(agent))
		if len(matched) == 0 {
			continue
		}
		results = append(results, SearchResult{
			TargetID:       agent.ID,
			TargetType:     models.TargetAgent,
			RelevanceScore: relevance(matched, terms, rates[agent.ID], includeTrending),
			MatchedTerms:   matched,
			Agent:          &agent,
		})
	}
	return results, nil
}

// relevance is the matched share of the query, optionally blended with the
// target's normalized engagement rate.
func relevance(matched, terms []string, rate float64, includeTrending bool) float64 {
	rel := float64(len(matched)) / float64(len(terms))
	if !includeTrending {
		return rel
	}
	return match.Clamp01(rel*(1-trendingBoostWeight) + trendingBoostWeight*match.NormalizeRate(rate))
}

// searchTerms lowercases and splits the query, dropping duplicates while
// keeping query order.
func searchTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	terms := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// matchTerms returns the query terms found as substrings of any candidate
// field, in query order.
func matchTerms(terms, candidate []string) []string {
	var matched []string
	for _, term := range terms {
		for _, field := range candidate {
			if strings.Contains(field, term) {
				matched = append(matched, term)
				break
			}
		}
	}
	return matched
}

func postTerms(post models.Post) []string {
	terms := make([]string, 0, len(post.Topics)+2)
	for _, topic := range post.Topics {
		terms = append(terms, strings.ToLower(topic))
	}
	if post.CommunityID != "" {
		terms = append(terms, strings.ToLower(post.CommunityID))
	}
	terms = append(terms, strings.ToLower(post.AuthorID))
	return terms
}

func agentTerms(agent models.Agent) []string {
	terms := make([]string, 0, len(agent.Skills)+2)
	for _, skill := range agent.Skills {
		terms = append(terms, strings.ToLower(skill))
	}
	if agent.Handle != "" {
		terms = append(terms, strings.ToLower(agent.Handle))
	}
	terms = append(terms, strings.ToLower(agent.ID))
	return terms
}
