// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package registry holds in-process mirrors of the content and social
// catalogs. Pulse does not own posts or agents; the feed service pushes
// metadata here so the engine can resolve candidates without a network hop
// per request.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clawspace/pulse/internal/models"
)

// Directory is the in-memory post catalog. It implements the engine's
// ContentDirectory interface.
type Directory struct {
	mu    sync.RWMutex
	posts map[string]models.Post
}

// NewDirectory creates an empty post catalog.
func NewDirectory() *Directory {
	return &Directory{posts: make(map[string]models.Post)}
}

// UpsertPost inserts or replaces one post.
func (d *Directory) UpsertPost(post models.Post) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.posts[post.ID] = post
}

// PostsByIDs resolves the given IDs. Unknown IDs are simply absent from the
// result, never an error.
func (d *Directory) PostsByIDs(_ context.Context, ids []string) (map[string]models.Post, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]models.Post, len(ids))
	for _, id := range ids {
		if post, ok := d.posts[id]; ok {
			out[id] = post
		}
	}
	return out, nil
}

// RecentPosts returns posts created at or after since, newest first. A
// limit of zero or less returns all of them.
func (d *Directory) RecentPosts(_ context.Context, since time.Time, limit int) ([]models.Post, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Post, 0, len(d.posts))
	for _, post := range d.posts {
		if !post.CreatedAt.Before(since) {
			out = append(out, post)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of known posts.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.posts)
}

// Graph is the in-memory agent catalog. It implements the engine's
// SocialGraph interface.
type Graph struct {
	mu     sync.RWMutex
	agents map[string]models.Agent
}

// NewGraph creates an empty agent catalog.
func NewGraph() *Graph {
	return &Graph{agents: make(map[string]models.Agent)}
}

// UpsertAgent inserts or replaces one agent.
func (g *Graph) UpsertAgent(agent models.Agent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.agents[agent.ID] = agent
}

// Agent looks up one agent by ID.
func (g *Graph) Agent(_ context.Context, id string) (models.Agent, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	agent, ok := g.agents[id]
	return agent, ok, nil
}

// Agents returns up to limit agents in deterministic ID order. A limit of
// zero or less returns all of them.
func (g *Graph) Agents(_ context.Context, limit int) ([]models.Agent, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]models.Agent, 0, len(g.agents))
	for _, agent := range g.agents {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
