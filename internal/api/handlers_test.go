// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/engine"
	"github.com/clawspace/pulse/internal/ledger"
	"github.com/clawspace/pulse/internal/models"
)

type stubDirectory struct {
	posts  map[string]models.Post
	recent []models.Post
}

func (s *stubDirectory) PostsByIDs(_ context.Context, ids []string) (map[string]models.Post, error) {
	out := make(map[string]models.Post)
	for _, id := range ids {
		if post, ok := s.posts[id]; ok {
			out[id] = post
		}
	}
	return out, nil
}

func (s *stubDirectory) RecentPosts(_ context.Context, _ time.Time, _ int) ([]models.Post, error) {
	return s.recent, nil
}

type stubGraph struct {
	agents map[string]models.Agent
}

func (s *stubGraph) Agent(_ context.Context, id string) (models.Agent, bool, error) {
	agent, ok := s.agents[id]
	return agent, ok, nil
}

func (s *stubGraph) Agents(_ context.Context, _ int) ([]models.Agent, error) {
	out := make([]models.Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		out = append(out, agent)
	}
	return out, nil
}

type stubCatalog struct {
	byUser map[string][]models.PatternType
	all    []models.Pattern
}

func (s *stubCatalog) Patterns() []models.Pattern { return s.all }

func (s *stubCatalog) Pattern(pt models.PatternType) (models.Pattern, bool) {
	for _, p := range s.all {
		if p.Type == pt {
			return p, true
		}
	}
	return models.Pattern{}, false
}

func (s *stubCatalog) UserPatterns(userID string) []models.PatternType {
	return s.byUser[userID]
}

func (s *stubCatalog) UserPatternDistribution(userID string) map[models.PatternType]float64 {
	patterns := s.byUser[userID]
	if len(patterns) == 0 {
		return nil
	}
	dist := make(map[models.PatternType]float64, len(patterns))
	for _, pt := range patterns {
		dist[pt] += 1 / float64(len(patterns))
	}
	return dist
}

type stubProfiles struct{}

func (stubProfiles) Build(_ context.Context, userID string) (models.UserPreferences, error) {
	return models.UserPreferences{UserID: userID, LastUpdated: time.Now().UTC()}, nil
}

func (stubProfiles) Invalidate(string) {}

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()

	cfg := config.Default()
	store := ledger.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	led := ledger.New(store, nil)

	eng := engine.New(
		cfg.Engine,
		led,
		stubProfiles{},
		&stubDirectory{posts: make(map[string]models.Post)},
		&stubGraph{agents: make(map[string]models.Agent)},
		&stubCatalog{byUser: make(map[string][]models.PatternType)},
		nil,
	)

	handler := NewHandler(cfg.API, led, eng, nil, map[string]ReadyCheck{
		"ledger": func() error { return nil },
	})
	srv := httptest.NewServer(NewRouter(cfg.API, handler))
	t.Cleanup(srv.Close)
	return srv, led
}

func decodeEnvelope(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		envelope := decodeEnvelope(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if envelope.Status != "success" {
			t.Errorf("GET %s envelope status = %q, want success", path, envelope.Status)
		}
	}
}

func TestHealthReadyFailure(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	handler := NewHandler(cfg.API, nil, nil, nil, map[string]ReadyCheck{
		"badger": func() error { return errors.New("closed") },
	})
	srv := httptest.NewServer(NewRouter(cfg.API, handler))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "NOT_READY" {
		t.Errorf("error = %+v, want NOT_READY", envelope.Error)
	}
}

func TestTrackRecordsEvent(t *testing.T) {
	t.Parallel()
	srv, led := newTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":     "alice",
		"target_type": "post",
		"target_id":   "p1",
		"kind":        "like",
	})
	resp, err := http.Post(srv.URL+"/api/v1/analytics/track", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST track: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error: %+v)", resp.StatusCode, envelope.Error)
	}

	events, err := led.UserHistory(context.Background(), "alice", time.Time{})
	if err != nil {
		t.Fatalf("UserHistory: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d recorded events, want 1", len(events))
	}
	if events[0].Weight != 3 {
		t.Errorf("weight = %g, want 3 for a like", events[0].Weight)
	}
	if events[0].ID == "" || events[0].Timestamp.IsZero() {
		t.Error("expected server-assigned ID and timestamp")
	}
}

func TestTrackRejectsInvalidKind(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":     "alice",
		"target_type": "post",
		"target_id":   "p1",
		"kind":        "superlike",
	})
	resp, err := http.Post(srv.URL+"/api/v1/analytics/track", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST track: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
}

func TestTrackRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/analytics/track", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST track: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want BAD_REQUEST", envelope.Error)
	}
}

func TestTrackBatchPartialFailure(t *testing.T) {
	t.Parallel()
	srv, led := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"events": []map[string]string{
			{"user_id": "alice", "target_type": "post", "target_id": "p1", "kind": "like"},
			{"user_id": "alice", "target_type": "post", "target_id": "p2", "kind": "superlike"},
			{"user_id": "alice", "target_type": "post", "target_id": "p3", "kind": "view"},
		},
	})
	resp, err := http.Post(srv.URL+"/api/v1/analytics/track/batch", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST batch: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error: %+v)", resp.StatusCode, envelope.Error)
	}

	raw, _ := json.Marshal(envelope.Data)
	var result models.BatchTrackResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Recorded != 2 {
		t.Errorf("recorded = %d, want 2", result.Recorded)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly index 1", result.Failures)
	}
	if _, ok := result.Failures[1]; !ok {
		t.Errorf("failures = %v, want index 1 rejected", result.Failures)
	}

	events, err := led.UserHistory(context.Background(), "alice", time.Time{})
	if err != nil {
		t.Fatalf("UserHistory: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d stored events, want 2", len(events))
	}
}

func TestTrackBatchSizeLimit(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	events := make([]map[string]string, config.Default().API.MaxBatchSize+1)
	for i := range events {
		events[i] = map[string]string{"user_id": "alice", "target_type": "post", "target_id": "p", "kind": "view"}
	}
	body, _ := json.Marshal(map[string]interface{}{"events": events})

	resp, err := http.Post(srv.URL+"/api/v1/analytics/track/batch", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST batch: %v", err)
	}
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized batch", resp.StatusCode)
	}
}

func TestTrendingEndpoint(t *testing.T) {
	t.Parallel()
	srv, led := newTestServer(t)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := led.Record(ctx, models.EngagementEvent{
			UserID:     "crowd",
			TargetType: models.TargetPost,
			TargetID:   "hot",
			Kind:       models.EventLike,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	resp, err := http.Get(srv.URL + "/api/v1/analytics/trending?targetType=post&limit=5")
	if err != nil {
		t.Fatalf("GET trending: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error: %+v)", resp.StatusCode, envelope.Error)
	}

	raw, _ := json.Marshal(envelope.Data)
	var result struct {
		Items []models.TrendingItem `json:"items"`
		Count int                   `json:"count"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Count != 1 || len(result.Items) != 1 {
		t.Fatalf("count = %d items = %d, want 1 trending post", result.Count, len(result.Items))
	}
	if result.Items[0].TargetID != "hot" {
		t.Errorf("target = %q, want hot", result.Items[0].TargetID)
	}
}

func TestTrendingRejectsBadTargetType(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/analytics/trending?targetType=moon")
	if err != nil {
		t.Fatalf("GET trending: %v", err)
	}
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFeedRequiresUserID(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/recommendations/feed")
	if err != nil {
		t.Fatalf("GET feed: %v", err)
	}
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFeedColdStart(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/recommendations/feed?userId=newcomer&limit=5")
	if err != nil {
		t.Fatalf("GET feed: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error: %+v)", resp.StatusCode, envelope.Error)
	}
	if envelope.Status != "success" {
		t.Errorf("envelope status = %q, want success", envelope.Status)
	}
}

func TestSimilarUnknownPost(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/recommendations/similar?itemId=ghost")
	if err != nil {
		t.Fatalf("GET similar: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", envelope.Error)
	}
}

func TestExplainValidatesItemType(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/recommendations/explain?userId=alice&itemId=p1&itemType=moon")
	if err != nil {
		t.Fatalf("GET explain: %v", err)
	}
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPreferencesEndpoint(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/preferences/alice")
	if err != nil {
		t.Fatalf("GET preferences: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error: %+v)", resp.StatusCode, envelope.Error)
	}

	raw, _ := json.Marshal(envelope.Data)
	var prefs models.UserPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		t.Fatalf("decode prefs: %v", err)
	}
	if prefs.UserID != "alice" {
		t.Errorf("user = %q, want alice", prefs.UserID)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	decodeEnvelope(t, resp)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "trace-me")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	decodeEnvelope(t, resp2)
	if got := resp2.Header.Get("X-Request-ID"); got != "trace-me" {
		t.Errorf("X-Request-ID = %q, want trace-me", got)
	}
}
