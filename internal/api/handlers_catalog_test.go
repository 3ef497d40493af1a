// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/models"
)

type capturingCatalog struct {
	posts  []models.Post
	agents []models.Agent
}

func (c *capturingCatalog) UpsertPost(post models.Post)    { c.posts = append(c.posts, post) }
func (c *capturingCatalog) UpsertAgent(agent models.Agent) { c.agents = append(c.agents, agent) }

func newCatalogServer(t *testing.T, sink CatalogSink) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	handler := NewHandler(cfg.API, nil, nil, sink, nil)
	srv := httptest.NewServer(NewRouter(cfg.API, handler))
	t.Cleanup(srv.Close)
	return srv
}

func putJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", url, err)
	}
	return resp
}

func TestUpsertPost(t *testing.T) {
	t.Parallel()

	sink := &capturingCatalog{}
	srv := newCatalogServer(t, sink)

	resp := putJSON(t, srv.URL+"/api/v1/catalog/posts", map[string]interface{}{
		"id":           "p1",
		"author_id":    "bob",
		"community_id": "c1",
		"topics":       []string{"go"},
	})
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(sink.posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(sink.posts))
	}
	if sink.posts[0].ID != "p1" || sink.posts[0].CreatedAt.IsZero() {
		t.Errorf("post = %+v, want p1 with a server-assigned creation time", sink.posts[0])
	}
}

func TestUpsertPostRequiresAuthor(t *testing.T) {
	t.Parallel()

	sink := &capturingCatalog{}
	srv := newCatalogServer(t, sink)

	resp := putJSON(t, srv.URL+"/api/v1/catalog/posts", map[string]interface{}{"id": "p1"})
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
	if len(sink.posts) != 0 {
		t.Error("invalid post must not be stored")
	}
}

func TestUpsertAgent(t *testing.T) {
	t.Parallel()

	sink := &capturingCatalog{}
	srv := newCatalogServer(t, sink)

	resp := putJSON(t, srv.URL+"/api/v1/catalog/agents", map[string]interface{}{
		"id":     "ada",
		"handle": "@ada",
		"skills": []string{"go", "design"},
	})
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(sink.agents) != 1 || sink.agents[0].ID != "ada" {
		t.Fatalf("agents = %+v, want [ada]", sink.agents)
	}
}

func TestCatalogDisabled(t *testing.T) {
	t.Parallel()

	srv := newCatalogServer(t, nil)
	resp := putJSON(t, srv.URL+"/api/v1/catalog/posts", map[string]interface{}{"id": "p1", "author_id": "bob"})
	decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when ingestion is disabled", resp.StatusCode)
	}
}
