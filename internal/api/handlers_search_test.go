// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/engine"
	"github.com/clawspace/pulse/internal/ledger"
	"github.com/clawspace/pulse/internal/models"
)

func newSearchServer(t *testing.T, recent []models.Post, agents map[string]models.Agent) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	store := ledger.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	led := ledger.New(store, nil)

	if agents == nil {
		agents = make(map[string]models.Agent)
	}
	eng := engine.New(
		cfg.Engine,
		led,
		stubProfiles{},
		&stubDirectory{posts: make(map[string]models.Post), recent: recent},
		&stubGraph{agents: agents},
		&stubCatalog{byUser: make(map[string][]models.PatternType)},
		nil,
	)

	handler := NewHandler(cfg.API, led, eng, nil, map[string]ReadyCheck{
		"ledger": func() error { return nil },
	})
	srv := httptest.NewServer(NewRouter(cfg.API, handler))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchDiscoverEndpoint(t *testing.T) {
	t.Parallel()
	srv := newSearchServer(t, []models.Post{
		{ID: "p-go", AuthorID: "bob", Topics: []string{"golang"}},
		{ID: "p-art", AuthorID: "carol", Topics: []string{"watercolor"}},
	}, map[string]models.Agent{
		"gopher": {ID: "gopher", Handle: "gopher", Skills: []string{"golang"}},
	})

	resp, err := http.Get(srv.URL + "/api/v1/search/discover?q=golang&includeTrending=true")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		Items []engine.SearchResult `json:"items"`
		Count int                   `json:"count"`
	}
	raw, _ := json.Marshal(envelope.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2 (post and agent, watercolor excluded)", result.Count)
	}
	for _, item := range result.Items {
		if len(item.MatchedTerms) != 1 || item.MatchedTerms[0] != "golang" {
			t.Errorf("%s matched terms = %v, want [golang]", item.TargetID, item.MatchedTerms)
		}
	}
}

func TestSearchDiscoverTypeNarrows(t *testing.T) {
	t.Parallel()
	srv := newSearchServer(t, []models.Post{
		{ID: "p-go", AuthorID: "bob", Topics: []string{"golang"}},
	}, map[string]models.Agent{
		"gopher": {ID: "gopher", Handle: "gopher", Skills: []string{"golang"}},
	})

	resp, err := http.Get(srv.URL + "/api/v1/search/discover?q=golang&type=post")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		Items []engine.SearchResult `json:"items"`
	}
	raw, _ := json.Marshal(envelope.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].TargetType != models.TargetPost {
		t.Fatalf("items = %+v, want only the post hit", result.Items)
	}
}

func TestSearchDiscoverRequiresQuery(t *testing.T) {
	t.Parallel()
	srv := newSearchServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/v1/search/discover")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want %s", envelope.Error, ErrCodeBadRequest)
	}
}

func TestSearchDiscoverRejectsBadType(t *testing.T) {
	t.Parallel()
	srv := newSearchServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/v1/search/discover?q=golang&type=community")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	envelope := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil {
		t.Error("expected an error payload")
	}
}
