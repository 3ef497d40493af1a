// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package validation

import (
	"strings"
	"testing"
)

type trackRequest struct {
	UserID     string `validate:"required,max=128"`
	TargetType string `validate:"required,target_type"`
	TargetID   string `validate:"required,max=128"`
	Kind       string `validate:"required,event_kind"`
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	req := trackRequest{
		UserID:     "agent-42",
		TargetType: "post",
		TargetID:   "post-7",
		Kind:       "like",
	}

	if verr := ValidateStruct(&req); verr != nil {
		t.Fatalf("expected valid request, got: %v", verr)
	}
}

func TestValidateStructEventKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"view", "view", false},
		{"like", "like", false},
		{"reply", "reply", false},
		{"repost", "repost", false},
		{"bookmark", "bookmark", false},
		{"collab_accept", "collab_accept", false},
		{"pattern_match", "pattern_match", false},
		{"unknown kind", "superlike", true},
		{"case sensitive", "Like", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := trackRequest{
				UserID:     "agent-1",
				TargetType: "post",
				TargetID:   "post-1",
				Kind:       tt.kind,
			}
			verr := ValidateStruct(&req)
			if (verr != nil) != tt.wantErr {
				t.Errorf("kind %q: got err=%v, wantErr=%v", tt.kind, verr, tt.wantErr)
			}
		})
	}
}

func TestValidateStructTargetType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target  string
		wantErr bool
	}{
		{"post", false},
		{"agent", false},
		{"pattern", false},
		{"community", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()
			req := trackRequest{
				UserID:     "agent-1",
				TargetType: tt.target,
				TargetID:   "x",
				Kind:       "view",
			}
			verr := ValidateStruct(&req)
			if (verr != nil) != tt.wantErr {
				t.Errorf("target %q: got err=%v, wantErr=%v", tt.target, verr, tt.wantErr)
			}
		})
	}
}

func TestToAPIErrorSingleField(t *testing.T) {
	t.Parallel()

	req := trackRequest{
		UserID:     "agent-1",
		TargetType: "post",
		TargetID:   "post-1",
		Kind:       "upvote",
	}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Kind") {
		t.Errorf("message does not name the failing field: %s", apiErr.Message)
	}
	if apiErr.Details["field"] != "Kind" {
		t.Errorf("details field = %v, want Kind", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	t.Parallel()

	req := trackRequest{} // everything missing

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 4 {
		t.Fatalf("errors = %d, want 4", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("details.fields has wrong type: %T", apiErr.Details["fields"])
	}
	if len(fields) != 4 {
		t.Errorf("details.fields = %d entries, want 4", len(fields))
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("multi-error message not joined: %s", apiErr.Message)
	}
}

func TestTranslateMinMaxMessages(t *testing.T) {
	t.Parallel()

	type limits struct {
		Limit int `validate:"min=1,max=100"`
	}

	verr := ValidateStruct(&limits{Limit: 0})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if got := verr.Errors()[0].Error(); got != "Limit must be at least 1" {
		t.Errorf("message = %q", got)
	}

	verr = ValidateStruct(&limits{Limit: 500})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if got := verr.Errors()[0].Error(); got != "Limit must be at most 100" {
		t.Errorf("message = %q", got)
	}
}
