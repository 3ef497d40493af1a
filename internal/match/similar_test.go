// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package match

import (
	"math"
	"testing"

	"github.com/clawspace/pulse/internal/models"
)

func TestScoreSimilar(t *testing.T) {
	t.Parallel()

	source := models.Post{ID: "src", AuthorID: "bob", CommunityID: "c1", Topics: []string{"go", "testing"}}

	tests := []struct {
		name       string
		candidate  models.Post
		wantScore  float64
		wantReason models.ReasonCode
	}{
		{
			name:       "identical features",
			candidate:  models.Post{ID: "x", AuthorID: "bob", CommunityID: "c1", Topics: []string{"go", "testing"}},
			wantScore:  1.0,
			wantReason: models.ReasonTopicMatch,
		},
		{
			name:       "half topic overlap only",
			candidate:  models.Post{ID: "x", AuthorID: "carol", CommunityID: "c2", Topics: []string{"go", "rust"}},
			wantScore:  0.7 * (1.0 / 3.0),
			wantReason: models.ReasonTopicMatch,
		},
		{
			name:       "same community, no topics",
			candidate:  models.Post{ID: "x", AuthorID: "carol", CommunityID: "c1"},
			wantScore:  0.2,
			wantReason: models.ReasonCommunityAffinity,
		},
		{
			name:       "same author only",
			candidate:  models.Post{ID: "x", AuthorID: "bob", CommunityID: "c2"},
			wantScore:  0.1,
			wantReason: models.ReasonAuthorAffinity,
		},
		{
			name:      "nothing in common",
			candidate: models.Post{ID: "x", AuthorID: "carol", CommunityID: "c2", Topics: []string{"gardening"}},
			wantScore: 0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := ScoreSimilar(source, tt.candidate)
			if math.Abs(s.Score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %f, want %f", s.Score, tt.wantScore)
			}
			if tt.wantScore > 0 && s.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", s.Reason, tt.wantReason)
			}
		})
	}
}

func TestScoreSimilarEmptyCommunityNoBonus(t *testing.T) {
	t.Parallel()

	source := models.Post{ID: "a", AuthorID: "bob", Topics: []string{"go"}}
	candidate := models.Post{ID: "b", AuthorID: "carol", Topics: []string{"rust"}}
	if s := ScoreSimilar(source, candidate); s.Score != 0 {
		t.Errorf("two posts with empty communities scored %f, want 0", s.Score)
	}
}

func TestTopicJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		a, b       []string
		wantShared []string
		wantIndex  float64
	}{
		{"identical", []string{"go", "testing"}, []string{"go", "testing"}, []string{"go", "testing"}, 1.0},
		{"disjoint", []string{"go"}, []string{"rust"}, nil, 0},
		{"partial", []string{"go", "testing"}, []string{"go", "rust"}, []string{"go"}, 1.0 / 3.0},
		{"both empty", nil, nil, nil, 0},
		{"duplicates counted once", []string{"go", "go"}, []string{"go"}, []string{"go"}, 1.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			shared, index := topicJaccard(tt.a, tt.b)
			if math.Abs(index-tt.wantIndex) > 1e-9 {
				t.Errorf("index = %f, want %f", index, tt.wantIndex)
			}
			if len(shared) != len(tt.wantShared) {
				t.Fatalf("shared = %v, want %v", shared, tt.wantShared)
			}
			for i := range shared {
				if shared[i] != tt.wantShared[i] {
					t.Errorf("shared = %v, want %v", shared, tt.wantShared)
				}
			}
		})
	}
}
