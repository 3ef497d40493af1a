// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package velocity

import (
	"math"
	"testing"
	"time"

	"github.com/clawspace/pulse/internal/models"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func postEvent(targetID string, kind models.EventKind, age time.Duration) models.EngagementEvent {
	return models.EngagementEvent{
		UserID:     "agent-1",
		TargetType: models.TargetPost,
		TargetID:   targetID,
		Kind:       kind,
		Weight:     kind.Weight(),
		Timestamp:  testNow.Add(-age),
	}
}

func TestRateEmptyHistory(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)
	if rate := e.Rate(nil, testNow); rate != 0 {
		t.Errorf("Rate(nil) = %f, want 0", rate)
	}
}

func TestRateSteadyActivityEqualsPointRate(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	// One like (3 points) in every bucket: steady 3 points/hour.
	var events []models.EngagementEvent
	for i := 0; i < 72; i++ {
		events = append(events, postEvent("post-1", models.EventLike,
			time.Duration(i)*time.Hour+30*time.Minute))
	}

	rate := e.Rate(events, testNow)
	if math.Abs(rate-3.0) > 1e-9 {
		t.Errorf("steady 3 points/hour should score 3.0, got %f", rate)
	}
}

func TestRateRecentBeatsOld(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	recent := []models.EngagementEvent{
		postEvent("post-1", models.EventLike, 30*time.Minute),
	}
	old := []models.EngagementEvent{
		postEvent("post-2", models.EventLike, 48*time.Hour),
	}

	if e.Rate(recent, testNow) <= e.Rate(old, testNow) {
		t.Error("identical engagement must score higher when recent")
	}
}

func TestRateHalfLifeDecay(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	// Bucket 0 vs bucket 6: exactly one half-life apart at the bucket edge.
	fresh := e.Rate([]models.EngagementEvent{
		postEvent("p", models.EventView, 0),
	}, testNow)
	decayed := e.Rate([]models.EngagementEvent{
		postEvent("p", models.EventView, 6*time.Hour),
	}, testNow)

	if math.Abs(fresh/decayed-2.0) > 1e-9 {
		t.Errorf("6h-old event should count half: fresh=%f decayed=%f", fresh, decayed)
	}
}

func TestRateIgnoresOutOfWindowEvents(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	events := []models.EngagementEvent{
		postEvent("p", models.EventLike, 80*time.Hour), // too old
		postEvent("p", models.EventLike, -time.Minute), // in the future
	}
	if rate := e.Rate(events, testNow); rate != 0 {
		t.Errorf("out-of-window events must not count, got %f", rate)
	}
}

func TestRateWeightsEventKinds(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	view := e.Rate([]models.EngagementEvent{postEvent("p", models.EventView, 0)}, testNow)
	collab := e.Rate([]models.EngagementEvent{postEvent("p", models.EventCollabAccept, 0)}, testNow)

	if math.Abs(collab/view-8.0) > 1e-9 {
		t.Errorf("collab_accept should weigh 8x a view: view=%f collab=%f", view, collab)
	}
}

func TestRateMonotonicUnderNewEvents(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	events := []models.EngagementEvent{
		postEvent("p", models.EventView, 2*time.Hour),
		postEvent("p", models.EventLike, time.Hour),
	}
	before := e.Rate(events, testNow)
	after := e.Rate(append(events, postEvent("p", models.EventCollabAccept, 0)), testNow)

	if after <= before {
		t.Errorf("adding a high-weight event must raise the rate: before=%f after=%f", before, after)
	}
}

func TestRateFreshBurstBeatsSustainedViews(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	// 100 views spread evenly over 72 hours versus 20 likes in the last hour.
	var sustained []models.EngagementEvent
	for i := 0; i < 100; i++ {
		sustained = append(sustained, postEvent("steady", models.EventView,
			time.Duration(i)*43*time.Minute))
	}
	var burst []models.EngagementEvent
	for i := 0; i < 20; i++ {
		burst = append(burst, postEvent("spike", models.EventLike,
			time.Duration(i)*2*time.Minute))
	}

	if e.Rate(burst, testNow) <= e.Rate(sustained, testNow) {
		t.Error("a fresh like burst must outrank slow sustained views")
	}
}

func TestTrendingOrdering(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	var events []models.EngagementEvent
	// hot: lots of recent likes
	for i := 0; i < 10; i++ {
		events = append(events, postEvent("hot", models.EventLike, time.Duration(i)*time.Minute))
	}
	// warm: a couple of views
	events = append(events,
		postEvent("warm", models.EventView, time.Hour),
		postEvent("warm", models.EventView, 2*time.Hour),
	)
	// cold: one old view
	events = append(events, postEvent("cold", models.EventView, 70*time.Hour))

	items := e.Trending(events, models.TargetPost, 10, testNow, nil)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].TargetID != "hot" || items[1].TargetID != "warm" || items[2].TargetID != "cold" {
		t.Errorf("order = %s, %s, %s", items[0].TargetID, items[1].TargetID, items[2].TargetID)
	}
	if items[0].EventCount != 10 {
		t.Errorf("hot EventCount = %d, want 10", items[0].EventCount)
	}
}

func TestTrendingDeterministicTiebreak(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	// Identical histories for two targets: tie broken by ID ascending.
	events := []models.EngagementEvent{
		postEvent("beta", models.EventView, time.Hour),
		postEvent("alpha", models.EventView, time.Hour),
	}

	items := e.Trending(events, models.TargetPost, 10, testNow, nil)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].TargetID != "alpha" || items[1].TargetID != "beta" {
		t.Errorf("tie must break by ID: got %s, %s", items[0].TargetID, items[1].TargetID)
	}
}

func TestTrendingCreationTimeTiebreak(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	// Identical histories: the earlier-created target wins, sustaining
	// momentum over a fresh spike. A target with no resolved creation time
	// ranks after both.
	events := []models.EngagementEvent{
		postEvent("young", models.EventView, time.Hour),
		postEvent("old", models.EventView, time.Hour),
		postEvent("unknown", models.EventView, time.Hour),
	}
	createdAt := map[string]time.Time{
		"young": testNow.Add(-time.Hour),
		"old":   testNow.Add(-48 * time.Hour),
	}

	items := e.Trending(events, models.TargetPost, 10, testNow, createdAt)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].TargetID != "old" || items[1].TargetID != "young" || items[2].TargetID != "unknown" {
		t.Errorf("order = %s, %s, %s; want old, young, unknown",
			items[0].TargetID, items[1].TargetID, items[2].TargetID)
	}
}

func TestTrendingLimit(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)

	var events []models.EngagementEvent
	for _, id := range []string{"a", "b", "c", "d"} {
		events = append(events, postEvent(id, models.EventView, time.Hour))
	}

	items := e.Trending(events, models.TargetPost, 2, testNow, nil)
	if len(items) != 2 {
		t.Errorf("items = %d, want limit of 2", len(items))
	}
}

func TestTrendingWindowBounds(t *testing.T) {
	t.Parallel()

	e := NewEstimator(72*time.Hour, time.Hour, 6*time.Hour)
	events := []models.EngagementEvent{postEvent("p", models.EventView, time.Hour)}

	items := e.Trending(events, models.TargetPost, 10, testNow, nil)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !items[0].WindowEnd.Equal(testNow) {
		t.Errorf("WindowEnd = %s, want %s", items[0].WindowEnd, testNow)
	}
	if !items[0].WindowStart.Equal(testNow.Add(-72 * time.Hour)) {
		t.Errorf("WindowStart = %s", items[0].WindowStart)
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate float64
		want string
	}{
		{0, "quiet"},
		{1.9, "quiet"},
		{2.0, "rising"},
		{9.9, "rising"},
		{10.0, "hot"},
		{29.9, "hot"},
		{30.0, "surging"},
		{100, "surging"},
	}

	for _, tt := range tests {
		if got := Label(tt.rate); got != tt.want {
			t.Errorf("Label(%f) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestFormatVelocity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate float64
		want string
	}{
		{0, "0/min"},
		{0.5, "30/min"},
		{1, "1.0/hr"},
		{12.34, "12.3/hr"},
		{99.94, "99.9/hr"},
		{100, "1.0k/hr"},
		{250, "2.5k/hr"},
	}

	for _, tt := range tests {
		if got := FormatVelocity(tt.rate); got != tt.want {
			t.Errorf("FormatVelocity(%f) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
