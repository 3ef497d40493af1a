// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package patterns detects behavioral patterns from the engagement stream.
// The detector consumes recorded events, accumulates per-user signal counts
// and periodically rescores the global pattern catalog. Detection is
// approximate and in-memory: state rebuilds from live traffic after a
// restart.
package patterns

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/stream"
)

// kindSignals maps engagement kinds to the pattern types they evidence.
// Views and likes are ambient noise and carry no pattern signal.
var kindSignals = map[models.EventKind]models.PatternType{
	models.EventReply:        models.PatternResearch,
	models.EventRepost:       models.PatternCuration,
	models.EventBookmark:     models.PatternCuration,
	models.EventCollabAccept: models.PatternCollaboration,
}

// patternDescriptions are the display descriptions per pattern type.
var patternDescriptions = map[models.PatternType]string{
	models.PatternCoding:        "Ships and iterates on code",
	models.PatternDesign:        "Shapes visual and interaction design",
	models.PatternResearch:      "Digs into threads and asks questions",
	models.PatternCuration:      "Collects and resurfaces the good stuff",
	models.PatternCollaboration: "Teams up with other agents",
}

// Detector accumulates behavioral signal from the engagement stream.
type Detector struct {
	minFrequency int
	flushEvery   time.Duration

	mu        sync.RWMutex
	userCount map[string]map[models.PatternType]int
	totals    map[models.PatternType]int
	catalog   map[models.PatternType]models.Pattern

	pending int64

	logger zerolog.Logger
}

// NewDetector creates a detector with the configured thresholds.
func NewDetector(cfg config.PatternsConfig) *Detector {
	flushEvery := cfg.FlushInterval
	if flushEvery <= 0 {
		flushEvery = time.Minute
	}
	minFrequency := cfg.MinFrequency
	if minFrequency < 1 {
		minFrequency = 1
	}

	return &Detector{
		minFrequency: minFrequency,
		flushEvery:   flushEvery,
		userCount:    make(map[string]map[models.PatternType]int),
		totals:       make(map[models.PatternType]int),
		catalog:      make(map[models.PatternType]models.Pattern),
		logger:       logging.With().Str("component", "patterns").Logger(),
	}
}

// RegisterHandler subscribes the detector to the engagement topic on the
// given router.
func (d *Detector) RegisterHandler(router *message.Router, sub message.Subscriber) {
	router.AddNoPublisherHandler(
		"pattern-detector",
		stream.TopicEngagement,
		sub,
		d.Handle,
	)
}

// Handle consumes one engagement event from the stream.
func (d *Detector) Handle(msg *message.Message) error {
	event, err := stream.DecodeEvent(msg)
	if err != nil {
		metrics.StreamHandlerErrors.WithLabelValues("pattern_detector").Inc()
		// Malformed payloads are dropped, not retried.
		d.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable event")
		return nil
	}

	d.Observe(event)
	metrics.StreamEventsProcessed.WithLabelValues("pattern_detector").Inc()
	return nil
}

// Observe folds one event into the detector state.
func (d *Detector) Observe(event models.EngagementEvent) {
	signal, ok := signalFor(event)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	counts := d.userCount[event.UserID]
	if counts == nil {
		counts = make(map[models.PatternType]int)
		d.userCount[event.UserID] = counts
	}
	counts[signal]++
	d.totals[signal]++
	d.pending++
	metrics.PatternDetectorLag.Set(float64(d.pending))
}

// signalFor maps an event to the pattern type it evidences.
func signalFor(event models.EngagementEvent) (models.PatternType, bool) {
	// Direct pattern engagement reinforces that pattern.
	if event.Kind == models.EventPatternMatch && event.TargetType == models.TargetPattern {
		pt := models.PatternType(event.TargetID)
		if pt.Valid() {
			return pt, true
		}
		return "", false
	}
	pt, ok := kindSignals[event.Kind]
	return pt, ok
}

// Serve runs the periodic catalog rescoring until the context is canceled.
// Implements suture.Service.
func (d *Detector) Serve(ctx context.Context) error {
	ticker := time.NewTicker(d.flushEvery)
	defer ticker.Stop()

	d.logger.Info().Dur("flush_interval", d.flushEvery).Msg("pattern detector started")

	for {
		select {
		case <-ticker.C:
			d.Flush()
		case <-ctx.Done():
			d.Flush()
			return ctx.Err()
		}
	}
}

// Flush rescores the catalog from the accumulated counts. Trending scores
// are each pattern's share of the busiest pattern's frequency.
func (d *Detector) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	maxTotal := 0
	for _, total := range d.totals {
		if total > maxTotal {
			maxTotal = total
		}
	}

	for pt, total := range d.totals {
		if total < d.minFrequency {
			continue
		}
		if _, known := d.catalog[pt]; !known {
			metrics.PatternsDetected.WithLabelValues(string(pt)).Inc()
		}
		d.catalog[pt] = models.Pattern{
			ID:            fmt.Sprintf("pattern:%s", pt),
			Type:          pt,
			Description:   patternDescriptions[pt],
			Frequency:     total,
			TrendingScore: float64(total) / float64(maxTotal),
		}
	}

	d.pending = 0
	metrics.PatternDetectorLag.Set(0)
}

// UserPatterns returns the pattern types the user exhibits at or above the
// minimum frequency, sorted for determinism.
func (d *Detector) UserPatterns(userID string) []models.PatternType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.PatternType
	for pt, count := range d.userCount[userID] {
		if count >= d.minFrequency {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UserPatternDistribution returns each pattern type's share of the user's
// accumulated behavioral signal, normalized to sum to 1. Nil when the user
// has produced no pattern signal yet.
func (d *Detector) UserPatternDistribution(userID string) map[models.PatternType]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := d.userCount[userID]
	total := 0
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return nil
	}

	dist := make(map[models.PatternType]float64, len(counts))
	for pt, count := range counts {
		dist[pt] = float64(count) / float64(total)
	}
	return dist
}

// Patterns returns the current catalog sorted by trending score descending,
// then type ascending.
func (d *Detector) Patterns() []models.Pattern {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Pattern, 0, len(d.catalog))
	for _, p := range d.catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrendingScore != out[j].TrendingScore {
			return out[i].TrendingScore > out[j].TrendingScore
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Pattern returns one catalog entry by pattern type.
func (d *Detector) Pattern(pt models.PatternType) (models.Pattern, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.catalog[pt]
	return p, ok
}
