// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package velocity estimates engagement momentum. Events inside the lookback
// window are grouped into fixed-size time buckets and their weights summed;
// each bucket's sum then decays exponentially with the bucket's age. The
// result is normalized to weighted engagement points per hour, so a target
// receiving a steady w points per hour scores exactly w.
package velocity

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/clawspace/pulse/internal/metrics"
	"github.com/clawspace/pulse/internal/models"
)

// Estimator computes decayed engagement rates over a bucketed window.
// The zero value is not usable; construct with NewEstimator.
type Estimator struct {
	window   time.Duration
	bucket   time.Duration
	halfLife time.Duration

	numBuckets int

	// normHours is the decay-weighted window length in hours. Dividing the
	// decayed weight sum by it turns the score into a per-hour rate.
	normHours float64
}

// NewEstimator creates an estimator. Out-of-range parameters fall back to
// the standard 72-hour window of 1-hour buckets with a 6-hour half-life.
func NewEstimator(window, bucket, halfLife time.Duration) *Estimator {
	if bucket <= 0 {
		bucket = time.Hour
	}
	if window < bucket {
		window = 72 * time.Hour
	}
	if halfLife <= 0 {
		halfLife = 6 * time.Hour
	}

	e := &Estimator{
		window:     window,
		bucket:     bucket,
		halfLife:   halfLife,
		numBuckets: int(window / bucket),
	}

	bucketHours := bucket.Hours()
	for i := 0; i < e.numBuckets; i++ {
		e.normHours += e.decay(i) * bucketHours
	}

	return e
}

// Window returns the lookback window.
func (e *Estimator) Window() time.Duration {
	return e.window
}

// Rate returns the target's decayed engagement rate in weighted points per
// hour at the given instant. Events outside the window or after now are
// ignored.
func (e *Estimator) Rate(events []models.EngagementEvent, now time.Time) float64 {
	metrics.VelocityComputations.Inc()

	weights := make([]float64, e.numBuckets)
	for _, event := range events {
		idx, ok := e.bucketIndex(event.Timestamp, now)
		if !ok {
			continue
		}
		weights[idx] += float64(event.Weight)
	}

	var score float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		score += w * e.decay(i)
	}

	return score / e.normHours
}

// Trending ranks targets of one type by engagement rate. events must all
// share the target type. createdAt maps target IDs to creation times and
// may be nil. Ordering is rate descending, then raw event count descending,
// then earlier creation time (sustained momentum beats a fresh spike), then
// target ID ascending so equal targets rank deterministically. Returns at
// most limit items.
func (e *Estimator) Trending(events []models.EngagementEvent, targetType models.TargetType, limit int, now time.Time, createdAt map[string]time.Time) []models.TrendingItem {
	start := time.Now()
	defer func() {
		metrics.RecordTrendingQuery(string(targetType), time.Since(start))
	}()

	type accum struct {
		events []models.EngagementEvent
		count  int
	}
	byTarget := make(map[string]*accum)

	windowStart := now.Add(-e.window)
	for _, event := range events {
		if event.Timestamp.Before(windowStart) || event.Timestamp.After(now) {
			continue
		}
		a := byTarget[event.TargetID]
		if a == nil {
			a = &accum{}
			byTarget[event.TargetID] = a
		}
		a.events = append(a.events, event)
		a.count++
	}

	items := make([]models.TrendingItem, 0, len(byTarget))
	for targetID, a := range byTarget {
		rate := e.Rate(a.events, now)
		items = append(items, models.TrendingItem{
			TargetID:    targetID,
			TargetType:  targetType,
			Velocity:    rate,
			EventCount:  a.count,
			CreatedAt:   createdAt[targetID],
			WindowStart: windowStart,
			WindowEnd:   now,
			Label:       Label(rate),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Velocity != items[j].Velocity {
			return items[i].Velocity > items[j].Velocity
		}
		if items[i].EventCount != items[j].EventCount {
			return items[i].EventCount > items[j].EventCount
		}
		// Earlier creation wins; unresolved (zero) times rank last.
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			if items[i].CreatedAt.IsZero() {
				return false
			}
			if items[j].CreatedAt.IsZero() {
				return true
			}
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].TargetID < items[j].TargetID
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// bucketIndex maps an event timestamp to its bucket, newest first.
// Returns false for events after now or older than the window.
func (e *Estimator) bucketIndex(ts, now time.Time) (int, bool) {
	age := now.Sub(ts)
	if age < 0 {
		return 0, false
	}
	idx := int(age / e.bucket)
	if idx >= e.numBuckets {
		return 0, false
	}
	return idx, true
}

// decay returns the exponential decay factor for bucket i, measured at the
// bucket's newest edge. Bucket 0 never decays.
func (e *Estimator) decay(i int) float64 {
	ageHours := float64(i) * e.bucket.Hours()
	return math.Exp2(-ageHours / e.halfLife.Hours())
}

// Velocity label thresholds in weighted points per hour.
const (
	risingThreshold  = 2.0
	hotThreshold     = 10.0
	surgingThreshold = 30.0
)

// Label buckets a rate into a display label.
func Label(rate float64) string {
	switch {
	case rate >= surgingThreshold:
		return "surging"
	case rate >= hotThreshold:
		return "hot"
	case rate >= risingThreshold:
		return "rising"
	default:
		return "quiet"
	}
}

// FormatVelocity renders a rate for display. Rates of 100 and up collapse
// to thousands-style "1.2k/hr", rates under 1 switch to a per-minute count.
func FormatVelocity(rate float64) string {
	switch {
	case rate >= 100:
		return strconv.FormatFloat(rate/100, 'f', 1, 64) + "k/hr"
	case rate >= 1:
		return strconv.FormatFloat(rate, 'f', 1, 64) + "/hr"
	default:
		return strconv.FormatFloat(rate*60, 'f', 0, 64) + "/min"
	}
}
