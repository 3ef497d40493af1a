// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package match

// Tier boundaries on match scores.
const (
	mediumTier    = 0.3
	highTier      = 0.6
	excellentTier = 0.85
)

// Tier buckets a match score into its quality tier.
func Tier(score float64) string {
	switch {
	case score >= excellentTier:
		return "excellent"
	case score >= highTier:
		return "high"
	case score >= mediumTier:
		return "medium"
	default:
		return "low"
	}
}

// TierColor maps a match score to its display color. The bands are finer
// than the tiers so the low end still differentiates.
func TierColor(score float64) string {
	switch {
	case score >= excellentTier:
		return "green"
	case score >= highTier:
		return "emerald"
	case score >= mediumTier:
		return "yellow"
	case score >= 0.15:
		return "orange"
	default:
		return "red"
	}
}
