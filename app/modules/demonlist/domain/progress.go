package demonlistdomain

import (
	"math"
	"strconv"
	"strings"
)

// ClampPercent bounds a completion percentage to [0,100]. NaN becomes 0.
func ClampPercent(percent float64) float64 {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

// ParsePercent reads a percentage typed by a user. Empty or non-numeric input is 0.
func ParsePercent(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%")), 64)
	if err != nil {
		return 0
	}
	return ClampPercent(v)
}

// ApplyProgress returns the entry produced by recording percent on a level that currently
// holds rank. Anything below 100 clears the lock. Reaching 100 freezes the points for rank
// unless the entry is already locked at 100.
func (p PointsPolicy) ApplyProgress(current ProgressEntry, rank int, percent float64) ProgressEntry {
	percent = ClampPercent(percent)
	if percent < 100 {
		return ProgressEntry{Percent: percent}
	}
	if current.Locked() && current.Percent >= 100 {
		return current.clone()
	}
	locked := p.LockAt(rank)
	return ProgressEntry{Percent: 100, LockedPoints: &locked}
}

// EarnedPoints is what player currently earns from level.
func EarnedPoints(level Level, player string) float64 {
	entry := level.Entry(player)
	switch {
	case entry.LockedPoints != nil:
		return *entry.LockedPoints
	case entry.Percent < 100:
		return entry.Percent / 100 * float64(level.PointValue)
	default:
		return float64(level.PointValue)
	}
}

// TotalPoints sums EarnedPoints over the levels in scope.
func TotalPoints(levels []Level, player string, scope Scope) float64 {
	var total float64
	for _, l := range levels {
		if !scope.Includes(l.Tier) {
			continue
		}
		total += EarnedPoints(l, player)
	}
	return total
}
