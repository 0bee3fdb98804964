package demonlistdomain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

func lockedAt(points float64) *float64 { return &points }

// rankedList builds n settled levels with scores n+10 down to 11.
func rankedList(n int, policy PointsPolicy) []Level {
	levels := make([]Level, n)
	for i := range levels {
		rank := i + 1
		levels[i] = Level{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("level-%02d", rank),
			Creator:         "creator",
			DifficultyScore: float64(n + 11 - rank),
			Rank:            rank,
			Tier:            policy.TierForRank(rank),
			PointValue:      policy.PointsForRank(rank),
		}
	}
	return levels
}

// snapshotOf splits settled levels by tier the way a store would return them.
func snapshotOf(levels []Level, roster Roster) Snapshot {
	var active, reserve []Level
	for _, l := range levels {
		if l.Tier == TierActive {
			active = append(active, l)
		} else {
			reserve = append(reserve, l)
		}
	}
	return NewSnapshot(active, reserve, roster)
}

func byID(levels []Level, id uuid.UUID) Level {
	for _, l := range levels {
		if l.ID == id {
			return l
		}
	}
	panic("level not found: " + id.String())
}
