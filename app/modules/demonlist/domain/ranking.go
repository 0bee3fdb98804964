package demonlistdomain

import (
	"cmp"
	"slices"
)

// RankEngine derives rank, tier and point value for the whole list.
type RankEngine struct {
	policy PointsPolicy
}

// NewRankEngine creates a RankEngine using policy.
func NewRankEngine(policy PointsPolicy) RankEngine {
	return RankEngine{policy: policy}
}

// Policy returns the points policy the engine ranks with.
func (e RankEngine) Policy() PointsPolicy {
	return e.policy
}

// Recompute stable-sorts levels by difficulty score (hardest first) and assigns dense ranks
// starting at 1. Equal scores keep their input order, so callers pass levels in canonical
// order (see CanonicalOrder). Persisted tier membership is never consulted.
func (e RankEngine) Recompute(levels []Level) []Level {
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = l.Clone()
	}

	slices.SortStableFunc(out, func(a, b Level) int {
		return cmp.Compare(b.DifficultyScore, a.DifficultyScore)
	})

	for i := range out {
		rank := i + 1
		out[i].Rank = rank
		out[i].Tier = e.policy.TierForRank(rank)
		out[i].PointValue = e.policy.PointsForRank(rank)
	}
	return out
}

// CanonicalOrder sorts levels by current rank, unranked levels last, with the ID string as
// the final tie-break. Feeding this order into Recompute keeps ties from oscillating.
func CanonicalOrder(levels []Level) []Level {
	out := slices.Clone(levels)
	slices.SortStableFunc(out, func(a, b Level) int {
		if c := cmp.Compare(rankKey(a.Rank), rankKey(b.Rank)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func rankKey(rank int) int {
	if rank <= 0 {
		return int(^uint(0) >> 1)
	}
	return rank
}
