package demonlistdomain

import (
	"math"
)

// DefaultTierSize is the number of levels in the Active tier.
const DefaultTierSize = 25

// PointsForRank returns tierSize+1-rank inside the Active tier and 0 everywhere else.
func PointsForRank(rank, tierSize int) int {
	if rank < 1 || rank > tierSize {
		return 0
	}
	return tierSize + 1 - rank
}

// PointsPolicy maps ranks to point values and tiers for a fixed tier size.
type PointsPolicy struct {
	TierSize int
}

// NewPointsPolicy returns a policy for tierSize, falling back to DefaultTierSize.
func NewPointsPolicy(tierSize int) PointsPolicy {
	if tierSize <= 0 {
		tierSize = DefaultTierSize
	}
	return PointsPolicy{TierSize: tierSize}
}

// PointsForRank applies the policy's tier size.
func (p PointsPolicy) PointsForRank(rank int) int {
	return PointsForRank(rank, p.tierSize())
}

// TierForRank places rank in Active when it falls inside the tier, else Reserve.
func (p PointsPolicy) TierForRank(rank int) Tier {
	if rank >= 1 && rank <= p.tierSize() {
		return TierActive
	}
	return TierReserve
}

// LockAt returns the frozen point value for a completion recorded at rank.
func (p PointsPolicy) LockAt(rank int) float64 {
	return float64(p.PointsForRank(rank))
}

func (p PointsPolicy) tierSize() int {
	if p.TierSize <= 0 {
		return DefaultTierSize
	}
	return p.TierSize
}

// ValidateDifficultyScore rejects NaN and infinite scores.
func ValidateDifficultyScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return NewValidationError("difficulty_score", "must be a finite number")
	}
	return nil
}
