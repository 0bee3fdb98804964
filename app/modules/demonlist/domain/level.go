package demonlistdomain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier is the store a level lives in.
type Tier string

const (
	TierActive  Tier = "active"
	TierReserve Tier = "reserve"
)

// Tiers lists both tiers in load order.
var Tiers = []Tier{TierActive, TierReserve}

// Scope selects which tiers a points query covers.
type Scope string

const (
	ScopeActive  Scope = "active"
	ScopeReserve Scope = "reserve"
	ScopeBoth    Scope = "both"
)

// ParseScope accepts active, reserve or both. An empty string means both.
func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ScopeBoth:
		return ScopeBoth, nil
	case ScopeActive:
		return ScopeActive, nil
	case ScopeReserve:
		return ScopeReserve, nil
	default:
		return "", NewValidationError("scope", "must be active, reserve or both")
	}
}

// Includes reports whether levels in tier t count towards the scope.
func (s Scope) Includes(t Tier) bool {
	switch s {
	case ScopeActive:
		return t == TierActive
	case ScopeReserve:
		return t == TierReserve
	default:
		return true
	}
}

// ProgressEntry is one player's completion of one level.
type ProgressEntry struct {
	Percent      float64  `json:"percent"`
	LockedPoints *float64 `json:"locked_points,omitempty"`
}

// Locked reports whether a point value was frozen for this entry.
func (e ProgressEntry) Locked() bool {
	return e.LockedPoints != nil
}

func (e ProgressEntry) clone() ProgressEntry {
	if e.LockedPoints == nil {
		return e
	}
	locked := *e.LockedPoints
	return ProgressEntry{Percent: e.Percent, LockedPoints: &locked}
}

// Level is a single demon on the list. Rank, Tier and PointValue are derived by the
// RankEngine and never accepted from callers.
type Level struct {
	ID              uuid.UUID                `json:"id"`
	Name            string                   `json:"name"`
	Creator         string                   `json:"creator"`
	DifficultyScore float64                  `json:"difficulty_score"`
	Rank            int                      `json:"rank"`
	Tier            Tier                     `json:"tier"`
	PointValue      int                      `json:"point_value"`
	Progress        map[string]ProgressEntry `json:"progress"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// Entry returns the player's progress. Missing entries read as zero.
func (l Level) Entry(player string) ProgressEntry {
	if l.Progress == nil {
		return ProgressEntry{}
	}
	return l.Progress[player]
}

// Clone returns a deep copy, so callers may mutate progress freely.
func (l Level) Clone() Level {
	out := l
	if l.Progress != nil {
		out.Progress = make(map[string]ProgressEntry, len(l.Progress))
		for player, entry := range l.Progress {
			out.Progress[player] = entry.clone()
		}
	}
	return out
}

// ValidateLevelInput checks the fields callers supply when creating a level.
func ValidateLevelInput(name, creator string, score float64) error {
	if err := ValidateLevelDetails(name, creator); err != nil {
		return err
	}
	return ValidateDifficultyScore(score)
}

// ValidateLevelDetails checks name and creator.
func ValidateLevelDetails(name, creator string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(creator) == "" {
		return NewValidationError("creator", "must not be empty")
	}
	return nil
}
