package demonlistdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Table names for the two tier stores. Both share the Level model.
const (
	ActiveLevelsTable  = "active_levels"
	ReserveLevelsTable = "reserve_levels"
)

// Level is a row in one of the tier tables.
type Level struct {
	bun.BaseModel `bun:"table:active_levels,alias:lvl"`

	ID              uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Name            string    `bun:"name,notnull"`
	Creator         string    `bun:"creator,notnull"`
	DifficultyScore float64   `bun:"difficulty_score,notnull"`
	Rank            int       `bun:"list_rank,notnull"`
	PointValue      int       `bun:"point_value,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// LevelPatch lists the columns an update may change. Nil fields are left alone.
type LevelPatch struct {
	Name            *string
	Creator         *string
	DifficultyScore *float64
	Rank            *int
	PointValue      *int
}

// Empty reports whether the patch changes nothing.
func (p LevelPatch) Empty() bool {
	return p.Name == nil && p.Creator == nil && p.DifficultyScore == nil && p.Rank == nil && p.PointValue == nil
}

// Progress is one player's completion of one level. Rows are keyed by level id, so they
// follow a level across tier tables without being rewritten.
type Progress struct {
	bun.BaseModel `bun:"table:level_progress,alias:lp"`

	LevelID      uuid.UUID `bun:"level_id,pk,type:varchar(36)"`
	Player       string    `bun:"player,pk"`
	Percent      float64   `bun:"percent,notnull"`
	LockedPoints *float64  `bun:"locked_points"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Player is a roster member.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	Name      string    `bun:"name,pk"`
	Position  int       `bun:"position,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// BankedPoints holds points a player kept from deleted levels.
type BankedPoints struct {
	bun.BaseModel `bun:"table:banked_points,alias:bp"`

	Player    string    `bun:"player,pk"`
	Points    float64   `bun:"points,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
