package demonlistdb

import (
	"context"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the record store behind the demon list: two tier tables, a progress table
// keyed by (level, player), the roster and banked points. Every write is atomic for a
// single record; callers decide whether to wrap a sequence in a transaction.
type Repository interface {
	// ListLevels returns every level row stored in tier. Order is not significant.
	ListLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier) ([]*Level, error)

	// InsertLevel adds a row to tier.
	InsertLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, level *Level) error

	// UpdateLevel applies patch to the row with id in tier.
	UpdateLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID, patch LevelPatch) error

	// DeleteLevel removes the row with id from tier. Progress rows are kept.
	DeleteLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID) error

	// ReplaceLevels swaps the whole content of tier for levels.
	ReplaceLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, levels []*Level) error

	// ListProgress returns all progress rows.
	ListProgress(ctx context.Context, db bun.IDB) ([]*Progress, error)

	// InsertProgress adds rows, leaving existing (level, player) rows untouched.
	InsertProgress(ctx context.Context, db bun.IDB, rows []*Progress) error

	// UpsertProgress writes one (level, player) row.
	UpsertProgress(ctx context.Context, db bun.IDB, row *Progress) error

	// DeleteLevelProgress drops every row for a level.
	DeleteLevelProgress(ctx context.Context, db bun.IDB, levelID uuid.UUID) error

	// DeletePlayerProgress drops every row for a player.
	DeletePlayerProgress(ctx context.Context, db bun.IDB, player string) error

	// ClearProgress drops all progress rows.
	ClearProgress(ctx context.Context, db bun.IDB) error

	// ListPlayers returns the roster in join order.
	ListPlayers(ctx context.Context, db bun.IDB) ([]*Player, error)

	// InsertPlayer adds a roster member.
	InsertPlayer(ctx context.Context, db bun.IDB, player *Player) error

	// DeletePlayer removes a roster member.
	DeletePlayer(ctx context.Context, db bun.IDB, name string) error

	// ListBankedPoints returns every player's banked total.
	ListBankedPoints(ctx context.Context, db bun.IDB) ([]*BankedPoints, error)

	// SetBankedPoints stores a player's banked total.
	SetBankedPoints(ctx context.Context, db bun.IDB, player string, points float64) error

	// DeleteBankedPoints drops a player's banked total.
	DeleteBankedPoints(ctx context.Context, db bun.IDB, player string) error
}
