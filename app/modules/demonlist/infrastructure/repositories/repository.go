package demonlistdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements Repository using Bun. It works against Postgres and SQLite.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new demon list repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// tableExpr keeps the model alias so generated column references stay valid.
func tableExpr(tier demonlistdomain.Tier) (string, error) {
	switch tier {
	case demonlistdomain.TierActive:
		return ActiveLevelsTable + " AS lvl", nil
	case demonlistdomain.TierReserve:
		return ReserveLevelsTable + " AS lvl", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLevels returns every level row stored in tier.
func (r *Impl) ListLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier) ([]*Level, error) {
	db = r.resolveDB(db)
	table, err := tableExpr(tier)
	if err != nil {
		return nil, err
	}

	var levels []*Level
	err = db.NewSelect().
		Model(&levels).
		ModelTableExpr(table).
		OrderExpr("list_rank ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list %s levels: %w", tier, err)
	}
	return levels, nil
}

// InsertLevel adds a row to tier.
func (r *Impl) InsertLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, level *Level) error {
	db = r.resolveDB(db)
	table, err := tableExpr(tier)
	if err != nil {
		return err
	}
	if level.ID == uuid.Nil {
		level.ID = uuid.New()
	}
	level.UpdatedAt = time.Now().UTC()

	if _, err := db.NewInsert().Model(level).ModelTableExpr(table).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert level into %s: %w", tier, err)
	}
	return nil
}

// UpdateLevel applies patch to the row with id in tier.
func (r *Impl) UpdateLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID, patch LevelPatch) error {
	db = r.resolveDB(db)
	table, err := tableExpr(tier)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	q := db.NewUpdate().
		Model((*Level)(nil)).
		ModelTableExpr(table).
		Set("updated_at = ?", time.Now().UTC())
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Creator != nil {
		q = q.Set("creator = ?", *patch.Creator)
	}
	if patch.DifficultyScore != nil {
		q = q.Set("difficulty_score = ?", *patch.DifficultyScore)
	}
	if patch.Rank != nil {
		q = q.Set("list_rank = ?", *patch.Rank)
	}
	if patch.PointValue != nil {
		q = q.Set("point_value = ?", *patch.PointValue)
	}

	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update level in %s: %w", tier, err)
	}
	return checkAffected(res)
}

// DeleteLevel removes the row with id from tier.
func (r *Impl) DeleteLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID) error {
	db = r.resolveDB(db)
	table, err := tableExpr(tier)
	if err != nil {
		return err
	}

	res, err := db.NewDelete().
		Model((*Level)(nil)).
		ModelTableExpr(table).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete level from %s: %w", tier, err)
	}
	return checkAffected(res)
}

// ReplaceLevels swaps the whole content of tier for levels.
func (r *Impl) ReplaceLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, levels []*Level) error {
	db = r.resolveDB(db)
	table, err := tableExpr(tier)
	if err != nil {
		return err
	}

	if _, err := db.NewDelete().Model((*Level)(nil)).ModelTableExpr(table).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear %s levels: %w", tier, err)
	}
	if len(levels) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, l := range levels {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.UpdatedAt = now
	}
	if _, err := db.NewInsert().Model(&levels).ModelTableExpr(table).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert %s levels: %w", tier, err)
	}
	return nil
}

// ListProgress returns all progress rows.
func (r *Impl) ListProgress(ctx context.Context, db bun.IDB) ([]*Progress, error) {
	db = r.resolveDB(db)
	var rows []*Progress
	if err := db.NewSelect().Model(&rows).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return rows, nil
}

// InsertProgress adds rows, leaving existing (level, player) rows untouched.
func (r *Impl) InsertProgress(ctx context.Context, db bun.IDB, rows []*Progress) error {
	if len(rows) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for _, row := range rows {
		row.UpdatedAt = now
	}
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (level_id, player) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

// UpsertProgress writes one (level, player) row.
func (r *Impl) UpsertProgress(ctx context.Context, db bun.IDB, row *Progress) error {
	db = r.resolveDB(db)
	row.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (level_id, player) DO UPDATE").
		Set("percent = EXCLUDED.percent").
		Set("locked_points = EXCLUDED.locked_points").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// DeleteLevelProgress drops every row for a level.
func (r *Impl) DeleteLevelProgress(ctx context.Context, db bun.IDB, levelID uuid.UUID) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Progress)(nil)).Where("level_id = ?", levelID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete level progress: %w", err)
	}
	return nil
}

// DeletePlayerProgress drops every row for a player.
func (r *Impl) DeletePlayerProgress(ctx context.Context, db bun.IDB, player string) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Progress)(nil)).Where("player = ?", player).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete player progress: %w", err)
	}
	return nil
}

// ClearProgress drops all progress rows.
func (r *Impl) ClearProgress(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Progress)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

// ListPlayers returns the roster in join order.
func (r *Impl) ListPlayers(ctx context.Context, db bun.IDB) ([]*Player, error) {
	db = r.resolveDB(db)
	var players []*Player
	err := db.NewSelect().
		Model(&players).
		OrderExpr("position ASC, name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// InsertPlayer adds a roster member.
func (r *Impl) InsertPlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(player).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// DeletePlayer removes a roster member.
func (r *Impl) DeletePlayer(ctx context.Context, db bun.IDB, name string) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().Model((*Player)(nil)).Where("name = ?", name).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return checkAffected(res)
}

// ListBankedPoints returns every player's banked total.
func (r *Impl) ListBankedPoints(ctx context.Context, db bun.IDB) ([]*BankedPoints, error) {
	db = r.resolveDB(db)
	var rows []*BankedPoints
	if err := db.NewSelect().Model(&rows).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list banked points: %w", err)
	}
	return rows, nil
}

// SetBankedPoints stores a player's banked total.
func (r *Impl) SetBankedPoints(ctx context.Context, db bun.IDB, player string, points float64) error {
	db = r.resolveDB(db)
	row := &BankedPoints{Player: player, Points: points, UpdatedAt: time.Now().UTC()}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (player) DO UPDATE").
		Set("points = EXCLUDED.points").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set banked points: %w", err)
	}
	return nil
}

// DeleteBankedPoints drops a player's banked total.
func (r *Impl) DeleteBankedPoints(ctx context.Context, db bun.IDB, player string) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*BankedPoints)(nil)).Where("player = ?", player).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete banked points: %w", err)
	}
	return nil
}
