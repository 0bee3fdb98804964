package demonlistservice

import (
	"context"
	"fmt"
	"maps"
	"slices"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// loadRoster reads the players in join order.
func (s *DemonListService) loadRoster(ctx context.Context, db bun.IDB) (demonlistdomain.Roster, []*demonlistdb.Player, error) {
	rows, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return demonlistdomain.Roster{}, nil, demonlistdomain.NewStoreError("load players", err)
	}
	names := make([]string, len(rows))
	for i, p := range rows {
		names[i] = p.Name
	}
	return demonlistdomain.NewRoster(names), rows, nil
}

// loadSnapshot reads both tiers, progress and the roster from the store. It never
// consults cached state.
func (s *DemonListService) loadSnapshot(ctx context.Context, db bun.IDB) (demonlistdomain.Snapshot, error) {
	roster, _, err := s.loadRoster(ctx, db)
	if err != nil {
		return demonlistdomain.Snapshot{}, err
	}

	rows, err := s.repo.ListProgress(ctx, db)
	if err != nil {
		return demonlistdomain.Snapshot{}, demonlistdomain.NewStoreError("load progress", err)
	}
	progress := make(map[uuid.UUID]map[string]demonlistdomain.ProgressEntry)
	for _, row := range rows {
		// Rows of players no longer on the roster are ignored.
		if !roster.Contains(row.Player) {
			continue
		}
		if progress[row.LevelID] == nil {
			progress[row.LevelID] = make(map[string]demonlistdomain.ProgressEntry)
		}
		progress[row.LevelID][row.Player] = demonlistdomain.ProgressEntry{
			Percent:      row.Percent,
			LockedPoints: row.LockedPoints,
		}
	}

	tiers := make(map[demonlistdomain.Tier][]demonlistdomain.Level, len(demonlistdomain.Tiers))
	for _, tier := range demonlistdomain.Tiers {
		levelRows, err := s.repo.ListLevels(ctx, db, tier)
		if err != nil {
			return demonlistdomain.Snapshot{}, demonlistdomain.NewStoreError(fmt.Sprintf("load %s levels", tier), err)
		}
		levels := make([]demonlistdomain.Level, len(levelRows))
		for i, row := range levelRows {
			levels[i] = levelFromRow(row, tier, progress[row.ID])
		}
		tiers[tier] = levels
	}

	return demonlistdomain.NewSnapshot(tiers[demonlistdomain.TierActive], tiers[demonlistdomain.TierReserve], roster), nil
}

// applyPlan persists the plan's writes in order. The first failure stops the sequence and
// is reported as a StoreError naming the step; earlier writes are not undone here.
func (s *DemonListService) applyPlan(ctx context.Context, db bun.IDB, plan demonlistdomain.MigrationPlan) error {
	total := len(plan.Ops)
	for i, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			return demonlistdomain.NewStoreError(fmt.Sprintf("step %d/%d: %s", i+1, total, op), err)
		}
		if err := s.applyOp(ctx, db, op); err != nil {
			return demonlistdomain.NewStoreError(fmt.Sprintf("step %d/%d: %s", i+1, total, op), err)
		}
		if s.metrics != nil {
			s.metrics.RecordStoreOp(ctx, string(op.Kind), op.Reason)
		}
		s.logger.DebugContext(ctx, "Applied store op",
			attr.ExtractCorrelationID(ctx),
			attr.LevelID(op.Level.ID),
			attr.Tier(string(op.Tier)),
			attr.String("kind", string(op.Kind)),
			attr.String("reason", op.Reason),
		)
	}

	if moves := plan.Moves(); moves > 0 {
		if s.metrics != nil {
			s.metrics.RecordTierMoves(ctx, moves)
		}
		s.logger.InfoContext(ctx, "Levels changed tier", attr.ExtractCorrelationID(ctx), attr.Int("moves", moves))
	}
	return nil
}

func (s *DemonListService) applyOp(ctx context.Context, db bun.IDB, op demonlistdomain.StoreOp) error {
	switch op.Kind {
	case demonlistdomain.OpInsert:
		if err := s.repo.InsertLevel(ctx, db, op.Tier, levelToRow(op.Level)); err != nil {
			return err
		}
		// Existing rows (a move) are left as they are; new players get zero rows.
		return s.repo.InsertProgress(ctx, db, progressRows(op.Level))
	case demonlistdomain.OpUpdate:
		score, rank, points := op.Level.DifficultyScore, op.Level.Rank, op.Level.PointValue
		return s.repo.UpdateLevel(ctx, db, op.Tier, op.Level.ID, demonlistdb.LevelPatch{
			DifficultyScore: &score,
			Rank:            &rank,
			PointValue:      &points,
		})
	case demonlistdomain.OpDelete:
		if err := s.repo.DeleteLevel(ctx, db, op.Tier, op.Level.ID); err != nil {
			return err
		}
		if op.Purge {
			return s.repo.DeleteLevelProgress(ctx, db, op.Level.ID)
		}
		return nil
	default:
		return fmt.Errorf("unknown store op kind %q", op.Kind)
	}
}

func levelFromRow(row *demonlistdb.Level, tier demonlistdomain.Tier, progress map[string]demonlistdomain.ProgressEntry) demonlistdomain.Level {
	return demonlistdomain.Level{
		ID:              row.ID,
		Name:            row.Name,
		Creator:         row.Creator,
		DifficultyScore: row.DifficultyScore,
		Rank:            row.Rank,
		Tier:            tier,
		PointValue:      row.PointValue,
		Progress:        progress,
		UpdatedAt:       row.UpdatedAt,
	}
}

func levelToRow(l demonlistdomain.Level) *demonlistdb.Level {
	return &demonlistdb.Level{
		ID:              l.ID,
		Name:            l.Name,
		Creator:         l.Creator,
		DifficultyScore: l.DifficultyScore,
		Rank:            l.Rank,
		PointValue:      l.PointValue,
	}
}

func progressRows(l demonlistdomain.Level) []*demonlistdb.Progress {
	rows := make([]*demonlistdb.Progress, 0, len(l.Progress))
	for _, player := range slices.Sorted(maps.Keys(l.Progress)) {
		entry := l.Progress[player]
		rows = append(rows, &demonlistdb.Progress{
			LevelID:      l.ID,
			Player:       player,
			Percent:      entry.Percent,
			LockedPoints: entry.LockedPoints,
		})
	}
	return rows
}
