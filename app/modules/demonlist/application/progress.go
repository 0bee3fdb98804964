package demonlistservice

import (
	"context"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetProgress records a player's completion of a level. Reaching 100 locks the points the
// level is worth at its current rank; anything lower clears the lock. Only this one
// (level, player) row is written.
func (s *DemonListService) SetProgress(ctx context.Context, levelID uuid.UUID, player string, percent float64) (demonlistdomain.ProgressEntry, error) {
	entry, err := execute(s, ctx, "SetProgress", levelID.String()+"/"+player, func(ctx context.Context, db bun.IDB) (results.OperationResult[demonlistdomain.ProgressEntry, error], error) {
		return s.setProgressLogic(ctx, db, levelID, player, percent)
	})
	if err != nil {
		return demonlistdomain.ProgressEntry{}, err
	}
	name, _ := demonlistdomain.SanitizePlayerName(player)
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "SetProgress", LevelID: &levelID, Player: name})
	return entry, nil
}

func (s *DemonListService) setProgressLogic(ctx context.Context, db bun.IDB, levelID uuid.UUID, player string, percent float64) (results.OperationResult[demonlistdomain.ProgressEntry, error], error) {
	name, err := demonlistdomain.SanitizePlayerName(player)
	if err != nil {
		return results.FailureResult[demonlistdomain.ProgressEntry, error](err), nil
	}

	snap, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[demonlistdomain.ProgressEntry, error]{}, err
	}
	if !snap.Roster.Contains(name) {
		return results.FailureResult[demonlistdomain.ProgressEntry, error](demonlistdomain.ErrUnknownPlayer), nil
	}
	level, ok := snap.Find(levelID)
	if !ok {
		return results.FailureResult[demonlistdomain.ProgressEntry, error](demonlistdomain.ErrNotFound), nil
	}

	entry := s.policy().ApplyProgress(level.Entry(name), level.Rank, percent)
	err = s.repo.UpsertProgress(ctx, db, &demonlistdb.Progress{
		LevelID:      levelID,
		Player:       name,
		Percent:      entry.Percent,
		LockedPoints: entry.LockedPoints,
	})
	if err != nil {
		return results.OperationResult[demonlistdomain.ProgressEntry, error]{}, demonlistdomain.NewStoreError("save progress", err)
	}
	return results.SuccessResult[demonlistdomain.ProgressEntry, error](entry), nil
}

// TotalPoints sums what player earns over the levels in scope.
func (s *DemonListService) TotalPoints(ctx context.Context, player string, scope demonlistdomain.Scope) (float64, error) {
	return execute(s, ctx, "TotalPoints", player, func(ctx context.Context, db bun.IDB) (results.OperationResult[float64, error], error) {
		name, err := demonlistdomain.SanitizePlayerName(player)
		if err != nil {
			return results.FailureResult[float64, error](err), nil
		}
		snap, err := s.loadSnapshot(ctx, db)
		if err != nil {
			return results.OperationResult[float64, error]{}, err
		}
		if !snap.Roster.Contains(name) {
			return results.FailureResult[float64, error](demonlistdomain.ErrUnknownPlayer), nil
		}
		return results.SuccessResult[float64, error](demonlistdomain.TotalPoints(snap.Levels, name, scope)), nil
	})
}

// Standings ranks every player by total points, banked points included.
func (s *DemonListService) Standings(ctx context.Context) ([]demonlistdomain.Standing, error) {
	return execute(s, ctx, "Standings", "", s.standingsLogic)
}

func (s *DemonListService) standingsLogic(ctx context.Context, db bun.IDB) (results.OperationResult[[]demonlistdomain.Standing, error], error) {
	snap, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[[]demonlistdomain.Standing, error]{}, err
	}
	rows, err := s.repo.ListBankedPoints(ctx, db)
	if err != nil {
		return results.OperationResult[[]demonlistdomain.Standing, error]{}, demonlistdomain.NewStoreError("load banked points", err)
	}
	banked := make(map[string]float64, len(rows))
	for _, row := range rows {
		banked[row.Player] = row.Points
	}
	return results.SuccessResult[[]demonlistdomain.Standing, error](demonlistdomain.ComputeStandings(snap.Levels, snap.Roster, banked)), nil
}
