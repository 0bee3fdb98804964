package demonlistservice

import (
	"context"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/results"
	"github.com/uptrace/bun"
)

// AddPlayer puts a player on the roster with zero progress on every level.
func (s *DemonListService) AddPlayer(ctx context.Context, name string) error {
	player, err := execute(s, ctx, "AddPlayer", name, func(ctx context.Context, db bun.IDB) (results.OperationResult[string, error], error) {
		return s.addPlayerLogic(ctx, db, name)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "AddPlayer", Player: player})
	return nil
}

func (s *DemonListService) addPlayerLogic(ctx context.Context, db bun.IDB, raw string) (results.OperationResult[string, error], error) {
	name, err := demonlistdomain.SanitizePlayerName(raw)
	if err != nil {
		return results.FailureResult[string, error](err), nil
	}

	before, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[string, error]{}, err
	}
	if _, err := before.Roster.Add(name); err != nil {
		return results.FailureResult[string, error](err), nil
	}
	_, players, err := s.loadRoster(ctx, db)
	if err != nil {
		return results.OperationResult[string, error]{}, err
	}

	if err := s.repo.InsertPlayer(ctx, db, &demonlistdb.Player{Name: name, Position: nextPosition(players)}); err != nil {
		return results.OperationResult[string, error]{}, demonlistdomain.NewStoreError("insert player", err)
	}

	rows := make([]*demonlistdb.Progress, 0, len(before.Levels))
	for _, l := range before.Levels {
		rows = append(rows, &demonlistdb.Progress{LevelID: l.ID, Player: name})
	}
	if err := s.repo.InsertProgress(ctx, db, rows); err != nil {
		return results.OperationResult[string, error]{}, demonlistdomain.NewStoreError("insert progress for "+name, err)
	}

	// A roster change is structural: settle the list while we are here.
	if err := s.applyPlan(ctx, db, s.coordinator.Plan(before, before.Levels)); err != nil {
		return results.OperationResult[string, error]{}, err
	}
	return results.SuccessResult[string, error](name), nil
}

// nextPosition places a new player after everyone already on the roster.
func nextPosition(players []*demonlistdb.Player) int {
	next := 0
	for _, p := range players {
		if p.Position >= next {
			next = p.Position + 1
		}
	}
	return next
}

// RemovePlayer drops a player together with all their progress and banked points.
// The last player can never be removed.
func (s *DemonListService) RemovePlayer(ctx context.Context, name string) error {
	player, err := execute(s, ctx, "RemovePlayer", name, func(ctx context.Context, db bun.IDB) (results.OperationResult[string, error], error) {
		return s.removePlayerLogic(ctx, db, name)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "RemovePlayer", Player: player})
	return nil
}

func (s *DemonListService) removePlayerLogic(ctx context.Context, db bun.IDB, raw string) (results.OperationResult[string, error], error) {
	name, err := demonlistdomain.SanitizePlayerName(raw)
	if err != nil {
		return results.FailureResult[string, error](err), nil
	}

	roster, _, err := s.loadRoster(ctx, db)
	if err != nil {
		return results.OperationResult[string, error]{}, err
	}
	if _, err := roster.Remove(name); err != nil {
		return results.FailureResult[string, error](err), nil
	}

	if err := s.repo.DeletePlayerProgress(ctx, db, name); err != nil {
		return results.OperationResult[string, error]{}, demonlistdomain.NewStoreError("delete progress for "+name, err)
	}
	if err := s.repo.DeleteBankedPoints(ctx, db, name); err != nil {
		return results.OperationResult[string, error]{}, demonlistdomain.NewStoreError("delete banked points for "+name, err)
	}
	if err := s.repo.DeletePlayer(ctx, db, name); err != nil {
		return results.OperationResult[string, error]{}, demonlistdomain.NewStoreError("delete player", err)
	}
	return results.SuccessResult[string, error](name), nil
}

// Roster lists the players in join order.
func (s *DemonListService) Roster(ctx context.Context) ([]string, error) {
	return execute(s, ctx, "Roster", "", func(ctx context.Context, db bun.IDB) (results.OperationResult[[]string, error], error) {
		roster, _, err := s.loadRoster(ctx, db)
		if err != nil {
			return results.OperationResult[[]string, error]{}, err
		}
		return results.SuccessResult[[]string, error](roster.Players()), nil
	})
}
