package demonlistservice

import (
	"context"
	"errors"
	"strings"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/Black-And-White-Club/demonlist-tracker/app/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// addedLevel is the level as ranked after insertion plus the tier moves it caused.
type addedLevel struct {
	level demonlistdomain.Level
	moves int
}

// AddLevel inserts a new level and re-ranks the whole list around it.
func (s *DemonListService) AddLevel(ctx context.Context, name, creator string, difficultyScore float64) (demonlistdomain.Level, error) {
	added, err := execute(s, ctx, "AddLevel", name, func(ctx context.Context, db bun.IDB) (results.OperationResult[addedLevel, error], error) {
		return s.addLevelLogic(ctx, db, name, creator, difficultyScore)
	})
	if err != nil {
		return demonlistdomain.Level{}, err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "AddLevel", LevelID: &added.level.ID, Moves: added.moves})
	return added.level, nil
}

func (s *DemonListService) addLevelLogic(ctx context.Context, db bun.IDB, name, creator string, score float64) (results.OperationResult[addedLevel, error], error) {
	name, creator = strings.TrimSpace(name), strings.TrimSpace(creator)
	if err := demonlistdomain.ValidateLevelInput(name, creator, score); err != nil {
		return results.FailureResult[addedLevel, error](err), nil
	}

	before, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[addedLevel, error]{}, err
	}

	level := demonlistdomain.Level{
		ID:              uuid.New(),
		Name:            name,
		Creator:         creator,
		DifficultyScore: score,
	}
	plan := s.coordinator.Plan(before, before.WithLevel(level))
	if err := s.applyPlan(ctx, db, plan); err != nil {
		return results.OperationResult[addedLevel, error]{}, err
	}

	for _, l := range plan.Levels {
		if l.ID == level.ID {
			level = l
			break
		}
	}
	return results.SuccessResult[addedLevel, error](addedLevel{level: level, moves: plan.Moves()}), nil
}

// DeleteLevel removes a level from whichever tier holds it and closes the gap in the ranks.
func (s *DemonListService) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	moves, err := execute(s, ctx, "DeleteLevel", id.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[int, error], error) {
		return s.deleteLevelLogic(ctx, db, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "DeleteLevel", LevelID: &id, Moves: moves})
	return nil
}

func (s *DemonListService) deleteLevelLogic(ctx context.Context, db bun.IDB, id uuid.UUID) (results.OperationResult[int, error], error) {
	before, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[int, error]{}, err
	}

	candidate, removed, err := before.WithoutLevel(id)
	if err != nil {
		return results.FailureResult[int, error](err), nil
	}

	plan := s.coordinator.Plan(before, candidate)
	if err := s.applyPlan(ctx, db, plan); err != nil {
		return results.OperationResult[int, error]{}, err
	}

	if s.settings.BankOnDelete {
		if err := s.bankPoints(ctx, db, removed, before.Roster); err != nil {
			return results.OperationResult[int, error]{}, err
		}
	}
	return results.SuccessResult[int, error](plan.Moves()), nil
}

// bankPoints adds what every player earned on a deleted level to their banked total.
func (s *DemonListService) bankPoints(ctx context.Context, db bun.IDB, removed demonlistdomain.Level, roster demonlistdomain.Roster) error {
	rows, err := s.repo.ListBankedPoints(ctx, db)
	if err != nil {
		return demonlistdomain.NewStoreError("load banked points", err)
	}
	banked := make(map[string]float64, len(rows))
	for _, row := range rows {
		banked[row.Player] = row.Points
	}

	for _, player := range roster.Players() {
		earned := demonlistdomain.EarnedPoints(removed, player)
		if earned <= 0 {
			continue
		}
		if err := s.repo.SetBankedPoints(ctx, db, player, banked[player]+earned); err != nil {
			return demonlistdomain.NewStoreError("bank points for "+player, err)
		}
		s.logger.InfoContext(ctx, "Banked points from deleted level",
			attr.ExtractCorrelationID(ctx),
			attr.LevelID(removed.ID),
			attr.Player(player),
			attr.Float64("points", earned),
		)
	}
	return nil
}

// SetDifficultyScore changes a level's score. The level and everything between its old
// and new position are re-ranked, crossing tiers where needed.
func (s *DemonListService) SetDifficultyScore(ctx context.Context, id uuid.UUID, score float64) error {
	moves, err := execute(s, ctx, "SetDifficultyScore", id.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[int, error], error) {
		return s.setDifficultyScoreLogic(ctx, db, id, score)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "SetDifficultyScore", LevelID: &id, Moves: moves})
	return nil
}

func (s *DemonListService) setDifficultyScoreLogic(ctx context.Context, db bun.IDB, id uuid.UUID, score float64) (results.OperationResult[int, error], error) {
	if err := demonlistdomain.ValidateDifficultyScore(score); err != nil {
		return results.FailureResult[int, error](err), nil
	}

	before, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[int, error]{}, err
	}

	candidate, err := before.WithScore(id, score)
	if err != nil {
		return results.FailureResult[int, error](err), nil
	}

	plan := s.coordinator.Plan(before, candidate)
	if err := s.applyPlan(ctx, db, plan); err != nil {
		return results.OperationResult[int, error]{}, err
	}
	return results.SuccessResult[int, error](plan.Moves()), nil
}

// UpdateLevelDetails renames a level or changes its creator. Ranks are untouched.
func (s *DemonListService) UpdateLevelDetails(ctx context.Context, id uuid.UUID, name, creator string) (demonlistdomain.Level, error) {
	level, err := execute(s, ctx, "UpdateLevelDetails", id.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[demonlistdomain.Level, error], error) {
		return s.updateLevelDetailsLogic(ctx, db, id, name, creator)
	})
	if err != nil {
		return demonlistdomain.Level{}, err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "UpdateLevelDetails", LevelID: &id})
	return level, nil
}

func (s *DemonListService) updateLevelDetailsLogic(ctx context.Context, db bun.IDB, id uuid.UUID, name, creator string) (results.OperationResult[demonlistdomain.Level, error], error) {
	name, creator = strings.TrimSpace(name), strings.TrimSpace(creator)
	if err := demonlistdomain.ValidateLevelDetails(name, creator); err != nil {
		return results.FailureResult[demonlistdomain.Level, error](err), nil
	}

	snap, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[demonlistdomain.Level, error]{}, err
	}
	level, ok := snap.Find(id)
	if !ok {
		return results.FailureResult[demonlistdomain.Level, error](demonlistdomain.ErrNotFound), nil
	}

	for _, tier := range snap.Placements[id] {
		err := s.repo.UpdateLevel(ctx, db, tier, id, demonlistdb.LevelPatch{Name: &name, Creator: &creator})
		if errors.Is(err, demonlistdb.ErrNotFound) {
			return results.FailureResult[demonlistdomain.Level, error](demonlistdomain.ErrNotFound), nil
		}
		if err != nil {
			return results.OperationResult[demonlistdomain.Level, error]{}, demonlistdomain.NewStoreError("update level details in "+string(tier), err)
		}
	}

	level.Name, level.Creator = name, creator
	return results.SuccessResult[demonlistdomain.Level, error](level), nil
}

// ListLevels returns the levels in scope, hardest first.
func (s *DemonListService) ListLevels(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error) {
	return execute(s, ctx, "ListLevels", string(scope), func(ctx context.Context, db bun.IDB) (results.OperationResult[[]demonlistdomain.Level, error], error) {
		snap, err := s.loadSnapshot(ctx, db)
		if err != nil {
			return results.OperationResult[[]demonlistdomain.Level, error]{}, err
		}
		out := make([]demonlistdomain.Level, 0, len(snap.Levels))
		for _, l := range snap.Levels {
			if scope.Includes(l.Tier) {
				out = append(out, l)
			}
		}
		return results.SuccessResult[[]demonlistdomain.Level, error](out), nil
	})
}

// Reconcile re-ranks the stored list without changing it, repairing any half-applied move.
func (s *DemonListService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	res, err := execute(s, ctx, "Reconcile", "", func(ctx context.Context, db bun.IDB) (results.OperationResult[ReconcileResult, error], error) {
		return s.reconcileLogic(ctx, db)
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	if res.Ops > 0 {
		s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "Reconcile", Moves: res.Moves})
	}
	return res, nil
}

func (s *DemonListService) reconcileLogic(ctx context.Context, db bun.IDB) (results.OperationResult[ReconcileResult, error], error) {
	snap, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[ReconcileResult, error]{}, err
	}
	plan := s.coordinator.Plan(snap, snap.Levels)
	if err := s.applyPlan(ctx, db, plan); err != nil {
		return results.OperationResult[ReconcileResult, error]{}, err
	}
	return results.SuccessResult[ReconcileResult, error](ReconcileResult{Ops: len(plan.Ops), Moves: plan.Moves()}), nil
}
