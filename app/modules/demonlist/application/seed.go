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

// Seed fills an empty store with the starter list and the default roster. It reports
// false and writes nothing when any level already exists.
func (s *DemonListService) Seed(ctx context.Context) (bool, error) {
	seeded, err := execute(s, ctx, "Seed", "", s.seedLogic)
	if err != nil {
		return false, err
	}
	if seeded {
		s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "Seed"})
	}
	return seeded, nil
}

func (s *DemonListService) seedLogic(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
	before, err := s.loadSnapshot(ctx, db)
	if err != nil {
		return results.OperationResult[bool, error]{}, err
	}
	if len(before.Levels) > 0 {
		s.logger.InfoContext(ctx, "Store already holds levels, skipping seed")
		return results.SuccessResult[bool, error](false), nil
	}

	roster := before.Roster
	if roster.Len() == 0 {
		for i, raw := range s.settings.DefaultPlayers {
			name, err := demonlistdomain.SanitizePlayerName(raw)
			if err != nil {
				return results.FailureResult[bool, error](err), nil
			}
			if roster.Contains(name) {
				continue
			}
			if err := s.repo.InsertPlayer(ctx, db, &demonlistdb.Player{Name: name, Position: i}); err != nil {
				return results.OperationResult[bool, error]{}, demonlistdomain.NewStoreError("insert player "+name, err)
			}
			roster, _ = roster.Add(name)
		}
	}

	candidate := make([]demonlistdomain.Level, 0, len(demonlistdomain.DefaultLevels))
	for _, seed := range demonlistdomain.DefaultLevels {
		level := demonlistdomain.Level{
			ID:              uuid.New(),
			Name:            seed.Name,
			Creator:         seed.Creator,
			DifficultyScore: seed.DifficultyScore,
		}
		roster.FillProgress(&level)
		candidate = append(candidate, level)
	}

	empty := demonlistdomain.NewSnapshot(nil, nil, roster)
	if err := s.applyPlan(ctx, db, s.coordinator.Plan(empty, candidate)); err != nil {
		return results.OperationResult[bool, error]{}, err
	}
	return results.SuccessResult[bool, error](true), nil
}
