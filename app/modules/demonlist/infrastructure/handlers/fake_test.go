package demonlisthandlers

import (
	"context"
	"io"
	"sync"

	demonlistservice "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/application"
	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/google/uuid"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	mu    sync.Mutex
	trace []string

	AddLevelFunc           func(ctx context.Context, name, creator string, score float64) (demonlistdomain.Level, error)
	DeleteLevelFunc        func(ctx context.Context, id uuid.UUID) error
	SetDifficultyScoreFunc func(ctx context.Context, id uuid.UUID, score float64) error
	UpdateLevelDetailsFunc func(ctx context.Context, id uuid.UUID, name, creator string) (demonlistdomain.Level, error)
	ListLevelsFunc         func(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error)
	SetProgressFunc        func(ctx context.Context, levelID uuid.UUID, player string, percent float64) (demonlistdomain.ProgressEntry, error)
	TotalPointsFunc        func(ctx context.Context, player string, scope demonlistdomain.Scope) (float64, error)
	StandingsFunc          func(ctx context.Context) ([]demonlistdomain.Standing, error)
	AddPlayerFunc          func(ctx context.Context, name string) error
	RemovePlayerFunc       func(ctx context.Context, name string) error
	RosterFunc             func(ctx context.Context) ([]string, error)
	SeedFunc               func(ctx context.Context) (bool, error)
	ReconcileFunc          func(ctx context.Context) (demonlistservice.ReconcileResult, error)
	ExportSpreadsheetFunc  func(ctx context.Context, w io.Writer) error
	ImportSpreadsheetFunc  func(ctx context.Context, r io.Reader) (demonlistservice.ImportResult, error)
	StandingsChartFunc     func(ctx context.Context) ([]byte, error)
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) AddLevel(ctx context.Context, name, creator string, score float64) (demonlistdomain.Level, error) {
	f.record("AddLevel")
	if f.AddLevelFunc != nil {
		return f.AddLevelFunc(ctx, name, creator, score)
	}
	return demonlistdomain.Level{ID: uuid.New(), Name: name, Creator: creator, DifficultyScore: score, Rank: 1, Tier: demonlistdomain.TierActive, PointValue: 25}, nil
}

func (f *FakeService) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	f.record("DeleteLevel")
	if f.DeleteLevelFunc != nil {
		return f.DeleteLevelFunc(ctx, id)
	}
	return nil
}

func (f *FakeService) SetDifficultyScore(ctx context.Context, id uuid.UUID, score float64) error {
	f.record("SetDifficultyScore")
	if f.SetDifficultyScoreFunc != nil {
		return f.SetDifficultyScoreFunc(ctx, id, score)
	}
	return nil
}

func (f *FakeService) UpdateLevelDetails(ctx context.Context, id uuid.UUID, name, creator string) (demonlistdomain.Level, error) {
	f.record("UpdateLevelDetails")
	if f.UpdateLevelDetailsFunc != nil {
		return f.UpdateLevelDetailsFunc(ctx, id, name, creator)
	}
	return demonlistdomain.Level{ID: id, Name: name, Creator: creator}, nil
}

func (f *FakeService) ListLevels(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error) {
	f.record("ListLevels")
	if f.ListLevelsFunc != nil {
		return f.ListLevelsFunc(ctx, scope)
	}
	return nil, nil
}

func (f *FakeService) SetProgress(ctx context.Context, levelID uuid.UUID, player string, percent float64) (demonlistdomain.ProgressEntry, error) {
	f.record("SetProgress")
	if f.SetProgressFunc != nil {
		return f.SetProgressFunc(ctx, levelID, player, percent)
	}
	return demonlistdomain.ProgressEntry{Percent: percent}, nil
}

func (f *FakeService) TotalPoints(ctx context.Context, player string, scope demonlistdomain.Scope) (float64, error) {
	f.record("TotalPoints")
	if f.TotalPointsFunc != nil {
		return f.TotalPointsFunc(ctx, player, scope)
	}
	return 0, nil
}

func (f *FakeService) Standings(ctx context.Context) ([]demonlistdomain.Standing, error) {
	f.record("Standings")
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) AddPlayer(ctx context.Context, name string) error {
	f.record("AddPlayer")
	if f.AddPlayerFunc != nil {
		return f.AddPlayerFunc(ctx, name)
	}
	return nil
}

func (f *FakeService) RemovePlayer(ctx context.Context, name string) error {
	f.record("RemovePlayer")
	if f.RemovePlayerFunc != nil {
		return f.RemovePlayerFunc(ctx, name)
	}
	return nil
}

func (f *FakeService) Roster(ctx context.Context) ([]string, error) {
	f.record("Roster")
	if f.RosterFunc != nil {
		return f.RosterFunc(ctx)
	}
	return []string{}, nil
}

func (f *FakeService) Seed(ctx context.Context) (bool, error) {
	f.record("Seed")
	if f.SeedFunc != nil {
		return f.SeedFunc(ctx)
	}
	return false, nil
}

func (f *FakeService) Reconcile(ctx context.Context) (demonlistservice.ReconcileResult, error) {
	f.record("Reconcile")
	if f.ReconcileFunc != nil {
		return f.ReconcileFunc(ctx)
	}
	return demonlistservice.ReconcileResult{}, nil
}

func (f *FakeService) ExportSpreadsheet(ctx context.Context, w io.Writer) error {
	f.record("ExportSpreadsheet")
	if f.ExportSpreadsheetFunc != nil {
		return f.ExportSpreadsheetFunc(ctx, w)
	}
	return nil
}

func (f *FakeService) ImportSpreadsheet(ctx context.Context, r io.Reader) (demonlistservice.ImportResult, error) {
	f.record("ImportSpreadsheet")
	if f.ImportSpreadsheetFunc != nil {
		return f.ImportSpreadsheetFunc(ctx, r)
	}
	return demonlistservice.ImportResult{}, nil
}

func (f *FakeService) StandingsChart(ctx context.Context) ([]byte, error) {
	f.record("StandingsChart")
	if f.StandingsChartFunc != nil {
		return f.StandingsChartFunc(ctx)
	}
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

var _ demonlistservice.Service = (*FakeService)(nil)

// ------------------------
// Fake Queue
// ------------------------

type FakeQueue struct {
	reasons []string
	err     error
}

func (q *FakeQueue) EnqueueReconcile(_ context.Context, reason string) (int64, error) {
	q.reasons = append(q.reasons, reason)
	if q.err != nil {
		return 0, q.err
	}
	return int64(len(q.reasons)), nil
}
