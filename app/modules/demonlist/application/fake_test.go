package demonlistservice

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Demon List Repo
// ------------------------

type progressKey struct {
	levelID uuid.UUID
	player  string
}

// FakeRepo keeps tiers, progress, players and banked points in memory. Any Func field
// replaces the in-memory behaviour of its method.
type FakeRepo struct {
	mu    sync.Mutex
	trace []string

	tiers    map[demonlistdomain.Tier]map[uuid.UUID]demonlistdb.Level
	progress map[progressKey]demonlistdb.Progress
	players  []demonlistdb.Player
	banked   map[string]float64

	ListLevelsFunc           func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier) ([]*demonlistdb.Level, error)
	InsertLevelFunc          func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, level *demonlistdb.Level) error
	UpdateLevelFunc          func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID, patch demonlistdb.LevelPatch) error
	DeleteLevelFunc          func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID) error
	ReplaceLevelsFunc        func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, levels []*demonlistdb.Level) error
	ListProgressFunc         func(ctx context.Context, db bun.IDB) ([]*demonlistdb.Progress, error)
	InsertProgressFunc       func(ctx context.Context, db bun.IDB, rows []*demonlistdb.Progress) error
	UpsertProgressFunc       func(ctx context.Context, db bun.IDB, row *demonlistdb.Progress) error
	DeleteLevelProgressFunc  func(ctx context.Context, db bun.IDB, levelID uuid.UUID) error
	DeletePlayerProgressFunc func(ctx context.Context, db bun.IDB, player string) error
	ClearProgressFunc        func(ctx context.Context, db bun.IDB) error
	ListPlayersFunc          func(ctx context.Context, db bun.IDB) ([]*demonlistdb.Player, error)
	InsertPlayerFunc         func(ctx context.Context, db bun.IDB, player *demonlistdb.Player) error
	DeletePlayerFunc         func(ctx context.Context, db bun.IDB, name string) error
	ListBankedPointsFunc     func(ctx context.Context, db bun.IDB) ([]*demonlistdb.BankedPoints, error)
	SetBankedPointsFunc      func(ctx context.Context, db bun.IDB, player string, points float64) error
	DeleteBankedPointsFunc   func(ctx context.Context, db bun.IDB, player string) error
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		trace: []string{},
		tiers: map[demonlistdomain.Tier]map[uuid.UUID]demonlistdb.Level{
			demonlistdomain.TierActive:  {},
			demonlistdomain.TierReserve: {},
		},
		progress: map[progressKey]demonlistdb.Progress{},
		banked:   map[string]float64{},
	}
}

func (f *FakeRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeRepo) ListLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier) ([]*demonlistdb.Level, error) {
	f.record("ListLevels " + string(tier))
	if f.ListLevelsFunc != nil {
		return f.ListLevelsFunc(ctx, db, tier)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	table, ok := f.tiers[tier]
	if !ok {
		return nil, demonlistdb.ErrUnknownTier
	}
	out := make([]*demonlistdb.Level, 0, len(table))
	for _, row := range table {
		row := row
		out = append(out, &row)
	}
	slices.SortFunc(out, func(a, b *demonlistdb.Level) int { return cmp.Compare(a.Rank, b.Rank) })
	return out, nil
}

func (f *FakeRepo) InsertLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, level *demonlistdb.Level) error {
	f.record("InsertLevel " + string(tier))
	if f.InsertLevelFunc != nil {
		return f.InsertLevelFunc(ctx, db, tier, level)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if level.ID == uuid.Nil {
		level.ID = uuid.New()
	}
	level.UpdatedAt = time.Now().UTC()
	f.tiers[tier][level.ID] = *level
	return nil
}

func (f *FakeRepo) UpdateLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID, patch demonlistdb.LevelPatch) error {
	f.record("UpdateLevel " + string(tier))
	if f.UpdateLevelFunc != nil {
		return f.UpdateLevelFunc(ctx, db, tier, id, patch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tiers[tier][id]
	if !ok {
		return demonlistdb.ErrNotFound
	}
	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.Creator != nil {
		row.Creator = *patch.Creator
	}
	if patch.DifficultyScore != nil {
		row.DifficultyScore = *patch.DifficultyScore
	}
	if patch.Rank != nil {
		row.Rank = *patch.Rank
	}
	if patch.PointValue != nil {
		row.PointValue = *patch.PointValue
	}
	f.tiers[tier][id] = row
	return nil
}

func (f *FakeRepo) DeleteLevel(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID) error {
	f.record("DeleteLevel " + string(tier))
	if f.DeleteLevelFunc != nil {
		return f.DeleteLevelFunc(ctx, db, tier, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tiers[tier][id]; !ok {
		return demonlistdb.ErrNotFound
	}
	delete(f.tiers[tier], id)
	return nil
}

func (f *FakeRepo) ReplaceLevels(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, levels []*demonlistdb.Level) error {
	f.record("ReplaceLevels " + string(tier))
	if f.ReplaceLevelsFunc != nil {
		return f.ReplaceLevelsFunc(ctx, db, tier, levels)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiers[tier] = make(map[uuid.UUID]demonlistdb.Level, len(levels))
	for _, l := range levels {
		f.tiers[tier][l.ID] = *l
	}
	return nil
}

func (f *FakeRepo) ListProgress(ctx context.Context, db bun.IDB) ([]*demonlistdb.Progress, error) {
	f.record("ListProgress")
	if f.ListProgressFunc != nil {
		return f.ListProgressFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*demonlistdb.Progress, 0, len(f.progress))
	for _, row := range f.progress {
		row := row
		out = append(out, &row)
	}
	return out, nil
}

func (f *FakeRepo) InsertProgress(ctx context.Context, db bun.IDB, rows []*demonlistdb.Progress) error {
	f.record("InsertProgress")
	if f.InsertProgressFunc != nil {
		return f.InsertProgressFunc(ctx, db, rows)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		key := progressKey{row.LevelID, row.Player}
		if _, exists := f.progress[key]; !exists {
			f.progress[key] = *row
		}
	}
	return nil
}

func (f *FakeRepo) UpsertProgress(ctx context.Context, db bun.IDB, row *demonlistdb.Progress) error {
	f.record("UpsertProgress")
	if f.UpsertProgressFunc != nil {
		return f.UpsertProgressFunc(ctx, db, row)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress[progressKey{row.LevelID, row.Player}] = *row
	return nil
}

func (f *FakeRepo) DeleteLevelProgress(ctx context.Context, db bun.IDB, levelID uuid.UUID) error {
	f.record("DeleteLevelProgress")
	if f.DeleteLevelProgressFunc != nil {
		return f.DeleteLevelProgressFunc(ctx, db, levelID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.progress {
		if key.levelID == levelID {
			delete(f.progress, key)
		}
	}
	return nil
}

func (f *FakeRepo) DeletePlayerProgress(ctx context.Context, db bun.IDB, player string) error {
	f.record("DeletePlayerProgress")
	if f.DeletePlayerProgressFunc != nil {
		return f.DeletePlayerProgressFunc(ctx, db, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.progress {
		if key.player == player {
			delete(f.progress, key)
		}
	}
	return nil
}

func (f *FakeRepo) ClearProgress(ctx context.Context, db bun.IDB) error {
	f.record("ClearProgress")
	if f.ClearProgressFunc != nil {
		return f.ClearProgressFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = map[progressKey]demonlistdb.Progress{}
	return nil
}

func (f *FakeRepo) ListPlayers(ctx context.Context, db bun.IDB) ([]*demonlistdb.Player, error) {
	f.record("ListPlayers")
	if f.ListPlayersFunc != nil {
		return f.ListPlayersFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*demonlistdb.Player, len(f.players))
	for i := range f.players {
		p := f.players[i]
		out[i] = &p
	}
	slices.SortStableFunc(out, func(a, b *demonlistdb.Player) int { return cmp.Compare(a.Position, b.Position) })
	return out, nil
}

func (f *FakeRepo) InsertPlayer(ctx context.Context, db bun.IDB, player *demonlistdb.Player) error {
	f.record("InsertPlayer")
	if f.InsertPlayerFunc != nil {
		return f.InsertPlayerFunc(ctx, db, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players = append(f.players, *player)
	return nil
}

func (f *FakeRepo) DeletePlayer(ctx context.Context, db bun.IDB, name string) error {
	f.record("DeletePlayer")
	if f.DeletePlayerFunc != nil {
		return f.DeletePlayerFunc(ctx, db, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := slices.IndexFunc(f.players, func(p demonlistdb.Player) bool { return p.Name == name })
	if idx < 0 {
		return demonlistdb.ErrNotFound
	}
	f.players = slices.Delete(f.players, idx, idx+1)
	return nil
}

func (f *FakeRepo) ListBankedPoints(ctx context.Context, db bun.IDB) ([]*demonlistdb.BankedPoints, error) {
	f.record("ListBankedPoints")
	if f.ListBankedPointsFunc != nil {
		return f.ListBankedPointsFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*demonlistdb.BankedPoints, 0, len(f.banked))
	for player, points := range f.banked {
		out = append(out, &demonlistdb.BankedPoints{Player: player, Points: points})
	}
	return out, nil
}

func (f *FakeRepo) SetBankedPoints(ctx context.Context, db bun.IDB, player string, points float64) error {
	f.record("SetBankedPoints")
	if f.SetBankedPointsFunc != nil {
		return f.SetBankedPointsFunc(ctx, db, player, points)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banked[player] = points
	return nil
}

func (f *FakeRepo) DeleteBankedPoints(ctx context.Context, db bun.IDB, player string) error {
	f.record("DeleteBankedPoints")
	if f.DeleteBankedPointsFunc != nil {
		return f.DeleteBankedPointsFunc(ctx, db, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.banked, player)
	return nil
}

// --- Seeding and accessors for assertions ---

// Seed stores settled levels in the tier each one names, along with their progress.
func (f *FakeRepo) Seed(players []string, levels []demonlistdomain.Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range players {
		f.players = append(f.players, demonlistdb.Player{Name: p, Position: i})
	}
	for _, l := range levels {
		row := levelToRow(l)
		row.UpdatedAt = l.UpdatedAt
		f.tiers[l.Tier][l.ID] = *row
		for player, entry := range l.Progress {
			f.progress[progressKey{l.ID, player}] = demonlistdb.Progress{
				LevelID:      l.ID,
				Player:       player,
				Percent:      entry.Percent,
				LockedPoints: entry.LockedPoints,
			}
		}
	}
}

// Row returns the stored row for id and the tiers holding it.
func (f *FakeRepo) Row(id uuid.UUID) (demonlistdb.Level, []demonlistdomain.Tier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		row   demonlistdb.Level
		tiers []demonlistdomain.Tier
	)
	for _, tier := range demonlistdomain.Tiers {
		if r, ok := f.tiers[tier][id]; ok {
			row = r
			tiers = append(tiers, tier)
		}
	}
	return row, tiers
}

// Progress returns the stored progress row, if any.
func (f *FakeRepo) Progress(id uuid.UUID, player string) (demonlistdb.Progress, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.progress[progressKey{id, player}]
	return row, ok
}

func (f *FakeRepo) TierSize(tier demonlistdomain.Tier) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tiers[tier])
}

func (f *FakeRepo) ProgressCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.progress)
}

func (f *FakeRepo) Banked(player string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banked[player]
}

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// ResetTrace forgets the steps recorded so far.
func (f *FakeRepo) ResetTrace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = []string{}
}

// Ensure the fake actually satisfies the interface
var _ demonlistdb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	mu       sync.Mutex
	payloads []demonlistevents.ChangedPayloadV1
	err      error
}

func (n *FakeNotifier) PublishChanged(_ context.Context, payload demonlistevents.ChangedPayloadV1) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return n.err
}

func (n *FakeNotifier) Operations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.payloads))
	for i, p := range n.payloads {
		out[i] = p.Operation
	}
	return out
}

var _ Notifier = (*FakeNotifier)(nil)
