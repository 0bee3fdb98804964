package demonlistservice

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestAddLevelValidation(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		creator string
		score   float64
		field   string
	}{
		{name: "empty name", level: "  ", creator: "someone", score: 10, field: "name"},
		{name: "empty creator", level: "Bloodbath", creator: "", score: 10, field: "creator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepo()
			svc := newTestService(repo, nil)

			_, err := svc.AddLevel(context.Background(), tt.level, tt.creator, tt.score)

			require.ErrorIs(t, err, demonlistdomain.ErrValidation)
			var verr *demonlistdomain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, repo.Trace(), "validation must happen before any store access")
		})
	}
}

func TestAddLevelPushesRank25IntoReserve(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(25, "alice", "bob")
	levels[2].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(23)}
	levels[24].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 40}
	repo.Seed([]string{"alice", "bob"}, levels)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	added, err := svc.AddLevel(ctx, "Hardest", "maker", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, added.Rank)
	assert.Equal(t, demonlistdomain.TierActive, added.Tier)
	assert.Equal(t, 25, added.PointValue)

	assert.Equal(t, 25, repo.TierSize(demonlistdomain.TierActive))
	assert.Equal(t, 1, repo.TierSize(demonlistdomain.TierReserve))

	// The old rank 25 level moved with its progress untouched.
	row, tiers := repo.Row(levels[24].ID)
	assert.Equal(t, []demonlistdomain.Tier{demonlistdomain.TierReserve}, tiers)
	assert.Equal(t, 26, row.Rank)
	assert.Equal(t, 0, row.PointValue)
	progress, ok := repo.Progress(levels[24].ID, "alice")
	require.True(t, ok)
	assert.Equal(t, 40.0, progress.Percent)
	assert.Nil(t, progress.LockedPoints)

	// Every other level shifted down by one.
	row, _ = repo.Row(levels[0].ID)
	assert.Equal(t, 2, row.Rank)
	assert.Equal(t, 24, row.PointValue)

	// The new level has zero progress for every player.
	for _, p := range []string{"alice", "bob"} {
		entry, ok := repo.Progress(added.ID, p)
		require.True(t, ok, p)
		assert.Zero(t, entry.Percent)
	}

	total, err := svc.TotalPoints(ctx, "alice", demonlistdomain.ScopeBoth)
	require.NoError(t, err)
	assert.Equal(t, 23.0, total)
}

func TestLockSurvivesRankShift(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(10, "alice")
	repo.Seed([]string{"alice"}, levels)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	entry, err := svc.SetProgress(ctx, levels[2].ID, "alice", 100)
	require.NoError(t, err)
	require.NotNil(t, entry.LockedPoints)
	assert.Equal(t, 23.0, *entry.LockedPoints)

	_, err = svc.AddLevel(ctx, "Harder", "maker", 1000)
	require.NoError(t, err)
	_, err = svc.AddLevel(ctx, "Hardest", "maker", 2000)
	require.NoError(t, err)

	row, _ := repo.Row(levels[2].ID)
	assert.Equal(t, 5, row.Rank)
	assert.Equal(t, 21, row.PointValue)

	total, err := svc.TotalPoints(ctx, "alice", demonlistdomain.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, 23.0, total)

	// Completing it again keeps the original lock.
	entry, err = svc.SetProgress(ctx, levels[2].ID, "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, 23.0, *entry.LockedPoints)

	// Dropping below 100 clears it.
	entry, err = svc.SetProgress(ctx, levels[2].ID, "alice", 99)
	require.NoError(t, err)
	assert.Nil(t, entry.LockedPoints)
	total, err = svc.TotalPoints(ctx, "alice", demonlistdomain.ScopeActive)
	require.NoError(t, err)
	assert.InDelta(t, 0.99*21, total, 1e-9)
}

func TestSetProgress(t *testing.T) {
	levels := settledLevels(12, "alice", "bob")

	tests := []struct {
		name      string
		levelID   uuid.UUID
		player    string
		percent   float64
		want      demonlistdomain.ProgressEntry
		wantErr   error
		wantWrite bool
	}{
		{
			name:      "partial progress",
			levelID:   levels[9].ID,
			player:    "bob",
			percent:   55,
			want:      demonlistdomain.ProgressEntry{Percent: 55},
			wantWrite: true,
		},
		{
			name:      "over 100 clamps and locks",
			levelID:   levels[0].ID,
			player:    "Alice",
			percent:   140,
			want:      demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(25)},
			wantWrite: true,
		},
		{
			name:      "negative clamps to zero",
			levelID:   levels[1].ID,
			player:    "bob",
			percent:   -4,
			want:      demonlistdomain.ProgressEntry{Percent: 0},
			wantWrite: true,
		},
		{
			name:    "unknown player",
			levelID: levels[0].ID,
			player:  "mallory",
			percent: 10,
			wantErr: demonlistdomain.ErrUnknownPlayer,
		},
		{
			name:    "unknown level",
			levelID: uuid.New(),
			player:  "bob",
			percent: 10,
			wantErr: demonlistdomain.ErrNotFound,
		},
		{
			name:    "unusable player name",
			levelID: levels[0].ID,
			player:  "!!!",
			percent: 10,
			wantErr: demonlistdomain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepo()
			repo.Seed([]string{"alice", "bob"}, levels)
			svc := newTestService(repo, nil)

			got, err := svc.SetProgress(context.Background(), tt.levelID, tt.player, tt.percent)

			assert.Equal(t, tt.wantWrite, containsStep(repo.Trace(), "UpsertProgress"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetProgressPartialEarnsFraction(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(12, "alice")
	repo.Seed([]string{"alice"}, levels)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.SetProgress(ctx, levels[9].ID, "alice", 55)
	require.NoError(t, err)

	total, err := svc.TotalPoints(ctx, "alice", demonlistdomain.ScopeBoth)
	require.NoError(t, err)
	assert.InDelta(t, 0.55*16, total, 1e-9)
}

func TestTotalPointsUnknownPlayer(t *testing.T) {
	repo := NewFakeRepo()
	repo.Seed([]string{"alice"}, settledLevels(3, "alice"))
	svc := newTestService(repo, nil)

	_, err := svc.TotalPoints(context.Background(), "bob", demonlistdomain.ScopeBoth)
	assert.ErrorIs(t, err, demonlistdomain.ErrUnknownPlayer)
}

func TestDeleteLevelRedensifiesAndBanks(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(26, "alice")
	levels[4].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(21)}
	levels[6].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 50}
	repo.Seed([]string{"alice"}, levels)
	notifier := &FakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	require.NoError(t, svc.DeleteLevel(ctx, levels[4].ID))

	_, tiers := repo.Row(levels[4].ID)
	assert.Empty(t, tiers)
	_, ok := repo.Progress(levels[4].ID, "alice")
	assert.False(t, ok, "progress of a deleted level is purged")
	assert.Equal(t, 21.0, repo.Banked("alice"))

	// Ranks close up and the reserve level is promoted.
	row, tiers := repo.Row(levels[25].ID)
	assert.Equal(t, []demonlistdomain.Tier{demonlistdomain.TierActive}, tiers)
	assert.Equal(t, 25, row.Rank)
	assert.Equal(t, 1, row.PointValue)
	assert.Equal(t, 0, repo.TierSize(demonlistdomain.TierReserve))

	all, err := svc.ListLevels(ctx, demonlistdomain.ScopeBoth)
	require.NoError(t, err)
	for i, l := range all {
		assert.Equal(t, i+1, l.Rank)
	}

	standings, err := svc.Standings(ctx)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 21.0, standings[0].Banked)
	// level-07 is now rank 6 and worth 20.
	assert.InDelta(t, 10.0, standings[0].Active, 1e-9)
	assert.InDelta(t, 31.0, standings[0].Total, 1e-9)

	assert.Equal(t, []string{"DeleteLevel"}, notifier.Operations())
}

func TestDeleteLevelWithoutBanking(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(3, "alice")
	levels[0].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100}
	repo.Seed([]string{"alice"}, levels)
	settings := DefaultSettings()
	settings.BankOnDelete = false
	svc := NewDemonListService(repo, nil, nil, nil, nil, nil, settings)

	require.NoError(t, svc.DeleteLevel(context.Background(), levels[0].ID))
	assert.False(t, containsStep(repo.Trace(), "SetBankedPoints"))
	assert.Zero(t, repo.Banked("alice"))
}

func TestDeleteLevelNotFound(t *testing.T) {
	repo := NewFakeRepo()
	repo.Seed([]string{"alice"}, settledLevels(3, "alice"))
	notifier := &FakeNotifier{}
	svc := newTestService(repo, notifier)

	err := svc.DeleteLevel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, demonlistdomain.ErrNotFound)
	assert.Empty(t, notifier.Operations())
}

func TestSetDifficultyScorePromotesFromReserve(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(27, "alice")
	levels[26].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(2)}
	repo.Seed([]string{"alice"}, levels)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetDifficultyScore(ctx, levels[26].ID, 500))

	row, tiers := repo.Row(levels[26].ID)
	assert.Equal(t, []demonlistdomain.Tier{demonlistdomain.TierActive}, tiers)
	assert.Equal(t, 1, row.Rank)
	assert.Equal(t, 500.0, row.DifficultyScore)
	progress, _ := repo.Progress(levels[26].ID, "alice")
	require.NotNil(t, progress.LockedPoints)
	assert.Equal(t, 2.0, *progress.LockedPoints, "a move never rewrites a lock")

	_, tiers = repo.Row(levels[24].ID)
	assert.Equal(t, []demonlistdomain.Tier{demonlistdomain.TierReserve}, tiers)
	assert.Equal(t, 25, repo.TierSize(demonlistdomain.TierActive))
	assert.Equal(t, 2, repo.TierSize(demonlistdomain.TierReserve))
}

func TestSetDifficultyScoreErrors(t *testing.T) {
	repo := NewFakeRepo()
	repo.Seed([]string{"alice"}, settledLevels(3, "alice"))
	svc := newTestService(repo, nil)

	err := svc.SetDifficultyScore(context.Background(), uuid.New(), 5)
	assert.ErrorIs(t, err, demonlistdomain.ErrNotFound)

	repo.ResetTrace()
	err = svc.SetDifficultyScore(context.Background(), uuid.New(), math.NaN())
	assert.ErrorIs(t, err, demonlistdomain.ErrValidation)
	assert.Empty(t, repo.Trace())
}

func TestUpdateLevelDetails(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(3, "alice")
	repo.Seed([]string{"alice"}, levels)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	updated, err := svc.UpdateLevelDetails(ctx, levels[1].ID, " Renamed ", "New Creator")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 2, updated.Rank)

	row, _ := repo.Row(levels[1].ID)
	assert.Equal(t, "Renamed", row.Name)
	assert.Equal(t, "New Creator", row.Creator)
	assert.Equal(t, 2, row.Rank)

	_, err = svc.UpdateLevelDetails(ctx, levels[1].ID, "", "x")
	assert.ErrorIs(t, err, demonlistdomain.ErrValidation)

	_, err = svc.UpdateLevelDetails(ctx, uuid.New(), "a", "b")
	assert.ErrorIs(t, err, demonlistdomain.ErrNotFound)
}

func TestAddPlayer(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(4, "alice")
	repo.Seed([]string{"alice"}, levels)
	notifier := &FakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	require.NoError(t, svc.AddPlayer(ctx, "Big Bob"))

	roster, err := svc.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "big_bob"}, roster)
	for _, l := range levels {
		entry, ok := repo.Progress(l.ID, "big_bob")
		require.True(t, ok)
		assert.Zero(t, entry.Percent)
	}

	err = svc.AddPlayer(ctx, "big-bob")
	assert.ErrorIs(t, err, demonlistdomain.ErrDuplicatePlayer)

	err = svc.AddPlayer(ctx, "  ")
	assert.ErrorIs(t, err, demonlistdomain.ErrValidation)

	assert.Equal(t, []string{"AddPlayer"}, notifier.Operations())
}

func TestRemovePlayer(t *testing.T) {
	t.Run("removes progress and bank", func(t *testing.T) {
		repo := NewFakeRepo()
		repo.Seed([]string{"alice", "bob"}, settledLevels(3, "alice", "bob"))
		require.NoError(t, repo.SetBankedPoints(context.Background(), nil, "bob", 4))
		svc := newTestService(repo, nil)

		require.NoError(t, svc.RemovePlayer(context.Background(), "BOB"))

		roster, err := svc.Roster(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, roster)
		assert.Equal(t, 3, repo.ProgressCount())
		assert.Zero(t, repo.Banked("bob"))
	})

	t.Run("unknown player", func(t *testing.T) {
		repo := NewFakeRepo()
		repo.Seed([]string{"alice", "bob"}, nil)
		svc := newTestService(repo, nil)

		assert.ErrorIs(t, svc.RemovePlayer(context.Background(), "carol"), demonlistdomain.ErrUnknownPlayer)
	})

	t.Run("last player leaves state unchanged", func(t *testing.T) {
		repo := NewFakeRepo()
		levels := settledLevels(3, "alice")
		levels[0].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(25)}
		repo.Seed([]string{"alice"}, levels)
		svc := newTestService(repo, nil)

		err := svc.RemovePlayer(context.Background(), "alice")
		assert.ErrorIs(t, err, demonlistdomain.ErrLastPlayer)

		roster, err := svc.Roster(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, roster)
		assert.Equal(t, 3, repo.ProgressCount())
		for _, step := range repo.Trace() {
			assert.False(t, strings.HasPrefix(step, "Delete"), "unexpected write %s", step)
		}
	})
}

func TestStoreFailureMidPipelineThenReconcile(t *testing.T) {
	repo := NewFakeRepo()
	levels := settledLevels(25, "alice")
	levels[24].Progress["alice"] = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: locked(1)}
	repo.Seed([]string{"alice"}, levels)
	notifier := &FakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	repo.DeleteLevelFunc = func(ctx context.Context, db bun.IDB, tier demonlistdomain.Tier, id uuid.UUID) error {
		return errors.New("connection reset")
	}

	_, err := svc.AddLevel(ctx, "Hardest", "maker", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, demonlistdomain.ErrStore)
	assert.Equal(t, demonlistdomain.KindStore, demonlistdomain.KindOf(err))
	var serr *demonlistdomain.StoreError
	require.True(t, errors.As(err, &serr))
	assert.Contains(t, serr.Step, "step 27/27")
	assert.Contains(t, serr.Step, "delete from active")
	assert.Empty(t, notifier.Operations())

	// The interrupted move left the level in both tiers.
	_, tiers := repo.Row(levels[24].ID)
	assert.ElementsMatch(t, demonlistdomain.Tiers, tiers)

	// Reads already see one copy, ranked once.
	all, err := svc.ListLevels(ctx, demonlistdomain.ScopeBoth)
	require.NoError(t, err)
	assert.Len(t, all, 26)

	repo.DeleteLevelFunc = nil
	res, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Positive(t, res.Ops)

	row, tiers := repo.Row(levels[24].ID)
	assert.Equal(t, []demonlistdomain.Tier{demonlistdomain.TierReserve}, tiers)
	assert.Equal(t, 26, row.Rank)
	progress, _ := repo.Progress(levels[24].ID, "alice")
	assert.Equal(t, 1.0, *progress.LockedPoints)
	assert.Equal(t, []string{"Reconcile"}, notifier.Operations())

	// A settled list needs nothing.
	res, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Ops)
}

func TestLoadFailureIsStoreError(t *testing.T) {
	repo := NewFakeRepo()
	repo.ListProgressFunc = func(ctx context.Context, db bun.IDB) ([]*demonlistdb.Progress, error) {
		return nil, errors.New("timeout")
	}
	svc := newTestService(repo, nil)

	_, err := svc.ListLevels(context.Background(), demonlistdomain.ScopeBoth)
	assert.ErrorIs(t, err, demonlistdomain.ErrStore)
	assert.Contains(t, err.Error(), "load progress")
}

func TestPanicIsRecovered(t *testing.T) {
	repo := NewFakeRepo()
	repo.ListPlayersFunc = func(ctx context.Context, db bun.IDB) ([]*demonlistdb.Player, error) {
		panic("boom")
	}
	svc := newTestService(repo, nil)

	_, err := svc.Roster(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Roster")
}

func TestSeed(t *testing.T) {
	repo := NewFakeRepo()
	notifier := &FakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	seeded, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	roster, err := svc.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"judah", "whitman", "jack"}, roster)

	levels, err := svc.ListLevels(ctx, demonlistdomain.ScopeActive)
	require.NoError(t, err)
	require.Len(t, levels, 25)
	assert.Equal(t, "Tartarus", levels[0].Name)
	assert.Equal(t, 25, levels[0].PointValue)
	assert.Equal(t, "Congregation", levels[24].Name)
	assert.Equal(t, 25*3, repo.ProgressCount())

	seeded, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, []string{"Seed"}, notifier.Operations())
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	repo := NewFakeRepo()
	repo.Seed([]string{"alice"}, nil)
	notifier := &FakeNotifier{err: errors.New("nats down")}
	svc := newTestService(repo, notifier)

	require.NoError(t, svc.AddPlayer(context.Background(), "bob"))
	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, "bob", notifier.payloads[0].Player)
	assert.WithinDuration(t, time.Now(), notifier.payloads[0].OccurredAt, time.Minute)
}

func TestCancelledContextWritesNothing(t *testing.T) {
	repo := NewFakeRepo()
	repo.Seed([]string{"alice"}, settledLevels(3, "alice"))
	svc := newTestService(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AddLevel(ctx, "Late", "maker", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, repo.TierSize(demonlistdomain.TierActive))
	assert.False(t, containsStep(repo.Trace(), "InsertLevel active"))
}
