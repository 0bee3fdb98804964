package demonlistservice

import (
	"fmt"
	"io"
	"log/slog"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistmetrics "github.com/Black-And-White-Club/demonlist-tracker/app/observability/metrics/demonlist"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(repo *FakeRepo, notifier Notifier) *DemonListService {
	return NewDemonListService(
		repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		demonlistmetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		notifier,
		DefaultSettings(),
	)
}

// settledLevels builds n ranked levels with scores n+10 down to 11 and zero progress
// for every player.
func settledLevels(n int, players ...string) []demonlistdomain.Level {
	policy := demonlistdomain.NewPointsPolicy(demonlistdomain.DefaultTierSize)
	roster := demonlistdomain.NewRoster(players)
	levels := make([]demonlistdomain.Level, n)
	for i := range levels {
		rank := i + 1
		levels[i] = demonlistdomain.Level{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("level-%02d", rank),
			Creator:         "creator",
			DifficultyScore: float64(n + 11 - rank),
			Rank:            rank,
			Tier:            policy.TierForRank(rank),
			PointValue:      policy.PointsForRank(rank),
		}
		roster.FillProgress(&levels[i])
	}
	return levels
}

func locked(points float64) *float64 { return &points }

func containsStep(trace []string, step string) bool {
	for _, s := range trace {
		if s == step {
			return true
		}
	}
	return false
}
