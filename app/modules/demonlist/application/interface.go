package demonlistservice

import (
	"context"
	"io"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	"github.com/google/uuid"
)

// Service is the demon list's public surface. Errors match the demonlistdomain
// sentinels with errors.Is.
type Service interface {
	// Levels
	AddLevel(ctx context.Context, name, creator string, difficultyScore float64) (demonlistdomain.Level, error)
	DeleteLevel(ctx context.Context, id uuid.UUID) error
	SetDifficultyScore(ctx context.Context, id uuid.UUID, score float64) error
	UpdateLevelDetails(ctx context.Context, id uuid.UUID, name, creator string) (demonlistdomain.Level, error)
	ListLevels(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error)

	// Progress and points
	SetProgress(ctx context.Context, levelID uuid.UUID, player string, percent float64) (demonlistdomain.ProgressEntry, error)
	TotalPoints(ctx context.Context, player string, scope demonlistdomain.Scope) (float64, error)
	Standings(ctx context.Context) ([]demonlistdomain.Standing, error)

	// Roster
	AddPlayer(ctx context.Context, name string) error
	RemovePlayer(ctx context.Context, name string) error
	Roster(ctx context.Context) ([]string, error)

	// Maintenance
	Seed(ctx context.Context) (bool, error)
	Reconcile(ctx context.Context) (ReconcileResult, error)
	ExportSpreadsheet(ctx context.Context, w io.Writer) error
	ImportSpreadsheet(ctx context.Context, r io.Reader) (ImportResult, error)
	StandingsChart(ctx context.Context) ([]byte, error)
}

// Notifier announces committed changes.
type Notifier interface {
	PublishChanged(ctx context.Context, payload demonlistevents.ChangedPayloadV1) error
}

// ReconcileResult reports what a reconcile pass wrote.
type ReconcileResult struct {
	Ops   int `json:"ops"`
	Moves int `json:"moves"`
}

// ImportResult reports what a spreadsheet import loaded.
type ImportResult struct {
	Levels  int      `json:"levels"`
	Players []string `json:"players"`
}
