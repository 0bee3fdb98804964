package demonlistqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	demonlistservice "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/application"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/riverqueue/river"
)

const reconcileTimeout = 2 * time.Minute

// Reconciler runs one reconcile pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (demonlistservice.ReconcileResult, error)
}

// ReconcileWorker executes ReconcileJob.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJob]
	reconciler Reconciler
	logger     *slog.Logger
}

// NewReconcileWorker creates the worker registered for ReconcileJob.
func NewReconcileWorker(logger *slog.Logger, reconciler Reconciler) *ReconcileWorker {
	return &ReconcileWorker{reconciler: reconciler, logger: logger}
}

// Timeout bounds a single reconcile run.
func (w *ReconcileWorker) Timeout(*river.Job[ReconcileJob]) time.Duration {
	return reconcileTimeout
}

// Work returns the error so River retries with its default backoff.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJob]) error {
	ctx = attr.WithCorrelationID(ctx, fmt.Sprintf("river-%d", job.ID))
	logger := w.logger.With(
		attr.ExtractCorrelationID(ctx),
		attr.Int64("job_id", job.ID),
		attr.String("reason", job.Args.Reason),
		attr.Int("attempt", job.Attempt),
	)

	logger.InfoContext(ctx, "Running reconcile job")
	res, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Reconcile job failed", attr.Error(err))
		return fmt.Errorf("reconcile job %d: %w", job.ID, err)
	}

	logger.InfoContext(ctx, "Reconcile job completed",
		attr.Int("ops", res.Ops),
		attr.Int("moves", res.Moves),
	)
	return nil
}
