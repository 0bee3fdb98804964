package demonlistservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	demonlistmetrics "github.com/Black-And-White-Club/demonlist-tracker/app/observability/metrics/demonlist"
	"github.com/Black-And-White-Club/demonlist-tracker/app/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "DemonListService"

// Settings tune the engine.
type Settings struct {
	TierSize int
	// BankOnDelete keeps the points players earned on a level when it is deleted.
	BankOnDelete   bool
	DefaultPlayers []string
}

// DefaultSettings is a 25 level active tier with banking on.
func DefaultSettings() Settings {
	return Settings{
		TierSize:       demonlistdomain.DefaultTierSize,
		BankOnDelete:   true,
		DefaultPlayers: demonlistdomain.DefaultPlayers,
	}
}

// DemonListService implements the Service interface.
type DemonListService struct {
	repo        demonlistdb.Repository
	logger      *slog.Logger
	metrics     demonlistmetrics.DemonListMetrics
	tracer      trace.Tracer
	db          *bun.DB
	notifier    Notifier
	coordinator demonlistdomain.MigrationCoordinator
	settings    Settings
	now         func() time.Time
}

// NewDemonListService creates a new DemonListService. db and notifier may be nil: without
// a db each repository call commits on its own, without a notifier nothing is published.
func NewDemonListService(
	repo demonlistdb.Repository,
	logger *slog.Logger,
	metrics demonlistmetrics.DemonListMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	notifier Notifier,
	settings Settings,
) *DemonListService {
	if logger == nil {
		logger = slog.Default()
	}
	policy := demonlistdomain.NewPointsPolicy(settings.TierSize)
	return &DemonListService{
		repo:        repo,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
		notifier:    notifier,
		coordinator: demonlistdomain.NewMigrationCoordinator(demonlistdomain.NewRankEngine(policy)),
		settings:    settings,
		now:         time.Now,
	}
}

func (s *DemonListService) policy() demonlistdomain.PointsPolicy {
	return s.coordinator.Engine().Policy()
}

// publish announces a committed change. Delivery failures are logged only: readers
// resynchronise on the next notice or reload.
func (s *DemonListService) publish(ctx context.Context, payload demonlistevents.ChangedPayloadV1) {
	if s.notifier == nil {
		return
	}
	payload.OccurredAt = s.now().UTC()
	if err := s.notifier.PublishChanged(ctx, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change notice",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", payload.Operation),
			attr.Error(err),
		)
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// execute runs fn in a transaction under telemetry and unwraps the result.
func execute[S any](
	s *DemonListService,
	ctx context.Context,
	operationName string,
	identifier string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, fn)
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *DemonListService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Infrastructure error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Domain failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx runs the operation within a transaction when the service owns a database.
func runInTx[S any, F any](
	s *DemonListService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
