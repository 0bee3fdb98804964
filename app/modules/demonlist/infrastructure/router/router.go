package demonlistrouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// Reloader is the read model refreshed by change notices.
type Reloader interface {
	Reload(ctx context.Context) error
	Invalidate()
}

// DemonListRouter subscribes the read model to demonlist.changed.v1.
type DemonListRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

func NewDemonListRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *DemonListRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &b
	}

	return &DemonListRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
		metricsEnabled: metricsBuilder != nil,
	}
}

// Configure adds middleware and registers the change handler.
func (r *DemonListRouter) Configure(_ context.Context, view Reloader) error {
	if r.metricsEnabled {
		r.logger.Info("Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	} else {
		r.logger.Info("Skipping Prometheus router metrics middleware - either in test environment or metrics not configured")
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	r.Router.AddHandler(
		"demonlist."+demonlistevents.ChangedV1,
		demonlistevents.ChangedV1,
		r.subscriber,
		"",
		nil,
		r.handleChanged(view),
	)
	return nil
}

// handleChanged reloads the whole view on every notice. A failed reload is acked and
// the view is invalidated instead, so the next read retries against the store.
func (r *DemonListRouter) handleChanged(view Reloader) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))

		var payload demonlistevents.ChangedPayloadV1
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			r.logger.WarnContext(ctx, "Unreadable change notice, reloading anyway",
				attr.ExtractCorrelationID(ctx),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
		}

		ctx, span := r.tracer.Start(ctx, "demonlist.view.reload")
		span.SetAttributes(attribute.String("operation", payload.Operation))
		defer span.End()

		if err := view.Reload(ctx); err != nil {
			span.RecordError(err)
			view.Invalidate()
			r.logger.ErrorContext(ctx, "Failed to reload list view",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", payload.Operation),
				attr.Error(err),
			)
			return nil, nil
		}

		r.logger.InfoContext(ctx, "List view reloaded",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", payload.Operation),
			attr.Int("moves", payload.Moves),
		)
		return nil, nil
	}
}

func (r *DemonListRouter) Close() error {
	return r.Router.Close()
}
