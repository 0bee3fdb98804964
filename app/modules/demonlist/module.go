package demonlist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/demonlist-tracker/app/eventbus"
	demonlistservice "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/application"
	demonlisthandlers "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/handlers"
	demonlistqueue "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/queue"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	demonlistrouter "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/router"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/Black-And-White-Club/demonlist-tracker/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the demon list module.
type Module struct {
	Service         demonlistservice.Service
	View            *demonlisthandlers.ListView
	DemonListRouter *demonlistrouter.DemonListRouter
	// Queue is nil unless the reconcile queue is enabled.
	Queue      *demonlistqueue.Service
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewService builds the engine service on db. It is shared by the module and the
// one-shot CLI commands.
func NewService(cfg *config.Config, obs observability.Observability, db *bun.DB, notifier demonlistservice.Notifier) *demonlistservice.DemonListService {
	settings := demonlistservice.Settings{
		TierSize:       cfg.Engine.TierSize,
		BankOnDelete:   cfg.Engine.BankingEnabled(),
		DefaultPlayers: cfg.Engine.DefaultPlayers,
	}
	return demonlistservice.NewDemonListService(
		demonlistdb.NewRepository(db),
		obs.Provider.Logger,
		obs.Registry.DemonListMetrics,
		obs.Registry.Tracer,
		db,
		notifier,
		settings,
	)
}

// NewDemonListModule creates a new instance of the demon list module.
func NewDemonListModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "Initializing demon list module")

	service := NewService(cfg, obs, db, demonlistrouter.NewChangeNotifier(eventBus))
	view := demonlisthandlers.NewListView(service, logger)

	dlRouter := demonlistrouter.NewDemonListRouter(logger, router, eventBus, tracer, obs.Registry.Prometheus)
	if err := dlRouter.Configure(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to configure demon list router: %w", err)
	}

	// Seed before the queue opens its pool; nothing below can fail once it has.
	seeded, err := service.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed demon list: %w", err)
	}
	if seeded {
		logger.InfoContext(ctx, "Seeded empty store with the default list")
	}

	module := &Module{
		Service:         service,
		View:            view,
		DemonListRouter: dlRouter,
		logger:          logger,
	}

	var enqueuer demonlisthandlers.ReconcileEnqueuer
	if cfg.Queue.Enabled {
		queue, err := demonlistqueue.NewService(ctx, cfg.Database.DSN, service, logger, obs.Registry.DemonListMetrics, demonlistqueue.Options{
			ReconcileInterval: cfg.Queue.ReconcileInterval,
			MaxWorkers:        cfg.Queue.MaxWorkers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create reconcile queue: %w", err)
		}
		module.Queue = queue
		enqueuer = queue
	}

	handlers := demonlisthandlers.NewDemonListHandlers(service, view, enqueuer, logger)
	limiter := demonlisthandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
	demonlisthandlers.RegisterRoutes(httpRouter, handlers, limiter, cfg.HTTP.AllowedOrigins)

	logger.InfoContext(ctx, "Demon list module initialized", attr.Bool("queue_enabled", module.Queue != nil))
	return module, nil
}

// Run starts the reconcile queue, if any, and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.Info("Starting demon list module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.Error("Reconcile queue failed to start", attr.Error(err))
		}
	}

	<-ctx.Done()
	m.logger.Info("Demon list module goroutine stopped")
}

// Close cancels Run and stops the reconcile queue.
func (m *Module) Close() error {
	m.logger.Info("Stopping demon list module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Queue.Stop(ctx); err != nil {
			return err
		}
	}

	m.logger.Info("Demon list module stopped")
	return nil
}
