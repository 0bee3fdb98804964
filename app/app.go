package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/demonlist-tracker/app/eventbus"
	"github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist"
	demonlisthandlers "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/handlers"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/Black-And-White-Club/demonlist-tracker/config"
	"github.com/Black-And-White-Club/demonlist-tracker/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

// Modules holds every feature module the app runs.
type Modules struct {
	DemonListModule *demonlist.Module
}

// App wires configuration, storage, transport and modules into one process.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Logger        *slog.Logger
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPServer    *http.Server
	Modules       Modules

	wg sync.WaitGroup
}

// ObservabilityConfig maps the observability section of cfg.
func ObservabilityConfig(cfg *config.Config, version string) observability.Config {
	return observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		Environment:    cfg.Observability.Environment,
		Version:        version,
		LogLevel:       cfg.Observability.LogLevel,
		LogFormat:      cfg.Observability.LogFormat,
		MetricsAddress: cfg.Observability.MetricsAddress,
	}
}

// OpenDatabase connects to the record store and applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bun.DB, error) {
	db, err := bundb.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := bundb.Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	logger := obs.Provider.Logger
	app := &App{Config: cfg, Observability: obs, Logger: logger}

	db, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.DB = db

	if cfg.NATS.URL != "" {
		app.EventBus, err = eventbus.NewNATS(ctx, cfg.NATS.URL, cfg.Observability.ServiceName, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		logger.InfoContext(ctx, "No NATS URL configured, using in-process event bus")
		app.EventBus = eventbus.NewInMemory(logger)
	}

	app.Router, err = message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, watermill.NewSlogLogger(logger))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create Watermill router: %w", err)
	}

	httpRouter := chi.NewRouter()
	httpRouter.Use(
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		demonlisthandlers.CorrelationIDMiddleware,
		chimiddleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	module, err := demonlist.NewDemonListModule(ctx, cfg, obs, db, app.EventBus, app.Router, httpRouter)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize demon list module: %w", err)
	}
	app.Modules.DemonListModule = module

	app.HTTPServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           otelhttp.NewHandler(httpRouter, "demonlist.http"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app, nil
}

// Run serves HTTP and consumes notifications until ctx is done or a component fails.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	app.wg.Add(1)
	go app.Modules.DemonListModule.Run(ctx, &app.wg)

	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("watermill router stopped: %w", err)
		}
	}()

	go func() {
		app.Logger.Info("Serving HTTP", attr.String("address", app.HTTPServer.Addr))
		if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server stopped: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received")
		return nil
	case err := <-errCh:
		app.Logger.Error("Component failed, shutting down", attr.Error(err))
		return err
	}
}

// Close stops HTTP first, then the router, module, event bus and database. Telemetry is
// flushed by the caller.
func (app *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if app.HTTPServer != nil {
		errs = append(errs, app.HTTPServer.Shutdown(ctx))
	}
	if app.Router != nil {
		errs = append(errs, app.Router.Close())
	}
	if app.Modules.DemonListModule != nil {
		errs = append(errs, app.Modules.DemonListModule.Close())
		app.wg.Wait()
	}
	if app.EventBus != nil {
		errs = append(errs, app.EventBus.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		app.Logger.Error("Shutdown finished with errors", attr.Error(err))
	} else {
		app.Logger.Info("Application shut down gracefully")
	}
	return err
}
