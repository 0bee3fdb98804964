// Package observability builds the logger, tracer provider and Prometheus registry
// shared by every part of the service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	demonlistmetrics "github.com/Black-And-White-Club/demonlist-tracker/app/observability/metrics/demonlist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config selects log output and where metrics are served.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	LogLevel       string
	LogFormat      string
	MetricsAddress string
	// Output defaults to stderr.
	Output io.Writer
}

// Provider owns the process-wide logger and tracer provider.
type Provider struct {
	Logger         *slog.Logger
	TracerProvider *sdktrace.TracerProvider
}

// Registry holds the collectors and tracer handed to modules.
type Registry struct {
	Tracer           trace.Tracer
	Prometheus       *prometheus.Registry
	DemonListMetrics demonlistmetrics.DemonListMetrics
}

type Observability struct {
	Provider Provider
	Registry Registry

	metricsServer *http.Server
}

// Init builds logging, tracing and metrics. The metrics endpoint is only served
// when MetricsAddress is set.
func Init(ctx context.Context, cfg Config) (Observability, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return Observability{}, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.Version),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)
	otel.SetTracerProvider(tp)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := demonlistmetrics.NewPrometheus(reg)
	if err != nil {
		return Observability{}, fmt.Errorf("failed to register metrics: %w", err)
	}

	obs := Observability{
		Provider: Provider{Logger: logger, TracerProvider: tp},
		Registry: Registry{
			Tracer:           tp.Tracer(cfg.ServiceName),
			Prometheus:       reg,
			DemonListMetrics: metrics,
		},
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		obs.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.InfoContext(ctx, "Serving metrics", slog.String("address", cfg.MetricsAddress))
			if err := obs.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	return obs, nil
}

// Shutdown flushes the tracer provider and stops the metrics server.
func (o Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.metricsServer != nil {
		errs = append(errs, o.metricsServer.Shutdown(ctx))
	}
	if o.Provider.TracerProvider != nil {
		errs = append(errs, o.Provider.TracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// NewLogger builds a JSON or text slog logger at the configured level.
func NewLogger(cfg Config) (*slog.Logger, error) {
	var level slog.Level
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "", "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	logger := slog.New(handler)
	if cfg.ServiceName != "" {
		logger = logger.With(slog.String("service", cfg.ServiceName))
	}
	if cfg.Environment != "" {
		logger = logger.With(slog.String("env", cfg.Environment))
	}
	return logger, nil
}
