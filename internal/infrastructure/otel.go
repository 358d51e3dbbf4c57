package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"cgmdose/internal/config"
)

// MeterName is the instrumentation scope of application metrics and spans.
const MeterName = "cgmdose"

// Telemetry holds the OpenTelemetry providers of one process. Metrics are
// exported into Registry, which Push sends to a Prometheus Pushgateway.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter

	cfg    config.TelemetryConfig
	logger *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics as configured. Disabled
// signals get no-op providers, so callers never check for nil.
func InitializeTelemetry(cfg config.TelemetryConfig, version string, logger *slog.Logger) (*Telemetry, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	)

	t := &Telemetry{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		cfg:    cfg,
		logger: logger,
	}

	switch cfg.Traces {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(version))
		otel.SetTracerProvider(t.TracerProvider)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Traces)
	}

	if cfg.Metrics {
		t.Registry = prometheus.NewRegistry()
		t.Registry.MustRegister(collectors.NewGoCollector())

		exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(version))
		otel.SetMeterProvider(t.MeterProvider)
	}

	logger.Debug("Telemetry initialized",
		slog.String("traces", cfg.Traces),
		slog.Bool("metrics", cfg.Metrics),
		slog.Bool("push", cfg.PushgatewayURL != ""))
	return t, nil
}

// Push sends the metrics registry to the configured Pushgateway. It is a
// no-op when metrics or the gateway are not configured.
func (t *Telemetry) Push(ctx context.Context) error {
	if t.Registry == nil || t.cfg.PushgatewayURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.PushTimeout)
	defer cancel()

	err := push.New(t.cfg.PushgatewayURL, t.cfg.PushJob).
		Gatherer(t.Registry).
		Grouping("service", t.cfg.ServiceName).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}

	t.logger.Debug("Metrics pushed",
		slog.String("url", t.cfg.PushgatewayURL),
		slog.String("job", t.cfg.PushJob))
	return nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
