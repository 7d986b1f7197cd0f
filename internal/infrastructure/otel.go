package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"govpanel/internal/config"
)

const (
	ServiceName    = "govpanel"
	ServiceVersion = "1.0.0"
	MeterName      = "govpanel"
)

// TelemetryProviders holds the OpenTelemetry providers for one run
type TelemetryProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics

	metricsFile string
	logger      *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics.
// Metrics are collected into a private Prometheus registry and written to
// metricsFile on Shutdown; an empty metricsFile disables the export.
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, metricsFile string, logger *slog.Logger) (*TelemetryProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &TelemetryProviders{
		metricsFile: metricsFile,
		logger:      logger,
	}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.InfoContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", metricsFile))

	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *TelemetryProviders) error {
	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
		otel.SetTracerProvider(tp)
	case "none", "":
		providers.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	return nil
}

// initializeMetrics wires an OTel meter to a private Prometheus registry
func initializeMetrics(res *resource.Resource, providers *TelemetryProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))

	pm, err := CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	providers.Metrics = pm

	return nil
}

// Shutdown flushes metrics to the textfile and stops the providers
func (p *TelemetryProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error

	if p.metricsFile != "" && p.Registry != nil {
		if err := os.MkdirAll(filepath.Dir(p.metricsFile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create metrics directory: %w", err))
		} else if err := prometheus.WriteToTextfile(p.metricsFile, p.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		} else {
			p.logger.DebugContext(ctx, "Metrics written", slog.String("file", p.metricsFile))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// PipelineMetrics holds the pipeline's instruments
type PipelineMetrics struct {
	StageExecutions metric.Int64Counter
	StageDuration   metric.Float64Histogram
	RowsRead        metric.Int64Counter
	RowsWritten     metric.Int64Counter
	RowsDropped     metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline's counters and histograms
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stageExecutions, err := meter.Int64Counter(
		"pipeline_stage_executions_total",
		metric.WithDescription("Total number of stage executions by status"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Stage execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsRead, err := meter.Int64Counter(
		"pipeline_rows_read_total",
		metric.WithDescription("Source rows read by each stage"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"pipeline_rows_written_total",
		metric.WithDescription("Rows persisted by each stage"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"pipeline_rows_dropped_total",
		metric.WithDescription("Rows discarded by each stage, by reason"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StageExecutions: stageExecutions,
		StageDuration:   stageDuration,
		RowsRead:        rowsRead,
		RowsWritten:     rowsWritten,
		RowsDropped:     rowsDropped,
	}, nil
}
