package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"govpanel/internal/infrastructure"
)

const (
	TracerName = "govpanel.operation"
)

// OperationTracer traces runs and stages and feeds the pipeline metrics.
// A nil metrics set only disables the metric side.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer over the run's telemetry providers.
// With nil providers the global (no-op by default) tracer is used.
func NewOperationTracer(providers *infrastructure.TelemetryProviders) *OperationTracer {
	if providers == nil || providers.Tracer == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}
	}
	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: providers.Metrics,
	}
}

// TraceRun creates the span covering a whole run
func (t *OperationTracer) TraceRun(ctx context.Context, runID string, stages int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.stages", stages),
		),
	)
}

// TraceStage creates a span for one stage
func (t *OperationTracer) TraceStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("pipeline.stage.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// RecordStage closes out a stage: span status and attributes, execution
// counter, duration histogram and the row counters
func (t *OperationTracer) RecordStage(ctx context.Context, span trace.Span, stageID string, duration time.Duration, result *StageResult, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "stage completed")
	}

	span.SetAttributes(
		attribute.String("stage.status", status),
		attribute.Float64("stage.duration_seconds", duration.Seconds()),
	)

	if result != nil {
		span.SetAttributes(attribute.Int("stage.rows_written", result.RowsWritten))
		if result.Stats != nil {
			span.SetAttributes(
				attribute.Int("stage.rows_read", result.Stats.Read),
				attribute.Int("stage.rows_kept", result.Stats.Kept),
				attribute.Int("stage.rows_dropped", result.Stats.TotalDropped()),
			)
		}
	}

	if t.metrics == nil {
		return
	}

	stageAttr := attribute.String("stage", stageID)
	t.metrics.StageExecutions.Add(ctx, 1,
		metric.WithAttributes(stageAttr, attribute.String("status", status)))
	t.metrics.StageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(stageAttr))

	if result == nil {
		return
	}
	if result.RowsWritten > 0 {
		t.metrics.RowsWritten.Add(ctx, int64(result.RowsWritten), metric.WithAttributes(stageAttr))
	}
	if result.Stats == nil {
		return
	}
	if result.Stats.Read > 0 {
		t.metrics.RowsRead.Add(ctx, int64(result.Stats.Read), metric.WithAttributes(stageAttr))
	}
	for _, reason := range result.Stats.Reasons() {
		t.metrics.RowsDropped.Add(ctx, int64(result.Stats.Dropped[reason]),
			metric.WithAttributes(stageAttr, attribute.String("reason", reason)))
	}
}

// RecordRun sets the final status on the run span
func (t *OperationTracer) RecordRun(span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("run.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}
