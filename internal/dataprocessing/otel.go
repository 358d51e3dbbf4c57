package dataprocessing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	TracerName = "cgmdose.dataprocessing"
)

// PipelineTracer provides OpenTelemetry instrumentation for transforms
type PipelineTracer struct {
	tracer           trace.Tracer
	filesTransformed metric.Int64Counter
	rowsRead         metric.Int64Counter
	rowsDropped      metric.Int64Counter
	duration         metric.Float64Histogram
}

// NewPipelineTracer creates the transform instruments on meter and starts
// spans on tracer.
func NewPipelineTracer(tracer trace.Tracer, meter metric.Meter) (*PipelineTracer, error) {
	filesTransformed, err := meter.Int64Counter(
		"cgmdose_files_transformed_total",
		metric.WithDescription("Total number of export files transformed"),
	)
	if err != nil {
		return nil, err
	}

	rowsRead, err := meter.Int64Counter(
		"cgmdose_rows_read_total",
		metric.WithDescription("Total number of rows read from export files"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"cgmdose_rows_dropped_total",
		metric.WithDescription("Total number of rows dropped during transformation"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"cgmdose_transform_duration_seconds",
		metric.WithDescription("Transform duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineTracer{
		tracer:           tracer,
		filesTransformed: filesTransformed,
		rowsRead:         rowsRead,
		rowsDropped:      rowsDropped,
		duration:         duration,
	}, nil
}

// NewNoopTracer returns a tracer that records nothing.
func NewNoopTracer() *PipelineTracer {
	pt, _ := NewPipelineTracer(
		tracenoop.NewTracerProvider().Tracer(TracerName),
		metricnoop.NewMeterProvider().Meter(TracerName),
	)
	return pt
}

// StartTransform creates a span for one source transform
func (pt *PipelineTracer) StartTransform(ctx context.Context, adapter, source string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "dataprocessing.transform",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("transform.adapter", adapter),
			attribute.String("transform.source", source),
		),
	)
}

// StepCompleted adds a step event to the current span
func (pt *PipelineTracer) StepCompleted(ctx context.Context, step string, rows int) {
	trace.SpanFromContext(ctx).AddEvent("step."+step,
		trace.WithAttributes(attribute.Int("rows", rows)))
}

// RecordRowsRead counts rows produced by the read step
func (pt *PipelineTracer) RecordRowsRead(ctx context.Context, adapter string, rows int) {
	pt.rowsRead.Add(ctx, int64(rows),
		metric.WithAttributes(attribute.String("adapter", adapter)))
}

// RecordRowsDropped counts rows removed by a step
func (pt *PipelineTracer) RecordRowsDropped(ctx context.Context, adapter, reason string, rows int) {
	pt.rowsDropped.Add(ctx, int64(rows),
		metric.WithAttributes(
			attribute.String("adapter", adapter),
			attribute.String("reason", reason),
		))
}

// RecordTransform records the outcome of a transform and closes out the span status
func (pt *PipelineTracer) RecordTransform(ctx context.Context, span trace.Span, adapter string, elapsed time.Duration, records int, err error) {
	status := "success"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("transform.records", records))
		span.SetStatus(codes.Ok, "")
	}

	attrs := metric.WithAttributes(
		attribute.String("adapter", adapter),
		attribute.String("status", status),
	)
	pt.filesTransformed.Add(ctx, 1, attrs)
	pt.duration.Record(ctx, elapsed.Seconds(), attrs)
}
