// Package telemetry holds the tracer and meters shared by the dispatch
// layer. Without a configured provider every call is a no-op.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("volar.dispatch")
	meter  = otel.Meter("volar.dispatch")
)

// Outcomes recorded for a dispatched request.
const (
	OutcomeResult   = "result"
	OutcomeNoEngine = "no_engine"
	OutcomeFailed   = "failed"
)

var (
	dispatchTotal    metric.Int64Counter
	dispatchLatency  metric.Float64Histogram
	aggregateEngines metric.Int64Histogram
	aggregateTotal   metric.Int64Counter
	renameInflight   metric.Int64UpDownCounter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		dispatchTotal, err = meter.Int64Counter(
			"volar_dispatch_total",
			metric.WithDescription("Requests dispatched to an engine, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		dispatchLatency, err = meter.Float64Histogram(
			"volar_dispatch_duration_seconds",
			metric.WithDescription("Time spent in engine capability calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		aggregateEngines, err = meter.Int64Histogram(
			"volar_aggregate_engines",
			metric.WithDescription("Engines queried per workspace-wide request"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		aggregateTotal, err = meter.Int64Counter(
			"volar_aggregate_total",
			metric.WithDescription("Workspace-wide requests, by completion"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		renameInflight, err = meter.Int64UpDownCounter(
			"volar_rename_inflight",
			metric.WithDescription("File rename batches still computing edits"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// StartSpan opens a span for one capability call.
func StartSpan(ctx context.Context, capability string, uri string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispatch."+capability,
		trace.WithAttributes(
			attribute.String("volar.capability", capability),
			attribute.String("volar.uri", uri),
		),
	)
}

// EndSpan records outcome on span and closes it.
func EndSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("volar.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordDispatch counts a dispatched request and its latency.
func RecordDispatch(ctx context.Context, capability, outcome string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("outcome", outcome),
	)
	dispatchTotal.Add(ctx, 1, attrs)
	dispatchLatency.Record(ctx, duration.Seconds(), attrs)
}

// RecordAggregate counts a fan-out and how many engines it reached.
func RecordAggregate(ctx context.Context, name string, engines int, completed bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("query", name),
		attribute.Bool("completed", completed),
	)
	aggregateTotal.Add(ctx, 1, attrs)
	aggregateEngines.Record(ctx, int64(engines), attrs)
}

// RenameStarted and RenameFinished bracket one tracked rename batch.
func RenameStarted(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	renameInflight.Add(ctx, 1)
}

func RenameFinished(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	renameInflight.Add(ctx, -1)
}
