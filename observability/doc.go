// Package observability provides OpenTelemetry tracing and metrics for the
// capture pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("converse"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanFrameWrite)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("converse"))
//	metrics, err := observability.NewPipelineMetrics(observability.Meter("converse"))
//	metrics.RecordFrameForwarded(ctx, len(chunk))
//
// All PipelineMetrics methods are nil-safe so components can run unmetered
// in tests.
package observability
