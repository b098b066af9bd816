package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tandemlab/converse/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	Endpoint       string        `mapstructure:"endpoint"`
	Insecure       bool          `mapstructure:"insecure"`
	Interval       time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PipelineMetrics holds the metric instruments for the capture pipeline.
type PipelineMetrics struct {
	framesForwarded  metric.Int64Counter
	bytesForwarded   metric.Int64Counter
	sessionsActive   metric.Int64UpDownCounter
	sessionsSwept    metric.Int64Counter
	analysisTotal    metric.Int64Counter
	analysisDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	framesForwarded, err := meter.Int64Counter("stream.frames_forwarded",
		metric.WithDescription("Audio frames forwarded to the recognizer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.frames_forwarded counter: %w", err)
	}

	bytesForwarded, err := meter.Int64Counter("stream.bytes_forwarded",
		metric.WithDescription("Audio bytes forwarded to the recognizer"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.bytes_forwarded counter: %w", err)
	}

	sessionsActive, err := meter.Int64UpDownCounter("stream.sessions_active",
		metric.WithDescription("Currently open recognizer sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.sessions_active counter: %w", err)
	}

	sessionsSwept, err := meter.Int64Counter("stream.sessions_swept",
		metric.WithDescription("Sessions reclaimed by the TTL sweeper"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.sessions_swept counter: %w", err)
	}

	analysisTotal, err := meter.Int64Counter("sentiment.analysis_total",
		metric.WithDescription("Sentiment analysis runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sentiment.analysis_total counter: %w", err)
	}

	analysisDuration, err := meter.Float64Histogram("sentiment.analysis_duration",
		metric.WithDescription("Duration of sentiment analysis runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sentiment.analysis_duration histogram: %w", err)
	}

	return &PipelineMetrics{
		framesForwarded:  framesForwarded,
		bytesForwarded:   bytesForwarded,
		sessionsActive:   sessionsActive,
		sessionsSwept:    sessionsSwept,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
	}, nil
}

// RecordFrameForwarded records one forwarded frame and its size.
// Safe to call on a nil receiver.
func (m *PipelineMetrics) RecordFrameForwarded(ctx context.Context, bytes int) {
	if m == nil {
		return
	}
	m.framesForwarded.Add(ctx, 1)
	m.bytesForwarded.Add(ctx, int64(bytes))
}

// RecordSessionOpened increments the active session gauge.
func (m *PipelineMetrics) RecordSessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsActive.Add(ctx, 1)
}

// RecordSessionClosed decrements the active session gauge.
func (m *PipelineMetrics) RecordSessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsActive.Add(ctx, -1)
}

// RecordSessionsSwept records sessions reclaimed by a sweep pass.
func (m *PipelineMetrics) RecordSessionsSwept(ctx context.Context, count int) {
	if m == nil || count == 0 {
		return
	}
	m.sessionsSwept.Add(ctx, int64(count))
}

// RecordAnalysis records one analysis run with its outcome and duration.
func (m *PipelineMetrics) RecordAnalysis(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.analysisTotal.Add(ctx, 1, attrs)
	m.analysisDuration.Record(ctx, d.Seconds(), attrs)
}
