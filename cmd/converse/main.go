// Command converse runs the conversation capture-and-analysis service:
// HTTP API, recognizer stream registry, transcript ingestion, and
// sentiment analysis over one SQLite-backed store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/sqlite"

	"github.com/tandemlab/converse/config"
	"github.com/tandemlab/converse/conversation"
	"github.com/tandemlab/converse/database"
	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/observability"
	"github.com/tandemlab/converse/recognizer/grpcstream"
	"github.com/tandemlab/converse/sentiment"
	"github.com/tandemlab/converse/server"
	"github.com/tandemlab/converse/server/endpoint"
	"github.com/tandemlab/converse/sse"
	"github.com/tandemlab/converse/stream"
	"github.com/tandemlab/converse/version"
)

const serviceName = "converse"

// sentimentConfig groups analyzer tuning with its backend endpoint.
type sentimentConfig struct {
	sentiment.Config `yaml:",inline" mapstructure:",squash"`

	Backend sentiment.HTTPBackendConfig `yaml:"backend" mapstructure:"backend"`
}

type appConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server     server.Config              `yaml:"server" mapstructure:"server"`
	Database   database.Config            `yaml:"database" mapstructure:"database"`
	Stream     stream.Config              `yaml:"stream" mapstructure:"stream"`
	Recognizer grpcstream.Config          `yaml:"recognizer" mapstructure:"recognizer"`
	Sentiment  sentimentConfig            `yaml:"sentiment" mapstructure:"sentiment"`
	Tracing    observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics    observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

func (c *appConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Recognizer.ApplyDefaults()
	c.Sentiment.Config.ApplyDefaults()
	c.Sentiment.Backend.ApplyDefaults()

	defaultTracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultTracing.ServiceName
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = version.GetVersionInfo().Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = defaultTracing.Endpoint
		c.Tracing.Insecure = defaultTracing.Insecure
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = defaultTracing.SampleRate
	}

	defaultMetrics := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Tracing.ServiceName
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Tracing.ServiceVersion
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Tracing.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = defaultMetrics.Endpoint
		c.Metrics.Insecure = defaultMetrics.Insecure
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = defaultMetrics.Interval
	}
}

func (c *appConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("config.database: %w", err)
	}
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("config.stream: %w", err)
	}
	if err := c.Recognizer.Validate(); err != nil {
		return fmt.Errorf("config.recognizer: %w", err)
	}
	if err := c.Sentiment.Config.Validate(); err != nil {
		return fmt.Errorf("config.sentiment: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "converse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.New(&cfg.Logging, cfg.Name)
	log.Info("starting", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := observability.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	meterProvider, err := observability.InitMeter(ctx, cfg.Metrics)
	if err != nil {
		return fmt.Errorf("initializing meter: %w", err)
	}
	metrics, err := observability.NewPipelineMetrics(observability.Meter("github.com/tandemlab/converse"))
	if err != nil {
		return fmt.Errorf("creating pipeline metrics: %w", err)
	}

	db, err := database.Open(ctx, sqlite.Open(cfg.Database.DSN), cfg.Database, log)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	models := append(conversation.Models(), sentiment.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	convStore := conversation.NewGormStore(db.GormDB)
	resultStore := sentiment.NewGormStore(db.GormDB)

	provider, err := grpcstream.NewProvider(cfg.Recognizer, log)
	if err != nil {
		return fmt.Errorf("creating recognizer provider: %w", err)
	}

	hub := sse.NewHub(log)
	go hub.Run()

	ingestor := conversation.NewIngestor(convStore, log, conversation.WithBroadcaster(hub))
	registry := stream.NewRegistry(cfg.Stream, provider, log,
		stream.WithEventSink(ingestor),
		stream.WithMetrics(metrics),
	)
	forwarder := stream.NewForwarder(registry, log, metrics)

	lifecycle := conversation.NewLifecycle(convStore, log)
	reconciler := conversation.NewReconciler(convStore, log)

	backend := sentiment.NewHTTPBackend(cfg.Sentiment.Backend)
	analyzer := sentiment.NewAnalyzer(convStore, resultStore, backend, cfg.Sentiment.Config, log,
		sentiment.WithMetrics(metrics))

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, healthChecker(db, provider, backend))

	handlers := &server.Handlers{
		Registry:   registry,
		Forwarder:  forwarder,
		Lifecycle:  lifecycle,
		Reconciler: reconciler,
		Analyzer:   analyzer,
		Store:      convStore,
		Hub:        hub,
		Log:        log,
	}
	handlers.RegisterRoutes(srv.GinEngine())

	go registry.RunSweeper(ctx)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	log.Info("ready", logger.Fields("addr", srv.Addr()))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	registry.CloseAll()
	hub.Stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("server shutdown", logger.Fields("error", err.Error()))
	}
	if err := provider.Close(); err != nil {
		log.Error("provider close", logger.Fields("error", err.Error()))
	}
	if err := db.Close(); err != nil {
		log.Error("database close", logger.Fields("error", err.Error()))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown", logger.Fields("error", err.Error()))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("meter shutdown", logger.Fields("error", err.Error()))
	}

	log.Info("stopped")
	return nil
}

// healthChecker reports the service's dependencies: the database, the
// recognizer endpoint, and the sentiment backend.
func healthChecker(db *database.DB, provider *grpcstream.Provider, backend *sentiment.HTTPBackend) endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.Check {
		checks := make([]endpoint.Check, 0, 3)

		dbCheck := endpoint.Check{Name: "database", Status: endpoint.StatusHealthy}
		if err := db.PingContext(ctx); err != nil {
			dbCheck.Status = endpoint.StatusUnhealthy
			dbCheck.Error = err.Error()
		}
		checks = append(checks, dbCheck)

		recCheck := endpoint.Check{Name: "recognizer", Status: endpoint.StatusHealthy}
		if !provider.IsAvailable(ctx) {
			recCheck.Status = endpoint.StatusUnhealthy
			recCheck.Error = "recognizer endpoint unreachable"
		}
		checks = append(checks, recCheck)

		sentCheck := endpoint.Check{Name: "sentiment backend", Status: endpoint.StatusHealthy}
		if !backend.IsAvailable(ctx) {
			sentCheck.Status = endpoint.StatusUnhealthy
			sentCheck.Error = "sentiment backend unreachable"
		}
		checks = append(checks, sentCheck)

		return checks
	}
}
