// Package app initializes and holds the long-lived services of one CLI
// invocation, acting as a dependency injection container for the pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/api"
	"github.com/JakeFAU/senado-graph-ingest/internal/clock/system"
	"github.com/JakeFAU/senado-graph-ingest/internal/config"
	collyfetcher "github.com/JakeFAU/senado-graph-ingest/internal/fetcher/colly"
	neo4jsink "github.com/JakeFAU/senado-graph-ingest/internal/graph/neo4j"
	"github.com/JakeFAU/senado-graph-ingest/internal/id/uuid"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
	"github.com/JakeFAU/senado-graph-ingest/internal/pipeline"
	"github.com/JakeFAU/senado-graph-ingest/internal/policy/ratelimit"
	"github.com/JakeFAU/senado-graph-ingest/internal/progress"
	"github.com/JakeFAU/senado-graph-ingest/internal/progress/sinks"
	pubsubpublisher "github.com/JakeFAU/senado-graph-ingest/internal/publisher/pubsub"
	"github.com/JakeFAU/senado-graph-ingest/internal/staging"
	gcsstore "github.com/JakeFAU/senado-graph-ingest/internal/storage/gcs"
	localstore "github.com/JakeFAU/senado-graph-ingest/internal/storage/local"
	memorystore "github.com/JakeFAU/senado-graph-ingest/internal/storage/memory"
	"github.com/JakeFAU/senado-graph-ingest/internal/storage/postgres"
	"github.com/JakeFAU/senado-graph-ingest/internal/telemetry"
)

const (
	serviceName     = "senado-ingest"
	shutdownTimeout = 10 * time.Second
)

// Options carries what the caller decides rather than the config file.
type Options struct {
	// Version is stamped on the tracer resource.
	Version string
	// Registerer receives the progress collectors; nil means the default
	// Prometheus registerer.
	Registerer prometheus.Registerer
	// Sink replaces the Neo4j sink when set.
	Sink ingest.GraphSink
}

// App holds the services shared by every subcommand.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	sink     ingest.GraphSink

	tracer    *sdktrace.TracerProvider
	hub       *progress.Hub
	runStore  *postgres.RunStore
	publisher *pubsubpublisher.Publisher
	gcs       *storage.Client
	server    *http.Server
}

// New builds every service named by cfg. It fails fast when a configured
// backend cannot be initialized and releases whatever it already opened.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	metrics.Init()
	a.tracer, err = telemetry.InitTracerProvider(ctx, telemetry.Config{ServiceName: serviceName, ServiceVersion: opts.Version})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:      cfg.Source.UserAgent,
		Timeout:        cfg.FetchTimeout(),
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.BackoffInitial(),
		MaxBackoff:     cfg.BackoffMax(),
	},
		collyfetcher.WithLimiter(ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
			Burst:             cfg.Fetch.Burst,
		})),
		collyfetcher.WithLogger(logger.Named("fetcher")),
	)

	a.sink = opts.Sink
	if a.sink == nil {
		var sink *neo4jsink.Sink
		sink, err = neo4jsink.New(neo4jsink.Config{
			URI:       cfg.Neo4j.URI,
			Username:  cfg.Neo4j.Username,
			Password:  cfg.Neo4j.Password,
			Database:  cfg.Neo4j.Database,
			BatchSize: cfg.Neo4j.BatchSize,
		}, logger.Named("neo4j"))
		if err != nil {
			return nil, fmt.Errorf("init graph sink: %w", err)
		}
		a.sink = sink
	}

	blobs, err := a.blobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init staging: %w", err)
	}
	logger.Info("staging backend ready", zap.String("backend", cfg.Staging.Backend))

	latest := &api.LatestRun{}
	recorders := []ingest.RunRecorder{latest}
	var runs api.RunLookup = latest
	if cfg.RunLog.DSN != "" {
		a.runStore, err = postgres.NewRunStore(ctx, postgres.RunStoreConfig{DSN: cfg.RunLog.DSN, Table: cfg.RunLog.Table})
		if err != nil {
			return nil, fmt.Errorf("init run log: %w", err)
		}
		if err = a.runStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("init run log: %w", err)
		}
		recorders = append(recorders, a.runStore)
		runs = a.runStore
		logger.Info("run log enabled", zap.String("table", cfg.RunLog.Table))
	}

	var publisher ingest.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		a.publisher, err = pubsubpublisher.NewFromProject(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init publisher: %w", err)
		}
		publisher = a.publisher
		logger.Info("run notifications enabled", zap.String("topic", cfg.PubSub.TopicName))
	}

	promSink, err := sinks.NewPrometheusSink(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	a.hub = progress.NewHub(progress.Config{Logger: logger.Named("progress")},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	)

	a.pipeline, err = pipeline.New(pipeline.Deps{
		Fetcher:   fetcher,
		Sink:      a.sink,
		Staging:   staging.New(blobs, cfg.Staging.Prefix, logger.Named("staging")),
		Recorders: recorders,
		Publisher: publisher,
		Progress:  a.hub,
		Clock:     system.New(),
		IDs:       uuid.New(),
		Logger:    logger,
	}, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	if cfg.Server.Port > 0 {
		a.startServer(api.NewServer(a.sink, runs, logger.Named("api")))
	}
	logger.Info("application services initialized")
	return a, nil
}

func (a *App) blobStore(ctx context.Context) (ingest.BlobStore, error) {
	switch a.cfg.Staging.Backend {
	case config.StagingLocal:
		return localstore.New(localstore.Config{BaseDir: a.cfg.Staging.Dir})
	case config.StagingGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.gcs = client
		return gcsstore.New(client, gcsstore.Config{Bucket: a.cfg.Staging.Bucket})
	case config.StagingMemory:
		return memorystore.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown staging backend: %s", a.cfg.Staging.Backend)
	}
}

func (a *App) startServer(srv *api.Server) {
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("admin server started", zap.Int("port", a.cfg.Server.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("admin server failed", zap.Error(err))
		}
	}()
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the configuration the services were built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Pipeline returns the ingestion pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Close flushes progress events and shuts every service down. Errors are
// logged; Close is safe on a partially built App.
func (a *App) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("admin server shutdown failed", zap.Error(err))
		}
	}
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close failed", zap.Error(err))
		}
	}
	if a.runStore != nil {
		a.runStore.Close()
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			a.logger.Warn("graph sink close failed", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}
