package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/riskibarqy/draft-combine-pipeline/external/balldontlie"
	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/query/duckdb"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/query/local"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/repository/objectstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/draft-combine-pipeline/internal/metrics"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

// Pipeline holds the wired services shared by the command binaries.
type Pipeline struct {
	Config    config.Config
	Logger    *logging.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Store     blob.Store
	Runs      ingestrun.Repository
	Ingestion *usecase.IngestionService
	Batch     *usecase.BatchService

	pages   *objectstore.PageRepository
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	p := &Pipeline{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  recorder,
		Store:    store,
		pages:    objectstore.NewPageRepository(store, cfg.StorageRawPrefix),
	}

	if cfg.RunLedgerEnabled {
		db, err := openLedgerDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, db.Close)
		p.Runs = postgres.NewRunRepository(db)
	} else {
		p.Runs = memory.NewRunRepository()
	}

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Enabled:   cfg.BallDontLieCircuitEnabled,
		Threshold: cfg.BallDontLieCircuitFailureCount,
		Cooldown:  cfg.BallDontLieCircuitOpenTimeout,
	})
	client := balldontlie.NewClient(balldontlie.ClientConfig{
		BaseURL: cfg.BallDontLieBaseURL,
		Token:   cfg.BallDontLieToken,
		Timeout: cfg.BallDontLieTimeout,
		Backoff: resilience.BackoffPolicy{
			Initial:     cfg.BallDontLieBackoffInitial,
			Max:         cfg.BallDontLieBackoffMax,
			MaxAttempts: cfg.BallDontLieMaxAttempts,
		},
		Breaker:  breaker,
		Logger:   logger.Named("balldontlie"),
		Observer: recorder,
	})

	p.Ingestion = usecase.NewIngestionService(
		client,
		p.pages,
		objectstore.NewCheckpointRepository(store, cfg.StorageStatePrefix),
		usecase.IngestionConfig{
			PerPage:        cfg.BallDontLiePerPage,
			MaxPagesPerRun: cfg.IngestMaxPagesPerRun,
			CourtesyDelay:  cfg.BallDontLieCourtesyDelay,
			Logger:         logger.Named("ingestion"),
			Recorder:       recorder,
			Runs:           p.Runs,
		},
	)
	p.Batch = usecase.NewBatchService(p.Ingestion, usecase.BatchConfig{
		WorkerCount:      cfg.IngestWorkerCount,
		MaxContinuations: cfg.SchedulerMaxContinuations,
		Logger:           logger.Named("batch"),
	})
	return p, nil
}

// JoinService opens the configured engine; its resources are released by Close.
func (p *Pipeline) JoinService(ctx context.Context) (*usecase.JoinService, error) {
	var engine usecase.JoinEngine
	switch p.Config.JoinEngine {
	case config.JoinEngineDuckDB:
		base, secret := duckdbLocation(p.Config, p.Store)
		e, err := duckdb.Open(ctx, p.Store, p.pages, duckdb.EngineConfig{
			Path:    p.Config.DuckDBPath,
			BaseURI: base,
			S3:      secret,
			Logger:  p.Logger.Named("duckdb"),
		})
		if err != nil {
			return nil, fmt.Errorf("open duckdb engine: %w", err)
		}
		p.closers = append(p.closers, e.Close)
		engine = e
	default:
		engine = local.NewEngine(p.Store, p.pages, local.EngineConfig{Logger: p.Logger.Named("join")})
	}

	return usecase.NewJoinService(engine, p.pages, usecase.JoinConfig{
		RawPrefix:     p.pages.Prefix(),
		CombineKey:    p.Config.JoinCombineKey,
		CuratedPrefix: p.Config.JoinCuratedPrefix,
		TableName:     p.Config.JoinTableName,
		Logger:        p.Logger.Named("join"),
		Recorder:      p.Metrics,
	}), nil
}

func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
