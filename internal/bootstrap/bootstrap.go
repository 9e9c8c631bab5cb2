package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/intellidoc/repodoc/internal/config"
	"github.com/intellidoc/repodoc/internal/core/ports"
	"github.com/intellidoc/repodoc/internal/core/usecase"
	"github.com/intellidoc/repodoc/internal/infrastructure/aiservice"
	cachepg "github.com/intellidoc/repodoc/internal/infrastructure/cache/postgres"
	"github.com/intellidoc/repodoc/internal/infrastructure/gitfetch"
	"github.com/intellidoc/repodoc/internal/infrastructure/hashing"
	progressnats "github.com/intellidoc/repodoc/internal/infrastructure/progress/nats"
	queuenats "github.com/intellidoc/repodoc/internal/infrastructure/queue/nats"
	"github.com/intellidoc/repodoc/internal/infrastructure/repository/postgres"
	"github.com/intellidoc/repodoc/internal/infrastructure/resilience"
	"github.com/intellidoc/repodoc/internal/infrastructure/scanner"
)

type App struct {
	Config config.Config

	Repos ports.RepositoryStore
	Docs  ports.DocumentationStore
	Cache *cachepg.Store
	Queue ports.JobQueue

	Progress *progressnats.Publisher

	EnqueueUC *usecase.EnqueueUseCase
	QueryUC   *usecase.QueryUseCase
	ProcessUC ports.JobProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	repos := postgres.NewRepositoryStore(db)
	if err := repos.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure repositories schema: %w", err)
	}
	docs := postgres.NewDocumentationStore(db)
	if err := docs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documentation schema: %w", err)
	}
	cache := cachepg.NewStore(db)
	if err := cache.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure cache schema: %w", err)
	}

	conn, err := queuenats.Connect(cfg.NATSURL, "repodoc", queuenats.Options{})
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.AIMaxAttempts,
		RetryInitialBackoff: cfg.AIRetryBaseDelay,
		RetryMaxBackoff:     cfg.AIRetryMaxDelay,
		BreakerEnabled:      true,
	})

	queue := queuenats.NewQueue(conn, cfg.NATSJobsSubject, cfg.NATSJobPartitions, cfg.WorkerPartitions, executor)
	progress := progressnats.NewPublisher(conn, cfg.NATSProgressSubject)

	ai := aiservice.New(aiservice.Config{
		BaseURL:             cfg.AIServiceURL,
		SelectTimeout:       cfg.AISelectTimeout,
		DocTimeout:          cfg.AIDocTimeout,
		BatchBaseTimeout:    cfg.AIBatchBaseTimeout,
		BatchPerFileTimeout: cfg.AIBatchPerFileTimeout,
		RequestsPerMinute:   cfg.AIRequestsPerMinute,
	}, &http.Client{}, executor)

	scan := scanner.NewWithLimits(cfg.MaxSelectedFiles, cfg.MaxStructureEntries, cfg.MaxFileSizeBytes)
	fetcher := gitfetch.New()
	hasher := hashing.New()

	analyzeUC := usecase.NewAnalyzeCodeUseCase(repos, docs, cache, hasher, fetcher, scan, ai, progress,
		usecase.AnalyzeConfig{
			WorkspaceRoot:    cfg.WorkspaceRoot,
			BatchSize:        cfg.BatchSize,
			BatchConcurrency: cfg.BatchConcurrency,
			CacheTTL:         cfg.CacheTTL,
		})
	readmeUC := usecase.NewGenerateReadmeUseCase(repos, docs, cache, hasher, ai, progress,
		usecase.ReadmeConfig{CacheTTL: cfg.CacheTTL})

	return &App{
		Config: cfg,

		Repos: repos,
		Docs:  docs,
		Cache: cache,
		Queue: queue,

		Progress: progress,

		EnqueueUC: usecase.NewEnqueueUseCase(repos, queue),
		QueryUC:   usecase.NewQueryUseCase(repos, docs),
		ProcessUC: usecase.NewProcessJobUseCase(repos, progress, analyzeUC, readmeUC),

		closeFn: func() {
			conn.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
