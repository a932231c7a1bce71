package bootstrap

import (
	"context"
	"fmt"

	"github.com/docflowhq/docflow/internal/config"
	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
	"github.com/docflowhq/docflow/internal/core/usecase"
	"github.com/docflowhq/docflow/internal/infrastructure/actors"
	"github.com/docflowhq/docflow/internal/infrastructure/classify"
	"github.com/docflowhq/docflow/internal/infrastructure/extractor"
	"github.com/docflowhq/docflow/internal/infrastructure/queue/nats"
	"github.com/docflowhq/docflow/internal/infrastructure/repository/memory"
	"github.com/docflowhq/docflow/internal/infrastructure/repository/postgres"
	"github.com/docflowhq/docflow/internal/infrastructure/resilience"
	"github.com/docflowhq/docflow/internal/infrastructure/storage/localfs"
)

// App wires infrastructure and use cases for both binaries.
type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Repo        ports.DocumentRepository
	Actors      *actors.Registry
	Departments []domain.DepartmentInfo

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ReviewUC  ports.DocumentReviewer
	QueryUC   ports.DocumentReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	var (
		repo    ports.DocumentRepository
		closeFn = func() {}
	)
	switch cfg.Repository {
	case "memory":
		repo = memory.NewRepository()
	default:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pgRepo := postgres.NewDocumentRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = pgRepo
		closeFn = func() { _ = db.Close() }
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	rules, err := classify.LoadRuleSet(cfg.RulesPath)
	if err != nil {
		queue.Close()
		closeFn()
		return nil, fmt.Errorf("load rule set: %w", err)
	}
	if cfg.AcceptThreshold > 0 {
		rules.AcceptThreshold = cfg.AcceptThreshold
	}
	if cfg.ConfidenceThreshold > 0 {
		rules.ConfidenceThreshold = cfg.ConfidenceThreshold
	}

	var model *classify.BayesModel
	if cfg.BayesModelPath != "" {
		model, err = classify.LoadBayesModel(cfg.BayesModelPath)
		if err != nil {
			queue.Close()
			closeFn()
			return nil, fmt.Errorf("load bayes model: %w", err)
		}
	}
	engine := classify.NewEngine(rules, model)

	registry, err := actors.Load(cfg.ActorsPath)
	if err != nil {
		queue.Close()
		closeFn()
		return nil, fmt.Errorf("load actor roster: %w", err)
	}

	extr := extractor.New(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, extr, []string{".txt", ".pdf"})
	processUC := usecase.NewProcessDocumentUseCase(repo, engine)
	reviewUC := usecase.NewReviewUseCase(repo, storage)
	queryUC := usecase.NewQueryUseCase(repo)

	queueRef := queue
	repoClose := closeFn
	return &App{
		Config: cfg,

		Queue:       queue,
		Repo:        repo,
		Actors:      registry,
		Departments: rules.Departments(),

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReviewUC:  reviewUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queueRef.Close()
			repoClose()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
