package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"filtermerge/internal/config"
	"filtermerge/internal/infrastructure/downloader"
	"filtermerge/internal/infrastructure/generator"
	"filtermerge/internal/infrastructure/parser"
	"filtermerge/internal/infrastructure/storage"
	"filtermerge/internal/logging"
	"filtermerge/internal/matcher"
	"filtermerge/internal/ports"
	"filtermerge/internal/processor"
	"filtermerge/internal/syntaxdb"
	"filtermerge/internal/usecase"
)

// Application wires configuration to the unification pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance. Syntax database load failures
// are fatal and surface here, before any processing starts.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	syntaxDB, err := syntaxdb.Load(cfg.Patterns.Dir, cfg.Patterns.CanonicalDialect, matcher.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("load syntax database: %w", err)
	}
	baseLogger.Info("syntax database loaded", "patterns", syntaxDB.Len(), "canonical", syntaxDB.Canonical())

	httpClient := &http.Client{Timeout: time.Duration(cfg.Download.TimeoutSeconds) * time.Second}
	fetcher := downloader.New(httpClient, cfg.Download.MaxParallel, cfg.Download.MaxRetries,
		baseLogger.With("component", "downloader"))

	var repository ports.RunRepository
	var auditDB *sql.DB
	if cfg.Database.DSN != "" {
		auditDB, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open audit database: %w", err)
		}
		repository = storage.NewPostgresRepository(auditDB)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:     fetcher,
		Parser:      parser.New(baseLogger.With("component", "parser")),
		Coordinator: processor.New(baseLogger.With("component", "coordinator")),
		Writer:      generator.New(cfg.Output.File, cfg.Output.Title, cfg.Output.Version, baseLogger.With("component", "generator")),
		Repository:  repository,
		Database:    syntaxDB,
		Strategy:    cfg.Strategy(),
		Workers:     cfg.Processing.MaxWorkers,
		OutputFile:  cfg.Output.File,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, db: auditDB}, nil
}

// Run performs a single unification pass.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Run(ctx, a.cfg.Sources())
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
