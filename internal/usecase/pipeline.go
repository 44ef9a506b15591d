package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"filtermerge/internal/domain"
	"filtermerge/internal/infrastructure/parser"
	"filtermerge/internal/ports"
	"filtermerge/internal/processor"
	"filtermerge/internal/syntaxdb"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher     ports.ListFetcher
	Parser      *parser.ListParser
	Coordinator *processor.Coordinator
	Writer      ports.ListWriter
	Repository  ports.RunRepository
	Database    *syntaxdb.Database
	Strategy    domain.Strategy
	Workers     int
	OutputFile  string
	Logger      *slog.Logger
}

// Pipeline implements the list-unification workflow: fetch, parse, process,
// generate, and record the run.
type Pipeline struct {
	fetcher     ports.ListFetcher
	parser      *parser.ListParser
	coordinator *processor.Coordinator
	writer      ports.ListWriter
	repository  ports.RunRepository
	database    *syntaxdb.Database
	strategy    domain.Strategy
	workers     int
	outputFile  string
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		fetcher:     deps.Fetcher,
		parser:      deps.Parser,
		coordinator: deps.Coordinator,
		writer:      deps.Writer,
		repository:  deps.Repository,
		database:    deps.Database,
		strategy:    deps.Strategy,
		workers:     deps.Workers,
		outputFile:  deps.OutputFile,
		logger:      deps.Logger,
	}
}

// Run executes one full unification pass over the configured sources.
func (p *Pipeline) Run(ctx context.Context, sources []domain.ListSource) error {
	if p.fetcher == nil || p.parser == nil || p.coordinator == nil || p.database == nil {
		return fmt.Errorf("pipeline is not fully wired")
	}

	startedAt := time.Now().UTC()

	payloads, err := p.fetcher.Fetch(ctx, sources)
	if err != nil {
		return fmt.Errorf("fetch lists: %w", err)
	}

	var records []domain.RuleRecord
	fetched := 0
	for _, payload := range payloads {
		if payload.Err != nil {
			p.warn("skipping failed list", "list", payload.Name, "error", payload.Err)
			continue
		}
		fetched++
		records = append(records, p.parser.ParseList(payload.Content, payload.Name)...)
	}

	p.info("parsed lists", "lists", fetched, "records", len(records))

	processed, err := p.coordinator.ProcessAll(ctx, records, p.database, p.strategy, p.workers)
	if err != nil {
		return fmt.Errorf("process records: %w", err)
	}

	report := buildReport(processed, startedAt, fetched, p.strategy)
	report.OutputFile = p.outputFile
	p.logErrors(processed)

	if p.writer != nil {
		if err := p.writer.Write(processed); err != nil {
			return fmt.Errorf("generate list: %w", err)
		}
	}

	if p.repository != nil {
		report.FinishedAt = time.Now().UTC()
		if err := p.repository.SaveRun(ctx, report); err != nil {
			// Audit storage is best effort; the generated list is the product.
			p.warn("failed to persist run report", "error", err)
		}
	}

	p.info("run complete",
		"rules", report.TotalRules,
		"valid", report.Valid,
		"translated", report.Translated,
		"commented", report.CommentedOut,
		"dropped", report.Dropped,
		"errors", report.Errors,
	)
	return nil
}

func buildReport(records []domain.RuleRecord, startedAt time.Time, lists int, strategy domain.Strategy) domain.RunReport {
	report := domain.RunReport{
		StartedAt: startedAt,
		Lists:     lists,
		Strategy:  strategy,
	}

	for _, record := range records {
		if record.Kind != domain.KindRule {
			continue
		}
		report.TotalRules++

		if record.Validation == domain.ValidationError || record.Translation == domain.TranslationError {
			report.Errors++
			continue
		}

		switch {
		case record.Validation == domain.ValidationValid && record.Translation == domain.TranslationNotApplicable:
			report.Valid++
		case record.Translation == domain.TranslationTranslated:
			report.Translated++
		case record.Translation == domain.TranslationFailed && record.Include:
			report.CommentedOut++
		case record.Translation == domain.TranslationFailed:
			report.Dropped++
		}
	}

	return report
}

// logErrors surfaces per-rule diagnostics; error records stay out of the
// generated list but are never silently discarded.
func (p *Pipeline) logErrors(records []domain.RuleRecord) {
	for _, record := range records {
		if record.ProcessingError == "" {
			continue
		}
		p.warn("rule processing error",
			"list", record.ListName,
			"line", record.LineNumber,
			"rule", record.RawRule,
			"error", record.ProcessingError,
		)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
