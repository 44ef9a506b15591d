package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"filtermerge/internal/domain"
	"filtermerge/internal/ports"
)

// PostgresRepository persists processing-run reports into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveRun inserts one run report snapshot.
func (r *PostgresRepository) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.db == nil {
		return nil
	}

	query := r.builder.
		Insert("processing_runs").
		Columns(
			"started_at", "finished_at", "lists", "total_rules",
			"valid_rules", "translated_rules", "commented_rules",
			"dropped_rules", "error_rules", "output_file", "strategy",
		).
		Values(
			report.StartedAt, report.FinishedAt, report.Lists, report.TotalRules,
			report.Valid, report.Translated, report.CommentedOut,
			report.Dropped, report.Errors, report.OutputFile, string(report.Strategy),
		)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert run report: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit most recent run reports, newest first.
func (r *PostgresRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if r.db == nil || limit <= 0 {
		return nil, nil
	}

	query := r.builder.
		Select(
			"started_at", "finished_at", "lists", "total_rules",
			"valid_rules", "translated_rules", "commented_rules",
			"dropped_rules", "error_rules", "output_file", "strategy",
		).
		From("processing_runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit))

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var reports []domain.RunReport
	for rows.Next() {
		var report domain.RunReport
		var strategy string
		if err := rows.Scan(
			&report.StartedAt, &report.FinishedAt, &report.Lists, &report.TotalRules,
			&report.Valid, &report.Translated, &report.CommentedOut,
			&report.Dropped, &report.Errors, &report.OutputFile, &strategy,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run report: %w", err)
		}
		report.Strategy = domain.Strategy(strategy)
		reports = append(reports, report)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return reports, nil
}
