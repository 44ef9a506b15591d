package ports

import (
	"context"

	"filtermerge/internal/domain"
)

// ListFetcher pulls raw filter lists from upstream sources.
type ListFetcher interface {
	Fetch(ctx context.Context, sources []domain.ListSource) ([]domain.ListPayload, error)
}

// ListWriter renders finalized records into the unified output list.
type ListWriter interface {
	Write(records []domain.RuleRecord) error
}

// RunRepository persists per-run statistics for audit and history.
type RunRepository interface {
	SaveRun(ctx context.Context, report domain.RunReport) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}
