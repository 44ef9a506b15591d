package processor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"filtermerge/internal/domain"
	"filtermerge/internal/syntaxdb"
	"filtermerge/internal/translator"
	"filtermerge/internal/validator"
)

// progressEvery controls how often completion progress is logged.
const progressEvery = 1000

// Coordinator distributes validate-then-translate work across a bounded pool
// with per-rule fault isolation.
type Coordinator struct {
	logger *slog.Logger
}

// New builds a coordinator with an explicit logging handle.
func New(logger *slog.Logger) *Coordinator {
	return &Coordinator{logger: logger}
}

// ProcessAll runs every record through validation and translation on up to
// workers goroutines. Each worker holds its own database clone; records share
// no mutable state. The output always contains exactly one result per input,
// sorted by (list name, line number) regardless of completion order. A unit
// that panics is downgraded to an error-status record and never aborts the
// remaining units.
func (c *Coordinator) ProcessAll(ctx context.Context, records []domain.RuleRecord, db *syntaxdb.Database, strategy domain.Strategy, workers int) ([]domain.RuleRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if !domain.ValidStrategy(strategy) {
		return nil, fmt.Errorf("process: unknown translation strategy %q", strategy)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(records) {
		workers = len(records)
	}

	// Slot per input index; no mutex needed, each goroutine owns its index.
	results := make([]domain.RuleRecord, len(records))
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunks := splitIndexes(len(records), workers)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			workerDB := db.Clone()
			for _, i := range chunk {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				results[i] = processOne(records[i], workerDB, strategy)

				if n := completed.Add(1); n%progressEvery == 0 {
					c.progress(n, int64(len(records)))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("process records: %w", err)
	}

	// Completion order is arbitrary; downstream needs stable ordering.
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].ListName != results[b].ListName {
			return results[a].ListName < results[b].ListName
		}
		return results[a].LineNumber < results[b].LineNumber
	})

	return results, nil
}

// processOne is the unit-of-work boundary: any panic inside validation or
// translation is captured and annotated onto the original record.
func processOne(record domain.RuleRecord, db *syntaxdb.Database, strategy domain.Strategy) (out domain.RuleRecord) {
	defer func() {
		if r := recover(); r != nil {
			out = record
			out.Validation = domain.ValidationError
			out.Translation = domain.TranslationError
			out.ProcessingError = fmt.Sprintf("worker failure: %v", r)
			out.Include = false
		}
	}()

	out = validator.Validate(record, db)
	out = translator.Translate(out, db, strategy)
	return out
}

// splitIndexes partitions [0, total) into round-robin chunks, one per worker.
func splitIndexes(total, workers int) [][]int {
	chunks := make([][]int, workers)
	for i := 0; i < total; i++ {
		w := i % workers
		chunks[w] = append(chunks[w], i)
	}
	return chunks
}

func (c *Coordinator) progress(done, total int64) {
	if c.logger != nil {
		c.logger.Info("processing progress", "done", done, "total", total)
	}
}
