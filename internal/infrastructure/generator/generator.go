package generator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"filtermerge/internal/domain"
	"filtermerge/internal/ports"
)

// Generator renders finalized records into the unified output list.
type Generator struct {
	outputFile string
	title      string
	version    string
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.ListWriter = (*Generator)(nil)

// New builds a generator writing to outputFile.
func New(outputFile, title, version string, logger *slog.Logger) *Generator {
	return &Generator{
		outputFile: outputFile,
		title:      title,
		version:    version,
		logger:     logger,
		now:        time.Now,
	}
}

// Write renders the final list: a metadata header, unique active rules in
// sorted order, then commented-out rules in their own section. Records not
// flagged for inclusion are skipped; duplicates are emitted once.
func (g *Generator) Write(records []domain.RuleRecord) error {
	active, commented, titles := g.collect(records)

	if dir := filepath.Dir(g.outputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	var b strings.Builder
	b.WriteString("! Title: " + g.title + "\n")
	b.WriteString("! Version: " + g.version + "\n")
	b.WriteString("! Last Updated: " + g.now().UTC().Format("2006-01-02 15:04:05 UTC") + "\n")
	b.WriteString(fmt.Sprintf("! Rule Count: %d unique rules\n", len(active)))
	b.WriteString("!\n")

	if len(titles) > 0 {
		b.WriteString("! Original List Titles:\n")
		for _, t := range titles {
			b.WriteString("!  - " + t + "\n")
		}
		b.WriteString("!\n")
	}

	for _, rule := range active {
		b.WriteString(rule + "\n")
	}

	if len(commented) > 0 {
		b.WriteString("\n!\n! --- UNTRANSLATED RULES ---\n!\n")
		for _, rule := range commented {
			b.WriteString(rule + "\n")
		}
	}

	if err := os.WriteFile(g.outputFile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write output file %s: %w", g.outputFile, err)
	}

	g.info("list generated", "file", g.outputFile, "rules", len(active), "commented", len(commented))
	return nil
}

// collect splits includable records into active and commented-out rules,
// deduplicated, plus the original list titles gathered from metadata lines.
func (g *Generator) collect(records []domain.RuleRecord) (active, commented, titles []string) {
	seen := map[string]struct{}{}

	for _, record := range records {
		if record.Kind == domain.KindMetadata {
			if record.MetaKey == "title" && record.MetaValue != "" {
				titles = append(titles, fmt.Sprintf("%s (from %s)", record.MetaValue, record.ListName))
			}
			continue
		}
		if record.Kind != domain.KindRule || !record.Include {
			continue
		}

		text := record.RawRule
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		if strings.HasPrefix(text, "!") {
			commented = append(commented, text)
		} else {
			active = append(active, text)
		}
	}

	sort.Strings(active)
	sort.Strings(commented)
	sort.Strings(titles)
	return active, commented, titles
}

func (g *Generator) info(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}
