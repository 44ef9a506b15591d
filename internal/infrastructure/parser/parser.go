package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"filtermerge/internal/domain"
)

var (
	commentExpr  = regexp.MustCompile(`^!.*|^\[Adblock.*`)
	metadataExpr = regexp.MustCompile(`^!\s*([A-Za-z][A-Za-z ]*):\s*(.+)$`)
)

// ListParser turns raw filter-list content into structured rule records.
type ListParser struct {
	logger *slog.Logger
}

// New wires an optional logging handle.
func New(logger *slog.Logger) *ListParser {
	return &ListParser{logger: logger}
}

// ParseList splits content into lines and parses each one. Records come back
// in source order with validation status unknown.
func (p *ListParser) ParseList(content, listName string) []domain.RuleRecord {
	if content == "" {
		p.debug("empty list content", "list", listName)
		return nil
	}

	lines := strings.Split(content, "\n")
	records := make([]domain.RuleRecord, 0, len(lines))
	for i, line := range lines {
		records = append(records, p.ParseLine(i+1, line, listName))
	}

	p.debug("parsed list", "list", listName, "lines", len(records))
	return records
}

// ParseLine classifies a single line as empty, comment, metadata or rule.
func (p *ListParser) ParseLine(lineNumber int, line, listName string) domain.RuleRecord {
	record := domain.RuleRecord{
		ListName:     listName,
		LineNumber:   lineNumber,
		OriginalLine: line,
		Validation:   domain.ValidationUnknown,
		Translation:  domain.TranslationNotApplicable,
	}

	stripped := strings.TrimSpace(line)
	if stripped == "" {
		record.Kind = domain.KindEmpty
		return record
	}

	if isComment(stripped) {
		if m := metadataExpr.FindStringSubmatch(stripped); m != nil {
			record.Kind = domain.KindMetadata
			record.MetaKey = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "_")
			record.MetaValue = strings.TrimSpace(m[2])
			return record
		}
		record.Kind = domain.KindComment
		return record
	}

	record.Kind = domain.KindRule
	record.RawRule = stripped
	return record
}

// isComment reports whether the stripped line is a comment rather than a
// rule. A leading `#` only counts as a comment when followed by whitespace
// or nothing; `##`, `#@#` and friends are cosmetic rule separators.
func isComment(stripped string) bool {
	if commentExpr.MatchString(stripped) {
		return true
	}
	if strings.HasPrefix(stripped, "#") {
		rest := stripped[1:]
		return rest == "" || rest[0] == ' ' || rest[0] == '\t'
	}
	return false
}

func (p *ListParser) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
