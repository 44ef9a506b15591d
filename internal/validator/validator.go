package validator

import (
	"strings"

	"filtermerge/internal/domain"
	"filtermerge/internal/syntaxdb"
)

// Markers that cannot stand alone as a rule body.
var bareMarkers = []string{"@@", "##", "#@#", "#?#", "#$#", "#%#", "||", "|"}

// Validate classifies a single record against the database. It is a pure
// function of its inputs: the same record and database always produce the
// same result, and failures are encoded as status, never returned.
func Validate(record domain.RuleRecord, db *syntaxdb.Database) domain.RuleRecord {
	if record.Kind != domain.KindRule {
		record.Validation = domain.ValidationValid
		record.Translation = domain.TranslationNotApplicable
		return record
	}
	if record.Validation != domain.ValidationUnknown {
		// Already classified in this pass; never regress.
		return record
	}

	if diag := structuralCheck(record.RawRule); diag != "" {
		record.Validation = domain.ValidationError
		record.ProcessingError = diag
		return record
	}

	text := strings.TrimSpace(record.RawRule)
	for _, pattern := range db.Matchers() {
		if _, ok := pattern.Matcher.Match(text); !ok {
			continue
		}
		record.MatchedPattern = pattern.Name
		switch {
		case pattern.Dialect == db.Canonical():
			record.Validation = domain.ValidationValid
		case pattern.Template != "":
			record.Validation = domain.ValidationNeedsTranslation
		default:
			record.Validation = domain.ValidationUnsupported
		}
		return record
	}

	record.Validation = domain.ValidationUnsupported
	return record
}

// structuralCheck rejects rule bodies that are malformed before any dialect
// matching can apply. Returns a diagnostic message or "".
func structuralCheck(rawRule string) string {
	text := strings.TrimSpace(rawRule)
	if text == "" {
		return "empty rule body"
	}
	for _, marker := range bareMarkers {
		if text == marker {
			return "rule body is a bare marker: " + marker
		}
	}
	if strings.HasPrefix(text, "@@") && strings.TrimSpace(text[2:]) == "" {
		return "exception marker without a pattern"
	}
	return ""
}
