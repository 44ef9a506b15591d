package translator

import (
	"fmt"
	"strings"

	"filtermerge/internal/domain"
	"filtermerge/internal/syntaxdb"
)

// CommentPrefix is the canonical dialect's comment marker used when wrapping
// untranslatable rules.
const CommentPrefix = "! UNTRANSLATED: "

// Translate resolves a validated record into its final output form. Records
// that are already valid pass through untouched; everything else is rewritten
// or dispositioned according to the strategy. Internal failures are captured
// on the record, never returned.
func Translate(record domain.RuleRecord, db *syntaxdb.Database, strategy domain.Strategy) domain.RuleRecord {
	if record.Kind != domain.KindRule {
		record.Translation = domain.TranslationNotApplicable
		record.Include = record.Kind != domain.KindEmpty
		return record
	}

	switch record.Validation {
	case domain.ValidationValid:
		record.Translation = domain.TranslationNotApplicable
		record.Include = true
		return record
	case domain.ValidationError:
		// Terminal: malformed rules are never translated.
		record.Translation = domain.TranslationNotApplicable
		record.Include = false
		return record
	case domain.ValidationNeedsTranslation, domain.ValidationUnsupported:
	default:
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: unexpected validation status %q", record.Validation)
		record.Include = false
		return record
	}

	if record.Validation == domain.ValidationNeedsTranslation {
		return rewrite(record, db)
	}

	return fallback(record, strategy)
}

// rewrite applies the matched pattern's template to produce canonical text.
func rewrite(record domain.RuleRecord, db *syntaxdb.Database) domain.RuleRecord {
	pattern, ok := findPattern(db, record.MatchedPattern)
	if !ok {
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: pattern %q not found in database", record.MatchedPattern)
		record.Include = false
		return record
	}

	match, ok := pattern.Matcher.Match(strings.TrimSpace(record.RawRule))
	if !ok {
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: rule no longer matches pattern %q", pattern.Name)
		record.Include = false
		return record
	}
	if match.Expand == nil {
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: pattern %q cannot expand templates", pattern.Name)
		record.Include = false
		return record
	}

	rewritten := match.Expand(pattern.Template)
	if strings.TrimSpace(rewritten) == "" {
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: template of pattern %q produced an empty rule", pattern.Name)
		record.Include = false
		return record
	}

	record.RawRule = rewritten
	record.Translation = domain.TranslationTranslated
	record.Include = true
	return record
}

// fallback dispositions a rule without a usable translation path.
func fallback(record domain.RuleRecord, strategy domain.Strategy) domain.RuleRecord {
	switch strategy {
	case domain.StrategyCommentOut:
		record.RawRule = CommentPrefix + record.RawRule
		record.Translation = domain.TranslationFailed
		record.Include = true
	case domain.StrategyDrop:
		record.Translation = domain.TranslationFailed
		record.Include = false
	case domain.StrategyPassthrough:
		record.Translation = domain.TranslationFailed
		record.Include = true
	case domain.StrategyRewrite:
		// Unsupported rules have no template to rewrite with; keep them out.
		record.Translation = domain.TranslationFailed
		record.Include = false
	default:
		record.Translation = domain.TranslationError
		record.ProcessingError = fmt.Sprintf("translate: unknown strategy %q", strategy)
		record.Include = false
	}
	return record
}

func findPattern(db *syntaxdb.Database, name string) (syntaxdb.Pattern, bool) {
	for _, pattern := range db.Matchers() {
		if pattern.Name == name {
			return pattern, true
		}
	}
	return syntaxdb.Pattern{}, false
}
