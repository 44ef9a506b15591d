package domain

import "time"

// RecordKind classifies a parsed line from a source list.
type RecordKind string

const (
	KindRule     RecordKind = "rule"
	KindComment  RecordKind = "comment"
	KindMetadata RecordKind = "metadata"
	KindEmpty    RecordKind = "empty"
)

// ValidationStatus is the outcome of classifying a rule against the syntax database.
type ValidationStatus string

const (
	ValidationUnknown          ValidationStatus = "unknown"
	ValidationValid            ValidationStatus = "valid"
	ValidationNeedsTranslation ValidationStatus = "needs_translation"
	ValidationUnsupported      ValidationStatus = "unsupported"
	ValidationError            ValidationStatus = "error"
)

// TranslationStatus is the outcome of resolving a non-valid rule.
type TranslationStatus string

const (
	TranslationNotApplicable TranslationStatus = "not_applicable"
	TranslationTranslated    TranslationStatus = "translated"
	TranslationFailed        TranslationStatus = "failed"
	TranslationError         TranslationStatus = "error"
)

// Strategy selects the fallback applied to rules that cannot be rewritten.
type Strategy string

const (
	StrategyRewrite     Strategy = "rewrite"
	StrategyCommentOut  Strategy = "comment_out_untranslatable"
	StrategyDrop        Strategy = "drop"
	StrategyPassthrough Strategy = "passthrough"
)

// ValidStrategy reports whether s is one of the defined strategies.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyRewrite, StrategyCommentOut, StrategyDrop, StrategyPassthrough:
		return true
	}
	return false
}

// RuleRecord is the unit of work: one line from a source list, owned by
// whichever stage currently processes it and handed off by value.
type RuleRecord struct {
	RawRule      string
	ListName     string
	LineNumber   int
	OriginalLine string
	Kind         RecordKind

	// MetaKey/MetaValue carry `! Key: value` header lines.
	MetaKey   string
	MetaValue string

	Validation      ValidationStatus
	Translation     TranslationStatus
	ProcessingError string

	// MatchedPattern names the syntax pattern that decided the outcome.
	MatchedPattern string

	// Include marks the record for inclusion in the generated list.
	Include bool
}

// ListSource identifies one upstream filter list.
type ListSource struct {
	Name string
	URL  string
}

// ListPayload is the raw download result for one list. A failed download
// carries Err and empty content; the batch itself never fails on one list.
type ListPayload struct {
	Name    string
	URL     string
	Content string
	Err     error
}

// RunReport captures per-run statistics for the audit repository.
type RunReport struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	Lists        int
	TotalRules   int
	Valid        int
	Translated   int
	CommentedOut int
	Dropped      int
	Errors       int
	OutputFile   string
	Strategy     Strategy
}
