package validator

import (
	"os"
	"path/filepath"
	"testing"

	"filtermerge/internal/domain"
	"filtermerge/internal/syntaxdb"
)

const fixtureDescriptors = `[
  {"name":"brave-network","dialect":"brave","category":"network",
   "matcher":{"type":"regex","expression":"@{0,2}\\|\\|[a-z0-9.-]+\\^(\\$[a-z,=|~-]+)?"}},
  {"name":"brave-cosmetic","dialect":"brave","category":"cosmetic",
   "matcher":{"type":"selector","expression":"##"}},
  {"name":"adguard-extended-contains","dialect":"adguard","category":"cosmetic",
   "matcher":{"type":"regex","expression":"(?P<domains>[^#]*)#\\?#(?P<selector>.+?):contains\\((?P<arg>.+)\\)"},
   "template":"${domains}##${selector}:has-text(${arg})"},
  {"name":"adguard-replace","dialect":"adguard","category":"network",
   "matcher":{"type":"token","expression":"$replace="}}
]`

func testDB(t *testing.T) *syntaxdb.Database {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "patterns.json"), []byte(fixtureDescriptors), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	db, err := syntaxdb.Load(dir, "brave", nil)
	if err != nil {
		t.Fatalf("load fixture database: %v", err)
	}
	return db
}

func ruleRecord(raw string) domain.RuleRecord {
	return domain.RuleRecord{
		RawRule:      raw,
		ListName:     "testlist",
		LineNumber:   1,
		OriginalLine: raw,
		Kind:         domain.KindRule,
		Validation:   domain.ValidationUnknown,
		Translation:  domain.TranslationNotApplicable,
	}
}

func TestValidateCanonicalRule(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	got := Validate(ruleRecord("||example.com^"), db)
	if got.Validation != domain.ValidationValid {
		t.Fatalf("expected valid, got %s (%s)", got.Validation, got.ProcessingError)
	}
	if got.MatchedPattern != "brave-network" {
		t.Fatalf("unexpected matched pattern: %s", got.MatchedPattern)
	}
	if got.RawRule != "||example.com^" {
		t.Fatalf("rule text must be unchanged, got %s", got.RawRule)
	}
}

func TestValidateForeignRuleWithTemplate(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	got := Validate(ruleRecord("example.com#?#div:contains(ad)"), db)
	if got.Validation != domain.ValidationNeedsTranslation {
		t.Fatalf("expected needs_translation, got %s", got.Validation)
	}
	if got.MatchedPattern != "adguard-extended-contains" {
		t.Fatalf("unexpected matched pattern: %s", got.MatchedPattern)
	}
}

func TestValidateForeignRuleWithoutTemplate(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	got := Validate(ruleRecord("||ads.example.com^$replace=/x/y/"), db)
	if got.Validation != domain.ValidationUnsupported {
		t.Fatalf("expected unsupported, got %s", got.Validation)
	}
	if got.MatchedPattern != "adguard-replace" {
		t.Fatalf("unexpected matched pattern: %s", got.MatchedPattern)
	}
}

func TestValidateUnmatchedRule(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	got := Validate(ruleRecord("some_random_garbage"), db)
	if got.Validation != domain.ValidationUnsupported {
		t.Fatalf("expected unsupported, got %s", got.Validation)
	}
	if got.MatchedPattern != "" {
		t.Fatalf("expected no matched pattern, got %s", got.MatchedPattern)
	}
}

func TestValidateMalformedRule(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	for _, raw := range []string{"", "   ", "@@", "##"} {
		got := Validate(ruleRecord(raw), db)
		if got.Validation != domain.ValidationError {
			t.Fatalf("rule %q: expected error, got %s", raw, got.Validation)
		}
		if got.ProcessingError == "" {
			t.Fatalf("rule %q: expected a diagnostic", raw)
		}
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	record := ruleRecord("example.com#?#div:contains(ad)")
	first := Validate(record, db)
	second := Validate(record, db)

	if first != second {
		t.Fatalf("validation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestValidateNeverRegressesToUnknown(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	record := Validate(ruleRecord("||example.com^"), db)
	again := Validate(record, db)
	if again.Validation != domain.ValidationValid {
		t.Fatalf("re-validation changed status to %s", again.Validation)
	}
}

func TestValidatePassesThroughNonRules(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	record := domain.RuleRecord{
		Kind:         domain.KindComment,
		OriginalLine: "! a comment",
		Validation:   domain.ValidationUnknown,
	}
	got := Validate(record, db)
	if got.Validation != domain.ValidationValid {
		t.Fatalf("expected passthrough valid, got %s", got.Validation)
	}
	if got.Translation != domain.TranslationNotApplicable {
		t.Fatalf("expected not_applicable, got %s", got.Translation)
	}
}
