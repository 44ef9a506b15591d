package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filtermerge/internal/domain"
)

func includedRule(list string, line int, raw string) domain.RuleRecord {
	return domain.RuleRecord{
		RawRule:    raw,
		ListName:   list,
		LineNumber: line,
		Kind:       domain.KindRule,
		Validation: domain.ValidationValid,
		Include:    true,
	}
}

func TestWriteRendersHeaderRulesAndCommentedSection(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out", "list.txt")
	g := New(out, "Test List", "0.1", nil)

	records := []domain.RuleRecord{
		includedRule("a", 1, "||beta.example^"),
		includedRule("a", 2, "||alpha.example^"),
		{
			RawRule:     "! UNTRANSLATED: weird-rule",
			ListName:    "a",
			LineNumber:  3,
			Kind:        domain.KindRule,
			Validation:  domain.ValidationUnsupported,
			Translation: domain.TranslationFailed,
			Include:     true,
		},
		{
			Kind:      domain.KindMetadata,
			ListName:  "a",
			MetaKey:   "title",
			MetaValue: "Source List",
		},
	}

	if err := g.Write(records); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(raw)

	if !strings.HasPrefix(content, "! Title: Test List\n! Version: 0.1\n") {
		t.Fatalf("unexpected header:\n%s", content)
	}
	if !strings.Contains(content, "! Rule Count: 2 unique rules") {
		t.Fatalf("missing rule count:\n%s", content)
	}
	if !strings.Contains(content, "!  - Source List (from a)") {
		t.Fatalf("missing original title:\n%s", content)
	}

	alpha := strings.Index(content, "||alpha.example^")
	beta := strings.Index(content, "||beta.example^")
	if alpha == -1 || beta == -1 || alpha > beta {
		t.Fatalf("active rules missing or unsorted:\n%s", content)
	}

	section := strings.Index(content, "--- UNTRANSLATED RULES ---")
	commented := strings.Index(content, "! UNTRANSLATED: weird-rule")
	if section == -1 || commented == -1 || commented < section {
		t.Fatalf("commented section misplaced:\n%s", content)
	}
}

func TestWriteSkipsExcludedAndDeduplicates(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "list.txt")
	g := New(out, "Test List", "0.1", nil)

	records := []domain.RuleRecord{
		includedRule("a", 1, "||dup.example^"),
		includedRule("b", 9, "||dup.example^"),
		{
			RawRule:     "||dropped.example^$replace=/x/y/",
			ListName:    "a",
			LineNumber:  2,
			Kind:        domain.KindRule,
			Validation:  domain.ValidationUnsupported,
			Translation: domain.TranslationFailed,
			Include:     false,
		},
		{
			RawRule:         "",
			ListName:        "a",
			LineNumber:      3,
			Kind:            domain.KindRule,
			Validation:      domain.ValidationError,
			ProcessingError: "empty rule body",
			Include:         false,
		},
	}

	if err := g.Write(records); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(raw)

	if strings.Count(content, "||dup.example^") != 1 {
		t.Fatalf("duplicate rule not deduplicated:\n%s", content)
	}
	if strings.Contains(content, "dropped.example") {
		t.Fatalf("excluded rule leaked into output:\n%s", content)
	}
	if !strings.Contains(content, "! Rule Count: 1 unique rules") {
		t.Fatalf("unexpected rule count:\n%s", content)
	}
}
