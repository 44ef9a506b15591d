package syntaxdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filtermerge/internal/matcher"
)

func writeDescriptors(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write descriptor %s: %v", name, err)
	}
}

func TestLoadOrdersPatternsByFileThenDeclaration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "20_extra.json", `[
	  {"name":"third","dialect":"ubo","category":"directive","matcher":{"type":"token","expression":"!#include"}}
	]`)
	writeDescriptors(t, dir, "10_base.json", `[
	  {"name":"first","dialect":"brave","category":"network","matcher":{"type":"regex","expression":"\\|\\|[a-z0-9.-]+\\^"}},
	  {"name":"second","dialect":"brave","category":"cosmetic","matcher":{"type":"selector","expression":"##"}}
	]`)

	db, err := Load(dir, "brave", matcher.NewRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if db.Len() != 3 {
		t.Fatalf("expected 3 patterns, got %d", db.Len())
	}

	want := []string{"first", "second", "third"}
	for i, pattern := range db.Matchers() {
		if pattern.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], pattern.Name)
		}
		if pattern.Priority != i {
			t.Fatalf("pattern %s: expected priority %d, got %d", pattern.Name, i, pattern.Priority)
		}
	}
}

func TestLoadFailsOnMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing"), "brave", nil)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadFailsOnMalformedDescriptor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "bad.json", `{"not":"a list"}`)

	if _, err := Load(dir, "brave", nil); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadFailsOnMissingFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "bad.json", `[{"name":"x","matcher":{"type":"token","expression":"y"}}]`)

	if _, err := Load(dir, "brave", nil); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadFailsOnDuplicatePattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "a.json", `[
	  {"name":"dup","dialect":"brave","category":"network","matcher":{"type":"token","expression":"^"}}
	]`)
	writeDescriptors(t, dir, "b.json", `[
	  {"name":"dup","dialect":"brave","category":"network","matcher":{"type":"token","expression":"^"}}
	]`)

	if _, err := Load(dir, "brave", nil); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for conflicting declarations, got %v", err)
	}
}

func TestLoadFailsOnEmptyDirectory(t *testing.T) {
	t.Parallel()

	if _, err := Load(t.TempDir(), "brave", nil); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for empty directory, got %v", err)
	}
}

func TestMatchersForFiltersByCategory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "base.json", `[
	  {"name":"net","dialect":"brave","category":"network","matcher":{"type":"regex","expression":"\\|\\|[a-z0-9.-]+\\^"}},
	  {"name":"cos","dialect":"brave","category":"cosmetic","matcher":{"type":"selector","expression":"##"}}
	]`)

	db, err := Load(dir, "brave", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	network := db.MatchersFor("network")
	if len(network) != 1 || network[0].Name != "net" {
		t.Fatalf("unexpected network patterns: %+v", network)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDescriptors(t, dir, "base.json", `[
	  {"name":"net","dialect":"brave","category":"network","matcher":{"type":"regex","expression":"\\|\\|[a-z0-9.-]+\\^"}}
	]`)

	db, err := Load(dir, "brave", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	clone := db.Clone()
	if clone.Canonical() != db.Canonical() || clone.Len() != db.Len() {
		t.Fatalf("clone differs from original")
	}

	clone.patterns[0].Name = "mutated"
	if db.patterns[0].Name != "net" {
		t.Fatalf("mutating a clone leaked into the original")
	}
}
