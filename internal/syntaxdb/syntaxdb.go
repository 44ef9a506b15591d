package syntaxdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"filtermerge/internal/matcher"
)

// ErrLoad marks fatal syntax-database construction failures.
var ErrLoad = errors.New("syntax database load")

// Descriptor is one pattern entry as declared in a JSON descriptor file.
type Descriptor struct {
	Name     string       `json:"name"`
	Dialect  string       `json:"dialect"`
	Category string       `json:"category"`
	Matcher  matcher.Spec `json:"matcher"`
	Template string       `json:"template,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

// Pattern is a compiled, immutable syntax pattern.
type Pattern struct {
	Name     string
	Dialect  string
	Category string
	Matcher  matcher.Matcher
	Template string
	Notes    string
	// Priority is the declaration-order rank: descriptor files in lexical
	// filename order, entries in declaration order within each file.
	Priority int
}

// Database indexes compiled patterns for ordered lookup. It is read-only
// after Load and safe to share across goroutines.
type Database struct {
	canonical string
	patterns  []Pattern
}

// Load reads every *.json descriptor file under dir, compiles the matchers
// and assigns priorities. canonicalDialect names the target output dialect.
func Load(dir, canonicalDialect string, registry *matcher.Registry) (*Database, error) {
	if registry == nil {
		registry = matcher.NewRegistry()
	}
	if canonicalDialect == "" {
		return nil, fmt.Errorf("%w: canonical dialect is empty", ErrLoad)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: patterns directory %s: %v", ErrLoad, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrLoad, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read patterns directory %s: %v", ErrLoad, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	// Lexical order keeps priorities stable across runs and platforms.
	sort.Strings(files)

	db := &Database{canonical: canonicalDialect}
	seen := map[string]string{}

	for _, name := range files {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
		}

		var descriptors []Descriptor
		if err := json.Unmarshal(raw, &descriptors); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrLoad, path, err)
		}

		for i, d := range descriptors {
			if d.Name == "" || d.Dialect == "" || d.Category == "" {
				return nil, fmt.Errorf("%w: %s entry %d: name, dialect and category are required", ErrLoad, name, i)
			}

			key := d.Dialect + "/" + d.Category + "/" + d.Name
			if origin, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: pattern %s in %s conflicts with declaration in %s", ErrLoad, key, name, origin)
			}
			seen[key] = name

			m, err := registry.Compile(d.Matcher)
			if err != nil {
				return nil, fmt.Errorf("%w: pattern %s in %s: %v", ErrLoad, d.Name, name, err)
			}

			db.patterns = append(db.patterns, Pattern{
				Name:     d.Name,
				Dialect:  d.Dialect,
				Category: d.Category,
				Matcher:  m,
				Template: d.Template,
				Notes:    d.Notes,
				Priority: len(db.patterns),
			})
		}
	}

	if len(db.patterns) == 0 {
		return nil, fmt.Errorf("%w: no pattern descriptors found in %s", ErrLoad, dir)
	}

	return db, nil
}

// Canonical returns the target output dialect.
func (db *Database) Canonical() string {
	return db.canonical
}

// Matchers returns all patterns in fixed priority order. Callers must not
// mutate the returned slice.
func (db *Database) Matchers() []Pattern {
	return db.patterns
}

// MatchersFor returns the patterns of one category in priority order.
func (db *Database) MatchersFor(category string) []Pattern {
	var out []Pattern
	for _, p := range db.patterns {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Len reports the number of loaded patterns.
func (db *Database) Len() int {
	return len(db.patterns)
}

// Clone returns an independent database instance for a worker. The compiled
// matchers are stateless and shared; the pattern slice is copied so workers
// never alias mutable state.
func (db *Database) Clone() *Database {
	patterns := make([]Pattern, len(db.patterns))
	copy(patterns, db.patterns)
	return &Database{canonical: db.canonical, patterns: patterns}
}
