package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Spec describes a matcher as declared in a pattern descriptor file.
type Spec struct {
	Type       string `json:"type"`
	Expression string `json:"expression"`
}

// Match is the result of applying a matcher to rule text.
type Match struct {
	// Captures holds regex submatches (index 0 is the full match); empty for
	// token and selector matchers.
	Captures []string
	// Expand rewrites a template using the captures of this match.
	Expand func(template string) string
}

// Matcher recognizes whether rule text belongs to a dialect/category.
type Matcher interface {
	Kind() string
	Match(ruleText string) (Match, bool)
}

// Factory compiles a matcher from a descriptor expression.
type Factory func(expression string) (Matcher, error)

// Registry maps matcher kind names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds a registry preloaded with the built-in matcher kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("regex", newRegexMatcher)
	r.Register("token", newTokenMatcher)
	r.Register("selector", newSelectorMatcher)
	return r
}

// Register adds or replaces a matcher factory.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Compile resolves the factory for spec.Type and builds the matcher.
func (r *Registry) Compile(spec Spec) (Matcher, error) {
	factory, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("matcher kind %q is not registered", spec.Type)
	}
	if strings.TrimSpace(spec.Expression) == "" {
		return nil, fmt.Errorf("matcher kind %q requires an expression", spec.Type)
	}
	return factory(spec.Expression)
}

type regexMatcher struct {
	re *regexp.Regexp
}

func newRegexMatcher(expression string) (Matcher, error) {
	// Anchor to the whole rule body, mirroring fullmatch semantics.
	if !strings.HasPrefix(expression, "^") {
		expression = "^" + expression
	}
	if !strings.HasSuffix(expression, "$") {
		expression += "$"
	}
	re, err := regexp.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile regex matcher: %w", err)
	}
	return &regexMatcher{re: re}, nil
}

func (m *regexMatcher) Kind() string { return "regex" }

func (m *regexMatcher) Match(ruleText string) (Match, bool) {
	text := strings.TrimSpace(ruleText)
	idx := m.re.FindStringSubmatchIndex(text)
	if idx == nil {
		return Match{}, false
	}
	captures := make([]string, 0, m.re.NumSubexp()+1)
	for i := 0; i <= m.re.NumSubexp(); i++ {
		if idx[2*i] < 0 {
			captures = append(captures, "")
			continue
		}
		captures = append(captures, text[idx[2*i]:idx[2*i+1]])
	}
	expand := func(template string) string {
		return string(m.re.ExpandString(nil, template, text, idx))
	}
	return Match{Captures: captures, Expand: expand}, true
}

type tokenMatcher struct {
	token string
}

func newTokenMatcher(expression string) (Matcher, error) {
	return &tokenMatcher{token: expression}, nil
}

func (m *tokenMatcher) Kind() string { return "token" }

func (m *tokenMatcher) Match(ruleText string) (Match, bool) {
	if !strings.Contains(ruleText, m.token) {
		return Match{}, false
	}
	return Match{}, true
}

// selectorMatcher recognizes cosmetic rules whose separator matches the
// configured marker and whose CSS selector part actually parses.
type selectorMatcher struct {
	marker string
}

func newSelectorMatcher(expression string) (Matcher, error) {
	if !strings.Contains(expression, "#") {
		return nil, fmt.Errorf("selector matcher marker %q is not a cosmetic separator", expression)
	}
	return &selectorMatcher{marker: expression}, nil
}

func (m *selectorMatcher) Kind() string { return "selector" }

func (m *selectorMatcher) Match(ruleText string) (Match, bool) {
	text := strings.TrimSpace(ruleText)
	before, after, found := strings.Cut(text, m.marker)
	if !found || after == "" {
		return Match{}, false
	}
	// Scriptlet and HTML-filter bodies are not CSS selectors.
	if strings.HasPrefix(after, "+js(") || strings.HasPrefix(after, "^") {
		return Match{}, false
	}
	if _, err := cascadia.ParseGroup(after); err != nil {
		return Match{}, false
	}
	captures := []string{text, before, after}
	return Match{Captures: captures}, true
}
