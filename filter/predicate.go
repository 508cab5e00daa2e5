package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/s0up4200/backloggery/game"
)

// Mode selects how a set of predicates combines
type Mode int

const (
	// MatchAll requires every predicate to hold
	MatchAll Mode = iota
	// MatchAny requires at least one predicate to hold
	MatchAny
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	if m == MatchAny {
		return "any"
	}
	return "all"
}

// ParseMode parses "all" or "any". An empty string means MatchAll.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return MatchAll, nil
	case "any":
		return MatchAny, nil
	default:
		return MatchAll, fmt.Errorf("invalid match mode: %s (must be 'any' or 'all')", s)
	}
}

// ModeFor maps the matchAny flag of a search to a Mode
func ModeFor(matchAny bool) Mode {
	if matchAny {
		return MatchAny
	}
	return MatchAll
}

// Predicate tests one field of a game against a regular expression.
// The pattern must match at the start of the value; it does not have to
// consume the whole value.
type Predicate struct {
	Field   string
	Pattern string
	re      *regexp.Regexp
}

// NewPredicate compiles pattern for field. The pattern is validated on its
// own before it is wrapped, so an unbalanced group cannot escape the anchor.
func NewPredicate(field, pattern string) (Predicate, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return Predicate{}, invalidPattern(field, pattern, err)
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return Predicate{}, invalidPattern(field, pattern, err)
	}
	return Predicate{Field: field, Pattern: pattern, re: re}, nil
}

func invalidPattern(field, pattern string, err error) *CompilationError {
	return &CompilationError{
		Expression: pattern,
		Field:      field,
		Reason:     "invalid regular expression",
		Err:        err,
	}
}

// Match reports whether the game has the field and its text matches.
// Numbers and booleans are matched against their string form; null values
// and nested objects never match.
func (p Predicate) Match(g game.Record) bool {
	v, ok := g.Get(p.Field)
	if !ok {
		return false
	}
	text, ok := v.Text()
	if !ok {
		return false
	}
	return p.re.MatchString(text)
}

// Predicates is a compiled field -> pattern mapping, ordered by field name
type Predicates []Predicate

// CompilePredicates compiles every pattern in m
func CompilePredicates(m map[string]string) (Predicates, error) {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	preds := make(Predicates, 0, len(fields))
	for _, field := range fields {
		p, err := NewPredicate(field, m[field])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// MatchesAll reports whether every predicate matches. True when empty.
func (ps Predicates) MatchesAll(g game.Record) bool {
	for _, p := range ps {
		if !p.Match(g) {
			return false
		}
	}
	return true
}

// MatchesAny reports whether at least one predicate matches. False when empty.
func (ps Predicates) MatchesAny(g game.Record) bool {
	for _, p := range ps {
		if p.Match(g) {
			return true
		}
	}
	return false
}

// String renders the predicates as field=pattern pairs
func (ps Predicates) String() string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Field + "=" + p.Pattern
	}
	return strings.Join(parts, ", ")
}

// MatchesAll compiles predicates and evaluates them against g with all semantics
func MatchesAll(g game.Record, predicates map[string]string) (bool, error) {
	ps, err := CompilePredicates(predicates)
	if err != nil {
		return false, err
	}
	return ps.MatchesAll(g), nil
}

// MatchesAny compiles predicates and evaluates them against g with any semantics
func MatchesAny(g game.Record, predicates map[string]string) (bool, error) {
	ps, err := CompilePredicates(predicates)
	if err != nil {
		return false, err
	}
	return ps.MatchesAny(g), nil
}

// predicateFilter implements CompiledFilter over a predicate set
type predicateFilter struct {
	preds Predicates
	mode  Mode
}

// NewPredicateFilter compiles predicates into a filter combining them with mode
func NewPredicateFilter(predicates map[string]string, mode Mode) (CompiledFilter, error) {
	ps, err := CompilePredicates(predicates)
	if err != nil {
		return nil, err
	}
	return &predicateFilter{preds: ps, mode: mode}, nil
}

func (f *predicateFilter) Match(g game.Record) bool {
	if f.mode == MatchAny {
		return f.preds.MatchesAny(g)
	}
	return f.preds.MatchesAll(g)
}

func (f *predicateFilter) Expression() string {
	return fmt.Sprintf("%s(%s)", f.mode, f.preds)
}

// ParsePredicates decodes a JSON object mapping field names to patterns,
// e.g. {"abbr": "(?i)gcn", "title": "(?i)mario"}.
func ParsePredicates(data string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("invalid predicate mapping: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("invalid predicate mapping: expected a JSON object")
	}
	return m, nil
}

// predicateKey builds a stable cache key for a mapping
func predicateKey(predicates map[string]string, mode Mode) string {
	fields := make([]string, 0, len(predicates))
	for field := range predicates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var sb strings.Builder
	sb.WriteString("pred:")
	sb.WriteString(mode.String())
	for _, field := range fields {
		key, _ := json.Marshal(field)
		val, _ := json.Marshal(predicates[field])
		sb.WriteByte(' ')
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	return sb.String()
}
