package filter

import (
	"github.com/s0up4200/backloggery/game"
)

// Filter decides whether a game belongs in a search result
type Filter interface {
	// Match checks if a game matches the filter criteria
	Match(g game.Record) bool
}

// FilterFunc adapts a plain function to the Filter interface
type FilterFunc func(g game.Record) bool

// Match calls f(g)
func (f FilterFunc) Match(g game.Record) bool {
	return f(g)
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns a readable form of the filter
	Expression() string
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	// Compile compiles an expr expression
	Compile(expression string) (CompiledFilter, error)

	// CompilePredicates compiles a field -> pattern mapping
	CompilePredicates(predicates map[string]string, mode Mode) (CompiledFilter, error)

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
