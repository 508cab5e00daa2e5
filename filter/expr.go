package filter

import (
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/backloggery/game"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		} else {
			c.cache = nil
		}
	}
}

// WithCustomFunctions adds custom helper functions to expressions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler compiles expressions and predicate mappings into filters
type Compiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

var _ CachingCompiler = (*Compiler)(nil)

// NewCompiler creates a compiler. Caching is enabled with 100 entries unless
// overridden with WithCache.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: createHelperFunctions(),
		cache:       newLRUCache(100),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expr expression into an executable filter. Record
// fields are available as variables by name; unknown names evaluate to nil.
func (c *Compiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	key := "expr:" + expression
	if cached, ok := c.lookup(key); ok {
		return cached, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
	}
	c.store(key, filter)

	return filter, nil
}

// CompilePredicates compiles a field -> pattern mapping combined with mode
func (c *Compiler) CompilePredicates(predicates map[string]string, mode Mode) (CompiledFilter, error) {
	key := predicateKey(predicates, mode)
	if cached, ok := c.lookup(key); ok {
		return cached, nil
	}

	filter, err := NewPredicateFilter(predicates, mode)
	if err != nil {
		return nil, err
	}
	c.store(key, filter)

	return filter, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

func (c *Compiler) lookup(key string) (CompiledFilter, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Compiler) store(key string, filter CompiledFilter) {
	if c.cache != nil {
		c.cache.Put(key, filter)
	}
}

// Match evaluates the expression against a game
func (f *exprFilter) Match(g game.Record) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(g))
	if err != nil {
		// a runtime error (e.g. comparing a string to a number) skips the game
		return false
	}

	matched, ok := result.(bool)
	return ok && matched
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds all helper functions to the provided map
func addHelperFunctions(env map[string]any) {
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["has"] = func(string) bool { return false }
	env["Game"] = map[string]any{}
}

// createRuntimeEnvironment exposes a game's fields to an expression
func createRuntimeEnvironment(g game.Record) map[string]any {
	fields := g.Map()

	env := make(map[string]any, len(fields)+16)
	addHelperFunctions(env)
	for name, value := range fields {
		env[name] = value
	}

	env["has"] = g.Has
	env["Game"] = fields

	return env
}
