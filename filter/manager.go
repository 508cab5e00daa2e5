package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/backloggery/game"
)

// Preset is a named, reusable search. Exactly one of Fields or Expression is set.
type Preset struct {
	Fields     map[string]string
	Mode       Mode
	Expression string
}

// Manager holds compiled presets by name
type Manager struct {
	compiler  *Compiler
	evaluator *ConcurrentEvaluator
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler *Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator *ConcurrentEvaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler:  NewCompiler(),
		evaluator: NewConcurrentEvaluator(),
		filters:   make(map[string]CompiledFilter),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Compile turns a preset into a filter
func (m *Manager) Compile(p Preset) (CompiledFilter, error) {
	switch {
	case p.Expression != "" && len(p.Fields) > 0:
		return nil, fmt.Errorf("preset sets both fields and expression")
	case p.Expression != "":
		return m.compiler.Compile(p.Expression)
	case len(p.Fields) > 0:
		return m.compiler.CompilePredicates(p.Fields, p.Mode)
	default:
		return nil, fmt.Errorf("preset sets neither fields nor expression")
	}
}

// RegisterPreset registers a new preset or updates an existing one
func (m *Manager) RegisterPreset(name string, p Preset) error {
	filter, err := m.Compile(p)
	if err != nil {
		return fmt.Errorf("failed to compile preset '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()

	return nil
}

// RegisterPresets registers multiple presets at once. Nothing is registered
// if any of them fails to compile.
func (m *Manager) RegisterPresets(presets map[string]Preset) error {
	compiled := make(map[string]CompiledFilter, len(presets))

	for name, p := range presets {
		filter, err := m.Compile(p)
		if err != nil {
			return fmt.Errorf("failed to compile preset '%s': %w", name, err)
		}
		compiled[name] = filter
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// UnregisterPreset removes a preset
func (m *Manager) UnregisterPreset(name string) {
	m.mu.Lock()
	delete(m.filters, name)
	m.mu.Unlock()
}

// GetPreset returns a compiled preset by name
func (m *Manager) GetPreset(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[name]
	m.mu.RUnlock()
	return filter, exists
}

// ListPresets returns all registered preset names, sorted
func (m *Manager) ListPresets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.filters))
	for name := range m.filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EvaluatePreset evaluates a single registered preset
func (m *Manager) EvaluatePreset(ctx context.Context, name string, games []game.Record) ([]game.Record, error) {
	filter, exists := m.GetPreset(name)
	if !exists {
		return nil, fmt.Errorf("preset '%s' not found", name)
	}

	return m.evaluator.Evaluate(ctx, filter, games)
}
