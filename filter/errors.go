package filter

import (
	"fmt"
)

// CompilationError indicates a pattern or expression could not be compiled
type CompilationError struct {
	Expression string
	Field      string // set for predicate patterns
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("compilation error for field '%s' pattern '%s': %s", e.Field, e.Expression, e.Reason)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}
