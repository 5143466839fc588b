package pattern

import "fmt"

// PatternNotFound reports that no start position satisfied a check list.
// CheckIndex is the furthest check any attempt failed on.
type PatternNotFound struct {
	Function   string
	CheckIndex int
}

func (e *PatternNotFound) Error() string {
	return fmt.Sprintf("pattern not found in %s: no match for check %d", e.Function, e.CheckIndex)
}

// VariableNotFound reports a lookup of a capture name that was never bound.
type VariableNotFound struct {
	Function string
	Name     string
}

func (e *VariableNotFound) Error() string {
	return fmt.Sprintf("variable %q not captured in %s", e.Name, e.Function)
}
