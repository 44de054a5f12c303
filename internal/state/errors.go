package state

import "fmt"

// ValidationError reports a partial update rejected by a module schema. The
// update is dropped and no state is mutated.
type ValidationError struct {
	Module string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid update for module %q: %s", e.Module, e.Reason)
	}
	return fmt.Sprintf("invalid update for module %q: field %q %s", e.Module, e.Field, e.Reason)
}
