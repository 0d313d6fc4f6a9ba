package entities

import "fmt"

// ValidationError reports a caller-level constraint violation. The store
// itself never produces these; callers run Validate before saving.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
