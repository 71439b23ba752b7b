package engine

import "fmt"

// ValidationError reports malformed input, raised synchronously before any
// write. Absence of a referenced uuid is not an error: reads return nil, and
// backend failures propagate unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
