package engine

import "fmt"

// ValidationError reports a missing or malformed required field on a create
// or submit operation. Storage-level outcomes (NotFound, Forbidden, the lost
// races) are the sentinel errors in pkg/repository.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: field %q %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
