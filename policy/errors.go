package policy

import (
	"errors"
	"fmt"
)

// ErrNotApproved is returned when a name does not match any approved
// customer. It depends on the current approved list, not on input shape, so
// it is kept apart from ValidationError.
var ErrNotApproved = errors.New("name is not on the approved customer list")

// ValidationError reports bad or missing input caught before any store call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
