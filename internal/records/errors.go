package records

import (
	"errors"
	"fmt"
)

// MissingFieldError reports a required record field that was absent
// from the source document. Construction never proceeds past the first
// missing field.
type MissingFieldError struct {
	Record string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %q missing", e.Record, e.Field)
}

// IsMissingField checks if an error is a missing-required-field error
func IsMissingField(err error) bool {
	var m *MissingFieldError
	return errors.As(err, &m)
}
