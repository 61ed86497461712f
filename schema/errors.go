package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrValidation is matched by every error returned from Decode for the input,
// only a type that has no valid schema fails Decode with another error.
var ErrValidation = errors.New("invalid input")

// FieldError describes a single violated constraint.
type FieldError struct {
	// Field is the JSON name of the field, empty for the whole input
	Field string `json:"field,omitempty"`
	// Constraint is the name of the violated rule, e.g. required or oneof
	Constraint string `json:"constraint"`
	// Message is a human readable description of the violation
	Message string `json:"message"`
}

// ValidationError is returned when the raw input does not satisfy the schema.
// It enumerates every violated constraint.
type ValidationError struct {
	Errors []FieldError `json:"errors"`

	cause error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Is reports ErrValidation match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Fields returns the names of the fields that failed validation
func (e *ValidationError) Fields() []string {
	var fields []string
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}

// IsValidationError returns true if err is, or wraps, ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError returns ValidationError from err chain, or nil
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
