package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a rejected request field.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownTimePoint signals an explanation time point without precomputed attributions.
	ErrUnknownTimePoint = errors.New("unknown explanation time point")
	// ErrCurveNotFound signals a missing reference curve.
	ErrCurveNotFound = errors.New("reference curve not found")
	// ErrUnknownCause signals a competing-risk cause the model was not fitted for.
	ErrUnknownCause = errors.New("unknown cause")
	// ErrSchemaMismatch signals disagreeing feature schemas between artifacts.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrModelContract signals a model output that breaks the predictor contract.
	ErrModelContract = errors.New("model contract violation")
)

// ValidationError wraps ErrValidation with the offending field and the violated constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Constraint)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Constraint)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}

// NewValidationErrorf creates a validation error with a formatted constraint.
func NewValidationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Constraint: fmt.Sprintf(format, args...)}
}

// FieldOf returns the field name carried by a ValidationError, or "".
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
