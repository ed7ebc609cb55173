package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationErrorType names the check that rejected a field
type ValidationErrorType string

const (
	ErrorTypeRequired      ValidationErrorType = "required"
	ErrorTypeInvalidFormat ValidationErrorType = "invalid_format"
	ErrorTypeInvalidLength ValidationErrorType = "invalid_length"
	ErrorTypeInvalidValue  ValidationErrorType = "invalid_value"
	ErrorTypeInvalidRange  ValidationErrorType = "invalid_range"
	ErrorTypeFutureTime    ValidationErrorType = "future_time"
	ErrorTypeOverlap       ValidationErrorType = "overlap"
	ErrorTypeTooLong       ValidationErrorType = "too_long"
	ErrorTypeNotAllowed    ValidationErrorType = "not_allowed"
)

// FieldError is one rejected field. Value holds the offending input, or the
// conflicting entry for overlaps.
type FieldError struct {
	Field   string
	Type    ValidationErrorType
	Message string
	Value   interface{}
}

func (fe *FieldError) Error() string {
	return fe.Field + ": " + fe.Message
}

// ValidationError collects field errors in the order the checks ran
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return ve.Errors[0].Error()
	}

	parts := make([]string, len(ve.Errors))
	for i := range ve.Errors {
		parts[i] = ve.Errors[i].Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(ve.Errors), strings.Join(parts, "; "))
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// IsValidationError checks if an error is, or wraps, a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// First returns the error of the earliest failed check
func (ve *ValidationError) First() (FieldError, bool) {
	if len(ve.Errors) == 0 {
		return FieldError{}, false
	}
	return ve.Errors[0], true
}

// HasErrors returns true once any check has failed
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Checks lists the failed check types, without duplicates
func (ve *ValidationError) Checks() []ValidationErrorType {
	var checks []ValidationErrorType
	seen := make(map[ValidationErrorType]bool, len(ve.Errors))
	for _, fe := range ve.Errors {
		if !seen[fe.Type] {
			seen[fe.Type] = true
			checks = append(checks, fe.Type)
		}
	}
	return checks
}

func (ve *ValidationError) add(field string, errorType ValidationErrorType, message string, value interface{}) {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Type: errorType, Message: message, Value: value})
}

// AddRequiredError records a missing field
func (ve *ValidationError) AddRequiredError(field string) {
	ve.add(field, ErrorTypeRequired, field+" is required", nil)
}

// AddInvalidFormatError records a value that does not match expected
func (ve *ValidationError) AddInvalidFormatError(field string, value interface{}, expected string) {
	ve.add(field, ErrorTypeInvalidFormat, fmt.Sprintf("%s must be %s", field, expected), value)
}

// AddInvalidLengthError records a string outside [min, max] characters
func (ve *ValidationError) AddInvalidLengthError(field string, value interface{}, min, max int) {
	ve.add(field, ErrorTypeInvalidLength, fmt.Sprintf("%s must be %d to %d characters long", field, min, max), value)
}

// AddInvalidValueError records a value the field does not accept
func (ve *ValidationError) AddInvalidValueError(field string, value interface{}, reason string) {
	ve.add(field, ErrorTypeInvalidValue, field+" "+reason, value)
}

// AddInvalidRangeError records an end that does not follow its start
func (ve *ValidationError) AddInvalidRangeError(field string, value interface{}, message string) {
	ve.add(field, ErrorTypeInvalidRange, message, value)
}

// AddFutureTimeError records a time that has not happened yet
func (ve *ValidationError) AddFutureTimeError(field string, value interface{}, message string) {
	ve.add(field, ErrorTypeFutureTime, message, value)
}

// AddOverlapError records the conflicting entry as the error value
func (ve *ValidationError) AddOverlapError(field string, conflict interface{}, message string) {
	ve.add(field, ErrorTypeOverlap, message, conflict)
}

// AddTooLongError records a span over the configured maximum
func (ve *ValidationError) AddTooLongError(field string, value interface{}, message string) {
	ve.add(field, ErrorTypeTooLong, message, value)
}

// AddNotAllowedError records a reference the parent record does not permit
func (ve *ValidationError) AddNotAllowedError(field string, value interface{}, message string) {
	ve.add(field, ErrorTypeNotAllowed, message, value)
}
