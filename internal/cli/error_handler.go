package cli

import (
	stderrors "errors"
	"fmt"

	"timesheet/internal/errors"
	"timesheet/internal/validation"
)

// ErrorHandler provides centralized error handling for command handlers
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle provides user-friendly error messages for validation and other errors
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %s", operation, eh.message(err))
}

// HandleSimple provides user-friendly error messages without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}
	return stderrors.New(eh.message(err))
}

func (eh *ErrorHandler) message(err error) string {
	// Entry checks report every failed field; show the first one
	var ve *validation.ValidationError
	if stderrors.As(err, &ve) {
		if fe, ok := ve.First(); ok {
			return fe.Message
		}
		return ve.Error()
	}

	if errors.IsAppError(err) {
		return errors.GetUserMessage(err)
	}
	return err.Error()
}

// IsValidationError checks if an error is a validation error
func (eh *ErrorHandler) IsValidationError(err error) bool {
	if validation.IsValidationError(err) {
		return true
	}
	return errors.IsErrorType(err, errors.ErrorTypeValidation)
}

// IsNotFoundError checks if an error is a not found error
func (eh *ErrorHandler) IsNotFoundError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeNotFound)
}

// IsLockedError checks if the entry or its period was closed to edits
func (eh *ErrorHandler) IsLockedError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeLockedPeriod)
}

// IsRetryable reports whether re-submitting the same command may succeed
func (eh *ErrorHandler) IsRetryable(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeLockContention) ||
		errors.IsErrorType(err, errors.ErrorTypeTimeout)
}

// GetErrorCode returns the error code for structured errors
func (eh *ErrorHandler) GetErrorCode(err error) string {
	return errors.GetErrorCode(err)
}
