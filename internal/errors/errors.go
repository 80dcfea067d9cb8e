// Package errors defines the application error taxonomy used across the pipeline.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidationRejected indicates the guardrail's structural or
	// keyword stage refused a topic.
	ErrCodeValidationRejected ErrorCode = "validation_rejected"
	// ErrCodeModerationRejected indicates the semantic moderation stage
	// refused a topic, including the fail-closed moderation-unavailable case.
	ErrCodeModerationRejected ErrorCode = "moderation_rejected"
	// ErrCodeStageFailure indicates a generation service call failed during
	// research, draft, review or refine.
	ErrCodeStageFailure ErrorCode = "stage_failure"
	// ErrCodeDeliveryFailure indicates the delivery sink rejected the hand-off.
	ErrCodeDeliveryFailure ErrorCode = "delivery_failure"
	// ErrCodeValidation indicates invalid input data at an API boundary.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a structured application error with a code, message, and
// optional cause. It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ValidationRejected creates a guardrail validation rejection error.
func ValidationRejected(message string) *AppError {
	return &AppError{Code: ErrCodeValidationRejected, Message: message}
}

// ModerationRejected creates a guardrail moderation rejection error.
func ModerationRejected(message string) *AppError {
	return &AppError{Code: ErrCodeModerationRejected, Message: message}
}

// StageFailure creates a stage failure error for the named stage.
func StageFailure(stage string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStageFailure,
		Message: stage + " stage failed",
		Cause:   cause,
	}
}

// DeliveryFailure creates a delivery failure error.
func DeliveryFailure(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDeliveryFailure,
		Message: "delivery failed",
		Cause:   cause,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error carries a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidationRejected checks for a guardrail validation rejection.
func IsValidationRejected(err error) bool {
	return isCode(err, ErrCodeValidationRejected)
}

// IsModerationRejected checks for a guardrail moderation rejection.
func IsModerationRejected(err error) bool {
	return isCode(err, ErrCodeModerationRejected)
}

// IsStageFailure checks for a generation stage failure.
func IsStageFailure(err error) bool {
	return isCode(err, ErrCodeStageFailure)
}

// IsDeliveryFailure checks for a delivery failure.
func IsDeliveryFailure(err error) bool {
	return isCode(err, ErrCodeDeliveryFailure)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Classify maps an arbitrary error to a short machine-readable class for
// metric tags and failure reasons.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return string(code)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return string(ErrCodeTimeout)
	case errors.Is(err, context.Canceled):
		return string(ErrCodeCanceled)
	default:
		return string(ErrCodeInternal)
	}
}
