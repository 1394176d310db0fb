package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// UpstreamError is returned when the completion service answers with a non-success status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.Status, truncate(e.Body, 512))
}

// EmptyResponseError means the completion call succeeded but carried no content.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string { return "No response content" }

// MalformedResponseError means the model output could not be turned into bill candidates.
type MalformedResponseError struct {
	Reason string
	Cause  error
}

const (
	ReasonInvalidJSON   = "Invalid JSON response from AI"
	ReasonMissingBills  = "Invalid response format: missing bills array"
	ReasonInvalidRecord = "Invalid response format: bill failed schema validation"
)

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// AuthRequiredError is a reconciliation precondition failure: no user in context.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string { return "You must be logged in to import bills" }

func (e *AuthRequiredError) Is(target error) bool { return target == ErrUnauthorized }

// NoSelectionError is a reconciliation precondition failure: nothing selected to commit.
type NoSelectionError struct{}

func (e *NoSelectionError) Error() string { return "Please select at least one bill to import" }

// PersistenceError wraps a per-item failure during commit.
type PersistenceError struct {
	Index int
	Name  string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save bill %d (%q): %v", e.Index, e.Name, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// IsExtractionFailure reports whether err came from the completion call or from parsing its output.
func IsExtractionFailure(err error) bool {
	var (
		up *UpstreamError
		em *EmptyResponseError
		mf *MalformedResponseError
	)
	return errors.As(err, &up) || errors.As(err, &em) || errors.As(err, &mf)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
