package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Reps error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrNoActiveWorkout ErrorCode = "NO_ACTIVE_WORKOUT" // 409
	ErrCancelled       ErrorCode = "CANCELLED"         // 499
	ErrInternal        ErrorCode = "INTERNAL"          // 500
)

// RepsError represents a structured error with code, status, and details.
type RepsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *RepsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *RepsError {
	return &RepsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing entity of the given kind
// ("exercise", "session", "result").
func NewNotFound(kind, id string) *RepsError {
	return &RepsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *RepsError {
	return &RepsError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoActiveWorkout creates a 409 error for workout commands issued with no
// workout in progress. The engine itself never returns it; surfaces do.
func NewNoActiveWorkout() *RepsError {
	return &RepsError{
		Code:    ErrNoActiveWorkout,
		Status:  409,
		Message: "no workout in progress",
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(op string) *RepsError {
	return &RepsError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *RepsError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &RepsError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a RepsError with the given code.
func Is(err error, code ErrorCode) bool {
	var rErr *RepsError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}
