package construct

import (
	"errors"
	"fmt"
)

// ClearError is returned by Reset when the clear protocol cannot run.
type ClearError struct {
	// Code identifies the error category.
	Code ClearErrorCode

	// Message is a human-readable description.
	Message string

	// EnvironmentID identifies the environment that refused the clear.
	EnvironmentID string
}

// ClearErrorCode categorizes clear errors.
type ClearErrorCode string

const (
	// ErrCodeClearBusy indicates a readiness check reported constructs in use.
	// Recoverable: the environment is untouched and the caller may retry.
	ErrCodeClearBusy ClearErrorCode = "CLEAR_BUSY"

	// ErrCodeReentrantClear indicates Reset was called while a clear was
	// already running on the same environment.
	ErrCodeReentrantClear ClearErrorCode = "REENTRANT_CLEAR"
)

// Error implements the error interface.
func (e *ClearError) Error() string {
	if e.EnvironmentID != "" {
		return fmt.Sprintf("%s: %s (env=%s)", e.Code, e.Message, e.EnvironmentID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsClearBusy reports whether err is a ClearBusy error.
func IsClearBusy(err error) bool {
	var ce *ClearError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeClearBusy
	}
	return false
}

// IsReentrantClear reports whether err is a ReentrantClear error.
func IsReentrantClear(err error) bool {
	var ce *ClearError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeReentrantClear
	}
	return false
}

// NewClearBusyError creates a ClearError for a failed readiness check.
func NewClearBusyError(envID string) *ClearError {
	return &ClearError{
		Code:          ErrCodeClearBusy,
		Message:       "some constructs are still in use",
		EnvironmentID: envID,
	}
}

// NewReentrantClearError creates a ClearError for a nested Reset.
func NewReentrantClearError(envID, phase string) *ClearError {
	return &ClearError{
		Code:          ErrCodeReentrantClear,
		Message:       fmt.Sprintf("clear already in progress (%s)", phase),
		EnvironmentID: envID,
	}
}

// Registry errors.
var (
	ErrDuplicateTeardown       = errors.New("teardown already registered")
	ErrDuplicateReadyCheck     = errors.New("ready check already registered")
	ErrRegistrationDuringClear = errors.New("registration not allowed while a clear is in progress")
	ErrEmptyName               = errors.New("name is empty")
	ErrNilCallback             = errors.New("callback is nil")
)
