package objsys

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes object system errors.
type ErrorCode string

const (
	// ErrCodeInvalidClassHandle indicates a class handle or name not present in the hierarchy.
	ErrCodeInvalidClassHandle ErrorCode = "INVALID_CLASS_HANDLE"

	// ErrCodeInvalidInstanceHandle indicates an instance handle not present in the arena.
	ErrCodeInvalidInstanceHandle ErrorCode = "INVALID_INSTANCE_HANDLE"

	// ErrCodeDuplicateClass indicates a class name that is already defined.
	ErrCodeDuplicateClass ErrorCode = "DUPLICATE_CLASS"

	// ErrCodeDuplicateInstance indicates a live instance with the same name exists.
	ErrCodeDuplicateInstance ErrorCode = "DUPLICATE_INSTANCE"

	// ErrCodeInvalidName indicates an empty construct name.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"
)

// Error is returned by Hierarchy operations.
type Error struct {
	Code    ErrorCode
	Message string

	// Name is the class or instance name involved, when known.
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidClassHandle reports whether err is an invalid class handle error.
func IsInvalidClassHandle(err error) bool {
	return hasCode(err, ErrCodeInvalidClassHandle)
}

// IsInvalidInstanceHandle reports whether err is an invalid instance handle error.
func IsInvalidInstanceHandle(err error) bool {
	return hasCode(err, ErrCodeInvalidInstanceHandle)
}

// IsDuplicate reports whether err is a duplicate class or instance error.
func IsDuplicate(err error) bool {
	return hasCode(err, ErrCodeDuplicateClass) || hasCode(err, ErrCodeDuplicateInstance)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func invalidClass(id ClassID) *Error {
	return &Error{
		Code:    ErrCodeInvalidClassHandle,
		Message: fmt.Sprintf("class handle %d not in hierarchy", id),
	}
}

func unknownClass(name string) *Error {
	return &Error{
		Code:    ErrCodeInvalidClassHandle,
		Message: "class not defined",
		Name:    name,
	}
}

func invalidInstance(id InstanceID) *Error {
	return &Error{
		Code:    ErrCodeInvalidInstanceHandle,
		Message: fmt.Sprintf("instance handle %d not in arena", id),
	}
}
