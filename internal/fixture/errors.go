package fixture

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes, shared with the CLI's JSON output.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No CUE files found
	ErrCodeLoadFailed      = "E004" // CUE load failed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build failed
	ErrCodeEmpty           = "E007" // No classes or instances declared
	ErrCodeInvalidClass    = "E101" // Malformed class declaration
	ErrCodeInvalidInstance = "E102" // Malformed instance declaration
	ErrCodeUnknownClass    = "E103" // Reference to an undefined class
	ErrCodeCycle           = "E104" // Superclass cycle
	ErrCodeApplyFailed     = "E105" // Hierarchy rejected a definition
)

// Error is returned by Load, Parse and Apply.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error     // underlying hierarchy error, if any
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the fixture error code of err, or ErrCodeGeneric.
func Code(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrCodeGeneric
}
