package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for envrt commands.
const (
	ExitSuccess      = 0 // command ran and everything it checked held
	ExitFailure      = 1 // refused clear, invalid fixture, failed scenario
	ExitCommandError = 2 // bad arguments, unreadable fixture, journal or config
)

// ExitError carries the process exit code of a failed command. Commands
// render their own diagnostics before returning one, so main only maps it
// to an exit status.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure when err
// is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as JSON envelopes or as ✓/✗ text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; Writer when nil
	Verbose   bool

	// EnvID is stamped on every JSON envelope once a command has built its
	// environment.
	EnvID string
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	EnvID  string    `json:"env_id,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // fixture E0xx or CLI E2xx
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data as an "ok" envelope, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an "error" envelope, or an "Error [code]" line as text.
// Details are only printed as text in verbose mode.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	resp.EnvID = f.EnvID
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Mark prints a text status line prefixed with ✓ when ok and ✗ otherwise.
func (f *OutputFormatter) Mark(ok bool, format string, args ...any) {
	fmt.Fprintf(f.Writer, marker(ok)+" "+format+"\n", args...)
}

func marker(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// VerboseLog prints to the diagnostic writer in verbose mode only, so JSON
// on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
