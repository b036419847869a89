package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig       = "CONFIG"
	ErrTransport    = "TRANSPORT"
	ErrDecode       = "DECODE"
	ErrRemote       = "REMOTE"
	ErrNotConnected = "NOT_CONNECTED"
	ErrLocalHandler = "LOCAL_HANDLER"
	ErrExport       = "EXPORT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Error() renders it as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrTransport code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewNotConnected is returned by outbound calls attempted while no transport is linked.
func NewNotConnected(method string) *Error {
	return &Error{
		Code:       ErrNotConnected,
		Message:    fmt.Sprintf("Can't call %s, not connected to the probe", method),
		Suggestion: "Retry once the connection is re-established",
	}
}

// NewConnectionLost fails a pending call whose transport went away.
func NewConnectionLost(cause error) *Error {
	return &Error{
		Code:       ErrTransport,
		Message:    "Connection to the probe was lost",
		Suggestion: "The dashboard reconnects automatically; retry the call after it does",
		Cause:      cause,
	}
}

// NewRemote carries the message of an error frame sent back by the peer.
func NewRemote(method, message string) *Error {
	return &Error{
		Code:    ErrRemote,
		Message: fmt.Sprintf("Probe rejected %s", method),
		Cause:   errors.New(message),
	}
}

// NewLocalHandlerFault reports a local handler that failed or panicked while serving the peer.
func NewLocalHandlerFault(method string, cause error) *Error {
	return &Error{
		Code:    ErrLocalHandler,
		Message: fmt.Sprintf("Local handler %s failed", method),
		Cause:   cause,
	}
}

// NewDecode reports a frame that could not be decoded from the stream.
func NewDecode(cause error) *Error {
	return &Error{
		Code:    ErrDecode,
		Message: "Couldn't decode frame from the probe",
		Cause:   cause,
	}
}

// Error implements the error interface with the three-part layout described on Error.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var lsErr *Error
	if errors.As(err, &lsErr) {
		return lsErr.Code == code
	}
	return false
}

// Summary returns the one-line message of a structured error, or err.Error() otherwise.
// Alerts use it so a multi-line error doesn't flood the operator's terminal.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var lsErr *Error
	if errors.As(err, &lsErr) {
		if lsErr.Cause != nil {
			return lsErr.Message + ": " + Summary(lsErr.Cause)
		}
		return lsErr.Message
	}
	return err.Error()
}

// ExitError signals that the process should exit with a specific code
// without printing an additional error message.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError.
func GetExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
