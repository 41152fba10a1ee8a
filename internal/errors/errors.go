package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes classifying every failure a firewall query can produce.
// UNREACHABLE and TIMEOUT are transient and worth retrying; the rest are
// terminal (retrying an auth failure can trigger admin lockouts, and
// retrying a malformed payload won't reshape it).
const (
	ErrConfig       = "CONFIG"
	ErrUnauthorized = "UNAUTHORIZED"
	ErrUnreachable  = "UNREACHABLE"
	ErrTimeout      = "TIMEOUT"
	ErrMalformed    = "MALFORMED"
	ErrRemote       = "REMOTE"
)

// Error represents a structured error with code, message, suggestion,
// and optional cause.
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

// Wrap wraps an existing error with a specific code and message.
func Wrap(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapWithSuggestion wraps an existing error with a code, message, and suggestion.
func WrapWithSuggestion(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewRemote creates a REMOTE error carrying the appliance's own status
// code and message, e.g. an <response status="error"> body.
func NewRemote(code int, message string) *Error {
	return &Error{
		Code:    ErrRemote,
		Message: fmt.Sprintf("firewall rejected the command (code %d): %s", code, message),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Summary renders a one-line "CODE: message" form for tables and logs,
// where the multi-line Error() output would wreck the layout.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code + ": " + perr.Message
	}
	return err.Error()
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code == code
	}
	return false
}

// Code extracts the classification code from an error, or ErrRemote if
// the error is not a structured Error (an unclassified failure is still
// terminal, so the conservative default is a non-retryable code).
func Code(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ErrRemote
}

// IsRetryable reports whether retrying the failed call could succeed.
// Only transient network failures qualify.
func IsRetryable(err error) bool {
	switch Code(err) {
	case ErrUnreachable, ErrTimeout:
		return true
	default:
		return false
	}
}

// Categorize converts a raw transport error into a classified Error.
// The net package does not expose stable sentinel errors for most of
// these conditions, so this matches message substrings the same way the
// connection prober does.
func Categorize(err error, host string) *Error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "timeout") {
		return WrapWithSuggestion(err, ErrTimeout,
			fmt.Sprintf("Request to %s timed out", host),
			"Increase the timeout for this firewall or check its management-plane load.")
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "host is down") {
		return WrapWithSuggestion(err, ErrUnreachable,
			fmt.Sprintf("Cannot reach %s", host),
			"Check the address, port, and network path to the management interface.")
	}

	if strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509") {
		return WrapWithSuggestion(err, ErrUnreachable,
			fmt.Sprintf("TLS verification failed for %s", host),
			"Set verify_tls: false for firewalls with self-signed management certificates.")
	}

	return Wrap(err, ErrUnreachable, fmt.Sprintf("Request to %s failed", host))
}
