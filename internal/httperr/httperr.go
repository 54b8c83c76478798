// Package httperr defines the structured error carried from any aborting
// component to the error reporter.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultMessage is reported when an error carries no message of its own.
const DefaultMessage = "Something went wrong"

// Error is an error with the HTTP status and client-facing message to report.
type Error struct {
	Status  int
	Message string
	Cause   error
}

var (
	// ErrCredentialMissing is reported when a protected request carries no token.
	ErrCredentialMissing = New(http.StatusUnauthorized, "Authentication token missing")
	// ErrCredentialInvalid covers malformed, expired or forged tokens and tokens
	// whose principal no longer exists.
	ErrCredentialInvalid = New(http.StatusUnauthorized, "Wrong authentication token")
)

// New creates a new Error.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap creates an Error that keeps cause for logging.
func Wrap(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Cause: cause}
}

func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }
func Forbidden(message string) *Error  { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error   { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error   { return New(http.StatusConflict, message) }

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Cause)
}

// Unwrap returns the root cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same status and message, so wrapped copies of the
// package sentinels compare equal to them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Message == t.Message
}

// As extracts an *Error if present.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// StatusAndMessage resolves what to report for err: zero status becomes 500 and
// an empty message becomes DefaultMessage. Errors that are not *Error report 500.
func StatusAndMessage(err error) (int, string) {
	status, message := http.StatusInternalServerError, DefaultMessage
	if httpErr := As(err); httpErr != nil {
		if httpErr.Status != 0 {
			status = httpErr.Status
		}
		if httpErr.Message != "" {
			message = httpErr.Message
		}
	}
	return status, message
}
