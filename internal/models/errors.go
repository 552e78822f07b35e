package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the authentication and extraction phases. Phase code
// wraps these with context; the job manager matches them with errors.Is to
// decide terminal messaging and fallback behavior.
var (
	// ErrLoginFieldNotFound indicates the login form structure changed.
	ErrLoginFieldNotFound = errors.New("login form fields not found")
	// ErrCredentialsRejected indicates the site showed an explicit
	// credential error after submit.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrAuthTimeout indicates a verification challenge was not resolved
	// within the bounded wait.
	ErrAuthTimeout = errors.New("authentication challenge timed out")

	// ErrExportOptionNotFound indicates the export action was missing from
	// the opened menu.
	ErrExportOptionNotFound = errors.New("export option not found in menu")
	// ErrDownloadTimeout indicates no matching file appeared in the download
	// directory within the wait window.
	ErrDownloadTimeout = errors.New("timed out waiting for download")

	// ErrJobNotFound is returned by status lookups for unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrSessionClosed is returned when an operation is attempted on a
	// browser session that has been torn down.
	ErrSessionClosed = errors.New("browser session closed")
)

// ValidationError reports a malformed submission. It is surfaced
// synchronously at submit time and maps to HTTP 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EntryPointNotFoundError indicates every selector strategy for the menu
// entry point was exhausted. Candidates holds the menu/button texts actually
// seen on the page, which is what distinguishes selector drift from the site
// blocking the bot identity.
type EntryPointNotFoundError struct {
	EntryPoint string
	Candidates []string
}

func (e *EntryPointNotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("entry point %q not found, no candidate elements visible", e.EntryPoint)
	}
	return fmt.Sprintf("entry point %q not found, visible candidates: %s",
		e.EntryPoint, strings.Join(e.Candidates, ", "))
}

// IsEntryPointNotFound reports whether err is (or wraps) an
// EntryPointNotFoundError.
func IsEntryPointNotFound(err error) bool {
	var ep *EntryPointNotFoundError
	return errors.As(err, &ep)
}

// DeliveryError wraps an outbound email failure. Delivery is best-effort: a
// failed success-mail does not revert a completed job, and a failed
// failure-notification is logged and swallowed.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
