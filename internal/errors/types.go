// Package errors defines the typed errors used across the site and the
// suggestion-carrying errors the CLI prints when startup fails.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeBot        ErrorType = "bot"
	ErrorTypeRelay      ErrorType = "relay"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeIncompleteForm  = "ERR_INCOMPLETE_FORM"
	ErrCodeHoneypot        = "ERR_HONEYPOT"
	ErrCodeRelayStatus     = "ERR_RELAY_STATUS"
	ErrCodeRelayTransport  = "ERR_RELAY_TRANSPORT"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeAssetDiscovery  = "ERR_ASSET_DISCOVERY"
	ErrCodeArchive         = "ERR_ARCHIVE"
	ErrCodeUnknownField    = "ERR_UNKNOWN_FIELD"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeInvalidOrigin   = "ERR_INVALID_ORIGIN"
	ErrCodeInvalidPath     = "ERR_INVALID_PATH"
	ErrCodeSessionClosed   = "ERR_SESSION_CLOSED"
	ErrCodeMalformedEvent  = "ERR_MALFORMED_EVENT"
	ErrCodeContentDocument = "ERR_CONTENT_DOCUMENT"
)

// SiteError is a structured error type with context.
type SiteError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code.
func (e *SiteError) Is(target error) bool {
	var t *SiteError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SiteError) WithContext(key string, value interface{}) *SiteError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SiteError {
	return &SiteError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewBotError creates the error reported for honeypot hits.
func NewBotError(message string) *SiteError {
	return &SiteError{
		Type:        ErrorTypeBot,
		Code:        ErrCodeHoneypot,
		Message:     message,
		Recoverable: true,
	}
}

// NewRelayError creates an email relay error. Relay failures are recoverable:
// the draft survives and the user may retry.
func NewRelayError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:        ErrorTypeRelay,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SiteError {
	return &SiteError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// TypeOf returns the ErrorType of err, or "" for foreign errors.
func TypeOf(err error) ErrorType {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Type
	}

	return ""
}

// Detail returns the innermost human readable message: the cause's text when
// present, the error's own message otherwise. The contact flow shows this to
// users, so it must not carry codes.
func Detail(err error) string {
	var se *SiteError
	if errors.As(err, &se) {
		if se.Cause != nil {
			return Detail(se.Cause)
		}
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
