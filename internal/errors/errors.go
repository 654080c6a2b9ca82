package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeTreeNotFound   = "TREE_NOT_FOUND"
	CodeDomainUnknown  = "DOMAIN_UNKNOWN"
	CodeIndexMalformed = "INDEX_MALFORMED"
	CodeEntryMalformed = "ENTRY_MALFORMED"
	CodeVerifyFailed   = "VERIFY_FAILED"
	CodeDepthExceeded  = "DEPTH_EXCEEDED"
	CodeIOFailed       = "IO_FAILED"
)

// LoreError is a structured error with a code and actionable suggestion.
type LoreError struct {
	Code       string // machine-readable code (e.g. TREE_NOT_FOUND)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *LoreError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *LoreError) Unwrap() error {
	return e.Err
}

// New creates a LoreError with the given code and message.
func New(code, message string) *LoreError {
	return &LoreError{Code: code, Message: message}
}

// Wrap creates a LoreError wrapping an existing error.
func Wrap(code, message string, err error) *LoreError {
	return &LoreError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns a copy with the suggestion set.
func (e *LoreError) WithSuggestion(suggestion string) *LoreError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *LoreError) Is(target error) bool {
	var le *LoreError
	if errors.As(target, &le) {
		return e.Code == le.Code
	}
	return false
}

// AsCode extracts the LoreError code from an error, or "" if not a LoreError.
func AsCode(err error) string {
	var le *LoreError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a LoreError.
func Suggestion(err error) string {
	var le *LoreError
	if errors.As(err, &le) {
		return le.Suggestion
	}
	return ""
}
