package gnoerr

import (
	"fmt"
)

// Error is the structured error value carried by every result-returning
// operation.
type Error struct {
	Code       string
	Message    string
	Category   Category
	Severity   Severity
	Details    map[string]string
	Cause      error
	Retryable  bool
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is(err, gnoerr.New(CodeStoreError, "", nil)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a key/value detail and returns the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches an actionable suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// New creates an Error with category/severity/retryable derived from code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     normalizeCause(cause),
		Retryable: isRetryableCode(code),
	}
}

// Wrap builds an Error from an existing error, reusing its message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// maxCauseLen bounds the serialized cause message
// ("Causes are normalized... truncated to 1,000 chars").
const maxCauseLen = 1000

// normalizeCause truncates long causes and tolerates non-standard error values.
func normalizeCause(cause error) error {
	if cause == nil {
		return nil
	}
	msg := cause.Error()
	if len(msg) > maxCauseLen {
		msg = msg[:maxCauseLen]
	}
	return causeString(msg)
}

type causeString string

func (c causeString) Error() string { return string(c) }

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	ae, ok := err.(*Error)
	return ok && ae.Retryable
}

// IsFatal reports whether err is a fatal-severity *Error.
func IsFatal(err error) bool {
	ae, ok := err.(*Error)
	return ok && ae.Severity == SeverityFatal
}

// Code extracts the error code, or "" if err is not an *Error.
func Code(err error) string {
	if ae, ok := err.(*Error); ok {
		return ae.Code
	}
	return ""
}
