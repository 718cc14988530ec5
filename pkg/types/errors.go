// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a conversion failure. Each category maps to
// exactly one process exit code.
type ErrorCategory string

const (
	// ErrUserAbort means the user declined to proceed at a confirmation gate.
	ErrUserAbort ErrorCategory = "user_abort"

	// ErrFile covers missing, unreadable, or unwritable filesystem paths.
	ErrFile ErrorCategory = "file"

	// ErrPDF covers failures inside the PDF access layer: corrupt documents,
	// encryption, pages that cannot be parsed.
	ErrPDF ErrorCategory = "pdf"

	// ErrState covers a corrupt, incompatible, or structurally invalid
	// conversion state record, including lock contention.
	ErrState ErrorCategory = "state"

	// ErrDependency covers missing or failing external tools.
	ErrDependency ErrorCategory = "dependency"
)

// ExitCode returns the process exit code for the category.
func (c ErrorCategory) ExitCode() int {
	switch c {
	case ErrUserAbort:
		return 1
	case ErrFile:
		return 2
	case ErrPDF:
		return 3
	case ErrState:
		return 4
	case ErrDependency:
		return 5
	default:
		return 1
	}
}

// ConvertError is a categorized, user-facing conversion error. Message is
// shown to the user; Remediation, when set, is a concrete command or action
// that addresses the failure.
type ConvertError struct {
	Category    ErrorCategory
	Message     string
	Remediation string
	Err         error
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ConvertError) Unwrap() error { return e.Err }

// NewError builds a ConvertError in the given category wrapping cause
// (which may be nil).
func NewError(cat ErrorCategory, cause error, format string, args ...any) *ConvertError {
	return &ConvertError{
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
		Err:      cause,
	}
}

// WithRemediation returns the error with a suggested remediation attached.
func (e *ConvertError) WithRemediation(format string, args ...any) *ConvertError {
	e.Remediation = fmt.Sprintf(format, args...)
	return e
}

// CategoryOf returns the category of err, or ErrFile when err carries no
// ConvertError in its chain. Returns an empty category for nil.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	var ce *ConvertError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrFile
}

// ExitCodeOf maps err to its process exit code: 0 for nil, the category
// code otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	return CategoryOf(err).ExitCode()
}
