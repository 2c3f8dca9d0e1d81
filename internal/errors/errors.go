// Package errors provides the structured error types used across docfx:
// DocfxError for hard failures (bad configuration, unreadable resources) and
// Diagnostic for recoverable content problems collected alongside a result.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a docfx error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External resources
	CategoryNetwork    ErrorCategory = "network"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Build and processing errors
	CategoryBuild   ErrorCategory = "build"
	CategoryMoniker ErrorCategory = "moniker"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DocfxError is a structured error with category, retryability, and context
type DocfxError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocfxError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocfxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocfxError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocfxError) WithContext(key string, value any) *DocfxError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocfxError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocfxError {
	return &DocfxError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocfxError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocfxError {
	return &DocfxError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable DocfxError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocfxError {
	return &DocfxError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var de *DocfxError
	if stdErrors.As(err, &de) {
		return de.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var de *DocfxError
	if stdErrors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocfxError
func GetCategory(err error) ErrorCategory {
	var de *DocfxError
	if stdErrors.As(err, &de) {
		return de.Category
	}
	return CategoryInternal
}

// As and Is re-export the standard helpers so callers importing this package
// under the name "errors" keep access to them.
func As(err error, target any) bool { return stdErrors.As(err, target) }

func Is(err, target error) bool { return stdErrors.Is(err, target) }
