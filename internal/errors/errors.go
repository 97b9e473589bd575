// Package errors provides centralized error handling with component and category metadata
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation  ErrorCategory = "validation"
	CategoryVideoSource ErrorCategory = "video-source"
	CategoryAudioSource ErrorCategory = "audio-source"
	CategoryEncode      ErrorCategory = "clip-encode"
	CategoryBuffer      ErrorCategory = "frame-buffer"
	CategoryState       ErrorCategory = "state"
	CategoryFileIO      ErrorCategory = "file-io"
	CategoryDiskUsage   ErrorCategory = "disk-usage"
	CategoryDiskCleanup ErrorCategory = "disk-cleanup"
	CategoryMQTT        ErrorCategory = "mqtt"
	CategoryConfig      ErrorCategory = "configuration"
	CategoryGeneric     ErrorCategory = "generic"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the original error for errors.Is/As compatibility
func (e *EnhancedError) Unwrap() error {
	return e.Err
}

// GetComponent returns the component, or ComponentUnknown if unset
func (e *EnhancedError) GetComponent() string {
	if e.Component == "" {
		return ComponentUnknown
	}
	return e.Component
}

// GetContext returns a copy of the context map
func (e *EnhancedError) GetContext() map[string]any {
	if e.Context == nil {
		return nil
	}
	c := make(map[string]any, len(e.Context))
	maps.Copy(c, e.Context)
	return c
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping the given error
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error with enhanced context
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	category := eb.category
	if category == "" {
		category = CategoryGeneric
	}

	return &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// NewStd creates a plain error without enhancement, for sentinel values
// that participate in errors.Is comparisons.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// HasCategory checks whether err carries the given category anywhere in its chain
func HasCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category == category
	}
	return false
}
