// Package errors provides categorized, user-facing errors for the
// ledger engine. Every error carries a category, a stable code, an
// optional suggestion for fixing it, and contextual key/value pairs;
// the CLI maps categories to exit codes.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the subsystem that produced them.
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryGrouping      ErrorCategory = "grouping"
	CategoryProcessing    ErrorCategory = "processing"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFileUnreadable ErrorCode = "file_unreadable"

	// Parse errors (batch-level structural failures)
	CodeMissingHeader ErrorCode = "missing_header"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEmptyBatch    ErrorCode = "empty_batch"
	CodeInvalidFormat ErrorCode = "invalid_format"

	// Validation errors
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeDuplicateLoan ErrorCode = "duplicate_loan"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Grouping / processing errors
	CodeOrphanRow       ErrorCode = "orphan_row"
	CodeProcessingError ErrorCode = "processing_error"
	CodeMatchingFailed  ErrorCode = "matching_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all engine errors.
type EngineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the category to a CLI exit code.
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryGrouping, CategoryProcessing, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds a contextual key/value to the error.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint.
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// stackTracer is the interface pkg/errors values expose.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new EngineError.
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Newf creates a new EngineError with a formatted message.
func Newf(category ErrorCategory, code ErrorCode, format string, args ...interface{}) *EngineError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with engine context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// FileError creates a file-access error.
func FileError(code ErrorCode, path string, err error) *EngineError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("input file not found: %s", path)
		suggestion = "check that the export file path is correct"
	case CodeFileUnreadable:
		message = fmt.Sprintf("input file is not readable: %s", path)
		suggestion = "check file permissions"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := wrapOrNew(err, CategoryFile, code, message)
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// ParseError creates a batch-level structural parse error. These are
// the only failures that abort a whole run.
func ParseError(code ErrorCode, file string, detail string, err error) *EngineError {
	var message, suggestion string
	switch code {
	case CodeMissingHeader:
		message = fmt.Sprintf("no header row found in %s", file)
		suggestion = "the export must start with the fixed header row"
	case CodeMissingColumn:
		message = fmt.Sprintf("required column missing in %s: %s", file, detail)
		suggestion = "verify the export uses the expected column layout version"
	case CodeEmptyBatch:
		message = fmt.Sprintf("no data rows found in %s", file)
		suggestion = "check that the export contains loan rows below the header"
	default:
		message = fmt.Sprintf("parse error in %s: %s", file, detail)
		suggestion = "check the export format"
	}

	result := wrapOrNew(err, CategoryParse, code, message)
	return result.WithSuggestion(suggestion).WithContext("file", file)
}

// ValidationError creates a per-field validation error.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *EngineError {
	var message, suggestion string
	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field %q is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field %q: %v", field, value)
		suggestion = "amounts must be decimal numbers"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field %q: %v", field, value)
		suggestion = "use YYYY-MM-DD dates or spreadsheet day-counts"
	case CodeDuplicateLoan:
		message = fmt.Sprintf("duplicate loan identity: %v", value)
		suggestion = "external id plus loan number must be unique per batch"
	default:
		message = fmt.Sprintf("validation error in field %q: %v", field, value)
		suggestion = "check the field value"
	}

	result := wrapOrNew(err, CategoryValidation, code, message)
	return result.WithSuggestion(suggestion).WithContext("field", field).WithContext("value", value)
}

// ConfigurationError creates a configuration error.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *EngineError {
	var message, suggestion string
	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for %q: %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting via flag, environment, or config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check the configuration"
	}

	result := wrapOrNew(err, CategoryConfiguration, code, message)
	return result.WithSuggestion(suggestion).WithContext("setting", setting)
}

// ProcessingError creates a per-record processing error. The pipeline
// attaches these to the record instead of aborting the batch.
func ProcessingError(code ErrorCode, identity string, err error) *EngineError {
	var message, suggestion string
	switch code {
	case CodeMatchingFailed:
		message = fmt.Sprintf("schedule matching failed for loan %s", identity)
		suggestion = "inspect the loan's schedule and ledger for malformed entries"
	default:
		message = fmt.Sprintf("processing failed for loan %s", identity)
		suggestion = "the record was emitted with a processing-error marker"
	}

	result := wrapOrNew(err, CategoryProcessing, code, message)
	return result.WithSuggestion(suggestion).WithContext("loan", identity)
}

// InternalError creates an internal error.
func InternalError(operation string, err error) *EngineError {
	result := wrapOrNew(err, CategoryInternal, CodeUnexpectedError,
		fmt.Sprintf("unexpected error during %s", operation))
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

func wrapOrNew(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// ErrorSummary aggregates multiple errors for batch reporting.
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*EngineError        `json:"errors"`
}

// NewErrorSummary builds a summary from collected errors.
func NewErrorSummary(errs []*EngineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	for _, e := range errs {
		summary.ByCategory[e.Category]++
		summary.ByCode[e.Code]++
	}
	return summary
}

// Error returns a formatted message for the summary.
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}
	if es.Total == 1 {
		return es.Errors[0].Error()
	}
	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// GetExitCode returns the highest-priority exit code among the errors.
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}
	maxCode := 1
	for _, e := range es.Errors {
		if code := e.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}
	return maxCode
}

// IsEngineError checks whether an error is an EngineError.
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}
