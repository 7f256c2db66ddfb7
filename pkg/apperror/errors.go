// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details. It also
// distinguishes user-visible errors (surfaced as ephemeral replies) from
// internal ones (logged, apologised for).
package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Flow network
	CodeNilNetwork            ErrorCode = "NIL_NETWORK"
	CodeEdgeNotFound          ErrorCode = "EDGE_NOT_FOUND"
	CodeNegativeCapacity      ErrorCode = "NEGATIVE_CAPACITY"
	CodeNegativeFlow          ErrorCode = "NEGATIVE_FLOW"
	CodeCapacityExceeded      ErrorCode = "CAPACITY_EXCEEDED"
	CodeConservationViolation ErrorCode = "CONSERVATION_VIOLATION"
	CodeFlowImbalance         ErrorCode = "FLOW_IMBALANCE"
	CodeSourceEqualsSink      ErrorCode = "SOURCE_EQUALS_SINK"

	// Solver
	CodeTimeout    ErrorCode = "TIMEOUT"
	CodePhaseLimit ErrorCode = "PHASE_LIMIT"
	CodeCanceled   ErrorCode = "CANCELED"

	// Exchange lifecycle
	CodeOverlappingExchanges ErrorCode = "OVERLAPPING_EXCHANGES"
	CodeNoRunningExchange    ErrorCode = "NO_RUNNING_EXCHANGE"
	CodeExchangeNotFound     ErrorCode = "EXCHANGE_NOT_FOUND"
	CodeInvalidState         ErrorCode = "INVALID_STATE"

	// Submissions
	CodeLinkTaken    ErrorCode = "LINK_TAKEN"
	CodeNotSubmitted ErrorCode = "NOT_SUBMITTED"

	// Input validation
	CodeInvalidLink     ErrorCode = "INVALID_LINK"
	CodeInvalidDateTime ErrorCode = "INVALID_DATETIME"
	CodeInvalidDuration ErrorCode = "INVALID_DURATION"
	CodeInvalidSlug     ErrorCode = "INVALID_SLUG"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput        ErrorCode = "NIL_INPUT"

	// Infrastructure
	CodeDatabase ErrorCode = "DATABASE_ERROR"
	CodePlatform ErrorCode = "PLATFORM_ERROR"
	CodeCooldown ErrorCode = "COOLDOWN"
	CodeNotFound ErrorCode = "NOT_FOUND"
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a user-visible condition: surfaced to the
	// invoking user verbatim, never logged at error level.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard internal error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new application error with the given code and message.
// The default severity is SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWithField creates a new application error with the given code, message, and field.
// The default severity is SeverityError.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Field:    field,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewUser creates a new user-visible error (SeverityWarning). Its message is
// shown to the invoking user as an ephemeral reply.
func NewUser(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityWarning,
	}
}

// NewUserf creates a new user-visible error with a formatted message.
func NewUserf(code ErrorCode, format string, args ...any) *Error {
	return NewUser(code, fmt.Sprintf(format, args...))
}

// NewCritical creates a new application error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityCritical,
	}
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
// The default severity is SeverityError.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error and returns the modified error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsUserError reports whether err should be surfaced to the invoking user
// as-is instead of being logged as a failure. User errors carry SeverityWarning.
func IsUserError(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// UserMessage returns the text to show the invoking user for err. User errors
// surface their own message; everything else gets the generic apology with
// the underlying message appended.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Severity == SeverityWarning {
		return appErr.Message
	}
	return fmt.Sprintf("Sorry, there was an internal error while executing your command: %s", err.Error())
}

// IsCritical checks if the given error is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Predefined errors for common scenarios.
var (
	ErrNilNetwork       = New(CodeNilNetwork, "flow network is nil")
	ErrSourceEqualsSink = New(CodeSourceEqualsSink, "source and sink cannot be the same vertex")
	ErrEdgeNotFound     = New(CodeEdgeNotFound, "edge not found in network")
	ErrTimeout          = New(CodeTimeout, "operation timed out")
	ErrCanceled         = New(CodeCanceled, "operation canceled")
	ErrPhaseLimit       = New(CodePhaseLimit, "phase limit exceeded")
)

// ValidationErrors is a collection of application errors and warnings,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors   []*Error // Errors contains all collected errors (SeverityError and SeverityCritical).
	Warnings []*Error // Warnings contains all collected warnings (SeverityWarning).
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends an *Error to the appropriate slice (Errors or Warnings)
// based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError creates and adds a new application error with SeverityError.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddErrorf creates and adds a new application error with a formatted message.
func (v *ValidationErrors) AddErrorf(code ErrorCode, format string, args ...any) {
	v.Errors = append(v.Errors, New(code, fmt.Sprintf(format, args...)))
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// AddWarning creates and adds a new application error with SeverityWarning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewUser(code, message))
}

// HasErrors returns true if the collection contains any errors (non-warning severity).
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings returns true if the collection contains any warnings.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid returns true if the collection contains no errors (warnings do not affect validity).
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// Merge combines the current ValidationErrors collection with another one.
// All errors and warnings from the 'other' collection are appended to the current one.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// ErrorMessages returns a slice of string messages for all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// WarningMessages returns a slice of string messages for all collected warnings.
func (v *ValidationErrors) WarningMessages() []string {
	messages := make([]string, len(v.Warnings))
	for i, warn := range v.Warnings {
		messages[i] = warn.Message
	}
	return messages
}

// AsError flattens the collection into a single error, or nil when valid.
func (v *ValidationErrors) AsError() error {
	if !v.HasErrors() {
		return nil
	}
	if len(v.Errors) == 1 {
		return v.Errors[0]
	}
	first := v.Errors[0]
	return New(first.Code, fmt.Sprintf("%s (and %d more)", first.Message, len(v.Errors)-1))
}
