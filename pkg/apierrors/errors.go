// Package apierrors defines the error taxonomy the evaluation service uses to
// separate caller mistakes, data-quality check failures, and unexpected
// evaluation failures, and to map each to the transport status code that
// carries it to the outside world.
package apierrors

import (
	"fmt"
	"time"
)

// Kind identifies which row of the error-handling table an error belongs to.
type Kind int

const (
	// KindParse is raised by the goal-algebra parser on malformed expressions.
	KindParse Kind = iota
	// KindValidation is raised by request-schema or experiment-invariant checks.
	KindValidation
	// KindCheck is raised when a single data-quality check throws during evaluation.
	KindCheck
	// KindEvaluation is raised on unexpected failure inside metric computation.
	KindEvaluation
	// KindUpstream is raised when the data collaborator fails.
	KindUpstream
)

// String returns the machine-readable name used in logs and error codes.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindValidation:
		return "ValidationError"
	case KindCheck:
		return "CheckError"
	case KindEvaluation:
		return "EvaluationError"
	case KindUpstream:
		return "UpstreamError"
	default:
		return "UnknownError"
	}
}

// BaseError carries the fields common to every error kind the service raises.
type BaseError struct {
	Kind      Kind
	Code      string
	Message   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a piece of structured context to the error.
func (e *BaseError) WithDetail(key string, value interface{}) *BaseError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause attaches an underlying cause.
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

func newBase(kind Kind, code, message string) *BaseError {
	return &BaseError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ParseError is raised by pkg/expr when an expression does not match the
// goal-algebra grammar, or by pkg/goal on malformed GoalRef components.
type ParseError struct {
	*BaseError
	Input string
}

// NewParseError builds a ParseError for the given offending input.
func NewParseError(reason, input string) *ParseError {
	return &ParseError{
		BaseError: newBase(KindParse, "PARSE_ERROR", reason),
		Input:     input,
	}
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return e.BaseError.Error()
	}
	return fmt.Sprintf("%s (input: %q)", e.BaseError.Error(), e.Input)
}

// ValidationError is raised on request-schema or experiment-invariant violations.
// It surfaces as HTTP 422.
type ValidationError struct {
	*BaseError
	Field       string
	FieldErrors map[string][]string
}

// NewValidationError builds a ValidationError.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{
		BaseError:   newBase(KindValidation, code, message),
		FieldErrors: make(map[string][]string),
	}
}

func (e *ValidationError) Error() string {
	base := e.BaseError.Error()
	if e.Field != "" {
		base = fmt.Sprintf("%s (field: %s)", base, e.Field)
	}
	return base
}

// WithField records which field failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// AddFieldError records a field-specific validation message.
func (e *ValidationError) AddFieldError(field, message string) *ValidationError {
	e.FieldErrors[field] = append(e.FieldErrors[field], message)
	return e
}

// HasFieldErrors reports whether any field-specific errors were recorded.
func (e *ValidationError) HasFieldErrors() bool {
	return len(e.FieldErrors) > 0
}

// CheckError is raised when a single SRM/SumRatio check throws during
// evaluation. It never fails the whole request: the orchestrator logs it,
// increments a counter, and omits that check from the result.
type CheckError struct {
	*BaseError
	CheckID string
}

// NewCheckError builds a CheckError for the named check.
func NewCheckError(checkID, message string) *CheckError {
	return &CheckError{
		BaseError: newBase(KindCheck, "CHECK_ERROR", message),
		CheckID:   checkID,
	}
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s (check: %s)", e.BaseError.Error(), e.CheckID)
}

// EvaluationError is raised on unexpected failure inside metric computation.
// It surfaces as HTTP 500 and no partial results are emitted.
type EvaluationError struct {
	*BaseError
	MetricID string
}

// NewEvaluationError builds an EvaluationError.
func NewEvaluationError(metricID, message string) *EvaluationError {
	return &EvaluationError{
		BaseError: newBase(KindEvaluation, "EVALUATION_ERROR", message),
		MetricID:  metricID,
	}
}

func (e *EvaluationError) Error() string {
	if e.MetricID == "" {
		return e.BaseError.Error()
	}
	return fmt.Sprintf("%s (metric: %s)", e.BaseError.Error(), e.MetricID)
}

// UpstreamError is raised when the data collaborator fails. It surfaces as HTTP 500.
type UpstreamError struct {
	*BaseError
}

// NewUpstreamError builds an UpstreamError.
func NewUpstreamError(message string) *UpstreamError {
	return &UpstreamError{BaseError: newBase(KindUpstream, "UPSTREAM_ERROR", message)}
}

// KindOf extracts the Kind carried by err, if any, defaulting to KindEvaluation
// for errors this package doesn't recognise (so an unexpected failure always
// maps to a 500 rather than being silently swallowed).
func KindOf(err error) (Kind, bool) {
	switch e := err.(type) {
	case *ParseError:
		return e.Kind, true
	case *ValidationError:
		return e.Kind, true
	case *CheckError:
		return e.Kind, true
	case *EvaluationError:
		return e.Kind, true
	case *UpstreamError:
		return e.Kind, true
	case *BaseError:
		return e.Kind, true
	default:
		return KindEvaluation, false
	}
}
