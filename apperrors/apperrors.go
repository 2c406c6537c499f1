// Package apperrors defines the error kinds surfaced by the ingestion and
// forecasting pipeline and maps each kind to an HTTP status.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindSchema           Kind = "SchemaError"
	KindValidation       Kind = "ValidationError"
	KindInsufficientData Kind = "InsufficientDataError"
	KindNotFound         Kind = "NotFoundError"
	KindResponseFormat   Kind = "ResponseFormatError"
	KindDependency       Kind = "DependencyError"
	KindInternal         Kind = "InternalError"
)

// SchemaError reports a malformed CSV header or an unusable upload.
type SchemaError struct {
	Message  string
	Expected []string
	Found    []string
}

func (e *SchemaError) Error() string { return e.Message }

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MinDataPoints is the hard minimum of historical records for a forecast.
const MinDataPoints = 7

// InsufficientDataError is returned when a product has fewer than
// MinDataPoints sales records.
type InsufficientDataError struct {
	ProductID         string
	CurrentDataPoints int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient historical data for product %s: %d data points, at least %d required",
		e.ProductID, e.CurrentDataPoints, MinDataPoints)
}

// NotFoundError reports an unknown product or forecast. Message, when set,
// is the summary shown to API callers.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ResponseFormatError reports an unparsable or inconsistent payload
// from the generative service.
type ResponseFormatError struct {
	Field string
	err   error
}

func (e *ResponseFormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid forecast response: %s: %v", e.Field, e.err)
	}
	return fmt.Sprintf("invalid forecast response: %v", e.err)
}

func (e *ResponseFormatError) Unwrap() error { return e.err }

// NewResponseFormatError wraps cause, optionally naming the violated field.
func NewResponseFormatError(field string, cause error) error {
	return &ResponseFormatError{Field: field, err: cause}
}

// DependencyError reports a store, blob or model transport failure.
type DependencyError struct {
	Dependency string
	err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dependency, e.err)
}

func (e *DependencyError) Unwrap() error { return e.err }

// NewDependencyError wraps cause as a failure of the named dependency.
// A cause that is already classified is returned unchanged.
func NewDependencyError(dependency string, cause error) error {
	if cause == nil {
		return nil
	}
	if KindOf(cause) != KindInternal {
		return cause
	}
	return &DependencyError{Dependency: dependency, err: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var (
		schema       *SchemaError
		validation   *ValidationError
		insufficient *InsufficientDataError
		notFound     *NotFoundError
		format       *ResponseFormatError
		dependency   *DependencyError
	)
	switch {
	case errors.As(err, &schema):
		return KindSchema
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &insufficient):
		return KindInsufficientData
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &format):
		return KindResponseFormat
	case errors.As(err, &dependency):
		return KindDependency
	default:
		return KindInternal
	}
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindSchema, KindValidation, KindInsufficientData:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
