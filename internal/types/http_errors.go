package types

import (
	"encoding/json"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// Well-known public error types returned to API consumers. They are part of
// the API contract and safe to switch on client-side.
const (
	PublicHTTPErrorTypeGeneric          = "generic"
	PublicHTTPErrorTypeNotFound         = "not_found"
	PublicHTTPErrorTypeConflict         = "conflict"
	PublicHTTPErrorTypeForbidden        = "forbidden"
	PublicHTTPErrorTypeRetryable        = "retryable"
	PublicHTTPErrorTypeValidationFailed = "validation_failed"
)

// PublicHTTPError is the wire shape of every error response.
type PublicHTTPError struct {
	// HTTP status code
	Code *int64 `json:"code"`
	// Machine-readable error type
	Type *string `json:"type"`
	// Human-readable title
	Title *string `json:"title"`
	// Optional free-form detail
	Detail string `json:"detail,omitempty"`
}

// Validate validates this public HTTP error.
func (e *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if e.Code == nil {
		res = append(res, errors.Required("code", "body", nil))
	}
	if e.Type == nil {
		res = append(res, errors.Required("type", "body", nil))
	}
	if e.Title == nil {
		res = append(res, errors.Required("title", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// NewPublicHTTPError constructs a fully populated public error.
func NewPublicHTTPError(code int, errorType string, title string) *PublicHTTPError {
	return &PublicHTTPError{
		Code:  swag.Int64(int64(code)),
		Type:  swag.String(errorType),
		Title: swag.String(title),
	}
}

// PublicHTTPValidationError extends PublicHTTPError with per-field detail.
type PublicHTTPValidationError struct {
	PublicHTTPError

	ValidationErrors []*PublicHTTPValidationErrorDetail `json:"validation_errors"`
}

// PublicHTTPValidationErrorDetail names one invalid field.
type PublicHTTPValidationErrorDetail struct {
	Key   *string `json:"key"`
	In    *string `json:"in"`
	Error *string `json:"error"`
}

// Validate validates this public HTTP validation error detail.
func (d *PublicHTTPValidationErrorDetail) Validate(formats strfmt.Registry) error {
	var res []error

	if d.Key == nil {
		res = append(res, errors.Required("key", "body", nil))
	}
	if d.In == nil {
		res = append(res, errors.Required("in", "body", nil))
	}
	if d.Error == nil {
		res = append(res, errors.Required("error", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// String renders the error for logs.
func (e *PublicHTTPError) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return "PublicHTTPError: failed to marshal"
	}
	return string(b)
}
