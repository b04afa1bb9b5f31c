// Package httperrors carries typed HTTP errors from handlers and services to
// the echo error handler, which renders them as types.PublicHTTPError
// payloads. Handlers never write error JSON themselves.
package httperrors

import (
	"fmt"

	"github.com/kashguard/go-mpc-treasury/internal/types"
)

// HTTPError wraps a public error payload with optional internal context that
// is logged but never sent to the client.
type HTTPError struct {
	types.PublicHTTPError

	Internal       error
	AdditionalData map[string]interface{}
}

// NewHTTPError creates an HTTPError with the given status, public type and
// title.
func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: *types.NewPublicHTTPError(code, errorType, title),
	}
}

// NewHTTPErrorWithDetail additionally sets the public detail string.
func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	e := NewHTTPError(code, errorType, title)
	e.Detail = detail
	return e
}

// WithInternal attaches an internal error for logging.
func (e *HTTPError) WithInternal(err error) *HTTPError {
	e.Internal = err
	return e
}

func (e *HTTPError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("HTTPError %d (%s): %s, internal: %v", *e.Code, *e.Type, *e.Title, e.Internal)
	}
	return fmt.Sprintf("HTTPError %d (%s): %s", *e.Code, *e.Type, *e.Title)
}

// HTTPValidationError carries field-level validation failures.
type HTTPValidationError struct {
	types.PublicHTTPValidationError

	Internal error
}

// NewHTTPValidationError creates an HTTPValidationError with the given
// status, public type, title and field details.
func NewHTTPValidationError(code int, errorType string, title string, validationErrors []*types.PublicHTTPValidationErrorDetail) *HTTPValidationError {
	return &HTTPValidationError{
		PublicHTTPValidationError: types.PublicHTTPValidationError{
			PublicHTTPError:  *types.NewPublicHTTPError(code, errorType, title),
			ValidationErrors: validationErrors,
		},
	}
}

func (e *HTTPValidationError) Error() string {
	return fmt.Sprintf("HTTPValidationError %d (%s): %s (%d fields)", *e.Code, *e.Type, *e.Title, len(e.ValidationErrors))
}
