package util

import (
	"net/http"
	"strconv"

	openapierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/types"
)

// BindAndValidateBody binds the request body to v and runs its validation,
// converting any failure into a public HTTPValidationError.
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unsupported binder configured")
	}

	if err := binder.BindBody(c, v); err != nil {
		return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "Failed to parse request body", err.Error())
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates the response payload before writing it,
// guarding against the service leaking a half-populated response.
func ValidateAndReturn(c echo.Context, code int, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return err
	}
	return c.JSON(code, v)
}

// ParseUint64Param parses a numeric path parameter, rejecting anything that
// is not a plain base-10 unsigned integer.
func ParseUint64Param(c echo.Context, name string) (uint64, error) {
	raw := c.Param(name)
	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "Invalid "+name+" parameter")
	}
	return val, nil
}

func validatePayload(c echo.Context, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		var details []*types.PublicHTTPValidationErrorDetail

		switch e := err.(type) {
		case *openapierrors.CompositeError:
			details = flattenCompositeError(e)
		case *openapierrors.Validation:
			details = append(details, validationDetail(e))
		default:
			details = append(details, &types.PublicHTTPValidationErrorDetail{
				Key:   swag.String("body"),
				In:    swag.String("body"),
				Error: swag.String(err.Error()),
			})
		}

		LogFromEchoContext(c).Debug().Errs("validation_errors", []error{err}).Msg("Payload validation failed")

		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "Payload validation failed", details)
	}

	return nil
}

func flattenCompositeError(composite *openapierrors.CompositeError) []*types.PublicHTTPValidationErrorDetail {
	var details []*types.PublicHTTPValidationErrorDetail

	for _, err := range composite.Errors {
		switch e := err.(type) {
		case *openapierrors.CompositeError:
			details = append(details, flattenCompositeError(e)...)
		case *openapierrors.Validation:
			details = append(details, validationDetail(e))
		default:
			details = append(details, &types.PublicHTTPValidationErrorDetail{
				Key:   swag.String("body"),
				In:    swag.String("body"),
				Error: swag.String(err.Error()),
			})
		}
	}

	return details
}

func validationDetail(v *openapierrors.Validation) *types.PublicHTTPValidationErrorDetail {
	return &types.PublicHTTPValidationErrorDetail{
		Key:   swag.String(v.Name),
		In:    swag.String(v.In),
		Error: swag.String(v.Error()),
	}
}
