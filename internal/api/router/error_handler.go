package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// errorHandlerWithConfig returns the echo error handler for the service. It
// maps *httperrors.HTTPError and *httperrors.HTTPValidationError to their
// public payloads, converts plain echo.HTTPErrors and hides everything else
// behind a generic 500.
func errorHandlerWithConfig(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var code int
		var payload interface{}

		switch e := err.(type) {
		case *httperrors.HTTPValidationError:
			code = int(*e.Code)
			payload = &e.PublicHTTPValidationError
			if e.Internal != nil {
				log.Debug().Err(e.Internal).Msg("Validation error internal cause")
			}
		case *httperrors.HTTPError:
			code = int(*e.Code)
			payload = &e.PublicHTTPError
			if e.Internal != nil {
				log.Debug().Err(e.Internal).Msg("HTTP error internal cause")
			}
		case *echo.HTTPError:
			code = e.Code
			title := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok && !hideInternalServerErrorDetails {
				title = msg
			}
			payload = types.NewPublicHTTPError(e.Code, types.PublicHTTPErrorTypeGeneric, title)
		default:
			code = http.StatusInternalServerError
			title := http.StatusText(http.StatusInternalServerError)
			if !hideInternalServerErrorDetails {
				title = err.Error()
			}
			log.Error().Err(err).Msg("Unhandled error in request")
			payload = types.NewPublicHTTPError(code, types.PublicHTTPErrorTypeGeneric, title)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, payload)
		}
		if writeErr != nil {
			log.Error().Err(writeErr).Msg("Failed to write error response")
		}
	}
}
