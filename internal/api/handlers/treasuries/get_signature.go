package treasuries

import (
	"net/http"
	"time"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

// maxSignatureWait caps the long-poll duration a client may request.
const maxSignatureWait = 60 * time.Second

func GetSignatureRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID/requests/:requestID/signature", getSignatureHandler(s))
}

func getSignatureHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		requestID, err := util.ParseUint64Param(c, "requestID")
		if err != nil {
			return err
		}

		var wait time.Duration
		if raw := c.QueryParam("wait"); raw != "" {
			wait, err = time.ParseDuration(raw)
			if err != nil || wait < 0 {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "wait must be a duration such as 5s")
			}
			if wait > maxSignatureWait {
				wait = maxSignatureWait
			}
		}

		result, err := s.Treasury.GetSignature(ctx, c.Param("treasuryID"), requestID, wait)
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newSignatureResponse(result))
	}
}
