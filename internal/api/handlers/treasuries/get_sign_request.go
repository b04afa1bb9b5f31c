package treasuries

import (
	"net/http"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSignRequestRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID/requests/:requestID", getSignRequestHandler(s))
}

func getSignRequestHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		requestID, err := util.ParseUint64Param(c, "requestID")
		if err != nil {
			return err
		}

		treasuryID := c.Param("treasuryID")

		t, err := s.Treasury.GetTreasury(ctx, treasuryID)
		if err != nil {
			return mapServiceError(err)
		}

		req, err := s.Treasury.GetRequest(ctx, treasuryID, requestID)
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newSignRequestResponse(req, t.Threshold))
	}
}
