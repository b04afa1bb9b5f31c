package treasuries

import (
	"net/http"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSignRequestListRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID/requests", getSignRequestListHandler(s))
}

func getSignRequestListHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var state *treasury.RequestState
		if raw := c.QueryParam("state"); raw != "" {
			parsed := treasury.RequestState(raw)
			if !parsed.Valid() {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "state must be created, executable or executed")
			}
			state = &parsed
		}

		treasuryID := c.Param("treasuryID")

		t, err := s.Treasury.GetTreasury(ctx, treasuryID)
		if err != nil {
			return mapServiceError(err)
		}

		requests, err := s.Treasury.ListRequests(ctx, treasuryID, state)
		if err != nil {
			return mapServiceError(err)
		}

		response := &types.SignRequestListResponse{
			Requests: make([]*types.SignRequestResponse, 0, len(requests)),
		}
		for _, req := range requests {
			response.Requests = append(response.Requests, newSignRequestResponse(req, t.Threshold))
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
