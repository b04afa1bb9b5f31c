package treasuries

import (
	"net/http"
	"strconv"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetTreasuryListRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("", getTreasuryListHandler(s))
}

func getTreasuryListHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		offset, _ := strconv.Atoi(c.QueryParam("offset"))

		list, err := s.Treasury.ListTreasuries(ctx, limit, offset)
		if err != nil {
			return mapServiceError(err)
		}

		response := &types.TreasuryListResponse{
			Treasuries: make([]*types.TreasuryResponse, 0, len(list)),
		}
		for _, t := range list {
			response.Treasuries = append(response.Treasuries, newTreasuryResponse(s, t))
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
