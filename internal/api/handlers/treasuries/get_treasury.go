package treasuries

import (
	"net/http"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetTreasuryRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID", getTreasuryHandler(s))
}

func getTreasuryHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		t, err := s.Treasury.GetTreasury(ctx, c.Param("treasuryID"))
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newTreasuryResponse(s, t))
	}
}
