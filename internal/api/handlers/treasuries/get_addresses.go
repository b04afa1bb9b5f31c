package treasuries

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetAddressesRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.GET("/:treasuryID/addresses", getAddressesHandler(s))
}

// getAddressesHandler derives the on-chain addresses controlled by the
// treasury's wallet key.
func getAddressesHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		addrs, err := s.Treasury.Addresses(ctx, c.Param("treasuryID"))
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AddressesResponse{
			EVM:     swag.String(addrs.EVM),
			Taproot: swag.String(addrs.Taproot),
		})
	}
}
