package treasuries

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func PostFundRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("/:treasuryID/fund", postFundHandler(s))
}

func postFundHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.FundTreasuryPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		token := treasury.FeeToken(swag.StringValue(body.Token))
		if !token.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "token must be protocol or gas")
		}

		t, err := s.Treasury.Fund(ctx, c.Param("treasuryID"), token, body.AmountBaseUnits())
		if err != nil {
			log.Debug().Err(err).Msg("Failed to fund treasury")
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newTreasuryResponse(s, t))
	}
}
