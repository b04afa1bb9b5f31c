package treasuries

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func PostAddPresignsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("/:treasuryID/presigns", postAddPresignsHandler(s))
}

func postAddPresignsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.AddPresignsPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		algo := oracle.SignatureAlgorithm(swag.StringValue(body.Algorithm))
		if !algo.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "algorithm must be ecdsa or taproot")
		}

		t, err := s.Treasury.AddPresigns(ctx, c.Param("treasuryID"), algo, int(swag.Int64Value(body.Count)))
		if err != nil {
			// A partially filled batch still persisted; the error reports how
			// far it got so the caller can top up fees and retry the rest.
			log.Debug().Err(err).Msg("Failed to add presigns")
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newTreasuryResponse(s, t))
	}
}
