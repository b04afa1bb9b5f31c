package treasuries

import (
	"encoding/hex"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func PostCreateTreasuryRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("", postCreateTreasuryHandler(s))
}

func postCreateTreasuryHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.CreateTreasuryPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		publicKey, err := hex.DecodeString(swag.StringValue(body.PublicKey))
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "public_key must be hex encoded")
		}

		curve := oracle.Curve(body.Curve)
		if curve == "" {
			curve = oracle.CurveSecp256k1
		}
		if curve != oracle.CurveSecp256k1 {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "unsupported curve")
		}

		t, err := s.Treasury.CreateTreasury(ctx, treasury.CreateTreasuryParams{
			CapabilityID:    swag.StringValue(body.CapabilityID),
			DWalletID:       swag.StringValue(body.DWalletID),
			PublicKey:       publicKey,
			Curve:           curve,
			Members:         body.Members,
			Threshold:       int(swag.Int64Value(body.Threshold)),
			EncryptionKeyID: body.EncryptionKeyID,

			InitialProtocolFees: body.ProtocolFeesBaseUnits(),
			InitialGasFees:      body.GasFeesBaseUnits(),
		})
		if err != nil {
			log.Debug().Err(err).Msg("Failed to create treasury")
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusCreated, newTreasuryResponse(s, t))
	}
}
