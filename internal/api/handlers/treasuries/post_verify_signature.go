package treasuries

import (
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

func PostVerifySignatureRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("/:treasuryID/verify-signature", postVerifySignatureHandler(s))
}

// postVerifySignatureHandler checks a completed signature against the
// treasury's wallet key. The check is purely local; a signature that does
// not even parse is a negative result, not an error.
func postVerifySignatureHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.VerifySignaturePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		algo := oracle.SignatureAlgorithm(swag.StringValue(body.Algorithm))
		if !algo.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "algorithm must be ecdsa or taproot")
		}
		hash := oracle.HashScheme(swag.StringValue(body.HashScheme))
		if !hash.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "hash_scheme must be sha256 or keccak256")
		}

		t, err := s.Treasury.GetTreasury(ctx, c.Param("treasuryID"))
		if err != nil {
			return mapServiceError(err)
		}

		valid, err := treasury.VerifySignature(t.PublicKey, []byte(*body.Message), []byte(*body.Signature), algo, hash)
		if err != nil {
			log.Debug().Err(err).Msg("Signature did not verify")
			valid = false
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.VerifySignatureResponse{Valid: swag.Bool(valid)})
	}
}
