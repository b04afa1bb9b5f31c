package treasuries

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func PostCreateSignRequestRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("/:treasuryID/requests", postCreateSignRequestHandler(s))
}

func postCreateSignRequestHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		member, err := auth.MemberFromEchoContext(c)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Missing member identity").WithInternal(err)
		}

		var body types.CreateSignRequestPayload
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

		treasuryID := c.Param("treasuryID")

		req, err := s.Treasury.CreateRequest(ctx, treasury.CreateRequestParams{
			TreasuryID: treasuryID,
			Proposer:   member,
			Message:    []byte(*body.Message),
			Algorithm:  algo,
			Hash:       hash,
		})
		if err != nil {
			log.Debug().Err(err).Str("treasury_id", treasuryID).Msg("Failed to create sign request")
			return mapServiceError(err)
		}

		t, err := s.Treasury.GetTreasury(ctx, treasuryID)
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusCreated, newSignRequestResponse(req, t.Threshold))
	}
}
