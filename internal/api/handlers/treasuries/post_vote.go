package treasuries

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func PostVoteRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.POST("/:treasuryID/requests/:requestID/votes", postVoteHandler(s))
}

func postVoteHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		member, err := auth.MemberFromEchoContext(c)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Missing member identity").WithInternal(err)
		}

		requestID, err := util.ParseUint64Param(c, "requestID")
		if err != nil {
			return err
		}

		var body types.VotePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		treasuryID := c.Param("treasuryID")

		req, err := s.Treasury.Vote(ctx, treasuryID, requestID, member, swag.BoolValue(body.Approve))
		if err != nil {
			log.Debug().Err(err).Str("treasury_id", treasuryID).Uint64("request_id", requestID).Msg("Failed to vote")
			return mapServiceError(err)
		}

		t, err := s.Treasury.GetTreasury(ctx, treasuryID)
		if err != nil {
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newSignRequestResponse(req, t.Threshold))
	}
}
