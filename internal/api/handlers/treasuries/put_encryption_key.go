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

func PutEncryptionKeyRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Treasuries.PUT("/:treasuryID/encryption-key", putEncryptionKeyHandler(s))
}

func putEncryptionKeyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		member, err := auth.MemberFromEchoContext(c)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Missing member identity").WithInternal(err)
		}

		var body types.RotateEncryptionKeyPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		t, err := s.Treasury.RotateEncryptionKey(ctx, c.Param("treasuryID"), member, swag.StringValue(body.EncryptionKeyID))
		if err != nil {
			log.Debug().Err(err).Msg("Failed to rotate encryption key")
			return mapServiceError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, newTreasuryResponse(s, t))
	}
}
