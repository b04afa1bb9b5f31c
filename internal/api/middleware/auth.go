package middleware

import (
	"net/http"
	"strings"

	"github.com/kashguard/go-mpc-treasury/internal/api/httperrors"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/types"
	"github.com/labstack/echo/v4"
)

// Auth validates the bearer token on the request and stores the member
// claims on the request context. Membership of a specific treasury is
// checked by the service layer, not here.
func Auth(manager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Missing authorization header")
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Invalid authorization header")
			}

			claims, err := manager.Validate(token)
			if err != nil {
				return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "Invalid or expired token").WithInternal(err)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithMemberClaims(req.Context(), claims)))

			return next(c)
		}
	}
}
