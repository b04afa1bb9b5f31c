package mgmt

import (
	"net/http"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/labstack/echo/v4"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// getHealthyHandler is the liveness probe. It answers as long as the
// process can serve HTTP at all; dependency state is the readiness
// probe's concern.
func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}
}
