package mgmt

import (
	"context"
	"net/http"
	"time"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
)

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler is the readiness probe. It verifies that the server is
// fully initialized and that postgres and redis answer within a short
// deadline.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := util.LogFromEchoContext(c)

		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := s.DB.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness probe failed to ping database")
			return c.String(http.StatusServiceUnavailable, "Database not ready")
		}

		if err := s.Redis.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Readiness probe failed to ping redis")
			return c.String(http.StatusServiceUnavailable, "Redis not ready")
		}

		return c.String(http.StatusOK, "Ready")
	}
}
