package router

import (
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/handlers"
	"github.com/kashguard/go-mpc-treasury/internal/api/middleware"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Init attaches the echo instance, the middleware stack and all routes to
// the server. It must run after wire has assembled the components and
// before Start.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.HTTPErrorHandler = errorHandlerWithConfig(s.Config.Echo.HideInternalServerErrorDetails)

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())
	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger())

	s.Router = &api.Router{
		Routes: nil, // populated by handlers.AttachAllRoutes(s)

		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),

		// Every treasury route requires a valid member token. Whether the
		// caller is a member of the addressed treasury is decided by the
		// service layer.
		APIV1Treasuries: s.Echo.Group("/api/v1/treasuries", middleware.Auth(s.JWT)),
	}

	handlers.AttachAllRoutes(s)
}
