package handlers

import (
	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/handlers/mgmt"
	"github.com/kashguard/go-mpc-treasury/internal/api/handlers/treasuries"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes attaches all registered routes to the server's router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		mgmt.GetHealthyRoute(s),
		mgmt.GetReadyRoute(s),
		mgmt.GetMetricsRoute(s),
		treasuries.PostCreateTreasuryRoute(s),
		treasuries.GetTreasuryListRoute(s),
		treasuries.GetTreasuryRoute(s),
		treasuries.GetAddressesRoute(s),
		treasuries.GetEventsRoute(s),
		treasuries.PostFundRoute(s),
		treasuries.PostAddPresignsRoute(s),
		treasuries.PutEncryptionKeyRoute(s),
		treasuries.PostVerifySignatureRoute(s),
		treasuries.PostCreateSignRequestRoute(s),
		treasuries.GetSignRequestListRoute(s),
		treasuries.GetSignRequestRoute(s),
		treasuries.PostVoteRoute(s),
		treasuries.PostExecuteRoute(s),
		treasuries.GetSignatureRoute(s),
	}
}
