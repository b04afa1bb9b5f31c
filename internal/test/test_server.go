package test

import (
	"testing"

	"github.com/kashguard/go-mpc-treasury/internal/api"
	"github.com/kashguard/go-mpc-treasury/internal/api/router"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/kashguard/go-mpc-treasury/internal/metrics"
)

// WithTestServer assembles a full API server over a ServiceBundle's in-memory
// backends and hands it to the closure. No database, redis or listeners are
// involved; requests are served straight through the echo handler, so DB and
// Redis stay nil and the readiness probe reports not ready.
func WithTestServer(t *testing.T, closure func(s *api.Server, bundle *ServiceBundle)) {
	t.Helper()

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Auth.JWTSecret = "test-secret"

	bundle := NewTestService(t)

	s := api.NewServer(cfg)
	s.Store = bundle.Store
	s.Cache = bundle.Cache
	s.Oracle = bundle.Oracle
	s.Locker = bundle.Locker
	s.Clock = bundle.Clock
	s.Metrics = metrics.New()
	s.Mailer = bundle.Mailer
	s.JWT = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
	s.Treasury = bundle.Service

	router.Init(s)

	closure(s, bundle)
}
