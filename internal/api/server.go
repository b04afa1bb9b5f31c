package api

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/metrics"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/kashguard/go-mpc-treasury/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

type Router struct {
	Routes          []*echo.Route
	Root            *echo.Group
	Management      *echo.Group
	APIV1Treasuries *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config   config.Server
	DB       *sql.DB
	Redis    *redis.Client
	Store    treasury.Store
	Cache    treasury.Cache
	Oracle   oracle.Client
	Locker   *treasury.Locker
	Clock    time2.Clock
	Metrics  *metrics.Service
	Mailer   *mailer.Mailer
	JWT      *auth.JWTManager
	Treasury *treasury.Service
}

func newServerWithComponents(
	config config.Server,
	db *sql.DB,
	redisClient *redis.Client,
	store treasury.Store,
	cache treasury.Cache,
	oracleClient oracle.Client,
	locker *treasury.Locker,
	clock time2.Clock,
	metricsService *metrics.Service,
	mailerService *mailer.Mailer,
	jwtManager *auth.JWTManager,
	treasuryService *treasury.Service,
) *Server {
	return &Server{
		Config:   config,
		DB:       db,
		Redis:    redisClient,
		Store:    store,
		Cache:    cache,
		Oracle:   oracleClient,
		Locker:   locker,
		Clock:    clock,
		Metrics:  metricsService,
		Mailer:   mailerService,
		JWT:      jwtManager,
		Treasury: treasuryService,
	}
}

// NewServer returns a server skeleton carrying only the config. Tests that
// assemble their own components fill in the remaining fields by hand.
func NewServer(config config.Server) *Server {
	return &Server{Config: config}
}

// Ready returns true once every component, including the echo instance
// attached by router.Init, has been initialized.
func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not fully initialized")
	}

	log.Info().Str("listen", s.Config.Echo.ListenAddress).Msg("Starting HTTP server")

	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Warn().Msg("Shutting down server")

	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil {
			return err
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}

	if s.DB != nil {
		return s.DB.Close()
	}

	return nil
}
