package api

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-mpc-treasury/internal/auth"
	"github.com/kashguard/go-mpc-treasury/internal/config"
	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/mailer/transport"
	"github.com/kashguard/go-mpc-treasury/internal/metrics"
	"github.com/kashguard/go-mpc-treasury/internal/oracle"
	"github.com/kashguard/go-mpc-treasury/internal/storage"
	"github.com/kashguard/go-mpc-treasury/internal/treasury"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

func NewDB(cfg config.Server) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Redis.Endpoint == "" {
		return nil, fmt.Errorf("redis endpoint is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewTreasuryStore(db *sql.DB) treasury.Store {
	return storage.NewPostgresStore(db)
}

func NewTreasuryCache(client *redis.Client) treasury.Cache {
	return storage.NewRedisCache(client)
}

func NewLocker(cache treasury.Cache) *treasury.Locker {
	return treasury.NewLocker(cache)
}

func NewOracleClient(cfg config.Server) (oracle.Client, error) {
	if cfg.Oracle.BaseURL == "" {
		return nil, fmt.Errorf("oracle base URL is not configured")
	}

	return oracle.NewHTTPClient(oracle.HTTPClientConfig{
		BaseURL:        cfg.Oracle.BaseURL,
		APIKey:         cfg.Oracle.APIKey,
		RequestTimeout: cfg.Oracle.RequestTimeout,
		RetryAttempts:  cfg.Oracle.RetryAttempts,
		RetryMaxDelay:  cfg.Oracle.RetryMaxDelay,
	}), nil
}

func NewJWTManager(cfg config.Server) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
}

func NewMailer(cfg config.Server) (*mailer.Mailer, error) {
	mailerConfig := mailer.Config{
		DefaultSender:    cfg.Mailer.DefaultSender,
		NotifyRecipients: cfg.Mailer.NotifyRecipients,
	}

	switch cfg.Mailer.Transporter {
	case "smtp":
		return mailer.New(mailerConfig, transport.NewSMTP(transport.SMTPMailTransportConfig{
			Host:     cfg.Mailer.SMTPHost,
			Port:     cfg.Mailer.SMTPPort,
			Username: cfg.Mailer.SMTPUsername,
			Password: cfg.Mailer.SMTPPassword,
			UseTLS:   cfg.Mailer.SMTPUseTLS,
		})), nil
	case "mock":
		log.Warn().Msg("Initializing mock mail transporter")
		return mailer.New(mailerConfig, transport.NewMock()), nil
	default:
		return nil, fmt.Errorf("unknown mail transporter %q", cfg.Mailer.Transporter)
	}
}

func NewTreasuryService(
	cfg config.Server,
	store treasury.Store,
	cache treasury.Cache,
	oracleClient oracle.Client,
	locker *treasury.Locker,
	clock time2.Clock,
	metricsService *metrics.Service,
	mailerService *mailer.Mailer,
) *treasury.Service {
	return treasury.NewService(treasury.ServiceConfig{
		InitialPoolSize:  cfg.Treasury.InitialPoolSize,
		PoolLowWater:     cfg.Treasury.PoolLowWater,
		ReplenishBatch:   cfg.Treasury.ReplenishBatch,
		MaxPresignBatch:  cfg.Treasury.MaxPresignBatch,
		MaxMessageSize:   cfg.Treasury.MaxMessageSize,
		TokenDecimals:    cfg.Treasury.TokenDecimals,
		CacheTTL:         cfg.Treasury.CacheTTL,
		ChainNetwork:     cfg.Treasury.ChainNetwork,
		DefaultAlgorithm: oracle.SignatureAlgorithm(cfg.Treasury.DefaultAlgorithm),
	}, store, cache, oracleClient, locker, clock, metricsService, mailerService)
}
