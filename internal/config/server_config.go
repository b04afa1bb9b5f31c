// Package config assembles the full server configuration from environment
// variables. Every knob has a development-friendly default so a bare
// `server` start works against local postgres and redis.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
)

// EchoServer configures the public API listener.
type EchoServer struct {
	ListenAddress                  string `env:"SERVER_ECHO_LISTEN_ADDRESS" envDefault:":8080"`
	HideInternalServerErrorDetails bool   `env:"SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS" envDefault:"true"`
}

// Database configures the postgres connection.
type Database struct {
	Host     string `env:"PGHOST" envDefault:"127.0.0.1"`
	Port     int    `env:"PGPORT" envDefault:"5432"`
	Username string `env:"PGUSER" envDefault:"treasury"`
	Password string `env:"PGPASSWORD" envDefault:"treasury"`
	Database string `env:"PGDATABASE" envDefault:"treasury"`
	SSLMode  string `env:"PGSSLMODE" envDefault:"disable"`
}

// ConnectionString renders the lib/pq connection string.
func (d Database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}

// Redis configures the cache, lock and event backend.
type Redis struct {
	Endpoint string `env:"SERVER_REDIS_ENDPOINT" envDefault:"127.0.0.1:6379"`
	Password string `env:"SERVER_REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"SERVER_REDIS_DB" envDefault:"0"`
}

// Oracle configures the signing network client.
type Oracle struct {
	BaseURL        string        `env:"SERVER_ORACLE_BASE_URL" envDefault:"http://127.0.0.1:9944"`
	APIKey         string        `env:"SERVER_ORACLE_API_KEY" envDefault:""`
	RequestTimeout time.Duration `env:"SERVER_ORACLE_REQUEST_TIMEOUT" envDefault:"15s"`
	RetryAttempts  uint          `env:"SERVER_ORACLE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryMaxDelay  time.Duration `env:"SERVER_ORACLE_RETRY_MAX_DELAY" envDefault:"5s"`
}

// Treasury tunes pool sizing, request limits and derivations.
type Treasury struct {
	InitialPoolSize  int           `env:"SERVER_TREASURY_INITIAL_POOL_SIZE" envDefault:"2"`
	PoolLowWater     int           `env:"SERVER_TREASURY_POOL_LOW_WATER" envDefault:"3"`
	ReplenishBatch   int           `env:"SERVER_TREASURY_REPLENISH_BATCH" envDefault:"2"`
	MaxPresignBatch  int           `env:"SERVER_TREASURY_MAX_PRESIGN_BATCH" envDefault:"16"`
	MaxMessageSize   int           `env:"SERVER_TREASURY_MAX_MESSAGE_SIZE" envDefault:"10240"`
	TokenDecimals    int32         `env:"SERVER_TREASURY_TOKEN_DECIMALS" envDefault:"9"`
	CacheTTL         time.Duration `env:"SERVER_TREASURY_CACHE_TTL" envDefault:"5m"`
	ChainNetwork     string        `env:"SERVER_TREASURY_CHAIN_NETWORK" envDefault:"mainnet"`
	DefaultAlgorithm string        `env:"SERVER_TREASURY_DEFAULT_ALGORITHM" envDefault:"ecdsa"`
	MonitorEnabled   bool          `env:"SERVER_TREASURY_MONITOR_ENABLED" envDefault:"false"`
	MonitorInterval  time.Duration `env:"SERVER_TREASURY_MONITOR_INTERVAL" envDefault:"1m"`
}

// Auth configures member authentication.
type Auth struct {
	// JWTSecret signs member tokens. Leaving it empty generates a random
	// secret at startup; tokens then do not survive restarts.
	JWTSecret   string        `env:"SERVER_AUTH_JWT_SECRET" envDefault:""`
	Issuer      string        `env:"SERVER_AUTH_JWT_ISSUER" envDefault:"mpc-treasury"`
	TokenExpiry time.Duration `env:"SERVER_AUTH_TOKEN_EXPIRY" envDefault:"24h"`
}

// Mailer configures operator notifications. The mock transporter records
// mails in memory and is the default outside production.
type Mailer struct {
	Transporter      string   `env:"SERVER_MAILER_TRANSPORTER" envDefault:"mock"`
	DefaultSender    string   `env:"SERVER_MAILER_DEFAULT_SENDER" envDefault:"treasury@localhost"`
	NotifyRecipients []string `env:"SERVER_MAILER_NOTIFY_RECIPIENTS" envDefault:"" envSeparator:","`
	SMTPHost         string   `env:"SERVER_MAILER_SMTP_HOST" envDefault:"127.0.0.1"`
	SMTPPort         int      `env:"SERVER_MAILER_SMTP_PORT" envDefault:"1025"`
	SMTPUsername     string   `env:"SERVER_MAILER_SMTP_USERNAME" envDefault:""`
	SMTPPassword     string   `env:"SERVER_MAILER_SMTP_PASSWORD" envDefault:""`
	SMTPUseTLS       bool     `env:"SERVER_MAILER_SMTP_USE_TLS" envDefault:"false"`
}

// Logger configures zerolog.
type Logger struct {
	Level              string `env:"SERVER_LOGGER_LEVEL" envDefault:"info"`
	PrettyPrintConsole bool   `env:"SERVER_LOGGER_PRETTY_PRINT_CONSOLE" envDefault:"false"`
}

// Server is the root configuration.
type Server struct {
	Echo     EchoServer
	Database Database
	Redis    Redis
	Oracle   Oracle
	Treasury Treasury
	Auth     Auth
	Mailer   Mailer
	Logger   Logger
}

// DefaultServiceConfigFromEnv parses the full server config from the
// environment, terminating on malformed values.
func DefaultServiceConfigFromEnv() Server {
	c := Server{}
	if err := env.Parse(&c); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse server config from environment")
	}
	return c
}
