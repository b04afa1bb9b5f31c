package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

// CTXKeyDisableLogger silences LogFromContext for a subtree of calls,
// typically inside tests.
const CTXKeyDisableLogger contextKey = "disable_logger"

// WithDisabledLogger marks the context so LogFromContext returns a disabled
// logger.
func WithDisabledLogger(ctx context.Context) context.Context {
	return context.WithValue(ctx, CTXKeyDisableLogger, true)
}

// ShouldDisableLogger reports whether logging was disabled for this context.
func ShouldDisableLogger(ctx context.Context) bool {
	disabled, ok := ctx.Value(CTXKeyDisableLogger).(bool)
	return ok && disabled
}

// LogFromContext returns the request-scoped logger if one was injected,
// falling back to the global logger. Respects WithDisabledLogger.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		if ShouldDisableLogger(ctx) {
			return l
		}
		l = &log.Logger
	}
	return l
}

// LogFromEchoContext returns the request-scoped logger of an echo request.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}

// LogLevelFromString parses a zerolog level, defaulting to debug on garbage
// so a typo in config never silences the service.
func LogLevelFromString(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to parse log level %q, defaulting to debug", s)
		return zerolog.DebugLevel
	}
	return level
}
