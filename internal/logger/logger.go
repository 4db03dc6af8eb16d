package logger

import (
	"os"

	"pubg-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the process logger. Filtering goes through the global level so
// ApplyLevel can still adjust it once the configuration (including .env) is
// loaded.
func New() zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, falling back to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func ApplyLevel(cfg *config.Config, logger zerolog.Logger) {
	level := ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	logger.Debug().Str("level", level.String()).Msg("log level applied")
}

var Module = fx.Provide(New)
