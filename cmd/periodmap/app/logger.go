package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/periodmap/internal/config"
	"github.com/agentstation/periodmap/pkg/logging"
)

// NewLogger creates a configured logger based on the application
// configuration. The level is resolved by config.UpdateFromFlags.
func NewLogger(cfg *config.Config) zerolog.Logger {
	logConfig := &logging.Config{
		Level:   determineLogLevel(cfg),
		Format:  cfg.LogFormat,
		Output:  cfg.LogOutput,
		NoColor: cfg.NoColor || os.Getenv("NO_COLOR") != "",
		Fields:  cfg.LogFields,
	}
	return logging.NewLoggerFromConfig(logConfig)
}

// determineLogLevel validates the configured level, defaulting to info.
func determineLogLevel(cfg *config.Config) string {
	if cfg.LogLevel == "" {
		return "info"
	}
	validated := validateLogLevel(cfg.LogLevel)
	if validated != cfg.LogLevel {
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", cfg.LogLevel, validated)
	}
	return validated
}

// validateLogLevel returns level when valid and "info" otherwise.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
