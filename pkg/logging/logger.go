// Package logging provides structured logging for periodmap using zerolog.
// Console output is used when stderr is a terminal and JSON otherwise, so
// the same library logs nicely from the CLI and machine-readably from a batch.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("category", "PMC").Int("links", 12).Msg("Discovery finished")
//
//	ctx := logging.WithCategory(context.Background(), "PMC")
//	logging.FromContext(ctx).Warn().Int("year", 2023).Msg("Static capture missing")
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is configured from LOG_* variables at startup and replaced
// by the CLI once flags are parsed.
var defaultLogger zerolog.Logger

func init() {
	defaultLogger = NewLoggerFromConfig(ConfigFromEnv())
}

// Default returns the default global logger. The pointer stays valid across
// SetDefault calls.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a new debug level log event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Warn starts a new warning level log event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// terminal reports whether w is an interactive terminal.
func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
