// Package logger builds the process logger. The returned value is passed into
// each component's constructor; there is no package-level logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options controls where and how verbosely the process logs.
type Options struct {
	File   string // log file path; empty logs to stdout
	Pretty bool   // human-readable console output, stdout only
	Level  string // debug, info, warn, error; empty means info
	Debug  bool   // forces debug level regardless of Level
}

// New builds a logger from the options. File and plain stdout output are
// JSON-structured; Pretty switches stdout to the console writer.
func New(opts Options) (zerolog.Logger, error) {
	level := parseLevel(opts.Level)
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	var log zerolog.Logger
	switch {
	case opts.File != "":
		//nolint:gosec // G304: user-specified log file path is intentional
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		log = zerolog.New(file).Level(level).With().Timestamp().Logger()
		log.Info().Str("path", opts.File).Str("level", level.String()).Msg("Logger initialized")
	case opts.Pretty:
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
		log.Info().Str("output", "stdout").Str("format", "pretty").Str("level", level.String()).Msg("Logger initialized")
	default:
		log = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
		log.Info().Str("output", "stdout").Str("level", level.String()).Msg("Logger initialized")
	}

	return log, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
