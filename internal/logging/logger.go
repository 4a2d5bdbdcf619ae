// Package logging builds the zerolog loggers used across sitecms.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // console or json
	Out    io.Writer // defaults to os.Stderr
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s. Must be 'debug', 'info', 'warn', or 'error'", level)
	}
}

// New returns a logger writing to opts.Out. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if opts.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("app", "sitecms").
		Logger()
}

// Component scopes a logger to a named subsystem.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Nop returns a disabled logger for callers that don't log.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
