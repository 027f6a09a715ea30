// Package logger builds the zerolog logger shared by the console components.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name; empty or unknown falls back to info.
	Level string
	// ServiceName is attached to every entry as "service".
	ServiceName string
	// Pretty switches to the human-readable console writer (development).
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a zerolog.Logger with timestamp and service fields.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	l := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.ServiceName != "" {
		l = l.Str("service", cfg.ServiceName)
	}
	return l.Logger()
}

// Nop returns a disabled logger for tests and optional wiring.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
