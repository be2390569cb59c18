// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines, or human-readable console output
// outside production. level is a zerolog level name; unknown names mean info.
func New(appEnv, level string) zerolog.Logger {
	return newWithWriter(appEnv, level, os.Stdout)
}

func newWithWriter(appEnv, level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := out
	if appEnv != "production" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "questbase").Logger()
}
