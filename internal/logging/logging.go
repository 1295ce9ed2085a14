// Package logging configures zerolog for the client. The TUI owns the
// terminal, so logs always go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps a level name to a zerolog level. Unknown names are an
// error; "disabled" and "off" turn logging off.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a logger writing JSON lines to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Open opens (or creates) the log file at path in append mode and returns a
// logger writing to it plus the file to close on exit. An empty path or a
// disabled level yields a no-op logger.
func Open(path, levelName string) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if path == "" || level == zerolog.Disabled {
		return zerolog.Nop(), nopCloser{}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("could not open log file: %w", err)
	}
	return New(f, level), f, nil
}

// Console returns a human-readable logger on w, used by the dev server.
func Console(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
