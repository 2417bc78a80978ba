// Package log builds the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dotse/slug"
	slogmulti "github.com/samber/slog-multi"
)

type Level string

const (
	Debug Level = "debug"
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

// ToSlogLevel maps our levels to the equivalent slog level. Unknown values map to error.
func ToSlogLevel(level Level) slog.Level {
	switch level {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// NewLogger returns a logger writing to console and, when file is non-nil, also to file.
func NewLogger(level Level, console, file io.Writer) *slog.Logger {
	opts := slug.HandlerOptions{
		HandlerOptions: slog.HandlerOptions{
			Level: ToSlogLevel(level),
		},
	}
	handlers := []slog.Handler{slug.NewHandler(opts, console)}
	if file != nil {
		handlers = append(handlers, slug.NewHandler(opts, file))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// MustCreateLogger creates and installs the default logger. Console output goes
// to stderr so command output on stdout stays clean. If logPath is set, logs are
// also written there.
//
// Returns a cleanup function which should be called on program shutdown.
//
// Panics on failure to open the log file for writing.
func MustCreateLogger(logPath string, level Level) func() {
	closer := func() {}
	var file io.Writer
	if logPath != "" {
		logFile, errLogFile := os.Create(logPath)
		if errLogFile != nil {
			panic(fmt.Sprintf("Failed to open logfile: %v", errLogFile))
		}
		closer = func() {
			if errClose := logFile.Close(); errClose != nil {
				panic(fmt.Sprintf("Failed to close log file: %v", errClose))
			}
		}
		file = logFile
	}

	slog.SetDefault(NewLogger(level, os.Stderr, file))

	return closer
}

// Closer closes c and logs any failure.
func Closer(c io.Closer) {
	if errClose := c.Close(); errClose != nil {
		slog.Error("Failed to close", slog.String("error", errClose.Error()))
	}
}
