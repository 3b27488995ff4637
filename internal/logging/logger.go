// Package logging configures structured logging for keydoru using
// log/slog, with optional size-rotated file output alongside the
// console.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls logger construction.
type Options struct {
	Level      slog.Level
	FilePath   string // Empty disables file output
	MaxSizeMB  int64  // Rotation threshold per log file
	MaxBackups int    // Rotated files kept
	Console    bool
}

// DefaultOptions returns console-only logging at info level.
func DefaultOptions() Options {
	return Options{
		Level:      slog.LevelInfo,
		MaxSizeMB:  100,
		MaxBackups: 5,
		Console:    true,
	}
}

// ParseLevel converts a string log level to slog.Level, defaulting to
// info for unknown values.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger for the given options.
func New(opts Options) (*slog.Logger, error) {
	var writers []io.Writer

	if opts.Console {
		writers = append(writers, os.Stdout)
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, err
		}
		fileWriter, err := NewRotatingWriter(opts.FilePath, opts.MaxSizeMB*1024*1024, opts.MaxBackups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fileWriter)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	var writer io.Writer = writers[0]
	if len(writers) > 1 {
		writer = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler), nil
}

// Setup builds a logger and installs it as the slog default.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
