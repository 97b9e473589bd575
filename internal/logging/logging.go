// Package logging sets up the application's structured and human-readable loggers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Custom level names for levels slog does not know about.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// replaceLevelNames maps the custom TRACE/FATAL levels to their labels.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable loggers.
// Structured logs are JSON on stdout, human-readable logs are text on stderr.
func Init(level slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))

	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))

	slog.SetDefault(structuredLogger)
}

// InitFile reroutes the structured logger's JSON output to filePath with
// lumberjack rotation, in addition to stdout. Must be called after Init.
// It returns a function that closes the underlying log file.
func InitFile(filePath string, level slog.Level, opts FileLoggerOptions) (func() error, error) {
	logWriter, err := newRotatingWriter(filePath, opts)
	if err != nil {
		return nil, err
	}

	structuredLogger = slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))
	slog.SetDefault(structuredLogger)

	return logWriter.Close, nil
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base. Returns nil if Init() has
// not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a fatal message using the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// FileLoggerOptions controls rotation behaviour of file-backed loggers.
type FileLoggerOptions struct {
	MaxSizeMB  int // rotate after this many megabytes
	MaxBackups int // number of rotated files to keep
	MaxAgeDays int // days to retain rotated files
}

// DefaultFileLoggerOptions returns the rotation defaults used when the
// caller passes a zero-value options struct.
func DefaultFileLoggerOptions() FileLoggerOptions {
	return FileLoggerOptions{
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// OptionsForRotation converts a configured rotation policy ("daily",
// "weekly" or "size" with a byte limit) into FileLoggerOptions. lumberjack
// rotates on size only, so the time-based policies map to retention age.
// Unknown policies fall back to the defaults.
func OptionsForRotation(rotation string, maxSizeBytes int64) FileLoggerOptions {
	opts := FileLoggerOptions{}
	switch rotation {
	case "daily":
		opts.MaxAgeDays = 1
	case "weekly":
		opts.MaxAgeDays = 7
	case "size":
		if maxSizeBytes > 0 {
			opts.MaxSizeMB = int(maxSizeBytes / (1024 * 1024))
		}
	}
	return opts
}

// NewFileLogger creates a slog.Logger writing JSON logs to filePath with
// lumberjack-based rotation. All records carry a 'service' attribute.
// It returns the logger, a function to close the underlying writer, and an
// error if setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Level, opts FileLoggerOptions) (*slog.Logger, func() error, error) {
	logWriter, err := newRotatingWriter(filePath, opts)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})

	logger := slog.New(fileHandler).With("service", serviceName)

	return logger, logWriter.Close, nil
}

// newRotatingWriter builds the lumberjack writer shared by the file-backed
// loggers, filling in rotation defaults for zero-valued options.
func newRotatingWriter(filePath string, opts FileLoggerOptions) (*lumberjack.Logger, error) {
	// lumberjack does not create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	defaults := DefaultFileLoggerOptions()
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaults.MaxSizeMB
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = defaults.MaxBackups
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = defaults.MaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   false,
	}, nil
}
