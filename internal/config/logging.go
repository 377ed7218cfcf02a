package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevel returns the log level from the LOG_LEVEL environment variable,
// defaulting to INFO if not set or invalid
func GetLogLevel() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

// NewLogger creates a new structured logger with the configured log level.
// In stdio mode it writes text to stderr so log lines never interleave with
// the MCP protocol on stdout; in HTTP mode it writes JSON to stdout.
func NewLogger(isStdioMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: GetLogLevel(),
	}

	if isStdioMode {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// NewTextLogger creates a text-based logger with the configured log level.
// Used by the fetch-catalog mode where plain text output reads better.
func NewTextLogger(output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: GetLogLevel(),
	}

	return slog.New(slog.NewTextHandler(output, opts))
}

// NewTestLogger creates a logger for testing with a configurable level.
// If level is empty, the LOG_LEVEL environment variable applies.
func NewTestLogger(output io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	if level == "" {
		logLevel = GetLogLevel()
	} else {
		logLevel = parseLogLevel(level)
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	return slog.New(slog.NewTextHandler(output, opts))
}
