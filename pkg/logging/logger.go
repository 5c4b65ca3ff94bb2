// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added to every log line when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithRequest returns a child logger carrying the request method, path and,
// when the chi RequestID middleware ran, the request id.
func WithRequest(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	ctx := logger.With().
		Str("method", r.Method).
		Str("path", r.URL.Path)
	if id := middleware.GetReqID(r.Context()); id != "" {
		ctx = ctx.Str("request_id", id)
	}
	return ctx.Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache decisions (hit/miss, key, TTL)
//   - Responses not stored (status, method, stale TTL)
//   - Malformed Cache-Control headers
//
// Info: Normal operation events
//   - Client requested refresh
//   - Cache resources ready
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Cache store errors (request forwarded or response not stored)
//   - Upstream request failures
//   - Readiness check failures
//
// Error: Error conditions requiring attention
//   - Cache policy failures (missing cache resource, key evaluation)
//   - Configuration errors
//
// Context Fields:
//   - service: Service name set in Config
//   - request_id: chi request id
//   - path: Request path
//   - component: Logger component (cache-policy, cache-proxy)
//   - cache_key: Derived cache key
//   - cache_name: Configured cache resource name
//   - action: Client override (none, bypass, refresh)
//   - method: HTTP request method
//   - status: HTTP response status code
//   - ttl: Effective TTL in seconds
//   - resource: Cache resource name
