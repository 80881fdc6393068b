// Package logging wires up the structured logger shared by every member
// component. It follows the teacher's zerolog setup: JSON by default,
// a pretty console writer for local development, and a panic-recovery
// helper that keeps one bad connection from taking down the process.
package logging

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the logger's level and output format.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "pretty"
}

// New creates a zerolog.Logger tagged with the member's identity.
func New(cfg Config, serverIndex int, addr string) zerolog.Logger {
	var output io.Writer = os.Stdout

	var level zerolog.Level
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Int("server_index", serverIndex).
		Str("addr", addr).
		Logger()
}

// RecoverPanic is deferred at the top of every connection-handling
// goroutine. It logs a recovered panic with a stack trace but does not
// re-panic, so one misbehaving connection never crashes the member
// (spec.md §7: "worker loops never crash the server").
func RecoverPanic(logger zerolog.Logger, goroutine string, fields map[string]any) {
	r := recover()
	if r == nil {
		return
	}
	event := logger.Error().
		Str("goroutine", goroutine).
		Interface("panic", r).
		Str("stack", string(debug.Stack()))
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg("recovered panic in connection handler")
}
