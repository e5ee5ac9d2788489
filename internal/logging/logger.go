// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package logging is the process-wide zerolog facade. Every subsystem logs
// through it so one Init call from main controls level, format and output
// for the whole binary.
//
// JSON is the production format; console is for development. A request ID
// placed in the context by the API middleware rides along via Ctx, and the
// bridge in slog_adapter.go feeds the same sink to libraries that speak
// log/slog (the supervisor's sutureslog hook).
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("user_id", userID).Msg("queue populated")
//	logging.Ctx(ctx).Warn().Msg("candidate source degraded")
//
// Log chains must end with Msg or Send, or nothing is emitted. Prefer
// structured fields over Msgf formatting.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config controls the global logger.
type Config struct {
	// Level is the minimum emitted level: trace, debug, info, warn, error,
	// fatal, panic, disabled. Unknown values fall back to info.
	Level string

	// Format selects json (default) or console output.
	Format string

	// Caller stamps each line with file:line. Off by default.
	Caller bool

	// Timestamp stamps each line with RFC3339 time.
	Timestamp bool

	// Output receives the log stream; defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the production configuration: info-level JSON on
// stderr with timestamps.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

//nolint:gochecknoinits // packages log during their own init, before main reaches Init
func init() {
	initLogger(DefaultConfig())
}

// Init (re)configures the global logger. main calls it once after loading
// config; tests call it again freely.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger must be called with mu held.
func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	with := zerolog.New(out).With()
	if cfg.Timestamp {
		with = with.Timestamp()
	}
	if cfg.Caller {
		with = with.Caller()
	}
	log = with.Logger()
}

// parseLevel maps a config string onto a zerolog level, defaulting to info
// for anything unrecognized. "warning" is accepted as an alias for "warn".
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(s)
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger returns the current global logger value. Components that want a
// prefixed child logger start here:
//
//	busLogger := logging.Logger().With().Str("component", "events").Logger()
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger swaps the global logger; tests use this to capture output.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// With opens a child context on the global logger.
func With() zerolog.Context { return Logger().With() }

// Trace through Fatal start an event at that level on the global logger.
// Fatal exits the process after the message is written.

func Trace() *zerolog.Event { l := Logger(); return l.Trace() }

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

func Info() *zerolog.Event { l := Logger(); return l.Info() }

func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

func Error() *zerolog.Event { l := Logger(); return l.Error() }

func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }

// Err is shorthand for Error().Err(err); with a nil err it logs at info.
func Err(err error) *zerolog.Event { l := Logger(); return l.Err(err) }

// GetLevel reports the current global level.
func GetLevel() zerolog.Level { return zerolog.GlobalLevel() }

// SetLevel changes the global level at runtime.
func SetLevel(l zerolog.Level) { zerolog.SetGlobalLevel(l) }

// SetLevelString is SetLevel for config strings.
func SetLevelString(s string) { zerolog.SetGlobalLevel(parseLevel(s)) }

// NewTestLogger returns an isolated logger writing to w, for asserting on
// log output without touching the global.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
