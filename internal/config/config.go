// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package config

import (
	"time"
)

// Config is the full application configuration. Load assembles it through
// koanf in three passes, each overriding the last: built-in defaults, an
// optional YAML file (config.yaml), then AMORA_* environment variables.
//
// Config is immutable after Load and safe to read from any goroutine.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Security   SecurityConfig   `koanf:"security"`
	Store      StoreConfig      `koanf:"store"`
	Candidates CandidatesConfig `koanf:"candidates"`
	Oracle     OracleConfig     `koanf:"oracle"`
	Match      MatchConfig      `koanf:"match"`
	Events     EventsConfig     `koanf:"events"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`        // Listen port (default: 8824)
	Host        string        `koanf:"host"`        // Bind address (default: 0.0.0.0)
	Timeout     time.Duration `koanf:"timeout"`     // Read/write timeout (default: 30s)
	Environment string        `koanf:"environment"` // development or production
}

// APIConfig holds API surface settings.
type APIConfig struct {
	RequestTimeout time.Duration `koanf:"request_timeout"` // Per-request handler deadline (default: 10s)
	MaxBodyBytes   int64         `koanf:"max_body_bytes"`  // Request body size cap (default: 1MB)
}

// SecurityConfig holds authentication and rate limiting settings.
//
// AuthMode controls the admin surface only; the matching API itself is consumed
// by a trusted chat/UI layer and carries no per-user auth in this core.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`           // jwt or none (default: jwt)
	JWTSecret         string        `koanf:"jwt_secret"`          // 32+ character secret for token signing
	SessionTimeout    time.Duration `koanf:"session_timeout"`    // Admin token lifetime (default: 24h)
	AdminUsername     string        `koanf:"admin_username"`     // Bootstrap admin username
	AdminPassword     string        `koanf:"admin_password"`     // Bootstrap admin password (8+ characters)
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`    // Requests per window per IP (default: 300)
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`  // Rate limit window (default: 1m)
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"` // Disable rate limiting entirely (tests only)
	CORSOrigins       []string      `koanf:"cors_origins"`       // Allowed CORS origins (default: *)
}

// StoreConfig holds durable store settings.
//
// The store persists profiles, preference weights, interaction histories, and
// queue snapshots. All writes go through an asynchronous writer; in-memory
// state stays authoritative when persistence fails.
type StoreConfig struct {
	Backend        string        `koanf:"backend"`          // badger or memory (default: badger)
	Path           string        `koanf:"path"`             // Badger data directory (default: /data/amora)
	SyncWrites     bool          `koanf:"sync_writes"`      // Badger synchronous writes (default: false)
	WriteQueueSize int           `koanf:"write_queue_size"` // Async writer buffer (default: 1024)
	WriteRetries   int           `koanf:"write_retries"`    // Retries per failed write (default: 3)
	RetryDelay     time.Duration `koanf:"retry_delay"`      // Delay between retries (default: 250ms)
}

// CandidatesConfig holds candidate-source client settings.
type CandidatesConfig struct {
	URL             string        `koanf:"url"`              // Candidate source base URL
	APIKey          string        `koanf:"api_key"`          // Bearer token for the candidate source
	Timeout         time.Duration `koanf:"timeout"`          // Per-request timeout (default: 10s)
	PoolLimit       int           `koanf:"pool_limit"`       // Candidates requested per populate (default: 50)
	RateLimit       float64       `koanf:"rate_limit"`       // Requests per second to the source (default: 10)
	RateBurst       int           `koanf:"rate_burst"`       // Burst allowance (default: 5)
	FallbackEnabled bool          `koanf:"fallback_enabled"` // Serve the static fallback pool on open breaker (default: true)
}

// OracleConfig holds mutual-match oracle client settings.
type OracleConfig struct {
	URL     string        `koanf:"url"`     // Match oracle base URL
	APIKey  string        `koanf:"api_key"` // Bearer token for the oracle
	Timeout time.Duration `koanf:"timeout"` // Per-request timeout (default: 5s)
}

// MatchConfig holds the engine tunables surfaced at the application level.
// The engine's full configuration (internal/match.Config) is built from these
// in cmd/server.
type MatchConfig struct {
	HHCWeight            float64       `koanf:"hhc_weight"`             // Personality share of the total score (default: 0.6)
	FactualWeight        float64       `koanf:"factual_weight"`         // Factual share of the total score (default: 0.4)
	LearningRate         float64       `koanf:"learning_rate"`          // Preference weight step size (default: 0.1)
	QueueSize            int           `koanf:"queue_size"`             // Max entries per queue snapshot (default: 20)
	ScoreCacheTTL        time.Duration `koanf:"score_cache_ttl"`        // Score cache entry lifetime (default: 5m)
	ScoreCacheSize       int           `koanf:"score_cache_size"`       // Score cache max entries (default: 4096)
	TriggerSeed          int64         `koanf:"trigger_seed"`           // Seed for the trigger RNG (default: 42)
	TriggerCooldownTurns int           `koanf:"trigger_cooldown_turns"` // Turns to wait after showing a recommendation (default: 5)
}

// EventsConfig holds the in-process event bus settings.
type EventsConfig struct {
	BufferSize int `koanf:"buffer_size"` // gochannel buffer per topic (default: 256)
}

// WebSocketConfig holds the match-notification hub settings.
type WebSocketConfig struct {
	Enabled bool `koanf:"enabled"` // Expose /api/v1/ws and run the hub (default: true)
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error (default: info)
	Format string `koanf:"format"` // json or console (default: json)
	Caller bool   `koanf:"caller"` // Include caller file:line (default: false)
}

// Load loads configuration from defaults, an optional config file, and
// environment variables. It is the single entry point used by main().
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment != "production"
}

// Clone deep-copies c, including slice fields, so the copy can be mutated
// without aliasing the original.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Security.CORSOrigins != nil {
		clone.Security.CORSOrigins = make([]string, len(c.Security.CORSOrigins))
		copy(clone.Security.CORSOrigins, c.Security.CORSOrigins)
	}

	return &clone
}
