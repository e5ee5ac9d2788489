// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are the file locations probed for a YAML config, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/amora/config.yaml",
	"/etc/amora/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely when set.
const ConfigPathEnvVar = "AMORA_CONFIG_PATH"

// globalKoanf retains the last built koanf instance for WatchConfigFile.
var globalKoanf *koanf.Koanf

// defaultConfig returns the built-in defaults applied before any file or
// environment overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8824,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   1 << 20, // 1MB
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  24 * time.Hour,
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Backend:        "badger",
			Path:           "/data/amora",
			WriteQueueSize: 1024,
			WriteRetries:   3,
			RetryDelay:     250 * time.Millisecond,
		},
		Candidates: CandidatesConfig{
			Timeout:         10 * time.Second,
			PoolLimit:       50,
			RateLimit:       10,
			RateBurst:       5,
			FallbackEnabled: true,
		},
		Oracle: OracleConfig{
			Timeout: 5 * time.Second,
		},
		Match: MatchConfig{
			HHCWeight:            0.6,
			FactualWeight:        0.4,
			LearningRate:         0.1,
			QueueSize:            20,
			ScoreCacheTTL:        5 * time.Minute,
			ScoreCacheSize:       4096,
			TriggerSeed:          42,
			TriggerCooldownTurns: 5,
		},
		Events: EventsConfig{
			BufferSize: 256,
		},
		WebSocket: WebSocketConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf builds the configuration in three layers: struct defaults,
// then an optional YAML file, then environment variables. Later layers win.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional YAML config file.
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields arrive as plain strings.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalKoanf = k

	return &cfg, nil
}

// findConfigFile returns the first readable config file, honoring the
// AMORA_CONFIG_PATH override. Returns "" when no file is found, which is not
// an error: the server runs on defaults plus environment variables.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps lowercase environment variable names to koanf paths.
// Only listed variables are consumed; this prevents random environment
// variables from polluting the configuration.
var envMappings = map[string]string{
	"http_port":   "server.port",
	"http_host":   "server.host",
	"http_timeout": "server.timeout",
	"environment": "server.environment",

	"api_request_timeout": "api.request_timeout",
	"api_max_body_bytes":  "api.max_body_bytes",

	"auth_mode":         "security.auth_mode",
	"jwt_secret":        "security.jwt_secret",
	"session_timeout":   "security.session_timeout",
	"admin_username":    "security.admin_username",
	"admin_password":    "security.admin_password",
	"rate_limit_reqs":   "security.rate_limit_reqs",
	"rate_limit_window": "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":      "security.cors_origins",

	"store_backend":          "store.backend",
	"store_path":             "store.path",
	"store_sync_writes":      "store.sync_writes",
	"store_write_queue_size": "store.write_queue_size",
	"store_write_retries":    "store.write_retries",
	"store_retry_delay":      "store.retry_delay",

	"candidates_url":              "candidates.url",
	"candidates_api_key":          "candidates.api_key",
	"candidates_timeout":          "candidates.timeout",
	"candidates_pool_limit":       "candidates.pool_limit",
	"candidates_rate_limit":       "candidates.rate_limit",
	"candidates_rate_burst":       "candidates.rate_burst",
	"candidates_fallback_enabled": "candidates.fallback_enabled",

	"oracle_url":     "oracle.url",
	"oracle_api_key": "oracle.api_key",
	"oracle_timeout": "oracle.timeout",

	"match_hhc_weight":             "match.hhc_weight",
	"match_factual_weight":         "match.factual_weight",
	"match_learning_rate":          "match.learning_rate",
	"match_queue_size":             "match.queue_size",
	"match_score_cache_ttl":        "match.score_cache_ttl",
	"match_score_cache_size":       "match.score_cache_size",
	"match_trigger_seed":           "match.trigger_seed",
	"match_trigger_cooldown_turns": "match.trigger_cooldown_turns",

	"events_buffer_size": "events.buffer_size",

	"websocket_enabled": "websocket.enabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc resolves an environment variable name to its koanf path.
// Unmapped variables return "" and are dropped.
func envTransformFunc(s string) string {
	if path, ok := envMappings[strings.ToLower(s)]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths lists koanf paths whose env representation is a
// comma-separated string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env strings into []string values
// so Unmarshal lands them in slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}

		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}

		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	return nil
}

// GetKoanfInstance returns the koanf instance from the last successful load.
// Exposed for config watching and diagnostics.
func GetKoanfInstance() *koanf.Koanf {
	return globalKoanf
}

// WatchConfigFile invokes callback whenever the config file at path changes.
// The callback receives the freshly loaded configuration. Watching stops when
// the returned stop function is called.
func WatchConfigFile(path string, callback func(*Config)) (func() error, error) {
	f := file.Provider(path)

	err := f.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}

		cfg, loadErr := LoadWithKoanf()
		if loadErr != nil {
			return
		}

		callback(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch config file %s: %w", path, err)
	}

	return f.Unwatch, nil
}
