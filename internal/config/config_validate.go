// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package config

import (
	"fmt"
	"math"
	"net/url"
)

// Validate checks the configuration for invalid or inconsistent values.
// Error messages reference environment variable names because that is how
// operators set these values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateCandidates(); err != nil {
		return err
	}
	if err := c.validateOracle(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
		if c.Security.AdminUsername == "" {
			return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE=jwt")
		}
		if len(c.Security.AdminPassword) < 8 {
			return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when AUTH_MODE=jwt")
		}
	case "none":
		// Explicitly unauthenticated admin surface. Acceptable behind a
		// trusted proxy or in development.
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or none, got %q", c.Security.AuthMode)
	}

	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", c.Security.SessionTimeout)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required when STORE_BACKEND=badger")
		}
	case "memory":
		// No path needed. State is lost on restart.
	default:
		return fmt.Errorf("STORE_BACKEND must be badger or memory, got %q", c.Store.Backend)
	}

	if c.Store.WriteQueueSize < 1 {
		return fmt.Errorf("STORE_WRITE_QUEUE_SIZE must be at least 1, got %d", c.Store.WriteQueueSize)
	}
	if c.Store.WriteRetries < 0 {
		return fmt.Errorf("STORE_WRITE_RETRIES must not be negative, got %d", c.Store.WriteRetries)
	}
	return nil
}

func (c *Config) validateCandidates() error {
	if c.Candidates.URL != "" {
		if err := validateHTTPURL(c.Candidates.URL); err != nil {
			return fmt.Errorf("CANDIDATES_URL is invalid: %w", err)
		}
	}
	if c.Candidates.Timeout <= 0 {
		return fmt.Errorf("CANDIDATES_TIMEOUT must be positive, got %s", c.Candidates.Timeout)
	}
	if c.Candidates.PoolLimit < 1 {
		return fmt.Errorf("CANDIDATES_POOL_LIMIT must be at least 1, got %d", c.Candidates.PoolLimit)
	}
	if c.Candidates.RateLimit <= 0 {
		return fmt.Errorf("CANDIDATES_RATE_LIMIT must be positive, got %g", c.Candidates.RateLimit)
	}
	if c.Candidates.RateBurst < 1 {
		return fmt.Errorf("CANDIDATES_RATE_BURST must be at least 1, got %d", c.Candidates.RateBurst)
	}
	return nil
}

func (c *Config) validateOracle() error {
	if c.Oracle.URL != "" {
		if err := validateHTTPURL(c.Oracle.URL); err != nil {
			return fmt.Errorf("ORACLE_URL is invalid: %w", err)
		}
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive, got %s", c.Oracle.Timeout)
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.HHCWeight < 0 || c.Match.HHCWeight > 1 {
		return fmt.Errorf("MATCH_HHC_WEIGHT must be in [0, 1], got %g", c.Match.HHCWeight)
	}
	if c.Match.FactualWeight < 0 || c.Match.FactualWeight > 1 {
		return fmt.Errorf("MATCH_FACTUAL_WEIGHT must be in [0, 1], got %g", c.Match.FactualWeight)
	}
	if sum := c.Match.HHCWeight + c.Match.FactualWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("MATCH_HHC_WEIGHT and MATCH_FACTUAL_WEIGHT must sum to 1.0, got %g", sum)
	}
	if c.Match.LearningRate <= 0 || c.Match.LearningRate > 1 {
		return fmt.Errorf("MATCH_LEARNING_RATE must be in (0, 1], got %g", c.Match.LearningRate)
	}
	if c.Match.QueueSize < 1 {
		return fmt.Errorf("MATCH_QUEUE_SIZE must be at least 1, got %d", c.Match.QueueSize)
	}
	if c.Match.ScoreCacheSize < 1 {
		return fmt.Errorf("MATCH_SCORE_CACHE_SIZE must be at least 1, got %d", c.Match.ScoreCacheSize)
	}
	if c.Match.TriggerCooldownTurns < 0 {
		return fmt.Errorf("MATCH_TRIGGER_COOLDOWN_TURNS must not be negative, got %d", c.Match.TriggerCooldownTurns)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 1 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be at least 1, got %d", c.Events.BufferSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL verifies that s parses as an absolute http(s) URL.
func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
