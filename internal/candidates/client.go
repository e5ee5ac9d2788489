// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package candidates provides the HTTP clients for the two external
// collaborators of the matching engine: the candidate source that supplies
// discovery pools, and the oracle that knows about likes from the other
// side. Both clients sit behind circuit breakers; the candidate client
// additionally rate-limits outbound requests and keeps a last-known-good
// fallback pool.
package candidates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/metrics"
	"github.com/pmahlen/amora/internal/profile"
)

// Client defaults applied when the config leaves them zero.
const (
	defaultTimeout    = 10 * time.Second
	defaultPoolLimit  = 50
	defaultRateLimit  = 10.0
	defaultRateBurst  = 5
	breakerRecovery   = 30 * time.Second
	maxErrorBodySize  = 64 * 1024
	candidatesPathFmt = "%s/api/v1/candidates?%s"
)

// readBodyForError reads at most maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// candidatesResponse is the wire envelope of the candidate source.
type candidatesResponse struct {
	Candidates []profile.Profile `json:"candidates"`
}

// Client fetches candidate pools from the external candidate source.
//
// Resilience: outbound requests pass a token-bucket rate limiter, then a
// circuit breaker. When the source fails or the breaker is open, the
// last-known-good fallback pool is served with the degraded flag set, so
// recommendation delivery keeps working through source outages.
type Client struct {
	baseURL         string
	apiKey          string
	poolLimit       int
	fallbackEnabled bool

	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]profile.Profile]
	fallback *FallbackPool
	logger   zerolog.Logger
}

// NewClient builds a candidate source client from configuration.
func NewClient(cfg config.CandidatesConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	poolLimit := cfg.PoolLimit
	if poolLimit <= 0 {
		poolLimit = defaultPoolLimit
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	log := logger.With().Str("component", "candidates").Logger()
	return &Client{
		baseURL:         cfg.URL,
		apiKey:          cfg.APIKey,
		poolLimit:       poolLimit,
		fallbackEnabled: cfg.FallbackEnabled,
		http:            &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(rate.Limit(rateLimit), burst),
		breaker:         newBreaker[[]profile.Profile]("candidate-source", breakerRecovery, log),
		fallback:        NewFallbackPool(nil),
		logger:          log,
	}
}

// SeedFallback installs a static pool served while the source is down and
// no successful fetch has happened yet.
func (c *Client) SeedFallback(pool []profile.Profile) {
	c.fallback.Refresh(pool)
}

// Fallback exposes the fallback pool for status reporting.
func (c *Client) Fallback() *FallbackPool {
	return c.fallback
}

// GetCandidates returns a discovery pool for the user. The bool reports a
// degraded pool: true means the result came from the fallback rather than
// the live source. An error is returned only when the source failed and no
// fallback was available.
func (c *Client) GetCandidates(ctx context.Context, userID string, limit int) ([]profile.Profile, bool, error) {
	if limit <= 0 || limit > c.poolLimit {
		limit = c.poolLimit
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("candidate rate limiter: %w", err)
	}

	start := time.Now()
	pool, err := c.breaker.Execute(func() ([]profile.Profile, error) {
		return c.fetch(ctx, userID, limit)
	})
	recordBreakerResult("candidate-source", err)

	if err != nil {
		if c.fallbackEnabled {
			if cached, ok := c.fallback.Candidates(userID, limit); ok {
				metrics.RecordCandidateFetch("fallback", time.Since(start))
				c.logger.Warn().Err(err).
					Str("user_id", userID).
					Int("pool", len(cached)).
					Msg("Candidate source unavailable, serving fallback pool")
				return cached, true, nil
			}
		}
		metrics.RecordCandidateFetch("error", time.Since(start))
		return nil, true, fmt.Errorf("candidate source: %w", err)
	}

	c.fallback.Refresh(pool)
	metrics.RecordCandidateFetch("success", time.Since(start))
	return pool, false, nil
}

func (c *Client) fetch(ctx context.Context, userID string, limit int) ([]profile.Profile, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf(candidatesPathFmt, c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create candidate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candidate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("candidate request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope candidatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode candidate response: %w", err)
	}
	return envelope.Candidates, nil
}
