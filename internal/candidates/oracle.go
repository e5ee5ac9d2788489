// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package candidates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/metrics"
)

const defaultOracleTimeout = 5 * time.Second

// oracleResponse is the wire envelope of the mutual-like oracle.
type oracleResponse struct {
	Mutual bool `json:"mutual"`
}

// OracleClient asks the external like store whether a pair has liked each
// other. Failures surface as errors; the engine degrades a failed check to
// a pending non-match rather than failing the like call.
type OracleClient struct {
	baseURL string
	apiKey  string

	http    *http.Client
	breaker *gobreaker.CircuitBreaker[bool]
	logger  zerolog.Logger
}

// NewOracleClient builds a match oracle client from configuration.
func NewOracleClient(cfg config.OracleConfig, logger zerolog.Logger) *OracleClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}

	log := logger.With().Str("component", "oracle").Logger()
	return &OracleClient{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker[bool]("match-oracle", breakerRecovery, log),
		logger:  log,
	}
}

// DidBothLike reports whether candidateID has also liked userID.
func (c *OracleClient) DidBothLike(ctx context.Context, userID, candidateID string) (bool, error) {
	mutual, err := c.breaker.Execute(func() (bool, error) {
		return c.check(ctx, userID, candidateID)
	})
	recordBreakerResult("match-oracle", err)

	if err != nil {
		metrics.RecordOracleCheck("error")
		return false, fmt.Errorf("match oracle: %w", err)
	}

	if mutual {
		metrics.RecordOracleCheck("mutual")
	} else {
		metrics.RecordOracleCheck("pending")
	}
	return mutual, nil
}

func (c *OracleClient) check(ctx context.Context, userID, candidateID string) (bool, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("candidate_id", candidateID)
	reqURL := fmt.Sprintf("%s/api/v1/likes/check?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return false, fmt.Errorf("oracle request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("decode oracle response: %w", err)
	}
	return envelope.Mutual, nil
}
