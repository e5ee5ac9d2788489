// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"
)

// Tier names reported by Classify for the two non-keyword outcomes.
const (
	tierLongMessage = "long_message"
	tierFallback    = "fallback"
)

// TriggerPolicy decides whether a conversational message should surface a
// recommendation. Messages are classified into ordered keyword tiers, each
// carrying a fixed trigger probability, and the decision is a draw against
// that probability from a seedable source.
type TriggerPolicy struct {
	cfg TriggerConfig

	// rng is seeded for reproducible draws in tests and replays.
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewTriggerPolicy creates a policy with the given tiers and seed.
func NewTriggerPolicy(cfg TriggerConfig, seed int64) *TriggerPolicy {
	return &TriggerPolicy{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // G404: seeded for determinism, not security
	}
}

// Classify returns the tier name and trigger probability for a message.
// Keyword tiers are checked in configured order with case-insensitive
// substring matching; the first hit wins. Messages matching no tier fall to
// the long-message tier by length, then to the fallback probability.
func (p *TriggerPolicy) Classify(message string) (string, float64) {
	lower := strings.ToLower(message)

	for _, tier := range p.cfg.Tiers {
		for _, keyword := range tier.Keywords {
			if strings.Contains(lower, keyword) {
				return tier.Name, tier.Probability
			}
		}
	}

	if utf8.RuneCountInString(message) >= p.cfg.LongMessageChars {
		return tierLongMessage, p.cfg.LongMessageProbability
	}

	return tierFallback, p.cfg.FallbackProbability
}

// Decide classifies the message and draws against its tier probability.
// Returns the decision and the tier name for logging.
func (p *TriggerPolicy) Decide(message string) (bool, string) {
	tier, probability := p.Classify(message)

	p.rngMu.Lock()
	draw := p.rng.Float64()
	p.rngMu.Unlock()

	return draw < probability, tier
}
