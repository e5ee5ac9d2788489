// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the match engine.
type Config struct {
	// Scoring contains the score combination parameters.
	Scoring ScoringConfig `json:"scoring"`

	// Learning contains the preference learning parameters.
	Learning LearningConfig `json:"learning"`

	// Queue contains recommendation queue parameters.
	Queue QueueConfig `json:"queue"`

	// Trigger contains the conversational trigger policy.
	Trigger TriggerConfig `json:"trigger"`

	// Cache contains score caching parameters.
	Cache CacheConfig `json:"cache"`

	// Seed is the random seed for deterministic trigger draws.
	// Zero selects the built-in default seed.
	Seed int64 `json:"seed"`
}

// ScoringConfig contains score combination parameters.
type ScoringConfig struct {
	// HHCWeight is the personality score's share of the total.
	// Default: 0.6.
	HHCWeight float64 `json:"hhc_weight"`

	// FactualWeight is the factual score's share of the total.
	// HHCWeight and FactualWeight must sum to 1.
	// Default: 0.4.
	FactualWeight float64 `json:"factual_weight"`

	// DepthBonusStep is the confidence bonus per recorded interaction
	// signal. Default: 0.02.
	DepthBonusStep float64 `json:"depth_bonus_step"`

	// DepthBonusCap is the maximum confidence bonus from interaction
	// depth. Default: 0.2.
	DepthBonusCap float64 `json:"depth_bonus_cap"`
}

// LearningConfig contains preference learning parameters.
type LearningConfig struct {
	// LearningRate scales the net force into a weight delta.
	// Default: 0.1.
	LearningRate float64 `json:"learning_rate"`

	// LowConfidenceThreshold is the weight below which an attribute is
	// considered under-explored by question selection.
	// Default: 0.3.
	LowConfidenceThreshold float64 `json:"low_confidence_threshold"`
}

// QueueConfig contains recommendation queue parameters.
type QueueConfig struct {
	// MaxSize is the maximum entries stored per population.
	// Default: 20.
	MaxSize int `json:"max_size"`

	// PoolLimit is how many candidates to request from the source per
	// population. Default: 50.
	PoolLimit int `json:"pool_limit"`

	// ScoreWorkers bounds the parallel scoring fan-out during population.
	// Default: 8.
	ScoreWorkers int `json:"score_workers"`
}

// TriggerTier is one ordered keyword tier of the conversational trigger
// policy. The first tier whose keywords match the message decides the draw
// probability.
type TriggerTier struct {
	// Name identifies the tier in logs and metrics.
	Name string `json:"name"`

	// Keywords are matched case-insensitively as substrings.
	Keywords []string `json:"keywords"`

	// Probability is the chance of triggering when this tier matches.
	Probability float64 `json:"probability"`
}

// TriggerConfig contains the conversational trigger policy.
type TriggerConfig struct {
	// CooldownTurns suppresses triggering for this many conversational
	// turns after a recommendation was shown. Default: 5.
	CooldownTurns int `json:"cooldown_turns"`

	// LongMessageChars is the length at which a message with no keyword
	// match uses LongMessageProbability instead of the fallback.
	// Default: 120.
	LongMessageChars int `json:"long_message_chars"`

	// LongMessageProbability is the draw chance for long messages with no
	// keyword match. Default: 0.2.
	LongMessageProbability float64 `json:"long_message_probability"`

	// FallbackProbability is the draw chance when nothing else matches.
	// Default: 0.1.
	FallbackProbability float64 `json:"fallback_probability"`

	// Tiers are evaluated in order; first match wins.
	Tiers []TriggerTier `json:"tiers"`
}

// CacheConfig contains score caching parameters.
type CacheConfig struct {
	// Enabled controls whether pair scores are cached.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL bounds how long a cached pair score stays valid.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached pair scores.
	// Default: 4096.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			HHCWeight:      0.6,
			FactualWeight:  0.4,
			DepthBonusStep: 0.02,
			DepthBonusCap:  0.2,
		},
		Learning: LearningConfig{
			LearningRate:           0.1,
			LowConfidenceThreshold: 0.3,
		},
		Queue: QueueConfig{
			MaxSize:      20,
			PoolLimit:    50,
			ScoreWorkers: 8,
		},
		Trigger: TriggerConfig{
			CooldownTurns:          5,
			LongMessageChars:       120,
			LongMessageProbability: 0.2,
			FallbackProbability:    0.1,
			Tiers:                  DefaultTriggerTiers(),
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 4096,
		},
		Seed: 42, // Default seed for determinism
	}
}

// DefaultTriggerTiers returns the standard keyword tiers in evaluation order.
func DefaultTriggerTiers() []TriggerTier {
	return []TriggerTier{
		{
			Name:        "high",
			Keywords:    []string{"match me", "recommend", "show me someone", "who else", "find someone", "set me up"},
			Probability: 0.7,
		},
		{
			Name:        "medium",
			Keywords:    []string{"dating", "meet someone", "single", "partner", "relationship"},
			Probability: 0.4,
		},
		{
			Name:        "process",
			Keywords:    []string{"next", "continue", "what now", "more options"},
			Probability: 0.3,
		},
		{
			Name:        "positive",
			Keywords:    []string{"yes", "sure", "sounds good", "okay", "great"},
			Probability: 0.25,
		},
	}
}

// Validate rejects out-of-range engine settings.
func (c *Config) Validate() error {
	if c.Scoring.HHCWeight < 0 || c.Scoring.HHCWeight > 1 {
		return fmt.Errorf("scoring.hhc_weight must be in [0, 1], got %f", c.Scoring.HHCWeight)
	}
	if c.Scoring.FactualWeight < 0 || c.Scoring.FactualWeight > 1 {
		return fmt.Errorf("scoring.factual_weight must be in [0, 1], got %f", c.Scoring.FactualWeight)
	}
	if sum := c.Scoring.HHCWeight + c.Scoring.FactualWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %f", sum)
	}
	if c.Scoring.DepthBonusStep < 0 {
		return fmt.Errorf("scoring.depth_bonus_step must be non-negative, got %f", c.Scoring.DepthBonusStep)
	}
	if c.Scoring.DepthBonusCap < 0 || c.Scoring.DepthBonusCap > 1 {
		return fmt.Errorf("scoring.depth_bonus_cap must be in [0, 1], got %f", c.Scoring.DepthBonusCap)
	}

	if c.Learning.LearningRate <= 0 || c.Learning.LearningRate > 1 {
		return fmt.Errorf("learning.learning_rate must be in (0, 1], got %f", c.Learning.LearningRate)
	}
	if c.Learning.LowConfidenceThreshold < 0 || c.Learning.LowConfidenceThreshold > 1 {
		return fmt.Errorf("learning.low_confidence_threshold must be in [0, 1], got %f", c.Learning.LowConfidenceThreshold)
	}

	if c.Queue.MaxSize < 1 {
		return fmt.Errorf("queue.max_size must be positive, got %d", c.Queue.MaxSize)
	}
	if c.Queue.PoolLimit < 1 {
		return fmt.Errorf("queue.pool_limit must be positive, got %d", c.Queue.PoolLimit)
	}
	if c.Queue.ScoreWorkers < 1 {
		return fmt.Errorf("queue.score_workers must be positive, got %d", c.Queue.ScoreWorkers)
	}

	if c.Trigger.CooldownTurns < 0 {
		return fmt.Errorf("trigger.cooldown_turns must be non-negative, got %d", c.Trigger.CooldownTurns)
	}
	for i, tier := range c.Trigger.Tiers {
		if tier.Probability < 0 || tier.Probability > 1 {
			return fmt.Errorf("trigger.tiers[%d].probability must be in [0, 1], got %f", i, tier.Probability)
		}
		if len(tier.Keywords) == 0 {
			return fmt.Errorf("trigger.tiers[%d] has no keywords", i)
		}
	}
	if c.Trigger.LongMessageProbability < 0 || c.Trigger.LongMessageProbability > 1 {
		return fmt.Errorf("trigger.long_message_probability must be in [0, 1], got %f", c.Trigger.LongMessageProbability)
	}
	if c.Trigger.FallbackProbability < 0 || c.Trigger.FallbackProbability > 1 {
		return fmt.Errorf("trigger.fallback_probability must be in [0, 1], got %f", c.Trigger.FallbackProbability)
	}

	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}

	return nil
}

// Clone deep-copies c so callers can tweak a base configuration.
func (c *Config) Clone() *Config {
	clone := *c

	clone.Trigger.Tiers = make([]TriggerTier, len(c.Trigger.Tiers))
	for i, tier := range c.Trigger.Tiers {
		copied := tier
		copied.Keywords = make([]string, len(tier.Keywords))
		copy(copied.Keywords, tier.Keywords)
		clone.Trigger.Tiers[i] = copied
	}

	return &clone
}
