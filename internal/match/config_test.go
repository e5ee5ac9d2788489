// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestDefaultTriggerTiers(t *testing.T) {
	tiers := DefaultTriggerTiers()
	if len(tiers) != 4 {
		t.Fatalf("tier count = %d, want 4", len(tiers))
	}

	wantProbs := []float64{0.7, 0.4, 0.3, 0.25}
	for i, tier := range tiers {
		if tier.Probability != wantProbs[i] {
			t.Errorf("tier %q probability = %v, want %v", tier.Name, tier.Probability, wantProbs[i])
		}
		if len(tier.Keywords) == 0 {
			t.Errorf("tier %q has no keywords", tier.Name)
		}
	}

	// Probabilities must descend with intent strength.
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Probability >= tiers[i-1].Probability {
			t.Errorf("tier %q probability %v not below %q", tiers[i].Name, tiers[i].Probability, tiers[i-1].Name)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "weights do not sum to one",
			mutate:  func(c *Config) { c.Scoring.HHCWeight = 0.7 },
			wantErr: "sum to 1.0",
		},
		{
			name:    "negative hhc weight",
			mutate:  func(c *Config) { c.Scoring.HHCWeight = -0.1; c.Scoring.FactualWeight = 1.1 },
			wantErr: "hhc_weight",
		},
		{
			name:    "zero learning rate",
			mutate:  func(c *Config) { c.Learning.LearningRate = 0 },
			wantErr: "learning_rate",
		},
		{
			name:    "learning rate above one",
			mutate:  func(c *Config) { c.Learning.LearningRate = 1.5 },
			wantErr: "learning_rate",
		},
		{
			name:    "zero queue size",
			mutate:  func(c *Config) { c.Queue.MaxSize = 0 },
			wantErr: "max_size",
		},
		{
			name:    "zero pool limit",
			mutate:  func(c *Config) { c.Queue.PoolLimit = 0 },
			wantErr: "pool_limit",
		},
		{
			name:    "zero score workers",
			mutate:  func(c *Config) { c.Queue.ScoreWorkers = 0 },
			wantErr: "score_workers",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Trigger.CooldownTurns = -1 },
			wantErr: "cooldown_turns",
		},
		{
			name:    "tier probability above one",
			mutate:  func(c *Config) { c.Trigger.Tiers[0].Probability = 1.2 },
			wantErr: "tiers[0]",
		},
		{
			name:    "tier without keywords",
			mutate:  func(c *Config) { c.Trigger.Tiers[1].Keywords = nil },
			wantErr: "tiers[1]",
		},
		{
			name:    "zero cache entries",
			mutate:  func(c *Config) { c.Cache.MaxEntries = 0 },
			wantErr: "max_entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	orig := DefaultConfig()
	clone := orig.Clone()

	clone.Scoring.HHCWeight = 0.9
	clone.Trigger.Tiers[0].Keywords[0] = "mutated"
	clone.Trigger.Tiers = append(clone.Trigger.Tiers, TriggerTier{Name: "extra", Keywords: []string{"x"}, Probability: 0.5})

	if orig.Scoring.HHCWeight != 0.6 {
		t.Error("clone mutation leaked into original scoring config")
	}
	if orig.Trigger.Tiers[0].Keywords[0] == "mutated" {
		t.Error("clone shares keyword slices with original")
	}
	if len(orig.Trigger.Tiers) != 4 {
		t.Errorf("original tier count = %d, want 4", len(orig.Trigger.Tiers))
	}
}
