// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package main

import (
	"io"
	"testing"
	"time"

	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/logging"
	"github.com/pmahlen/amora/internal/match"
)

//nolint:gochecknoinits // silence the package logger before any test runs
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func TestBuildEngineConfigDefaults(t *testing.T) {
	// An empty application config keeps every engine default
	cfg := &config.Config{}
	ec := buildEngineConfig(cfg)

	def := match.DefaultConfig()
	if ec.Scoring.HHCWeight != def.Scoring.HHCWeight {
		t.Errorf("expected default HHC weight %f, got %f", def.Scoring.HHCWeight, ec.Scoring.HHCWeight)
	}
	if ec.Scoring.FactualWeight != def.Scoring.FactualWeight {
		t.Errorf("expected default factual weight %f, got %f", def.Scoring.FactualWeight, ec.Scoring.FactualWeight)
	}
	if ec.Queue.MaxSize != def.Queue.MaxSize {
		t.Errorf("expected default queue size %d, got %d", def.Queue.MaxSize, ec.Queue.MaxSize)
	}
	if ec.Seed != def.Seed {
		t.Errorf("expected default seed %d, got %d", def.Seed, ec.Seed)
	}
	if len(ec.Trigger.Tiers) == 0 {
		t.Error("expected default trigger tiers to be populated")
	}

	if err := ec.Validate(); err != nil {
		t.Errorf("default engine config should validate: %v", err)
	}
}

func TestBuildEngineConfigOverrides(t *testing.T) {
	cfg := &config.Config{
		Match: config.MatchConfig{
			HHCWeight:            0.7,
			FactualWeight:        0.3,
			LearningRate:         0.2,
			QueueSize:            10,
			ScoreCacheTTL:        time.Minute,
			ScoreCacheSize:       128,
			TriggerSeed:          99,
			TriggerCooldownTurns: 3,
		},
		Candidates: config.CandidatesConfig{
			PoolLimit: 25,
		},
	}
	ec := buildEngineConfig(cfg)

	if ec.Scoring.HHCWeight != 0.7 {
		t.Errorf("expected HHC weight 0.7, got %f", ec.Scoring.HHCWeight)
	}
	if ec.Scoring.FactualWeight != 0.3 {
		t.Errorf("expected factual weight 0.3, got %f", ec.Scoring.FactualWeight)
	}
	if ec.Learning.LearningRate != 0.2 {
		t.Errorf("expected learning rate 0.2, got %f", ec.Learning.LearningRate)
	}
	if ec.Queue.MaxSize != 10 {
		t.Errorf("expected queue size 10, got %d", ec.Queue.MaxSize)
	}
	if ec.Queue.PoolLimit != 25 {
		t.Errorf("expected pool limit 25, got %d", ec.Queue.PoolLimit)
	}
	if ec.Cache.TTL != time.Minute {
		t.Errorf("expected cache TTL 1m, got %v", ec.Cache.TTL)
	}
	if ec.Cache.MaxEntries != 128 {
		t.Errorf("expected cache size 128, got %d", ec.Cache.MaxEntries)
	}
	if ec.Seed != 99 {
		t.Errorf("expected seed 99, got %d", ec.Seed)
	}
	if ec.Trigger.CooldownTurns != 3 {
		t.Errorf("expected cooldown 3 turns, got %d", ec.Trigger.CooldownTurns)
	}

	if err := ec.Validate(); err != nil {
		t.Errorf("overridden engine config should validate: %v", err)
	}
}

func TestNewStoreBackends(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Backend = "memory"

		backing, badgerStore, err := newStore(cfg)
		if err != nil {
			t.Fatalf("newStore failed: %v", err)
		}
		defer backing.Close()

		if badgerStore != nil {
			t.Error("memory backend should not return a badger handle")
		}
	})

	t.Run("badger backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Backend = "badger"
		cfg.Store.Path = t.TempDir()

		backing, badgerStore, err := newStore(cfg)
		if err != nil {
			t.Fatalf("newStore failed: %v", err)
		}
		defer backing.Close()

		if badgerStore == nil {
			t.Error("badger backend should return a badger handle for GC wiring")
		}
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Backend = "redis"

		if _, _, err := newStore(cfg); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}
