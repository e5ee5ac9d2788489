// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package main

import (
	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/match"
)

// buildEngineConfig maps the application-level match settings onto the
// engine's full configuration. Only the tunables surfaced in config.MatchConfig
// are overridden; everything else keeps the engine defaults, so a zero value
// in the application config means "use the default" rather than "disable".
func buildEngineConfig(cfg *config.Config) *match.Config {
	ec := match.DefaultConfig()

	if cfg.Match.HHCWeight > 0 {
		ec.Scoring.HHCWeight = cfg.Match.HHCWeight
	}
	if cfg.Match.FactualWeight > 0 {
		ec.Scoring.FactualWeight = cfg.Match.FactualWeight
	}
	if cfg.Match.LearningRate > 0 {
		ec.Learning.LearningRate = cfg.Match.LearningRate
	}
	if cfg.Match.QueueSize > 0 {
		ec.Queue.MaxSize = cfg.Match.QueueSize
	}
	if cfg.Candidates.PoolLimit > 0 {
		ec.Queue.PoolLimit = cfg.Candidates.PoolLimit
	}
	if cfg.Match.ScoreCacheTTL > 0 {
		ec.Cache.TTL = cfg.Match.ScoreCacheTTL
	}
	if cfg.Match.ScoreCacheSize > 0 {
		ec.Cache.MaxEntries = cfg.Match.ScoreCacheSize
	}
	if cfg.Match.TriggerSeed != 0 {
		ec.Seed = cfg.Match.TriggerSeed
	}
	if cfg.Match.TriggerCooldownTurns > 0 {
		ec.Trigger.CooldownTurns = cfg.Match.TriggerCooldownTurns
	}

	return ec
}
