// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector interface matches the store's value-log GC entry point.
//
// This interface allows the GC service to work with the Badger-backed store
// without importing the store package, avoiding a dependency cycle if the
// store ever grows supervision hooks of its own.
//
// Satisfied by *store.BadgerStore.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// BadgerGCService runs periodic Badger value-log garbage collection.
//
// Badger never reclaims value-log space on its own; the application must call
// RunValueLogGC on a schedule. This service owns that schedule as a supervised
// loop in the data layer, so a panic inside a GC round is restarted like any
// other service failure instead of silently ending compaction for the life of
// the process.
//
// Example usage:
//
//	svc := services.NewBadgerGCService(badgerStore, 10*time.Minute, 0.5, logger)
//	tree.AddDataService(svc)
type BadgerGCService struct {
	gc           GarbageCollector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
	name         string
}

// NewBadgerGCService creates a new Badger GC service.
//
// A zero or negative interval defaults to 10 minutes. A discard ratio outside
// (0, 1) defaults to 0.5, Badger's recommended starting point: value-log files
// are rewritten once half their data is stale.
func NewBadgerGCService(gc GarbageCollector, interval time.Duration, discardRatio float64, logger zerolog.Logger) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &BadgerGCService{
		gc:           gc,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "badger-gc").Logger(),
		name:         "badger-gc",
	}
}

// Serve implements suture.Service.
//
// Runs one GC round per tick until the context is canceled. A failed round is
// logged and retried at the next tick rather than crashing the service; GC
// failures are advisory and the store remains fully functional without them.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug().
		Dur("interval", s.interval).
		Float64("discard_ratio", s.discardRatio).
		Msg("Badger GC loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(s.discardRatio); err != nil {
				s.logger.Error().Err(err).Msg("Badger GC round failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Badger GC round complete")
		}
	}
}

// String names the service in suture's lifecycle logs.
func (s *BadgerGCService) String() string {
	return s.name
}
