// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"context"
	"time"

	"github.com/pmahlen/amora/internal/profile"
)

// Store collections for per-user engine state.
const (
	collectionProfiles = "profiles"
	collectionWeights  = "weights"
	collectionQueues   = "queues"
	collectionSignals  = "signals"
)

// Persister saves and loads per-user engine state. Save and Delete are
// fire-and-forget: implementations queue the write, log failures, and must
// never block the caller. In-memory state is always authoritative.
type Persister interface {
	// Load reads the stored value for collection/key into value. The bool
	// reports whether a value existed.
	Load(ctx context.Context, collection, key string, value any) (bool, error)

	// Save schedules a durable write of value under collection/key.
	Save(collection, key string, value any)

	// Delete schedules removal of collection/key.
	Delete(collection, key string)
}

// nopPersister drops all writes and never finds anything. Used when the
// engine runs without a durable store.
type nopPersister struct{}

func (nopPersister) Load(context.Context, string, string, any) (bool, error) { return false, nil }

func (nopPersister) Save(string, string, any) {}

func (nopPersister) Delete(string, string) {}

// nopPublisher drops all events. Used when the engine runs without a bus.
type nopPublisher struct{}

func (nopPublisher) PublishLike(string, string, bool, bool) {}

func (nopPublisher) PublishPass(string, string, bool) {}

func (nopPublisher) PublishSignal(profile.InteractionSignal) {}

// weightsRecord is the persisted form of a user's learned weights.
type weightsRecord struct {
	Weights  profile.Weights           `json:"weights"`
	Explored map[profile.Attribute]int `json:"explored,omitempty"`
}

// queueRecord is the persisted form of a user's queue state, including the
// full entry snapshots so a restart can resume serving without re-fetching
// candidates.
type queueRecord struct {
	Queue           []QueueEntry                 `json:"queue,omitempty"`
	Served          []string                     `json:"served,omitempty"`
	Interactions    map[string]InteractionRecord `json:"interactions,omitempty"`
	LastPopulated   time.Time                    `json:"last_populated"`
	LastTriggerTurn int                          `json:"last_trigger_turn"`
}

// persistWeightsLocked schedules a write of the user's weights and signal
// history. Caller holds st.mu.
func (e *Engine) persistWeightsLocked(st *userState) {
	explored := make(map[profile.Attribute]int, len(st.explored))
	for attr, n := range st.explored {
		explored[attr] = n
	}
	e.store.Save(collectionWeights, st.userID, weightsRecord{
		Weights:  st.weights,
		Explored: explored,
	})

	signals := make([]profile.InteractionSignal, len(st.signals))
	copy(signals, st.signals)
	e.store.Save(collectionSignals, st.userID, signals)
}

// persistQueueLocked schedules a write of the user's queue state. Caller
// holds st.mu.
func (e *Engine) persistQueueLocked(st *userState) {
	rec := queueRecord{
		Queue:           make([]QueueEntry, len(st.queue)),
		Served:          make([]string, 0, len(st.served)),
		Interactions:    make(map[string]InteractionRecord, len(st.interactions)),
		LastPopulated:   st.lastPopulated,
		LastTriggerTurn: st.lastTriggerTurn,
	}
	copy(rec.Queue, st.queue)
	for id := range st.served {
		rec.Served = append(rec.Served, id)
	}
	for id, ir := range st.interactions {
		rec.Interactions[id] = ir
	}
	e.store.Save(collectionQueues, st.userID, rec)
}

// loadUserState hydrates a user's state from the store. A missing or
// unreadable profile reports ErrProfileNotFound; missing auxiliary records
// fall back to zero state so a partial write never blocks a user.
func (e *Engine) loadUserState(ctx context.Context, userID string) (*userState, error) {
	var prof profile.Profile
	found, err := e.store.Load(ctx, collectionProfiles, userID, &prof)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("profile load failed, treating as missing")
		return nil, ErrProfileNotFound
	}
	if !found {
		return nil, ErrProfileNotFound
	}

	st := newUserState(userID, &prof)

	var wr weightsRecord
	switch found, err := e.store.Load(ctx, collectionWeights, userID, &wr); {
	case err != nil:
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("weights load failed, using defaults")
	case found:
		st.weights = wr.Weights.Normalize()
		if wr.Explored != nil {
			st.explored = wr.Explored
		}
	}

	var qr queueRecord
	switch found, err := e.store.Load(ctx, collectionQueues, userID, &qr); {
	case err != nil:
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("queue load failed, starting empty")
	case found:
		st.queue = qr.Queue
		for _, id := range qr.Served {
			st.served[id] = struct{}{}
		}
		if qr.Interactions != nil {
			st.interactions = qr.Interactions
		}
		st.lastPopulated = qr.LastPopulated
		st.lastTriggerTurn = qr.LastTriggerTurn
	}

	var signals []profile.InteractionSignal
	switch found, err := e.store.Load(ctx, collectionSignals, userID, &signals); {
	case err != nil:
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("signal history load failed, starting empty")
	case found:
		st.signals = signals
	}

	return st, nil
}
