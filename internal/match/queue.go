// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pmahlen/amora/internal/metrics"
	"github.com/pmahlen/amora/internal/profile"
)

// noRecommendationsMessage is the neutral result for an exhausted queue.
const noRecommendationsMessage = "No new recommendations right now. Check back soon."

// DequeueRecommendation pops the highest-scored unserved candidate for the
// user, repopulating the queue first when it is empty. The popped candidate
// joins the served-set and is never recommended to this user again unless
// the queue is explicitly reset.
func (e *Engine) DequeueRecommendation(ctx context.Context, userID string) (DequeueResult, error) {
	if err := e.checkOpen(); err != nil {
		return DequeueResult{}, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return DequeueResult{}, fmt.Errorf("%s: %w", userID, err)
	}

	var degraded bool

	st.mu.Lock()
	if len(st.queue) == 0 {
		if st.populating {
			// Another request is already filling this queue; report the
			// neutral result rather than blocking or duplicating work.
			st.mu.Unlock()
			return DequeueResult{Message: noRecommendationsMessage}, nil
		}
		st.populating = true
		seeker := st.profile
		weights := st.weights
		depth := len(st.signals)
		served := make(map[string]struct{}, len(st.served))
		for id := range st.served {
			served[id] = struct{}{}
		}
		st.mu.Unlock()

		entries, deg, perr := e.buildQueue(ctx, seeker, weights, depth, served)
		degraded = deg
		if perr != nil {
			// Candidate source failure degrades the call instead of
			// failing it; the next dequeue retries population.
			e.logger.Warn().Err(perr).Str("user_id", userID).
				Msg("queue population failed, serving empty result")
			degraded = true
			entries = nil
		}

		st.mu.Lock()
		st.populating = false
		st.queue = entries
		st.lastPopulated = time.Now().UTC()
	}

	if len(st.queue) == 0 {
		e.persistQueueLocked(st)
		st.mu.Unlock()
		return DequeueResult{Message: noRecommendationsMessage, Degraded: degraded}, nil
	}

	entry := st.queue[0]
	st.queue = st.queue[1:]
	st.served[entry.CandidateID] = struct{}{}
	remaining := len(st.queue)
	e.persistQueueLocked(st)
	st.mu.Unlock()

	metrics.RecommendationsServed.Inc()
	e.logger.Debug().
		Str("user_id", userID).
		Str("candidate_id", entry.CandidateID).
		Float64("score", entry.Score.TotalScore).
		Int("remaining", remaining).
		Msg("recommendation served")

	return DequeueResult{
		HasMore:        remaining > 0,
		RemainingCount: remaining,
		Recommendation: &Recommendation{
			CandidateID: entry.CandidateID,
			Score:       entry.Score,
			Candidate:   entry.Candidate,
		},
		Degraded: degraded,
	}, nil
}

// buildQueue fetches a candidate pool, scores it in parallel, drops
// veto-failing and already-served candidates, and returns the surviving
// entries sorted by score descending. The bool reports a degraded pool.
func (e *Engine) buildQueue(ctx context.Context, seeker *profile.Profile, weights profile.Weights, depth int, served map[string]struct{}) ([]QueueEntry, bool, error) {
	start := time.Now()

	pool, degraded, err := e.candidates.GetCandidates(ctx, seeker.UserID, e.cfg.Queue.PoolLimit)
	if err != nil {
		metrics.RecordQueuePopulation("error", time.Since(start), 0)
		return nil, true, fmt.Errorf("fetch candidates: %w", err)
	}

	type slot struct {
		entry QueueEntry
		ok    bool
	}
	slots := make([]slot, len(pool))

	sem := make(chan struct{}, e.cfg.Queue.ScoreWorkers)
	var wg sync.WaitGroup

	for i := range pool {
		cand := pool[i]
		if cand.UserID == "" || cand.UserID == seeker.UserID {
			continue
		}
		if _, seen := served[cand.UserID]; seen {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cand profile.Profile) {
			defer wg.Done()
			defer func() { <-sem }()

			score := e.scorer.Score(seeker, &cand, weights, depth)
			if score.Breakdown.VetoViolation {
				return
			}
			slots[i] = slot{
				entry: QueueEntry{
					CandidateID: cand.UserID,
					Score:       score,
					Candidate:   cand,
				},
				ok: true,
			}
		}(i, cand)
	}
	wg.Wait()

	entries := make([]QueueEntry, 0, len(pool))
	for _, s := range slots {
		if s.ok {
			entries = append(entries, s.entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score.TotalScore != entries[j].Score.TotalScore {
			return entries[i].Score.TotalScore > entries[j].Score.TotalScore
		}
		return entries[i].CandidateID < entries[j].CandidateID
	})

	if len(entries) > e.cfg.Queue.MaxSize {
		entries = entries[:e.cfg.Queue.MaxSize]
	}

	result := "success"
	if degraded {
		result = "degraded"
	}
	metrics.RecordQueuePopulation(result, time.Since(start), len(entries))

	e.logger.Debug().
		Str("user_id", seeker.UserID).
		Int("pool", len(pool)).
		Int("queued", len(entries)).
		Bool("degraded", degraded).
		Msg("queue populated")

	return entries, degraded, nil
}

// Like records a like decision for the candidate and consults the match
// oracle for mutuality. A like after an earlier pass is flagged as a change
// of mind. Oracle failure degrades to a pending non-match.
func (e *Engine) Like(ctx context.Context, userID, candidateID string, meta Metadata) (LikeResult, error) {
	if err := e.checkOpen(); err != nil {
		return LikeResult{}, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return LikeResult{}, fmt.Errorf("%s: %w", userID, err)
	}

	rec := InteractionRecord{
		Action:       ActionLike,
		Timestamp:    time.Now().UTC(),
		Context:      meta.Context,
		MatchPending: true,
	}

	st.mu.Lock()
	if prev, ok := st.interactions[candidateID]; ok {
		rec.PreviousAction = prev.Action
		rec.ChangedMind = prev.Action == ActionPass
	}
	st.interactions[candidateID] = rec
	e.persistQueueLocked(st)
	st.mu.Unlock()

	// The oracle call stays outside the lock so a slow collaborator never
	// blocks other operations on this user.
	var isMatch, degraded bool
	if both, oerr := e.oracle.DidBothLike(ctx, userID, candidateID); oerr != nil {
		degraded = true
		e.logger.Warn().Err(oerr).
			Str("user_id", userID).
			Str("candidate_id", candidateID).
			Msg("match oracle unavailable, assuming no match yet")
	} else {
		isMatch = both
	}

	if isMatch {
		st.mu.Lock()
		if cur, ok := st.interactions[candidateID]; ok && cur.Action == ActionLike {
			cur.MatchPending = false
			st.interactions[candidateID] = cur
			e.persistQueueLocked(st)
		}
		st.mu.Unlock()

		metrics.MutualMatches.Inc()
		e.logger.Info().
			Str("user_id", userID).
			Str("candidate_id", candidateID).
			Msg("mutual match confirmed")
	}

	metrics.RecordInteraction("like", rec.ChangedMind)
	e.events.PublishLike(userID, candidateID, isMatch, rec.ChangedMind)

	return LikeResult{
		IsMatch:     isMatch,
		IsPending:   !isMatch,
		ChangedMind: rec.ChangedMind,
		Message:     likeMessage(isMatch, rec.ChangedMind),
		Degraded:    degraded,
	}, nil
}

// Pass records a pass decision for the candidate. A pass after an earlier
// like is flagged as a change of mind and clears the pending-match state.
func (e *Engine) Pass(ctx context.Context, userID, candidateID string, meta Metadata) (PassResult, error) {
	if err := e.checkOpen(); err != nil {
		return PassResult{}, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return PassResult{}, fmt.Errorf("%s: %w", userID, err)
	}

	rec := InteractionRecord{
		Action:    ActionPass,
		Timestamp: time.Now().UTC(),
		Context:   meta.Context,
	}

	st.mu.Lock()
	if prev, ok := st.interactions[candidateID]; ok {
		rec.PreviousAction = prev.Action
		rec.ChangedMind = prev.Action == ActionLike
	}
	st.interactions[candidateID] = rec
	e.persistQueueLocked(st)
	st.mu.Unlock()

	metrics.RecordInteraction("pass", rec.ChangedMind)
	e.events.PublishPass(userID, candidateID, rec.ChangedMind)

	return PassResult{
		ChangedMind: rec.ChangedMind,
		Message:     passMessage(rec.ChangedMind),
	}, nil
}

// Interaction returns the recorded decision state for a (user, candidate)
// pair. The bool reports whether any decision exists.
func (e *Engine) Interaction(ctx context.Context, userID, candidateID string) (InteractionRecord, bool, error) {
	if err := e.checkOpen(); err != nil {
		return InteractionRecord{}, false, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return InteractionRecord{}, false, fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	rec, ok := st.interactions[candidateID]
	st.mu.Unlock()
	return rec, ok, nil
}

// GetQueueStatus returns a read-only snapshot of the user's queue state.
// It never mutates anything; two consecutive calls with no intervening
// operation return identical results.
func (e *Engine) GetQueueStatus(ctx context.Context, userID string) (QueueStatus, error) {
	if err := e.checkOpen(); err != nil {
		return QueueStatus{}, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return QueueStatus{}, fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	status := QueueStatus{
		QueueSize:          len(st.queue),
		TotalServed:        len(st.served),
		HasRecommendations: len(st.queue) > 0,
		LastUpdated:        st.lastPopulated,
	}
	st.mu.Unlock()

	return status, nil
}

// ResetUserQueue clears the user's queue, served-set, and population
// timestamp. Interaction history is retained. This is an explicit
// administrative operation and is never invoked implicitly.
func (e *Engine) ResetUserQueue(ctx context.Context, userID string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	st.queue = nil
	st.served = make(map[string]struct{})
	st.lastPopulated = time.Time{}
	st.lastTriggerTurn = -1
	e.persistQueueLocked(st)
	st.mu.Unlock()

	e.logger.Info().Str("user_id", userID).Msg("user queue reset")
	return nil
}

// likeMessage selects the response variant for a like decision.
func likeMessage(isMatch, changedMind bool) string {
	switch {
	case isMatch && changedMind:
		return "It's a match! Glad you gave them another look."
	case isMatch:
		return "It's a match! You both liked each other."
	case changedMind:
		return "Noted. We'll let them know you came around."
	default:
		return "Liked. We'll let you know if the feeling is mutual."
	}
}

// passMessage selects the response variant for a pass decision.
func passMessage(changedMind bool) string {
	if changedMind {
		return "Understood. We'll take that one off the table."
	}
	return "Passed. On to the next one."
}
