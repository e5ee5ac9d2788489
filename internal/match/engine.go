// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package match implements the hybrid compatibility engine: scoring pairs of
// profiles by combining personality-signature distance with weighted factual
// comparison and hard veto filters, learning per-user preference weights from
// interaction signals, and serving de-duplicated per-user recommendation
// queues with reversible like/pass decisions.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/pmahlen/amora/internal/metrics"
	"github.com/pmahlen/amora/internal/profile"
	"github.com/pmahlen/amora/internal/signature"
)

// defaultSeed is used when the configured trigger seed is zero.
const defaultSeed = 42

// Dependencies are the external collaborators the engine needs. Candidates
// and Oracle are required; Store and Events default to no-ops when nil.
type Dependencies struct {
	Candidates CandidateSource
	Oracle     MatchOracle
	Store      Persister
	Events     Publisher
}

// userState is the single atomically-updated record holding everything the
// engine knows about one user. All fields are guarded by mu; cross-user
// operations never share a lock.
type userState struct {
	mu sync.Mutex

	userID string

	// profile is replaced wholesale on creation and never mutated in
	// place, so the pointed-to value may be read after releasing mu.
	profile *profile.Profile

	weights  profile.Weights
	explored map[profile.Attribute]int
	signals  []profile.InteractionSignal

	queue        []QueueEntry
	served       map[string]struct{}
	interactions map[string]InteractionRecord

	lastPopulated time.Time
	populating    bool

	// lastTriggerTurn is the conversational turn index of the most recent
	// successful trigger, -1 when none.
	lastTriggerTurn int

	// version increments whenever scoring inputs change and is embedded
	// in score cache keys, aging out stale entries without a scan.
	version int64
}

func newUserState(userID string, prof *profile.Profile) *userState {
	return &userState{
		userID:          userID,
		profile:         prof,
		weights:         profile.DefaultWeights(),
		explored:        make(map[profile.Attribute]int),
		served:          make(map[string]struct{}),
		interactions:    make(map[string]InteractionRecord),
		lastTriggerTurn: -1,
		version:         1,
	}
}

// Engine is the compatibility matching service. Create one per process with
// NewEngine and share it by reference.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	scorer  *Scorer
	learner *Learner
	trigger *TriggerPolicy

	candidates CandidateSource
	oracle     MatchOracle
	store      Persister
	events     Publisher

	mu    sync.RWMutex
	users map[string]*userState

	cache *expirable.LRU[string, CompatibilityScore]

	requestCount atomic.Int64
	errorCount   atomic.Int64
	cacheHits    atomic.Int64

	closed atomic.Bool
}

// EngineStats is a snapshot of engine activity counters.
type EngineStats struct {
	Requests           int64 `json:"requests"`
	Errors             int64 `json:"errors"`
	CacheHits          int64 `json:"cache_hits"`
	CacheSize          int   `json:"cache_size"`
	ActiveUsers        int   `json:"active_users"`
	FactualEvaluations int64 `json:"factual_evaluations"`
}

// NewEngine creates a match engine. A nil cfg uses DefaultConfig.
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Candidates == nil {
		return nil, errors.New("candidate source is required")
	}
	if deps.Oracle == nil {
		return nil, errors.New("match oracle is required")
	}
	if deps.Store == nil {
		deps.Store = nopPersister{}
	}
	if deps.Events == nil {
		deps.Events = nopPublisher{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	e := &Engine{
		cfg:        *cfg.Clone(),
		logger:     logger.With().Str("component", "match").Logger(),
		scorer:     NewScorer(cfg.Scoring),
		learner:    NewLearner(cfg.Learning),
		trigger:    NewTriggerPolicy(cfg.Trigger, seed),
		candidates: deps.Candidates,
		oracle:     deps.Oracle,
		store:      deps.Store,
		events:     deps.Events,
		users:      make(map[string]*userState),
	}

	if cfg.Cache.Enabled {
		e.cache = expirable.NewLRU[string, CompatibilityScore](cfg.Cache.MaxEntries, nil, cfg.Cache.TTL)
	}

	e.logger.Info().
		Float64("hhc_weight", cfg.Scoring.HHCWeight).
		Float64("factual_weight", cfg.Scoring.FactualWeight).
		Float64("learning_rate", cfg.Learning.LearningRate).
		Int("queue_size", cfg.Queue.MaxSize).
		Bool("cache", cfg.Cache.Enabled).
		Msg("match engine initialized")

	return e, nil
}

// Close marks the engine closed. Subsequent operations fail with
// ErrEngineClosed. The engine does not own its collaborators; callers shut
// those down separately.
func (e *Engine) Close() error {
	e.closed.Store(true)
	return nil
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

// state returns the in-memory record for userID, if any.
func (e *Engine) state(userID string) (*userState, bool) {
	e.mu.RLock()
	st, ok := e.users[userID]
	e.mu.RUnlock()
	return st, ok
}

// getOrLoadState returns the user's state, hydrating it from the store on a
// miss. Reports ErrProfileNotFound when the user does not exist anywhere.
func (e *Engine) getOrLoadState(ctx context.Context, userID string) (*userState, error) {
	if st, ok := e.state(userID); ok {
		return st, nil
	}

	loaded, err := e.loadUserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.users[userID]; ok {
		// Lost the hydration race; the installed record wins.
		return existing, nil
	}
	e.users[userID] = loaded
	e.logger.Debug().Str("user_id", userID).Msg("user state hydrated from store")
	return loaded, nil
}

// CreateProfile registers a new user. The signature code is parsed and
// stored in canonical form; weights start at the defaults. Reports
// ErrProfileExists when the user is already registered.
func (e *Engine) CreateProfile(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	e.requestCount.Add(1)

	if p.UserID == "" {
		e.errorCount.Add(1)
		return nil, errors.New("user id is required")
	}

	vec, err := signature.Parse(p.SignatureCode)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	p.Signature = vec
	p.SignatureCode = vec.Format()

	if r := p.Preferences.AgeRange; r != nil && !r.Valid() {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("age range %d-%d is invalid", r.Min, r.Max)
	}
	if r := p.Preferences.HeightRange; r != nil && !r.Valid() {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("height range %d-%d is invalid", r.Min, r.Max)
	}

	if _, err := e.getOrLoadState(ctx, p.UserID); err == nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%s: %w", p.UserID, ErrProfileExists)
	} else if !errors.Is(err, ErrProfileNotFound) {
		e.errorCount.Add(1)
		return nil, err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	st := newUserState(p.UserID, &p)

	e.mu.Lock()
	if _, exists := e.users[p.UserID]; exists {
		e.mu.Unlock()
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%s: %w", p.UserID, ErrProfileExists)
	}
	e.users[p.UserID] = st
	e.mu.Unlock()

	e.store.Save(collectionProfiles, p.UserID, p)
	st.mu.Lock()
	e.persistWeightsLocked(st)
	st.mu.Unlock()

	e.logger.Info().
		Str("user_id", p.UserID).
		Str("signature", p.SignatureCode).
		Float64("completeness", p.Factual.Completeness()).
		Msg("profile created")

	out := p
	return &out, nil
}

// GetProfile returns the stored profile for userID.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	out := *st.profile
	st.mu.Unlock()
	return &out, nil
}

// GetWeights returns the user's current preference weights.
func (e *Engine) GetWeights(ctx context.Context, userID string) (profile.Weights, error) {
	if err := e.checkOpen(); err != nil {
		return profile.Weights{}, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return profile.Weights{}, fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	w := st.weights
	st.mu.Unlock()
	return w, nil
}

// ScoreCompatibility scores the candidate for the seeker using the seeker's
// learned weights. Results are cached per (seeker, candidate, state version)
// with a TTL.
func (e *Engine) ScoreCompatibility(ctx context.Context, seekerID, candidateID string) (CompatibilityScore, error) {
	if err := e.checkOpen(); err != nil {
		return CompatibilityScore{}, err
	}
	e.requestCount.Add(1)

	seekerSt, err := e.getOrLoadState(ctx, seekerID)
	if err != nil {
		e.errorCount.Add(1)
		return CompatibilityScore{}, fmt.Errorf("seeker %s: %w", seekerID, err)
	}
	candSt, err := e.getOrLoadState(ctx, candidateID)
	if err != nil {
		e.errorCount.Add(1)
		return CompatibilityScore{}, fmt.Errorf("candidate %s: %w", candidateID, err)
	}

	seekerSt.mu.Lock()
	seekerProf := seekerSt.profile
	weights := seekerSt.weights
	depth := len(seekerSt.signals)
	sv := seekerSt.version
	seekerSt.mu.Unlock()

	candSt.mu.Lock()
	candProf := candSt.profile
	cv := candSt.version
	candSt.mu.Unlock()

	key := fmt.Sprintf("%s@%d|%s@%d", seekerID, sv, candidateID, cv)
	if e.cache != nil {
		if score, ok := e.cache.Get(key); ok {
			e.cacheHits.Add(1)
			metrics.RecordScoreCache(true)
			return score, nil
		}
		metrics.RecordScoreCache(false)
	}

	start := time.Now()
	score := e.scorer.Score(seekerProf, candProf, weights, depth)
	metrics.RecordScore(time.Since(start), score.Breakdown.VetoViolation)
	if e.cache != nil {
		e.cache.Add(key, score)
	}
	return score, nil
}

// RecordInteractionSignal folds one labeled reaction into the user's
// preference weights, appends it to the signal history, and bumps the
// attribute's exploration counter. The renormalized weights are returned.
func (e *Engine) RecordInteractionSignal(ctx context.Context, userID, candidateID string, attr profile.Attribute, reaction profile.Reaction) (SignalResult, error) {
	if err := e.checkOpen(); err != nil {
		return SignalResult{}, err
	}
	e.requestCount.Add(1)

	if _, err := profile.ParseAttribute(string(attr)); err != nil {
		e.errorCount.Add(1)
		return SignalResult{}, err
	}
	if _, err := profile.ParseReaction(string(reaction)); err != nil {
		e.errorCount.Add(1)
		return SignalResult{}, err
	}

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return SignalResult{}, fmt.Errorf("%s: %w", userID, err)
	}

	sig := profile.NewInteractionSignal(userID, candidateID, attr, reaction)

	st.mu.Lock()
	st.weights = e.learner.Apply(st.weights, sig)
	st.explored[attr]++
	st.signals = append(st.signals, sig)
	st.version++
	updated := st.weights
	e.persistWeightsLocked(st)
	st.mu.Unlock()

	e.events.PublishSignal(sig)
	metrics.RecordSignal(string(attr), string(reaction))

	e.logger.Debug().
		Str("user_id", userID).
		Str("attribute", string(attr)).
		Str("reaction", string(reaction)).
		Float64("net_force", sig.NetForce()).
		Msg("interaction signal recorded")

	return SignalResult{Signal: sig, UpdatedWeights: updated}, nil
}

// NextQuestionAttribute selects which preference attribute the conversation
// layer should probe next for this user.
func (e *Engine) NextQuestionAttribute(ctx context.Context, userID string) (profile.Attribute, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return "", fmt.Errorf("%s: %w", userID, err)
	}

	st.mu.Lock()
	weights := st.weights
	explored := make(map[profile.Attribute]int, len(st.explored))
	for attr, n := range st.explored {
		explored[attr] = n
	}
	st.mu.Unlock()

	return e.learner.NextQuestionAttribute(weights, explored), nil
}

// ShouldTriggerRecommendation decides whether a conversational message
// should surface a recommendation. Always false when the user's queue is
// empty or a recommendation was shown within the cooldown window; otherwise
// the message's keyword tier probability decides the draw. history is the
// prior conversational turns, oldest first.
func (e *Engine) ShouldTriggerRecommendation(ctx context.Context, userID, message string, history []string) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	e.requestCount.Add(1)

	st, err := e.getOrLoadState(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return false, fmt.Errorf("%s: %w", userID, err)
	}

	turn := len(history)

	st.mu.Lock()
	queueLen := len(st.queue)
	lastTrigger := st.lastTriggerTurn
	st.mu.Unlock()

	if queueLen == 0 {
		e.logger.Debug().Str("user_id", userID).Msg("trigger suppressed, queue empty")
		return false, nil
	}
	if lastTrigger >= 0 && turn-lastTrigger < e.cfg.Trigger.CooldownTurns {
		e.logger.Debug().
			Str("user_id", userID).
			Int("turns_since", turn-lastTrigger).
			Msg("trigger suppressed, cooldown active")
		return false, nil
	}

	ok, tier := e.trigger.Decide(message)
	if ok {
		st.mu.Lock()
		st.lastTriggerTurn = turn
		e.persistQueueLocked(st)
		st.mu.Unlock()
	}
	metrics.RecordTriggerDecision(tier, ok)

	e.logger.Debug().
		Str("user_id", userID).
		Str("tier", tier).
		Bool("triggered", ok).
		Msg("trigger decision")

	return ok, nil
}

// Stats returns a snapshot of engine activity counters.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	activeUsers := len(e.users)
	e.mu.RUnlock()

	cacheSize := 0
	if e.cache != nil {
		cacheSize = e.cache.Len()
	}

	return EngineStats{
		Requests:           e.requestCount.Load(),
		Errors:             e.errorCount.Load(),
		CacheHits:          e.cacheHits.Load(),
		CacheSize:          cacheSize,
		ActiveUsers:        activeUsers,
		FactualEvaluations: e.scorer.FactualEvaluations(),
	}
}
