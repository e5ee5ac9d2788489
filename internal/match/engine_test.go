// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pmahlen/amora/internal/profile"
	"github.com/pmahlen/amora/internal/signature"
)

// stubCandidates serves a fixed pool.
type stubCandidates struct {
	mu       sync.Mutex
	pool     []profile.Profile
	degraded bool
	err      error
	calls    atomic.Int64
}

func (s *stubCandidates) GetCandidates(_ context.Context, _ string, limit int) ([]profile.Profile, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	out := make([]profile.Profile, len(s.pool))
	copy(out, s.pool)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, s.degraded, nil
}

// stubOracle answers mutual-like queries from a fixed table keyed "a|b".
type stubOracle struct {
	mu      sync.Mutex
	matches map[string]bool
	err     error
	calls   atomic.Int64
}

func (s *stubOracle) DidBothLike(_ context.Context, a, b string) (bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.matches[a+"|"+b], nil
}

// stubPublisher counts published events.
type stubPublisher struct {
	likes   atomic.Int64
	passes  atomic.Int64
	signals atomic.Int64
}

func (s *stubPublisher) PublishLike(_, _ string, _, _ bool) { s.likes.Add(1) }

func (s *stubPublisher) PublishPass(_, _ string, _ bool) { s.passes.Add(1) }

func (s *stubPublisher) PublishSignal(_ profile.InteractionSignal) { s.signals.Add(1) }

// memPersister is a synchronous in-memory store that round-trips values
// through JSON, matching what the real store does.
type memPersister struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[string][]byte)}
}

func (m *memPersister) Load(_ context.Context, collection, key string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[collection+"/"+key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, value); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memPersister) Save(collection, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[collection+"/"+key] = raw
}

func (m *memPersister) Delete(collection, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, collection+"/"+key)
}

// candidateProfile builds a pool candidate whose personality angle controls
// its score against the fullProfile seeker.
func candidateProfile(userID string, angle float64) profile.Profile {
	p := fullProfile(userID)
	p.Signature.CircumplexAngle = angle
	p.SignatureCode = p.Signature.Format()
	return *p
}

func testPool() []profile.Profile {
	// Scores descend as the angle moves away from the seeker's 90.
	return []profile.Profile{
		candidateProfile("cand-c", 270),
		candidateProfile("cand-a", 90),
		candidateProfile("cand-b", 150),
	}
}

type engineDeps struct {
	candidates *stubCandidates
	oracle     *stubOracle
	publisher  *stubPublisher
	persister  *memPersister
}

func newTestEngine(t *testing.T, cfg *Config) (*Engine, *engineDeps) {
	t.Helper()

	deps := &engineDeps{
		candidates: &stubCandidates{pool: testPool()},
		oracle:     &stubOracle{matches: make(map[string]bool)},
		publisher:  &stubPublisher{},
		persister:  newMemPersister(),
	}

	e, err := NewEngine(cfg, Dependencies{
		Candidates: deps.candidates,
		Oracle:     deps.oracle,
		Store:      deps.persister,
		Events:     deps.publisher,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, deps
}

func mustCreate(t *testing.T, e *Engine, userID string) *profile.Profile {
	t.Helper()
	p, err := e.CreateProfile(context.Background(), *fullProfile(userID))
	if err != nil {
		t.Fatalf("CreateProfile(%s): %v", userID, err)
	}
	return p
}

func TestNewEngine(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		if e.cfg.Queue.MaxSize != 20 {
			t.Errorf("MaxSize = %d, want default 20", e.cfg.Queue.MaxSize)
		}
	})

	t.Run("missing candidate source", func(t *testing.T) {
		_, err := NewEngine(nil, Dependencies{Oracle: &stubOracle{}}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected error for nil candidate source")
		}
	})

	t.Run("missing oracle", func(t *testing.T) {
		_, err := NewEngine(nil, Dependencies{Candidates: &stubCandidates{}}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected error for nil oracle")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scoring.HHCWeight = 0.9
		_, err := NewEngine(cfg, Dependencies{Candidates: &stubCandidates{}, Oracle: &stubOracle{}}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected error for weights not summing to 1")
		}
	})
}

func TestCreateProfile(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	created := mustCreate(t, e, "user-1")
	if created.SignatureCode != "HHC-90-50-50-50-50-50" {
		t.Errorf("SignatureCode = %q, want canonical form", created.SignatureCode)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	w, err := e.GetWeights(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetWeights: %v", err)
	}
	if w != profile.DefaultWeights() {
		t.Errorf("initial weights = %+v, want defaults", w)
	}

	t.Run("duplicate", func(t *testing.T) {
		_, err := e.CreateProfile(context.Background(), *fullProfile("user-1"))
		if !errors.Is(err, ErrProfileExists) {
			t.Errorf("err = %v, want ErrProfileExists", err)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		p := *fullProfile("user-2")
		p.SignatureCode = "XYZ-1-2-3"
		_, err := e.CreateProfile(context.Background(), p)
		if !errors.Is(err, signature.ErrInvalidFormat) {
			t.Errorf("err = %v, want ErrInvalidFormat", err)
		}
	})

	t.Run("invalid age range", func(t *testing.T) {
		p := *fullProfile("user-3")
		p.Preferences.AgeRange = &profile.Range{Min: 40, Max: 30}
		if _, err := e.CreateProfile(context.Background(), p); err == nil {
			t.Error("expected error for inverted age range")
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		p := *fullProfile("")
		if _, err := e.CreateProfile(context.Background(), p); err == nil {
			t.Error("expected error for empty user id")
		}
	})
}

func TestGetProfileNotFound(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	_, err := e.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestScoreCompatibility(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")
	mustCreate(t, e, "bob")

	score, err := e.ScoreCompatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("ScoreCompatibility: %v", err)
	}
	if score.TotalScore <= 0 || score.TotalScore > 1 {
		t.Errorf("TotalScore = %v, want in (0, 1]", score.TotalScore)
	}

	t.Run("unknown seeker", func(t *testing.T) {
		_, err := e.ScoreCompatibility(context.Background(), "ghost", "bob")
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("err = %v, want ErrProfileNotFound", err)
		}
	})

	t.Run("unknown candidate", func(t *testing.T) {
		_, err := e.ScoreCompatibility(context.Background(), "alice", "ghost")
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("err = %v, want ErrProfileNotFound", err)
		}
	})
}

func TestScoreCompatibilityCache(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")
	mustCreate(t, e, "bob")

	first, err := e.ScoreCompatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("ScoreCompatibility: %v", err)
	}

	second, err := e.ScoreCompatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("ScoreCompatibility: %v", err)
	}
	if hits := e.Stats().CacheHits; hits != 1 {
		t.Errorf("CacheHits = %d, want 1 after repeated call", hits)
	}
	if first.TotalScore != second.TotalScore {
		t.Errorf("cached score diverged: %v vs %v", first.TotalScore, second.TotalScore)
	}

	// A signal changes the seeker's weights and depth; the next score must
	// not come from the stale cache entry.
	if _, err := e.RecordInteractionSignal(context.Background(), "alice", "bob", profile.AttributeInterests, profile.ReactionPositive); err != nil {
		t.Fatalf("RecordInteractionSignal: %v", err)
	}
	if _, err := e.ScoreCompatibility(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("ScoreCompatibility: %v", err)
	}
	if hits := e.Stats().CacheHits; hits != 1 {
		t.Errorf("CacheHits = %d, want still 1 after weight mutation", hits)
	}
}

func TestRecordInteractionSignal(t *testing.T) {
	e, deps := newTestEngine(t, nil)
	mustCreate(t, e, "alice")

	res, err := e.RecordInteractionSignal(context.Background(), "alice", "cand-a", profile.AttributeInterests, profile.ReactionPositive)
	if err != nil {
		t.Fatalf("RecordInteractionSignal: %v", err)
	}

	if res.Signal.ID == "" {
		t.Error("signal ID not assigned")
	}
	if res.Signal.AttractionForce != 0.2 || res.Signal.RepulsionForce != 0 {
		t.Errorf("forces = %v/%v, want 0.2/0", res.Signal.AttractionForce, res.Signal.RepulsionForce)
	}

	wantInterests := (0.15 + 0.02) / 1.02
	if math.Abs(res.UpdatedWeights.Interests-wantInterests) > 1e-9 {
		t.Errorf("Interests = %v, want %v", res.UpdatedWeights.Interests, wantInterests)
	}
	if math.Abs(res.UpdatedWeights.Sum()-1.0) > profile.WeightEpsilon {
		t.Errorf("Sum = %v, want 1.0", res.UpdatedWeights.Sum())
	}

	if got := deps.publisher.signals.Load(); got != 1 {
		t.Errorf("published signals = %d, want 1", got)
	}

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := e.RecordInteractionSignal(context.Background(), "alice", "cand-a", profile.Attribute("shoe_size"), profile.ReactionPositive)
		if !errors.Is(err, profile.ErrUnknownAttribute) {
			t.Errorf("err = %v, want ErrUnknownAttribute", err)
		}
	})

	t.Run("unknown reaction", func(t *testing.T) {
		_, err := e.RecordInteractionSignal(context.Background(), "alice", "cand-a", profile.AttributeAge, profile.Reaction("meh"))
		if !errors.Is(err, profile.ErrUnknownReaction) {
			t.Errorf("err = %v, want ErrUnknownReaction", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := e.RecordInteractionSignal(context.Background(), "ghost", "cand-a", profile.AttributeAge, profile.ReactionPositive)
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("err = %v, want ErrProfileNotFound", err)
		}
	})
}

func TestWeightsSumInvariantOverManySignals(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")

	reactions := []profile.Reaction{profile.ReactionPositive, profile.ReactionNeutral, profile.ReactionNegative}
	attrs := profile.Attributes()

	for i := 0; i < 60; i++ {
		attr := attrs[i%len(attrs)]
		reaction := reactions[i%len(reactions)]
		res, err := e.RecordInteractionSignal(context.Background(), "alice", "cand-a", attr, reaction)
		if err != nil {
			t.Fatalf("signal %d: %v", i, err)
		}
		if math.Abs(res.UpdatedWeights.Sum()-1.0) > profile.WeightEpsilon {
			t.Fatalf("signal %d: Sum = %v, want 1.0 after every update", i, res.UpdatedWeights.Sum())
		}
	}
}

func TestNextQuestionAttribute(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")

	got, err := e.NextQuestionAttribute(context.Background(), "alice")
	if err != nil {
		t.Fatalf("NextQuestionAttribute: %v", err)
	}
	if got != profile.AttributeAge {
		t.Errorf("fresh user attribute = %v, want first canonical %v", got, profile.AttributeAge)
	}

	if _, err := e.RecordInteractionSignal(context.Background(), "alice", "cand-a", profile.AttributeAge, profile.ReactionPositive); err != nil {
		t.Fatalf("RecordInteractionSignal: %v", err)
	}

	got, err = e.NextQuestionAttribute(context.Background(), "alice")
	if err != nil {
		t.Fatalf("NextQuestionAttribute: %v", err)
	}
	if got != profile.AttributeHeight {
		t.Errorf("attribute after exploring age = %v, want %v", got, profile.AttributeHeight)
	}
}

func triggerTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Trigger = TriggerConfig{
		CooldownTurns:          5,
		LongMessageChars:       120,
		LongMessageProbability: 0,
		FallbackProbability:    0,
		Tiers: []TriggerTier{
			{Name: "certain", Keywords: []string{"go"}, Probability: 1.0},
		},
	}
	return cfg
}

func TestShouldTriggerRecommendation(t *testing.T) {
	e, _ := newTestEngine(t, triggerTestConfig())
	mustCreate(t, e, "alice")

	history := make([]string, 10)

	// Queue is empty: never trigger, even on a certain tier.
	ok, err := e.ShouldTriggerRecommendation(context.Background(), "alice", "go", history)
	if err != nil {
		t.Fatalf("ShouldTriggerRecommendation: %v", err)
	}
	if ok {
		t.Error("triggered with an empty queue")
	}

	// Populate the queue; two entries remain after the pop.
	if _, err := e.DequeueRecommendation(context.Background(), "alice"); err != nil {
		t.Fatalf("DequeueRecommendation: %v", err)
	}

	ok, err = e.ShouldTriggerRecommendation(context.Background(), "alice", "go", history)
	if err != nil {
		t.Fatalf("ShouldTriggerRecommendation: %v", err)
	}
	if !ok {
		t.Fatal("certain tier did not trigger with a populated queue")
	}

	// Within the cooldown window: suppressed regardless of tier.
	ok, err = e.ShouldTriggerRecommendation(context.Background(), "alice", "go", make([]string, 12))
	if err != nil {
		t.Fatalf("ShouldTriggerRecommendation: %v", err)
	}
	if ok {
		t.Error("triggered inside the cooldown window")
	}

	// Cooldown elapsed.
	ok, err = e.ShouldTriggerRecommendation(context.Background(), "alice", "go", make([]string, 15))
	if err != nil {
		t.Fatalf("ShouldTriggerRecommendation: %v", err)
	}
	if !ok {
		t.Error("did not trigger after the cooldown elapsed")
	}

	t.Run("unknown user", func(t *testing.T) {
		_, err := e.ShouldTriggerRecommendation(context.Background(), "ghost", "go", nil)
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("err = %v, want ErrProfileNotFound", err)
		}
	})
}

func TestStateSurvivesRestart(t *testing.T) {
	persister := newMemPersister()
	candidates := &stubCandidates{pool: testPool()}
	oracle := &stubOracle{matches: make(map[string]bool)}

	build := func() *Engine {
		e, err := NewEngine(nil, Dependencies{
			Candidates: candidates,
			Oracle:     oracle,
			Store:      persister,
		}, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		return e
	}

	first := build()
	mustCreate(t, first, "alice")
	sigRes, err := first.RecordInteractionSignal(context.Background(), "alice", "cand-a", profile.AttributeInterests, profile.ReactionPositive)
	if err != nil {
		t.Fatalf("RecordInteractionSignal: %v", err)
	}
	deq, err := first.DequeueRecommendation(context.Background(), "alice")
	if err != nil {
		t.Fatalf("DequeueRecommendation: %v", err)
	}
	servedID := deq.Recommendation.CandidateID

	// A new engine over the same store must see the same weights and never
	// re-serve the already-served candidate.
	second := build()

	w, err := second.GetWeights(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetWeights after restart: %v", err)
	}
	if math.Abs(w.Interests-sigRes.UpdatedWeights.Interests) > 1e-9 {
		t.Errorf("Interests after restart = %v, want %v", w.Interests, sigRes.UpdatedWeights.Interests)
	}

	status, err := second.GetQueueStatus(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetQueueStatus after restart: %v", err)
	}
	if status.TotalServed != 1 {
		t.Errorf("TotalServed after restart = %d, want 1", status.TotalServed)
	}
	if status.QueueSize != 2 {
		t.Errorf("QueueSize after restart = %d, want 2", status.QueueSize)
	}

	seen := map[string]bool{servedID: true}
	for {
		res, err := second.DequeueRecommendation(context.Background(), "alice")
		if err != nil {
			t.Fatalf("DequeueRecommendation after restart: %v", err)
		}
		if res.Recommendation == nil {
			break
		}
		if seen[res.Recommendation.CandidateID] {
			t.Fatalf("candidate %s served twice across restarts", res.Recommendation.CandidateID)
		}
		seen[res.Recommendation.CandidateID] = true
	}
	if len(seen) != 3 {
		t.Errorf("distinct candidates served = %d, want 3", len(seen))
	}
}

func TestEngineClosed(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := e.GetProfile(context.Background(), "alice"); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("GetProfile err = %v, want ErrEngineClosed", err)
	}
	if _, err := e.DequeueRecommendation(context.Background(), "alice"); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("DequeueRecommendation err = %v, want ErrEngineClosed", err)
	}
	if _, err := e.ScoreCompatibility(context.Background(), "alice", "alice"); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("ScoreCompatibility err = %v, want ErrEngineClosed", err)
	}
}

func TestStats(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	mustCreate(t, e, "alice")
	mustCreate(t, e, "bob")

	if _, err := e.ScoreCompatibility(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("ScoreCompatibility: %v", err)
	}
	_, _ = e.GetProfile(context.Background(), "ghost")

	stats := e.Stats()
	if stats.ActiveUsers != 2 {
		t.Errorf("ActiveUsers = %d, want 2", stats.ActiveUsers)
	}
	if stats.Requests < 4 {
		t.Errorf("Requests = %d, want at least 4", stats.Requests)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.FactualEvaluations < 1 {
		t.Errorf("FactualEvaluations = %d, want at least 1", stats.FactualEvaluations)
	}
}
