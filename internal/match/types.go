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

// CandidateSource supplies candidate profiles for queue population.
// The returned bool reports whether the result is degraded (served from a
// fallback pool because the upstream source was unavailable).
type CandidateSource interface {
	GetCandidates(ctx context.Context, userID string, limit int) ([]profile.Profile, bool, error)
}

// MatchOracle answers whether two users have liked each other. An error is
// treated as a degraded non-match assumption, never a failed call.
type MatchOracle interface {
	DidBothLike(ctx context.Context, userA, userB string) (bool, error)
}

// Publisher fans interaction events out to the rest of the system. All
// methods are fire-and-forget; implementations must not block the caller.
type Publisher interface {
	PublishLike(userID, candidateID string, isMatch, changedMind bool)
	PublishPass(userID, candidateID string, changedMind bool)
	PublishSignal(sig profile.InteractionSignal)
}

// CompatibilityScore is the immutable result of scoring one (seeker,
// candidate) pair.
type CompatibilityScore struct {
	// HHCScore is the personality compatibility in [0, 1].
	HHCScore float64 `json:"hhc_score"`

	// FactualScore is the weighted factual compatibility in [0, 1].
	// Zero when a veto short-circuited scoring or no factual attribute was
	// present on both sides.
	FactualScore float64 `json:"factual_score"`

	// VetoFactor is 0 when any hard constraint failed, 1 otherwise.
	VetoFactor float64 `json:"veto_factor"`

	// TotalScore is the combined score in [0, 1].
	TotalScore float64 `json:"total_score"`

	// Breakdown explains how the score was assembled.
	Breakdown ScoreBreakdown `json:"breakdown"`

	// Confidence reflects profile completeness and interaction depth, [0, 1].
	Confidence float64 `json:"confidence"`

	// Explanation is the banded human-readable summary.
	Explanation string `json:"explanation"`
}

// ScoreBreakdown carries the per-attribute sub-scores that went into a
// compatibility score. Attributes absent on either side have no entry.
type ScoreBreakdown struct {
	// VetoViolation is true when a hard constraint disqualified the pair.
	VetoViolation bool `json:"veto_violation"`

	// VetoReason names the failed check when VetoViolation is set.
	VetoReason string `json:"veto_reason,omitempty"`

	// Components maps attribute name to its sub-score for attributes
	// present on both sides.
	Components map[string]float64 `json:"components,omitempty"`
}

// Score quality bands for explanations.
const (
	BandExceptional = "exceptional"
	BandStrong      = "strong"
	BandModerate    = "moderate"
	BandLimited     = "limited"
)

// Action is a recorded swipe decision.
type Action string

const (
	ActionLike Action = "like"
	ActionPass Action = "pass"
)

// InteractionRecord is the per-(user,candidate) decision state. The latest
// action is authoritative; exactly one step of history is retained.
type InteractionRecord struct {
	// Action is the latest decision.
	Action Action `json:"action"`

	// Timestamp is when the latest decision was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Context is optional caller-supplied metadata ("queue", "profile_view").
	Context string `json:"context,omitempty"`

	// PreviousAction is the single prior decision, if any.
	PreviousAction Action `json:"previous_action,omitempty"`

	// ChangedMind is true when the latest action reversed the previous one.
	ChangedMind bool `json:"changed_mind"`

	// MatchPending is true after a like whose mutuality is not yet
	// confirmed. Cleared by a subsequent pass.
	MatchPending bool `json:"match_pending"`
}

// QueueEntry is one scored candidate in a user's recommendation queue.
// Entries are snapshotted at population time and never re-scored in place.
type QueueEntry struct {
	// CandidateID identifies the candidate.
	CandidateID string `json:"candidate_id"`

	// Score is the compatibility computed at population time.
	Score CompatibilityScore `json:"score"`

	// Candidate is the candidate's profile snapshot.
	Candidate profile.Profile `json:"candidate"`
}

// Recommendation is one served queue entry.
type Recommendation struct {
	// CandidateID identifies the candidate.
	CandidateID string `json:"candidate_id"`

	// Score is the compatibility snapshot from population time.
	Score CompatibilityScore `json:"score"`

	// Candidate is the candidate's profile.
	Candidate profile.Profile `json:"candidate"`
}

// DequeueResult is the outcome of one dequeue call.
type DequeueResult struct {
	// HasMore reports whether further recommendations remain after this one.
	HasMore bool `json:"has_more"`

	// RemainingCount is the queue length after this call.
	RemainingCount int `json:"remaining_count"`

	// Recommendation is the served entry, nil when the queue is exhausted.
	Recommendation *Recommendation `json:"recommendation,omitempty"`

	// Message is the neutral user-facing text when no recommendation is
	// available, empty otherwise.
	Message string `json:"message,omitempty"`

	// Degraded is true when the backing candidate pool came from a
	// fallback source.
	Degraded bool `json:"degraded,omitempty"`
}

// LikeResult is the outcome of a like decision.
type LikeResult struct {
	// IsMatch is true when the match oracle confirmed a mutual like.
	IsMatch bool `json:"is_match"`

	// IsPending is true when the like is recorded but not (yet) mutual.
	IsPending bool `json:"is_pending"`

	// ChangedMind is true when this like reversed an earlier pass.
	ChangedMind bool `json:"changed_mind"`

	// Message is the user-facing response variant.
	Message string `json:"message"`

	// Degraded is true when the oracle was unavailable and a non-match
	// was assumed.
	Degraded bool `json:"degraded,omitempty"`
}

// PassResult is the outcome of a pass decision.
type PassResult struct {
	// ChangedMind is true when this pass reversed an earlier like.
	ChangedMind bool `json:"changed_mind"`

	// Message is the user-facing response variant.
	Message string `json:"message"`
}

// QueueStatus is a read-only snapshot of a user's queue state.
type QueueStatus struct {
	// QueueSize is the number of entries waiting to be served.
	QueueSize int `json:"queue_size"`

	// TotalServed is the size of the served-set.
	TotalServed int `json:"total_served"`

	// HasRecommendations reports whether a dequeue would return an entry
	// without repopulating.
	HasRecommendations bool `json:"has_recommendations"`

	// LastUpdated is when the queue was last populated, zero if never.
	LastUpdated time.Time `json:"last_updated"`
}

// SignalResult is the outcome of recording one interaction signal.
type SignalResult struct {
	// Signal is the recorded signal.
	Signal profile.InteractionSignal `json:"signal"`

	// UpdatedWeights is the weight vector after the update and
	// renormalization.
	UpdatedWeights profile.Weights `json:"updated_weights"`
}

// Metadata is optional caller-supplied context attached to a like or pass.
type Metadata struct {
	// Context describes where the decision was made.
	Context string `json:"context,omitempty"`
}
