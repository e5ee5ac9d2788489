// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/pmahlen/amora/internal/profile"
)

// SchemaVersion is the current event schema version. Increment on breaking
// changes to any event payload.
const SchemaVersion = 1

// Topics carried by the bus.
const (
	// TopicLike carries like decisions.
	TopicLike = "recommendation.like"
	// TopicPass carries pass decisions.
	TopicPass = "recommendation.pass"
	// TopicSignal carries preference learning signals.
	TopicSignal = "preference.signal"
	// TopicMatch carries confirmed mutual matches.
	TopicMatch = "match.confirmed"
)

// Interaction types for InteractionEvent.
const (
	TypeLike = "like"
	TypePass = "pass"
)

// Event is anything the bus can carry.
type Event interface {
	Topic() string
	Validate() error
}

// InteractionEvent records a like or pass decision.
type InteractionEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"` // like, pass
	UserID        string    `json:"user_id"`
	CandidateID   string    `json:"candidate_id"`
	IsMatch       bool      `json:"is_match,omitempty"`
	ChangedMind   bool      `json:"changed_mind,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewInteractionEvent creates an interaction event with a unique ID and
// current UTC timestamp.
func NewInteractionEvent(interactionType, userID, candidateID string) *InteractionEvent {
	return &InteractionEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          interactionType,
		UserID:        userID,
		CandidateID:   candidateID,
		Timestamp:     time.Now().UTC(),
	}
}

// Topic implements Event.
func (e *InteractionEvent) Topic() string {
	if e.Type == TypePass {
		return TopicPass
	}
	return TopicLike
}

// Validate checks required fields.
func (e *InteractionEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Type != TypeLike && e.Type != TypePass {
		return &ValidationError{Field: "type", Message: "must be like or pass"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.CandidateID == "" {
		return &ValidationError{Field: "candidate_id", Message: "required"}
	}
	return nil
}

// MatchEvent records a confirmed mutual match between two users.
type MatchEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	CandidateID   string    `json:"candidate_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewMatchEvent creates a match event with a unique ID and current UTC
// timestamp.
func NewMatchEvent(userID, candidateID string) *MatchEvent {
	return &MatchEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		CandidateID:   candidateID,
		Timestamp:     time.Now().UTC(),
	}
}

// Topic implements Event.
func (e *MatchEvent) Topic() string { return TopicMatch }

// Validate checks required fields.
func (e *MatchEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.CandidateID == "" {
		return &ValidationError{Field: "candidate_id", Message: "required"}
	}
	return nil
}

// SignalEvent records a preference learning signal.
type SignalEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	SignalID      string    `json:"signal_id"`
	UserID        string    `json:"user_id"`
	CandidateID   string    `json:"candidate_id,omitempty"`
	Attribute     string    `json:"attribute"`
	Reaction      string    `json:"reaction"`
	NetForce      float64   `json:"net_force"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewSignalEvent creates a signal event from a recorded interaction signal.
func NewSignalEvent(sig profile.InteractionSignal) *SignalEvent {
	return &SignalEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		SignalID:      sig.ID,
		UserID:        sig.UserID,
		CandidateID:   sig.CandidateID,
		Attribute:     string(sig.Attribute),
		Reaction:      string(sig.Reaction),
		NetForce:      sig.NetForce(),
		Timestamp:     sig.Timestamp,
	}
}

// Topic implements Event.
func (e *SignalEvent) Topic() string { return TopicSignal }

// Validate checks required fields.
func (e *SignalEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.Attribute == "" {
		return &ValidationError{Field: "attribute", Message: "required"}
	}
	if e.Reaction == "" {
		return &ValidationError{Field: "reaction", Message: "required"}
	}
	return nil
}

// ValidationError reports a missing or malformed event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
