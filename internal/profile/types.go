// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package profile defines the matching domain model: factual profiles,
// partner preferences, veto criteria, dynamic preference weights, and
// interaction signals.
//
// Optional factual attributes use pointer fields or nil slices so "absent"
// is distinguishable from a zero value. The scorer skips absent attributes
// instead of penalizing them.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pmahlen/amora/internal/signature"
)

// Attribute identifies a preference dimension the learning loop can weight.
// The set is closed; AttributeCustom is the single extension slot whose
// meaning is labeled per profile.
type Attribute string

const (
	AttributeAge              Attribute = "age"
	AttributeHeight           Attribute = "height"
	AttributeRelationshipGoal Attribute = "relationship_goal"
	AttributeFamilyPlans      Attribute = "family_plans"
	AttributeInterests        Attribute = "interests"
	AttributeLifestyle        Attribute = "lifestyle"
	AttributeCustom           Attribute = "custom"
)

// Attributes returns the closed attribute set in canonical order.
func Attributes() []Attribute {
	return []Attribute{
		AttributeAge,
		AttributeHeight,
		AttributeRelationshipGoal,
		AttributeFamilyPlans,
		AttributeInterests,
		AttributeLifestyle,
		AttributeCustom,
	}
}

// ErrUnknownAttribute indicates an attribute outside the closed set.
var ErrUnknownAttribute = errors.New("unknown preference attribute")

// ParseAttribute validates a string against the closed attribute set.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(s)
	for _, known := range Attributes() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

// Reaction classifies a user's response to a preference probe.
type Reaction string

const (
	ReactionPositive Reaction = "positive"
	ReactionNeutral  Reaction = "neutral"
	ReactionNegative Reaction = "negative"
)

// ErrUnknownReaction indicates a reaction outside the known set.
var ErrUnknownReaction = errors.New("unknown reaction")

// ParseReaction validates a string against the known reaction set.
func ParseReaction(s string) (Reaction, error) {
	switch r := Reaction(s); r {
	case ReactionPositive, ReactionNeutral, ReactionNegative:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownReaction, s)
	}
}

// AttractionForce returns the upward pull this reaction exerts on a weight.
func (r Reaction) AttractionForce() float64 {
	switch r {
	case ReactionPositive:
		return 0.2
	case ReactionNeutral:
		return 0.05
	default:
		return 0
	}
}

// RepulsionForce returns the downward push this reaction exerts on a weight.
func (r Reaction) RepulsionForce() float64 {
	if r == ReactionNegative {
		return 0.15
	}
	return 0
}

// Confidence returns the strength of the signal for this reaction.
// Clear reactions in either direction carry more information than neutral.
func (r Reaction) Confidence() float64 {
	switch r {
	case ReactionPositive:
		return 1.0
	case ReactionNegative:
		return 0.75
	case ReactionNeutral:
		return 0.25
	default:
		return 0
	}
}

// Gender values.
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non_binary"
	GenderOther     = "other"
)

// Relationship goal values.
const (
	GoalLongTerm   = "long_term"
	GoalCasual     = "casual"
	GoalMarriage   = "marriage"
	GoalFriendship = "friendship"
	GoalUnsure     = "unsure"
)

// Family plan values.
const (
	FamilyWantsChildren = "wants_children"
	FamilyNoChildren    = "no_children"
	FamilyOpen          = "open"
	FamilyHasChildren   = "has_children"
)

// Smoking habit values.
const (
	SmokingNever        = "never"
	SmokingOccasionally = "occasionally"
	SmokingRegularly    = "regularly"
)

// Drinking habit values.
const (
	DrinkingNever     = "never"
	DrinkingSocially  = "socially"
	DrinkingRegularly = "regularly"
	DrinkingHeavily   = "heavily"
)

// FactualProfile holds a user's optional factual attributes. Every field may
// be absent; absent attributes are skipped during scoring rather than
// treated as mismatches.
type FactualProfile struct {
	// Age in years.
	Age *int `json:"age,omitempty" validate:"omitempty,gte=18,lte=120"`

	// HeightCm is the height in centimeters.
	HeightCm *int `json:"height_cm,omitempty" validate:"omitempty,gte=100,lte=250"`

	// Gender of the user.
	Gender string `json:"gender,omitempty" validate:"omitempty,oneof=male female non_binary other"`

	// RelationshipGoal is what the user is looking for.
	RelationshipGoal string `json:"relationship_goal,omitempty" validate:"omitempty,oneof=long_term casual marriage friendship unsure"`

	// FamilyPlans captures the user's stance on children.
	FamilyPlans string `json:"family_plans,omitempty" validate:"omitempty,oneof=wants_children no_children open has_children"`

	// SmokingHabits frequency.
	SmokingHabits string `json:"smoking_habits,omitempty" validate:"omitempty,oneof=never occasionally regularly"`

	// DrinkingHabits frequency.
	DrinkingHabits string `json:"drinking_habits,omitempty" validate:"omitempty,oneof=never socially regularly heavily"`

	// ExerciseHabits frequency.
	ExerciseHabits string `json:"exercise_habits,omitempty" validate:"omitempty,oneof=never sometimes often daily"`

	// SleepSchedule chronotype.
	SleepSchedule string `json:"sleep_schedule,omitempty" validate:"omitempty,oneof=early_bird night_owl flexible"`

	// Diet preference.
	Diet string `json:"diet,omitempty" validate:"omitempty,oneof=omnivore vegetarian vegan pescatarian other"`

	// Religion, free-form; compared only under the share-religion veto.
	Religion string `json:"religion,omitempty" validate:"omitempty,max=64"`

	// Interests is a set of free-form interest tags.
	Interests []string `json:"interests,omitempty" validate:"omitempty,max=50,dive,min=1,max=64"`
}

// Range is an inclusive numeric preference range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the range is well-formed.
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// Contains reports whether v falls inside the range, inclusive.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Center returns the midpoint of the range.
func (r Range) Center() float64 {
	return float64(r.Min+r.Max) / 2
}

// VetoCriteria are boolean hard constraints evaluated before any weighted
// scoring. A candidate failing any active veto is disqualified outright.
type VetoCriteria struct {
	// NonSmokerOnly requires the candidate's smoking habits to be "never".
	NonSmokerOnly bool `json:"non_smoker_only,omitempty"`

	// NoHeavyDrinking excludes candidates who drink "heavily".
	NoHeavyDrinking bool `json:"no_heavy_drinking,omitempty"`

	// MustWantChildren requires family plans to be exactly "wants_children".
	MustWantChildren bool `json:"must_want_children,omitempty"`

	// MustShareReligion requires a non-empty, exactly matching religion.
	MustShareReligion bool `json:"must_share_religion,omitempty"`
}

// Active reports whether any veto is set.
func (v VetoCriteria) Active() bool {
	return v.NonSmokerOnly || v.NoHeavyDrinking || v.MustWantChildren || v.MustShareReligion
}

// PartnerPreferences holds desired ranges, accepted categorical sets, and
// hard veto criteria. Nil ranges and empty sets mean "no preference".
type PartnerPreferences struct {
	// AgeRange is the preferred partner age range in years.
	AgeRange *Range `json:"age_range,omitempty"`

	// HeightRange is the preferred partner height range in centimeters.
	HeightRange *Range `json:"height_range,omitempty"`

	// GenderInterests is the set of genders the user wants to be matched with.
	GenderInterests []string `json:"gender_interests,omitempty" validate:"omitempty,dive,oneof=male female non_binary other"`

	// RelationshipGoals is the accepted set of candidate relationship goals.
	RelationshipGoals []string `json:"relationship_goals,omitempty" validate:"omitempty,dive,oneof=long_term casual marriage friendship unsure"`

	// FamilyPlans is the accepted set of candidate family plans.
	FamilyPlans []string `json:"family_plans,omitempty" validate:"omitempty,dive,oneof=wants_children no_children open has_children"`

	// Veto holds the hard disqualification rules.
	Veto VetoCriteria `json:"veto"`
}

// Profile is a user's complete matching profile: expanded personality
// signature, factual attributes, and partner preferences.
type Profile struct {
	// UserID is the owning user's identifier.
	UserID string `json:"user_id"`

	// SignatureCode is the canonical compact signature code.
	SignatureCode string `json:"signature_code"`

	// Signature is the expanded personality vector.
	Signature signature.Vector `json:"signature"`

	// Factual holds the optional factual attributes.
	Factual FactualProfile `json:"factual"`

	// Preferences holds partner preferences and vetoes.
	Preferences PartnerPreferences `json:"preferences"`

	// CustomAttributeLabel names what the custom weight slot measures for
	// this user, when in use.
	CustomAttributeLabel string `json:"custom_attribute_label,omitempty"`

	// CreatedAt is when the profile was onboarded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last mutation time.
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionSignal is one labeled learning event: the user's reaction to a
// preference attribute observed on a candidate. Signals are immutable once
// created and appended to the user's history.
type InteractionSignal struct {
	// ID is the unique signal identifier.
	ID string `json:"id"`

	// UserID is the learning user.
	UserID string `json:"user_id"`

	// CandidateID is the candidate the reaction refers to.
	CandidateID string `json:"candidate_id"`

	// Attribute is the preference dimension the reaction applies to.
	Attribute Attribute `json:"attribute"`

	// Reaction is the user's response.
	Reaction Reaction `json:"reaction"`

	// AttractionForce derived from the reaction.
	AttractionForce float64 `json:"attraction_force"`

	// RepulsionForce derived from the reaction.
	RepulsionForce float64 `json:"repulsion_force"`

	// Confidence is the strength of this signal.
	Confidence float64 `json:"confidence"`

	// Timestamp is when the signal was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// NewInteractionSignal builds a signal for the given reaction, deriving the
// attraction and repulsion forces and stamping it with a fresh ID.
func NewInteractionSignal(userID, candidateID string, attr Attribute, reaction Reaction) InteractionSignal {
	return InteractionSignal{
		ID:              uuid.New().String(),
		UserID:          userID,
		CandidateID:     candidateID,
		Attribute:       attr,
		Reaction:        reaction,
		AttractionForce: reaction.AttractionForce(),
		RepulsionForce:  reaction.RepulsionForce(),
		Confidence:      reaction.Confidence(),
		Timestamp:       time.Now().UTC(),
	}
}

// NetForce returns the signed force this signal applies to its attribute's
// weight before the learning rate is applied.
func (s InteractionSignal) NetForce() float64 {
	return s.AttractionForce - s.RepulsionForce
}
