// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package profile

// WeightEpsilon is the tolerance for the weights-sum-to-one invariant.
const WeightEpsilon = 1e-6

// Weights holds the dynamic preference weight for each attribute in the
// closed set. The invariant maintained by the learning loop is that the
// weights sum to 1 within WeightEpsilon after every update.
type Weights struct {
	// Age is the weight of age compatibility.
	Age float64 `json:"age"`

	// Height is the weight of height compatibility.
	Height float64 `json:"height"`

	// RelationshipGoal is the weight of relationship goal alignment.
	RelationshipGoal float64 `json:"relationship_goal"`

	// FamilyPlans is the weight of family plan alignment.
	FamilyPlans float64 `json:"family_plans"`

	// Interests is the weight of shared interests.
	Interests float64 `json:"interests"`

	// Lifestyle is the weight of lifestyle habit alignment.
	Lifestyle float64 `json:"lifestyle"`

	// Custom is the weight of the per-profile custom attribute.
	Custom float64 `json:"custom"`
}

// DefaultWeights returns the initial weight distribution for a new profile.
// The values sum to exactly 1.
func DefaultWeights() Weights {
	return Weights{
		Age:              0.20,
		Height:           0.10,
		RelationshipGoal: 0.20,
		FamilyPlans:      0.15,
		Interests:        0.15,
		Lifestyle:        0.15,
		Custom:           0.05,
	}
}

// Get returns the weight for the given attribute.
func (w Weights) Get(attr Attribute) float64 {
	switch attr {
	case AttributeAge:
		return w.Age
	case AttributeHeight:
		return w.Height
	case AttributeRelationshipGoal:
		return w.RelationshipGoal
	case AttributeFamilyPlans:
		return w.FamilyPlans
	case AttributeInterests:
		return w.Interests
	case AttributeLifestyle:
		return w.Lifestyle
	case AttributeCustom:
		return w.Custom
	default:
		return 0
	}
}

// With returns a copy with the given attribute's weight replaced.
func (w Weights) With(attr Attribute, value float64) Weights {
	switch attr {
	case AttributeAge:
		w.Age = value
	case AttributeHeight:
		w.Height = value
	case AttributeRelationshipGoal:
		w.RelationshipGoal = value
	case AttributeFamilyPlans:
		w.FamilyPlans = value
	case AttributeInterests:
		w.Interests = value
	case AttributeLifestyle:
		w.Lifestyle = value
	case AttributeCustom:
		w.Custom = value
	}
	return w
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Age + w.Height + w.RelationshipGoal + w.FamilyPlans +
		w.Interests + w.Lifestyle + w.Custom
}

// Normalize returns a copy rescaled so the weights sum to 1. A zero vector
// normalizes to the default distribution rather than dividing by zero.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights()
	}

	return Weights{
		Age:              w.Age / sum,
		Height:           w.Height / sum,
		RelationshipGoal: w.RelationshipGoal / sum,
		FamilyPlans:      w.FamilyPlans / sum,
		Interests:        w.Interests / sum,
		Lifestyle:        w.Lifestyle / sum,
		Custom:           w.Custom / sum,
	}
}

// ToMap returns the weights keyed by attribute name, for API responses.
func (w Weights) ToMap() map[string]float64 {
	return map[string]float64{
		string(AttributeAge):              w.Age,
		string(AttributeHeight):           w.Height,
		string(AttributeRelationshipGoal): w.RelationshipGoal,
		string(AttributeFamilyPlans):      w.FamilyPlans,
		string(AttributeInterests):        w.Interests,
		string(AttributeLifestyle):        w.Lifestyle,
		string(AttributeCustom):           w.Custom,
	}
}
