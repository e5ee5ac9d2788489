// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pmahlen/amora/internal/profile"
	"github.com/pmahlen/amora/internal/signature"
)

// heightDecayCm is the deviation in centimeters at which an out-of-range
// height score reaches zero.
const heightDecayCm = 20.0

// Scorer computes compatibility between two profiles. Scoring is a pure
// function of the inputs and safe for unbounded concurrent use.
type Scorer struct {
	cfg ScoringConfig

	// factualEvals counts factual score computations. Veto short-circuits
	// must not increment it.
	factualEvals atomic.Int64
}

// NewScorer creates a scorer with the given combination parameters.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// FactualEvaluations returns how many times the factual score has been
// computed. Pairs rejected by a veto never reach the factual stage.
func (s *Scorer) FactualEvaluations() int64 {
	return s.factualEvals.Load()
}

// Score computes the compatibility of candidate for seeker, using the
// seeker's current preference weights. interactionDepth is the seeker's
// recorded signal count and feeds the confidence bonus.
func (s *Scorer) Score(seeker, candidate *profile.Profile, weights profile.Weights, interactionDepth int) CompatibilityScore {
	hhc := signature.Compatibility(seeker.Signature, candidate.Signature)
	confidence := s.confidence(seeker, candidate, interactionDepth)

	if reason, ok := s.checkVetoes(seeker, candidate); !ok {
		// Hard disqualification: the factual stage is skipped entirely.
		return CompatibilityScore{
			HHCScore:   hhc,
			VetoFactor: 0,
			TotalScore: 0,
			Breakdown: ScoreBreakdown{
				VetoViolation: true,
				VetoReason:    reason,
			},
			Confidence:  confidence,
			Explanation: explanation(0),
		}
	}

	factual, components := s.factualScore(seeker, candidate, weights)

	// When no factual attribute was present on both sides the personality
	// score carries the full weight instead of being diluted by a zero.
	var total float64
	if len(components) == 0 {
		total = hhc
	} else {
		total = s.cfg.HHCWeight*hhc + s.cfg.FactualWeight*factual
	}

	return CompatibilityScore{
		HHCScore:     hhc,
		FactualScore: factual,
		VetoFactor:   1,
		TotalScore:   clamp01(total),
		Breakdown: ScoreBreakdown{
			Components: components,
		},
		Confidence:  confidence,
		Explanation: explanation(clamp01(total)),
	}
}

// checkVetoes evaluates the hard constraints in order: age range, gender
// interest, height range, then each veto criterion. The first failure wins
// and the remaining checks are skipped.
func (s *Scorer) checkVetoes(seeker, candidate *profile.Profile) (string, bool) {
	prefs := seeker.Preferences

	if prefs.AgeRange != nil && candidate.Factual.Age != nil {
		if !prefs.AgeRange.Contains(*candidate.Factual.Age) {
			return fmt.Sprintf("age %d outside preferred range %d-%d",
				*candidate.Factual.Age, prefs.AgeRange.Min, prefs.AgeRange.Max), false
		}
	}

	if len(prefs.GenderInterests) > 0 && candidate.Factual.Gender != "" {
		if !containsString(prefs.GenderInterests, candidate.Factual.Gender) {
			return "gender not in interest set", false
		}
	}

	if prefs.HeightRange != nil && candidate.Factual.HeightCm != nil {
		if !prefs.HeightRange.Contains(*candidate.Factual.HeightCm) {
			return fmt.Sprintf("height %dcm outside preferred range %d-%dcm",
				*candidate.Factual.HeightCm, prefs.HeightRange.Min, prefs.HeightRange.Max), false
		}
	}

	veto := prefs.Veto
	if veto.NonSmokerOnly && candidate.Factual.SmokingHabits != "" &&
		candidate.Factual.SmokingHabits != profile.SmokingNever {
		return "smoker excluded by veto", false
	}
	if veto.NoHeavyDrinking && candidate.Factual.DrinkingHabits == profile.DrinkingHeavily {
		return "heavy drinking excluded by veto", false
	}
	if veto.MustWantChildren && candidate.Factual.FamilyPlans != "" &&
		candidate.Factual.FamilyPlans != profile.FamilyWantsChildren {
		return "family plans excluded by veto", false
	}
	if veto.MustShareReligion {
		if seeker.Factual.Religion == "" || candidate.Factual.Religion == "" ||
			seeker.Factual.Religion != candidate.Factual.Religion {
			return "religion mismatch excluded by veto", false
		}
	}

	return "", true
}

// factualScore computes the weighted average of per-attribute sub-scores over
// attributes present on both sides. Missing attributes contribute neither
// score nor weight. Returns the score and the sub-scores actually used.
func (s *Scorer) factualScore(seeker, candidate *profile.Profile, weights profile.Weights) (float64, map[string]float64) {
	s.factualEvals.Add(1)

	components := make(map[string]float64)
	var weightedSum, weightSum float64

	use := func(attr profile.Attribute, score float64) {
		w := weights.Get(attr)
		components[string(attr)] = score
		weightedSum += w * score
		weightSum += w
	}

	if score, ok := ageScore(seeker, candidate); ok {
		use(profile.AttributeAge, score)
	}
	if score, ok := heightScore(seeker, candidate); ok {
		use(profile.AttributeHeight, score)
	}
	if score, ok := goalScore(seeker, candidate); ok {
		use(profile.AttributeRelationshipGoal, score)
	}
	if score, ok := familyScore(seeker, candidate); ok {
		use(profile.AttributeFamilyPlans, score)
	}
	if score, ok := interestsScore(seeker, candidate); ok {
		use(profile.AttributeInterests, score)
	}
	if score, ok := lifestyleScore(seeker, candidate); ok {
		use(profile.AttributeLifestyle, score)
	}

	if weightSum == 0 {
		return 0, nil
	}

	return weightedSum / weightSum, components
}

// ageScore is 1.0 inside the preferred range and decays with a Gaussian
// centered on the range midpoint outside it.
func ageScore(seeker, candidate *profile.Profile) (float64, bool) {
	pref := seeker.Preferences.AgeRange
	age := candidate.Factual.Age
	if pref == nil || age == nil || !pref.Valid() {
		return 0, false
	}

	if pref.Contains(*age) {
		return 1.0, true
	}

	center := pref.Center()
	sigma := float64(pref.Max-pref.Min) / 4
	if sigma <= 0 {
		// Degenerate single-year range: any miss scores zero.
		return 0, true
	}

	diff := float64(*age) - center
	return math.Exp(-(diff * diff) / (2 * sigma * sigma)), true
}

// heightScore is 1.0 inside the preferred range and decays linearly with
// centimeters of deviation outside it, reaching zero at heightDecayCm.
func heightScore(seeker, candidate *profile.Profile) (float64, bool) {
	pref := seeker.Preferences.HeightRange
	height := candidate.Factual.HeightCm
	if pref == nil || height == nil || !pref.Valid() {
		return 0, false
	}

	if pref.Contains(*height) {
		return 1.0, true
	}

	var deviation float64
	if *height < pref.Min {
		deviation = float64(pref.Min - *height)
	} else {
		deviation = float64(*height - pref.Max)
	}

	return math.Max(0, 1-deviation/heightDecayCm), true
}

// goalScore is binary membership of the candidate's relationship goal in the
// seeker's accepted set.
func goalScore(seeker, candidate *profile.Profile) (float64, bool) {
	accepted := seeker.Preferences.RelationshipGoals
	goal := candidate.Factual.RelationshipGoal
	if len(accepted) == 0 || goal == "" {
		return 0, false
	}

	if containsString(accepted, goal) {
		return 1.0, true
	}
	return 0.0, true
}

// familyScore is binary membership of the candidate's family plans in the
// seeker's accepted set.
func familyScore(seeker, candidate *profile.Profile) (float64, bool) {
	accepted := seeker.Preferences.FamilyPlans
	plans := candidate.Factual.FamilyPlans
	if len(accepted) == 0 || plans == "" {
		return 0, false
	}

	if containsString(accepted, plans) {
		return 1.0, true
	}
	return 0.0, true
}

// interestsScore is the Jaccard overlap of the two interest sets.
func interestsScore(seeker, candidate *profile.Profile) (float64, bool) {
	a := seeker.Factual.Interests
	b := candidate.Factual.Interests
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}

	return jaccard(a, b), true
}

// lifestyleScore is the exact-match average over the lifestyle fields
// (exercise, sleep schedule, diet) present on both sides.
func lifestyleScore(seeker, candidate *profile.Profile) (float64, bool) {
	pairs := [][2]string{
		{seeker.Factual.ExerciseHabits, candidate.Factual.ExerciseHabits},
		{seeker.Factual.SleepSchedule, candidate.Factual.SleepSchedule},
		{seeker.Factual.Diet, candidate.Factual.Diet},
	}

	var matches, available float64
	for _, pair := range pairs {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		available++
		if pair[0] == pair[1] {
			matches++
		}
	}

	if available == 0 {
		return 0, false
	}

	return matches / available, true
}

// confidence combines average profile completeness with an interaction depth
// bonus, capped at 1.
func (s *Scorer) confidence(seeker, candidate *profile.Profile, interactionDepth int) float64 {
	completeness := (seeker.Factual.Completeness() + candidate.Factual.Completeness()) / 2

	bonus := float64(interactionDepth) * s.cfg.DepthBonusStep
	if bonus > s.cfg.DepthBonusCap {
		bonus = s.cfg.DepthBonusCap
	}

	return math.Min(1, completeness+bonus)
}

// explanation returns the quality band for a total score.
func explanation(total float64) string {
	switch {
	case total >= 0.8:
		return BandExceptional
	case total >= 0.6:
		return BandStrong
	case total >= 0.4:
		return BandModerate
	default:
		return BandLimited
	}
}

// jaccard computes the Jaccard similarity between two string sets.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// containsString reports whether set contains value.
func containsString(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// clamp01 clamps v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
