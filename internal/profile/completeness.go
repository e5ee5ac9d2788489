// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package profile

// factualFieldCount is the number of optional factual attributes tracked by
// Completeness. Keep in sync with the FactualProfile field list.
const factualFieldCount = 12

// Completeness returns the fraction of factual attributes present on the
// profile, in [0, 1]. Scoring confidence is built on this value.
func (f FactualProfile) Completeness() float64 {
	present := 0

	if f.Age != nil {
		present++
	}
	if f.HeightCm != nil {
		present++
	}
	if f.Gender != "" {
		present++
	}
	if f.RelationshipGoal != "" {
		present++
	}
	if f.FamilyPlans != "" {
		present++
	}
	if f.SmokingHabits != "" {
		present++
	}
	if f.DrinkingHabits != "" {
		present++
	}
	if f.ExerciseHabits != "" {
		present++
	}
	if f.SleepSchedule != "" {
		present++
	}
	if f.Diet != "" {
		present++
	}
	if f.Religion != "" {
		present++
	}
	if len(f.Interests) > 0 {
		present++
	}

	return float64(present) / factualFieldCount
}
