// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import (
	"github.com/pmahlen/amora/internal/profile"
)

// Learner folds interaction signals into a user's preference weights. It is
// stateless; callers own the weight vector and exploration counters.
type Learner struct {
	cfg LearningConfig
}

// NewLearner creates a learner with the given update parameters.
func NewLearner(cfg LearningConfig) *Learner {
	return &Learner{cfg: cfg}
}

// Apply returns the weight vector after folding in one signal. The touched
// weight moves by learningRate times the signal's net force, is clamped to
// [0, 1], and the whole vector is rescaled back to unit sum. The receiver's
// input is never mutated.
func (l *Learner) Apply(weights profile.Weights, sig profile.InteractionSignal) profile.Weights {
	delta := l.cfg.LearningRate * sig.NetForce()
	next := clamp01(weights.Get(sig.Attribute) + delta)
	return weights.With(sig.Attribute, next).Normalize()
}

// NextQuestionAttribute selects which attribute an onboarding or follow-up
// question should probe next. Strict priority: a never-explored attribute
// first, then any attribute whose weight sits below the low-confidence
// threshold, then the single highest-weighted attribute for refinement.
// Ties resolve in canonical attribute order.
func (l *Learner) NextQuestionAttribute(weights profile.Weights, explored map[profile.Attribute]int) profile.Attribute {
	attrs := profile.Attributes()

	for _, attr := range attrs {
		if explored[attr] == 0 {
			return attr
		}
	}

	for _, attr := range attrs {
		if weights.Get(attr) < l.cfg.LowConfidenceThreshold {
			return attr
		}
	}

	best := attrs[0]
	for _, attr := range attrs[1:] {
		if weights.Get(attr) > weights.Get(best) {
			best = attr
		}
	}
	return best
}
