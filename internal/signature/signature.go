// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package signature implements the personality signature codec and its
// distance metric.
//
// A signature is a compact code of the form
//
//	HHC-<angle>-<openness>-<conscientiousness>-<agreeableness>-<energy>-<stability>
//
// for example "HHC-273-45-82-67-31-58". Parse expands the code into a Vector
// of six named dimensions; Format compresses a Vector back into its canonical
// code. The round trip is lossless for canonical codes.
//
// The first dimension is the interpersonal circumplex angle in degrees. It is
// circular: 350 and 10 are 20 degrees apart, not 340. The remaining five
// dimensions are linear trait scores on a 0-100 scale.
//
// Distance is Euclidean over the per-dimension deltas with the wrap-aware
// delta on the circumplex dimension. Compatibility rescales distance into
// [0, 1] against the most distant possible pair, so identical signatures
// score 1 and maximally opposed signatures score 0.
package signature

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Prefix identifies a personality signature code.
const Prefix = "HHC"

const (
	// AnglePeriod is the period of the circular circumplex dimension in degrees.
	AnglePeriod = 360.0

	// TraitMax bounds each linear trait dimension.
	TraitMax = 100.0

	// numTraits is the count of linear trait dimensions.
	numTraits = 5

	// segmentCount is the prefix segment plus six dimension segments.
	segmentCount = 7
)

var (
	// ErrInvalidFormat indicates a code that does not parse as a signature.
	ErrInvalidFormat = errors.New("invalid signature format")

	// ErrOutOfRange indicates a dimension value outside its bounds.
	ErrOutOfRange = errors.New("signature dimension out of range")
)

// Vector is a personality signature expanded into its named dimensions.
type Vector struct {
	// CircumplexAngle is the position on the interpersonal circumplex in
	// degrees, [0, AnglePeriod).
	CircumplexAngle float64 `json:"circumplex_angle"`

	// Openness is the openness-to-experience trait score, [0, TraitMax].
	Openness float64 `json:"openness"`

	// Conscientiousness is the conscientiousness trait score, [0, TraitMax].
	Conscientiousness float64 `json:"conscientiousness"`

	// Agreeableness is the agreeableness trait score, [0, TraitMax].
	Agreeableness float64 `json:"agreeableness"`

	// Energy is the social energy trait score, [0, TraitMax].
	Energy float64 `json:"energy"`

	// Stability is the emotional stability trait score, [0, TraitMax].
	Stability float64 `json:"stability"`
}

// Parse expands a compact signature code into its dimension vector.
// The prefix is matched case-insensitively; dimension segments must be
// integers within their bounds.
func Parse(code string) (Vector, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != segmentCount {
		return Vector{}, fmt.Errorf("%w: expected %d segments, got %d", ErrInvalidFormat, segmentCount, len(parts))
	}
	if !strings.EqualFold(parts[0], Prefix) {
		return Vector{}, fmt.Errorf("%w: missing %s prefix", ErrInvalidFormat, Prefix)
	}

	vals := make([]float64, 0, segmentCount-1)
	for i, part := range parts[1:] {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Vector{}, fmt.Errorf("%w: segment %d (%q) is not an integer", ErrInvalidFormat, i+1, part)
		}
		vals = append(vals, float64(n))
	}

	v := Vector{
		CircumplexAngle:   vals[0],
		Openness:          vals[1],
		Conscientiousness: vals[2],
		Agreeableness:     vals[3],
		Energy:            vals[4],
		Stability:         vals[5],
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}

	return v, nil
}

// Format compresses the vector into its canonical code. Dimension values are
// rounded to the nearest integer, so Format(Parse(code)) == code holds for
// every canonical code.
func (v Vector) Format() string {
	return fmt.Sprintf("%s-%d-%d-%d-%d-%d-%d",
		Prefix,
		int(math.Round(v.CircumplexAngle)),
		int(math.Round(v.Openness)),
		int(math.Round(v.Conscientiousness)),
		int(math.Round(v.Agreeableness)),
		int(math.Round(v.Energy)),
		int(math.Round(v.Stability)),
	)
}

// Validate checks that every dimension is within its bounds.
func (v Vector) Validate() error {
	if v.CircumplexAngle < 0 || v.CircumplexAngle >= AnglePeriod {
		return fmt.Errorf("%w: circumplex angle %g outside [0, %g)", ErrOutOfRange, v.CircumplexAngle, float64(AnglePeriod))
	}

	traits := []struct {
		name  string
		value float64
	}{
		{"openness", v.Openness},
		{"conscientiousness", v.Conscientiousness},
		{"agreeableness", v.Agreeableness},
		{"energy", v.Energy},
		{"stability", v.Stability},
	}
	for _, t := range traits {
		if t.value < 0 || t.value > TraitMax {
			return fmt.Errorf("%w: %s %g outside [0, %g]", ErrOutOfRange, t.name, t.value, float64(TraitMax))
		}
	}

	return nil
}

// Distance returns the Euclidean distance between two expanded signatures.
// The circumplex dimension uses the wrap-aware delta; the trait dimensions
// use plain differences. Distance is symmetric and non-negative.
func Distance(a, b Vector) float64 {
	d := circularDelta(a.CircumplexAngle, b.CircumplexAngle)
	sum := d * d

	deltas := [numTraits]float64{
		a.Openness - b.Openness,
		a.Conscientiousness - b.Conscientiousness,
		a.Agreeableness - b.Agreeableness,
		a.Energy - b.Energy,
		a.Stability - b.Stability,
	}
	for _, delta := range deltas {
		sum += delta * delta
	}

	return math.Sqrt(sum)
}

// MaxDistance returns the distance between the two most extreme possible
// vectors: the circumplex dimension contributes half its period, each trait
// dimension its full range.
func MaxDistance() float64 {
	half := AnglePeriod / 2.0
	return math.Sqrt(half*half + numTraits*TraitMax*TraitMax)
}

// Compatibility rescales the distance between two signatures into [0, 1].
// Identical signatures score exactly 1; the most distant possible pair
// scores 0.
func Compatibility(a, b Vector) float64 {
	c := 1.0 - Distance(a, b)/MaxDistance()
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// circularDelta returns the wrap-aware delta between two angles on a circle
// of period AnglePeriod: min(|a-b|, AnglePeriod-|a-b|).
func circularDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > AnglePeriod-d {
		return AnglePeriod - d
	}
	return d
}
