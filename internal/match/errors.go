// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package match

import "errors"

var (
	// ErrProfileNotFound indicates no profile exists for the given user.
	// Fatal for the operation; never silently defaulted.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists indicates an onboarding attempt for a user that
	// already has a profile.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInsufficientData indicates a scoring sub-component lacked the
	// fields it needs. Sub-components are skipped rather than failing the
	// call; this sentinel surfaces only when an entire operation has
	// nothing to work with.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("engine closed")
)
