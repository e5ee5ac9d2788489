// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package candidates

import (
	"sync"
	"time"

	"github.com/pmahlen/amora/internal/profile"
)

// FallbackPool holds the last known-good candidate pool so the engine can
// keep serving recommendations while the candidate source is down. It
// starts from an optional static seed and is replaced by every successful
// fetch.
type FallbackPool struct {
	mu          sync.RWMutex
	profiles    []profile.Profile
	refreshedAt time.Time
}

// NewFallbackPool returns a pool seeded with the given profiles. A nil seed
// is fine; the pool then stays empty until the first successful fetch.
func NewFallbackPool(seed []profile.Profile) *FallbackPool {
	p := &FallbackPool{}
	if len(seed) > 0 {
		p.profiles = append([]profile.Profile(nil), seed...)
		p.refreshedAt = time.Now().UTC()
	}
	return p
}

// Refresh replaces the pool with a copy of the given profiles. Empty pools
// are ignored so a valid-but-empty response cannot wipe the safety net.
func (p *FallbackPool) Refresh(pool []profile.Profile) {
	if len(pool) == 0 {
		return
	}
	cp := append([]profile.Profile(nil), pool...)

	p.mu.Lock()
	p.profiles = cp
	p.refreshedAt = time.Now().UTC()
	p.mu.Unlock()
}

// Candidates returns up to limit profiles, excluding the requesting user.
// The bool reports whether the pool had anything to offer.
func (p *FallbackPool) Candidates(excludeUserID string, limit int) ([]profile.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.profiles) == 0 {
		return nil, false
	}

	out := make([]profile.Profile, 0, len(p.profiles))
	for _, prof := range p.profiles {
		if prof.UserID == excludeUserID {
			continue
		}
		out = append(out, prof)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Size reports the number of profiles currently held.
func (p *FallbackPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.profiles)
}

// RefreshedAt reports when the pool last changed. Zero means never.
func (p *FallbackPool) RefreshedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refreshedAt
}
