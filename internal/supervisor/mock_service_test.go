// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockService is a controllable suture.Service for tree tests. By default
// Serve blocks until its context ends; SetFailCount makes the next n runs
// crash first, which is how the restart and isolation tests provoke
// supervisor churn.
type MockService struct {
	name      string
	starts    atomic.Int32
	stops     atomic.Int32
	failsLeft atomic.Int32
}

func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	if m.failsLeft.Add(-1) >= 0 {
		return errors.New(m.name + ": simulated crash")
	}

	<-ctx.Done()
	return ctx.Err()
}

// SetFailCount makes the next n Serve runs fail before the service settles.
func (m *MockService) SetFailCount(n int) {
	m.failsLeft.Store(int32(n))
}

// StartCount reports how many times Serve was entered.
func (m *MockService) StartCount() int {
	return int(m.starts.Load())
}

// StopCount reports how many times Serve returned.
func (m *MockService) StopCount() int {
	return int(m.stops.Load())
}

// String identifies the service in supervisor logs.
func (m *MockService) String() string { return m.name }
