// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package store provides the durable key/value layer: a collection-scoped
// JSON store backed by BadgerDB for production or memory for tests, and an
// asynchronous writer that decouples persistence from request handling.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is reported when no value exists for a collection/key pair.
var ErrKeyNotFound = errors.New("store: key not found")

// ErrClosed is reported by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store is a collection-scoped KV store with JSON values. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get reads the value at collection/key into value. Reports
	// ErrKeyNotFound when no value exists.
	Get(ctx context.Context, collection, key string, value any) error

	// Set writes value at collection/key, replacing any existing value.
	Set(ctx context.Context, collection, key string, value any) error

	// Delete removes collection/key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, collection, key string) error

	// Close releases the store's resources.
	Close() error
}

// storageKey builds the flat key for a collection/key pair.
func storageKey(collection, key string) []byte {
	return []byte(collection + ":" + key)
}
