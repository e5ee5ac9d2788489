// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package middleware provides infrastructure HTTP middleware: request ID
// propagation, Prometheus request instrumentation, gzip compression, and an
// in-process latency monitor behind the admin performance endpoint.
//
// Middleware here uses the http.HandlerFunc wrapping style; the api package
// bridges it into chi's func(http.Handler) http.Handler where needed.
package middleware
