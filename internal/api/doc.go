// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package api exposes the matching engine over HTTP using the chi router.

Every engine operation is surfaced under /api/v1/match, wrapped in a
standard JSON envelope:

	{
	  "success": true,
	  "data":    { ... },
	  "error":   null,
	  "meta":    { "request_id": "...", "timestamp": "...", "duration_ms": 3 }
	}

Errors carry a machine-readable code (BAD_REQUEST, NOT_FOUND, CONFLICT, ...)
next to the human-readable message. Degraded results are not errors: when a
collaborator fell back (static candidate pool, assumed non-match) the call
succeeds and the payload carries a degraded flag.

Route groups get their own middleware stacks: permissive rate limits on
health probes, strict ones on login, Prometheus instrumentation and gzip on
the data surface, and JWT admin auth on /api/v1/admin.

The WebSocket endpoint upgrades at /api/v1/ws and registers the connection
with the notification hub; everything after the upgrade is the ws package's
business.
*/
package api
