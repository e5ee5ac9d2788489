// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package metrics provides Prometheus metrics collection and export.

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8824/metrics

# Metric Groups

API metrics cover request counts, latency, in-flight requests, and rate
limit rejections, labeled by method and chi route pattern.

Scoring metrics cover computed compatibility scores, score latency, the
score cache hit rate, and veto rejections.

Queue metrics cover population runs (by result), run duration, produced
queue sizes, and recommendations served.

Interaction metrics cover likes and passes (with change-of-mind splits),
mutual matches, preference signals by attribute and reaction, and
conversation trigger decisions by keyword tier.

Edge metrics cover the candidate source and oracle clients (fetch outcomes,
circuit breaker state), the async store writer, the event bus, and
WebSocket delivery.

# Cardinality

Labels never carry user or candidate identifiers. Every label draws from a
fixed set: attribute names, reactions, breaker names, route patterns, and
small result enums.

Example PromQL:

	# Score cache hit rate
	rate(match_score_cache_hits_total[5m]) /
	  (rate(match_score_cache_hits_total[5m]) + rate(match_score_cache_misses_total[5m]))

	# Mutual match rate per like
	rate(mutual_matches_total[15m]) / rate(interactions_total{action="like"}[15m])

	# Degraded queue populations
	rate(queue_populations_total{result!="success"}[5m])

All recording functions are safe for concurrent use.
*/
package metrics
