// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the matching engine and its edges.
//
// Cardinality rule: labels never carry user or candidate IDs. Allowed label
// values are fixed sets (attribute names, reactions, breaker names, route
// patterns).

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Scoring Metrics
	ScoresComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_scores_computed_total",
			Help: "Total number of compatibility scores computed",
		},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_score_duration_seconds",
			Help:    "Duration of single compatibility score computations",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	ScoreCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_score_cache_hits_total",
			Help: "Total number of score cache hits",
		},
	)

	ScoreCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_score_cache_misses_total",
			Help: "Total number of score cache misses",
		},
	)

	VetoRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_veto_rejections_total",
			Help: "Total number of candidate pairs rejected by a veto criterion",
		},
	)

	// Queue Metrics
	QueuePopulations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_populations_total",
			Help: "Total number of recommendation queue population runs",
		},
		[]string{"result"}, // "success", "degraded", "error"
	)

	QueuePopulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_population_duration_seconds",
			Help:    "Duration of recommendation queue population runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueuePopulationSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_population_size",
			Help:    "Number of entries produced per queue population run",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 30, 50},
		},
	)

	RecommendationsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendations handed to users",
		},
	)

	// Interaction Metrics
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_total",
			Help: "Total number of like and pass interactions",
		},
		[]string{"action", "changed_mind"}, // action: "like", "pass"
	)

	MutualMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mutual_matches_total",
			Help: "Total number of confirmed mutual matches",
		},
	)

	SignalsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_signals_total",
			Help: "Total number of recorded preference signals",
		},
		[]string{"attribute", "reaction"},
	)

	TriggerDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trigger_decisions_total",
			Help: "Total number of conversation trigger evaluations",
		},
		[]string{"tier", "decision"}, // decision: "triggered", "suppressed"
	)

	// Candidate Source Metrics
	CandidateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_fetches_total",
			Help: "Total number of candidate pool fetches",
		},
		[]string{"result"}, // "success", "fallback", "error"
	)

	CandidateFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_fetch_duration_seconds",
			Help:    "Duration of candidate pool fetches",
			Buckets: prometheus.DefBuckets,
		},
	)

	OracleChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_checks_total",
			Help: "Total number of mutual-like oracle checks",
		},
		[]string{"result"}, // "mutual", "pending", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Store Metrics
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Total number of async store write outcomes",
		},
		[]string{"result"}, // "success", "dropped", "failed"
	)

	StoreWriteQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_write_queue_depth",
			Help: "Current number of writes waiting in the async store queue",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventsPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_publish_failures_total",
			Help: "Total number of event publish failures",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_send_failures_total",
			Help: "Total number of WebSocket sends dropped or failed",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordScore records one computed compatibility score.
func RecordScore(duration time.Duration, vetoed bool) {
	ScoresComputed.Inc()
	ScoreDuration.Observe(duration.Seconds())
	if vetoed {
		VetoRejections.Inc()
	}
}

// RecordScoreCache records a score cache lookup outcome.
func RecordScoreCache(hit bool) {
	if hit {
		ScoreCacheHits.Inc()
		return
	}
	ScoreCacheMisses.Inc()
}

// RecordQueuePopulation records one queue population run.
func RecordQueuePopulation(result string, duration time.Duration, size int) {
	QueuePopulations.WithLabelValues(result).Inc()
	QueuePopulationDuration.Observe(duration.Seconds())
	QueuePopulationSize.Observe(float64(size))
}

// RecordInteraction records a like or pass.
func RecordInteraction(action string, changedMind bool) {
	InteractionsTotal.WithLabelValues(action, strconv.FormatBool(changedMind)).Inc()
}

// RecordSignal records a preference signal by attribute and reaction.
func RecordSignal(attribute, reaction string) {
	SignalsRecorded.WithLabelValues(attribute, reaction).Inc()
}

// RecordTriggerDecision records a conversation trigger evaluation.
func RecordTriggerDecision(tier string, triggered bool) {
	decision := "suppressed"
	if triggered {
		decision = "triggered"
	}
	TriggerDecisions.WithLabelValues(tier, decision).Inc()
}

// RecordCandidateFetch records a candidate pool fetch outcome.
func RecordCandidateFetch(result string, duration time.Duration) {
	CandidateFetches.WithLabelValues(result).Inc()
	CandidateFetchDuration.Observe(duration.Seconds())
}

// RecordOracleCheck records a mutual-like oracle check outcome.
func RecordOracleCheck(result string) {
	OracleChecks.WithLabelValues(result).Inc()
}

// RecordStoreWrite records an async store write outcome.
func RecordStoreWrite(result string) {
	StoreWrites.WithLabelValues(result).Inc()
}

// RecordEventPublish records an event publish attempt.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventsPublishFailures.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// SetAppInfo publishes build information.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
