// Package metrics defines the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast metrics
var (
	// BroadcastsTotal tracks broadcast calls by outcome (ok, partial, empty)
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_total",
			Help: "Total broadcast calls by outcome",
		},
		[]string{"outcome"},
	)

	// BroadcastSendsTotal tracks per-channel send attempts by platform and status
	BroadcastSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_sends_total",
			Help: "Per-channel send attempts by platform and status",
		},
		[]string{"platform", "status"},
	)

	// BroadcastDuration tracks full fan-out duration in seconds
	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_duration_seconds",
			Help:    "Broadcast fan-out duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Chat reader metrics
var (
	// ReaderActiveSessions tracks number of live chat reader sessions
	ReaderActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reader_active_sessions",
			Help: "Number of live chat reader sessions",
		},
	)

	// ReaderMessagesTotal tracks inbound chat messages logged across all sessions
	ReaderMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reader_messages_total",
			Help: "Total inbound chat messages logged across all sessions",
		},
	)

	// ReaderPingsTotal tracks server keep-alive pings answered
	ReaderPingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reader_pings_total",
			Help: "Total server keep-alive pings answered",
		},
	)

	// ReaderSessionErrorsTotal tracks reader sessions terminated by socket errors
	ReaderSessionErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reader_session_errors_total",
			Help: "Total reader sessions terminated by socket errors",
		},
	)
)

// Scheduler metrics
var (
	// SchedulerActiveAdTimers tracks number of active recurring ad jobs
	SchedulerActiveAdTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_active_ad_timers",
			Help: "Number of active recurring ad jobs",
		},
	)

	// SchedulerPendingReminders tracks number of pending pickup reminders
	SchedulerPendingReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_pending_reminders",
			Help: "Number of pending pickup reminders",
		},
	)

	// SchedulerFiringsTotal tracks scheduled job firings by kind and status
	SchedulerFiringsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_firings_total",
			Help: "Scheduled job firings by kind and status",
		},
		[]string{"kind", "status"},
	)
)

// Tools config source metrics
var (
	// ConfigCacheHits tracks Redis-level tools config cache hits
	ConfigCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tools_config_cache_hits_total",
			Help: "Tools config cache hits (Redis layer)",
		},
	)

	// ConfigCacheMisses tracks Redis-level tools config cache misses
	ConfigCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tools_config_cache_misses_total",
			Help: "Tools config cache misses (Redis layer)",
		},
	)
)

// Kick bridge metrics
var (
	// BridgeOpenCircuits tracks the number of Kick bridge endpoints whose
	// circuit breaker is currently tripped (open or half-open)
	BridgeOpenCircuits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kick_bridge_open_circuits",
			Help: "Number of Kick bridge endpoints with a tripped circuit breaker",
		},
	)

	// BridgeRequestsTotal tracks Kick bridge HTTP requests by status
	BridgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_bridge_requests_total",
			Help: "Kick bridge HTTP requests by status",
		},
		[]string{"status"},
	)
)
