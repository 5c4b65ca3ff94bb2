package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit     = "hit"
	outcomeMiss    = "miss"
	outcomeRefresh = "refresh"
	outcomeBypass  = "bypass"
	outcomeSkipped = "skipped"

	reasonStatus  = "status"
	reasonAborted = "aborted"
	reasonMethod  = "method"
	reasonTTL     = "ttl"
	reasonStore   = "store"
)

var (
	// Requests tracks policy decisions by outcome
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_policy_requests_total",
			Help: "Total number of requests seen by the cache policy",
		},
		[]string{"outcome"}, // "hit", "miss", "refresh", "bypass", "skipped"
	)

	// Stored tracks captured responses written to the cache
	Stored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_policy_stored_total",
			Help: "Total number of captured responses stored in the cache",
		},
	)

	// NotStored tracks forwarded responses that were not cached
	NotStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_policy_not_stored_total",
			Help: "Total number of forwarded responses that were not stored",
		},
		[]string{"reason"}, // "status", "aborted", "method", "ttl", "store"
	)

	// Failures tracks requests aborted by a policy error
	Failures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_policy_failures_total",
			Help: "Total number of requests failed by the cache policy",
		},
	)
)
