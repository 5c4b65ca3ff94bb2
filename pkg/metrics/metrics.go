// Package metrics documents the Prometheus metrics exposed by the cache proxy.
// All metrics are defined in their respective packages (policy, cache)
// to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the default Prometheus registry used by the cache proxy.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// RegisterBuildInfo registers the go_build_info collector with reg.
// Registering it twice is not an error.
func RegisterBuildInfo(reg prometheus.Registerer) error {
	err := reg.Register(collectors.NewBuildInfoCollector())
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// Metrics Documentation
//
// Policy Metrics (pkg/policy):
//   - cache_policy_requests_total{outcome} (Counter): Requests by outcome (hit, miss, refresh, bypass, skipped)
//   - cache_policy_stored_total (Counter): Captured responses stored in the cache
//   - cache_policy_not_stored_total{reason} (Counter): Forwarded responses not stored (status, aborted, method, ttl, store)
//   - cache_policy_failures_total (Counter): Requests failed by the policy (missing cache, key evaluation)
//
// Process Metrics (registered by cmd/cache-proxy via RegisterBuildInfo):
//   - go_build_info{path, version, checksum} (Gauge): Main module build information
//
// Store Metrics (pkg/cache):
//   - cache_store_hits_total{store} (Counter): Store hits by store type (redis, sqlite, leveldb)
//   - cache_store_misses_total{store} (Counter): Store misses by store type
//   - cache_store_written_bytes_total{store} (Counter): Serialized artifact bytes written
//   - cache_store_errors_total{store, operation} (Counter): Store errors by operation (get, put, delete)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cache_policy_requests_total{outcome="hit"}[5m])) /
//   sum(rate(cache_policy_requests_total{outcome=~"hit|miss"}[5m]))
//
//   # Store Error Rate
//   sum by (store) (rate(cache_store_errors_total[5m]))
//
//   # Responses Rejected by Status
//   rate(cache_policy_not_stored_total{reason="status"}[5m])
//
//   # Policy Failures
//   increase(cache_policy_failures_total[15m]) > 0
