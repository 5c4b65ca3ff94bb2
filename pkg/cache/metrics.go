package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks store hits by store type
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_hits_total",
			Help: "Total number of cache store hits",
		},
		[]string{"store"}, // "redis", "sqlite", "leveldb"
	)

	// CacheMisses tracks store misses by store type
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_misses_total",
			Help: "Total number of cache store misses",
		},
		[]string{"store"},
	)

	// CacheWrittenBytes tracks serialized artifact bytes written by store type
	CacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_written_bytes_total",
			Help: "Total number of serialized artifact bytes written to cache stores",
		},
		[]string{"store"},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"store", "operation"}, // "get", "put", "delete"
	)
)
