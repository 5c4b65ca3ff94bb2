// Package cache provides the cache resources consulted by the caching policy.
//
// A resource is anything that can hand out a Store. Stores keep Artifacts
// (status, headers, body and resolved TTL of a 2xx response) and enforce the
// TTL given on Put:
//
//   - RedisStore relies on Redis key expiration
//   - SQLiteStore keeps an expiry column and purges on read
//   - LevelDBStore keeps an expiry in each record and purges on read
//
// A ttl <= 0 on Put means the response is already stale and nothing is stored.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	registry := cache.NewRegistry()
//	registry.Register("responses", cache.NewRedisStore(redisClient, "gw:"))
//
//	resource, ok := registry.Resource("responses")
//	if !ok || resource.Cache() == nil {
//		// not configured
//	}
//
//	artifact, err := resource.Cache().Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// forward the request
//	}
//
// # Metrics
//
// The stores export Prometheus metrics:
//
//   - cache_store_hits_total{store} - Store hits
//   - cache_store_misses_total{store} - Store misses (including expired entries)
//   - cache_store_written_bytes_total{store} - Serialized bytes written
//   - cache_store_errors_total{store,operation} - Store operation errors
package cache
