package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const storeRedis = "redis"

// RedisStore stores artifacts in Redis, using native key expiration for TTLs.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed store.
// Keys are written as prefix + key.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Cache implements Resource.
func (s *RedisStore) Cache() Store {
	return s
}

// Ping implements Pinger.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get retrieves an artifact by key.
// Returns ErrCacheMiss if the key doesn't exist or the artifact is expired.
func (s *RedisStore) Get(ctx context.Context, key string) (*Artifact, error) {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(storeRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(storeRedis, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		CacheErrors.WithLabelValues(storeRedis, "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	CacheHits.WithLabelValues(storeRedis).Inc()
	return &artifact, nil
}

// Put stores an artifact with the given TTL.
// The entry will be automatically removed from Redis when it expires.
func (s *RedisStore) Put(ctx context.Context, key string, artifact *Artifact, ttl time.Duration) error {
	if artifact == nil {
		return fmt.Errorf("cache artifact cannot be nil")
	}

	if ttl <= 0 {
		// Already stale, don't cache
		return nil
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		CacheErrors.WithLabelValues(storeRedis, "put").Inc()
		return fmt.Errorf("marshal cache artifact: %w", err)
	}

	if err := s.redis.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(storeRedis, "put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(storeRedis).Add(float64(len(data)))
	return nil
}

// Delete removes an artifact.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues(storeRedis, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
