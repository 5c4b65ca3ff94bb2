package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client for testing.
// Tests are skipped when no local Redis is reachable; the integration
// suite runs against a real container via testcontainers-go.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func testArtifact() *Artifact {
	return &Artifact{
		Status:   http.StatusOK,
		Method:   http.MethodGet,
		Header:   http.Header{"Content-Type": []string{"application/json"}},
		Body:     []byte(`{"test": "data"}`),
		TTL:      300,
		CachedAt: time.Now(),
	}
}

func TestNewRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	store := NewRedisStore(client, "test:")
	if store == nil {
		t.Fatal("NewRedisStore returned nil")
	}
	if store.redis != client {
		t.Error("RedisStore redis client not set correctly")
	}
	if store.Cache() != store {
		t.Error("Cache() should return the store itself")
	}
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil, "")
}

func TestRedisStore_PutAndGet(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	artifact := testArtifact()
	if err := store.Put(ctx, "api_123", artifact, 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, err := store.Get(ctx, "api_123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Body) != string(artifact.Body) {
		t.Errorf("Body mismatch: got %s, want %s", retrieved.Body, artifact.Body)
	}
	if retrieved.Status != artifact.Status {
		t.Errorf("Status mismatch: got %d, want %d", retrieved.Status, artifact.Status)
	}
	if retrieved.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Header mismatch: got %v", retrieved.Header)
	}

	ttl, err := client.TTL(ctx, "test:api_123").Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 5*time.Minute {
		t.Errorf("redis TTL = %v, want within (0, 5m]", ttl)
	}
}

func TestRedisStore_Get_CacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")

	_, err := store.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisStore_Get_Corrupted(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	if err := client.Set(ctx, "test:broken", "not json", time.Minute).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, err := store.Get(ctx, "broken")
	if !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("Expected ErrInvalidArtifact, got %v", err)
	}
}

func TestRedisStore_Put_NonPositiveTTL(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	for _, ttl := range []time.Duration{0, -time.Second} {
		if err := store.Put(ctx, "stale", testArtifact(), ttl); err != nil {
			t.Fatalf("Put(ttl=%v) failed: %v", ttl, err)
		}
		if _, err := store.Get(ctx, "stale"); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Put(ttl=%v) stored an artifact, Get error = %v", ttl, err)
		}
	}
}

func TestRedisStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	if err := store.Put(ctx, "api_1", testArtifact(), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := store.Get(ctx, "api_1"); err != nil {
		t.Fatalf("Get after Put failed: %v", err)
	}
	if err := store.Delete(ctx, "api_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "api_1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestRedisStore_Put_NilArtifact(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")

	if err := store.Put(context.Background(), "key", nil, time.Minute); err == nil {
		t.Error("Put with nil artifact should return error")
	}
}
