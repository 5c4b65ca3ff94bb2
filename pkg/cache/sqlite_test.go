package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	artifact := testArtifact()
	if err := store.Put(ctx, "api_1_42", artifact, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "api_1_42")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != string(artifact.Body) {
		t.Errorf("Body = %s, want %s", got.Body, artifact.Body)
	}
	if got.Method != artifact.Method {
		t.Errorf("Method = %q, want %q", got.Method, artifact.Method)
	}
}

func TestSQLiteStore_Replace(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testArtifact()
	second := testArtifact()
	second.Body = []byte("second")

	if err := store.Put(ctx, "k", first, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "k", second, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "second" {
		t.Errorf("Body = %q, want last write", got.Body)
	}
}

func TestSQLiteStore_Expiry(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "short", testArtifact(), 20*time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired artifact, got %v", err)
	}
}

func TestSQLiteStore_PurgeExpired(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "old", testArtifact(), 10*time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "fresh", testArtifact(), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	n, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired removed %d rows, want 1", n)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh artifact lost: %v", err)
	}
}

func TestSQLiteStore_NonPositiveTTL(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "zero", testArtifact(), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := store.Get(ctx, "zero"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestSQLiteStore_DeleteAndClose(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", testArtifact(), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}

	if store.Cache() == nil {
		t.Fatal("Cache() should be usable before Close")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if store.Cache() != nil {
		t.Error("Cache() should return nil after Close")
	}
}
