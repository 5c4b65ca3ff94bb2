package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/gateway-cache/pkg/cache"
)

// MemoryStore is an in-memory cache.Store and cache.Resource for tests.
// It records every call and can be told to fail.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	GetErr error
	PutErr error

	gets int
	puts int
	ttls map[string]time.Duration
}

type memoryEntry struct {
	artifact *cache.Artifact
	expires  time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttls:    make(map[string]time.Duration),
	}
}

// Cache implements cache.Resource.
func (s *MemoryStore) Cache() cache.Store {
	return s
}

// Get implements cache.Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (*cache.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++

	if s.GetErr != nil {
		return nil, s.GetErr
	}
	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, cache.ErrCacheMiss
	}
	return entry.artifact, nil
}

// Put implements cache.Store. A ttl <= 0 is not stored.
func (s *MemoryStore) Put(ctx context.Context, key string, artifact *cache.Artifact, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++

	if s.PutErr != nil {
		return s.PutErr
	}
	if ttl <= 0 {
		return nil
	}
	s.entries[key] = memoryEntry{artifact: artifact, expires: time.Now().Add(ttl)}
	s.ttls[key] = ttl
	return nil
}

// Delete implements cache.Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.ttls, key)
	return nil
}

// Artifact returns the artifact stored under key, or nil.
func (s *MemoryStore) Artifact(key string) *cache.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key].artifact
}

// TTL returns the ttl the artifact under key was stored with.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Gets returns the number of Get calls.
func (s *MemoryStore) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Puts returns the number of Put calls.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
