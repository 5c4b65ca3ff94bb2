package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	storeLevelDB = "leveldb"

	levelDBEntryPrefix = "e:"
)

type levelDBRecord struct {
	Expires  int64     `json:"expires"`
	Artifact *Artifact `json:"artifact"`
}

// LevelDBStore stores artifacts in an on-disk LevelDB database.
type LevelDBStore struct {
	db *leveldb.DB

	mu     sync.RWMutex
	closed bool
}

// NewLevelDBStore opens (or creates) a LevelDB database at path.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

// Cache implements Resource. It returns nil once the store is closed.
func (s *LevelDBStore) Cache() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	return s
}

// Close closes the underlying database.
func (s *LevelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Get retrieves an artifact by key. Expired records are deleted.
func (s *LevelDBStore) Get(ctx context.Context, key string) (*Artifact, error) {
	data, err := s.db.Get([]byte(levelDBEntryPrefix+key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			CacheMisses.WithLabelValues(storeLevelDB).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(storeLevelDB, "get").Inc()
		return nil, fmt.Errorf("leveldb get: %w", err)
	}

	var record levelDBRecord
	if err := json.Unmarshal(data, &record); err != nil || record.Artifact == nil {
		CacheErrors.WithLabelValues(storeLevelDB, "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if time.Now().After(time.Unix(0, record.Expires)) {
		_ = s.Delete(ctx, key)
		CacheMisses.WithLabelValues(storeLevelDB).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(storeLevelDB).Inc()
	return record.Artifact, nil
}

// Put stores an artifact until now + ttl.
func (s *LevelDBStore) Put(ctx context.Context, key string, artifact *Artifact, ttl time.Duration) error {
	if artifact == nil {
		return fmt.Errorf("cache artifact cannot be nil")
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(levelDBRecord{
		Expires:  time.Now().Add(ttl).UnixNano(),
		Artifact: artifact,
	})
	if err != nil {
		CacheErrors.WithLabelValues(storeLevelDB, "put").Inc()
		return fmt.Errorf("marshal cache artifact: %w", err)
	}

	if err := s.db.Put([]byte(levelDBEntryPrefix+key), data, nil); err != nil {
		CacheErrors.WithLabelValues(storeLevelDB, "put").Inc()
		return fmt.Errorf("leveldb put: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(storeLevelDB).Add(float64(len(data)))
	return nil
}

// Delete removes an artifact.
func (s *LevelDBStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Delete([]byte(levelDBEntryPrefix+key), nil); err != nil {
		CacheErrors.WithLabelValues(storeLevelDB, "delete").Inc()
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired record and returns how many were removed.
func (s *LevelDBStore) PurgeExpired(ctx context.Context) (int64, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(levelDBEntryPrefix)), nil)
	defer it.Release()

	now := time.Now().UnixNano()
	batch := new(leveldb.Batch)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		var record levelDBRecord
		if err := json.Unmarshal(it.Value(), &record); err != nil || record.Expires < now {
			batch.Delete(append([]byte(nil), it.Key()...))
		}
	}
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("leveldb iterate: %w", err)
	}

	if batch.Len() == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		CacheErrors.WithLabelValues(storeLevelDB, "delete").Inc()
		return 0, fmt.Errorf("leveldb purge: %w", err)
	}
	return int64(batch.Len()), nil
}
