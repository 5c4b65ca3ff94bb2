package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

const storeSQLite = "sqlite"

// SQLiteStore stores artifacts in a SQLite table with an expiry column.
// Expired rows are purged when they are read.
type SQLiteStore struct {
	db         *sql.DB
	writeMutex sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) the SQLite database at filename.
// If filename is empty, a shared in-memory database is used.
func NewSQLiteStore(filename string) (*SQLiteStore, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", filename, err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			key TEXT PRIMARY KEY,
			expires INTEGER NOT NULL,
			artifact BLOB NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS artifacts_expires_idx ON artifacts (expires)",
		"PRAGMA journal_mode=WAL",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Cache implements Resource. It returns nil once the store is closed.
func (s *SQLiteStore) Cache() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	return s
}

// Ping implements Pinger.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Get retrieves an artifact by key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Artifact, error) {
	var (
		expires int64
		data    []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT expires, artifact FROM artifacts WHERE key = ?", key).Scan(&expires, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			CacheMisses.WithLabelValues(storeSQLite).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(storeSQLite, "get").Inc()
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	if time.Now().After(time.Unix(0, expires)) {
		_ = s.Delete(ctx, key)
		CacheMisses.WithLabelValues(storeSQLite).Inc()
		return nil, ErrCacheMiss
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		CacheErrors.WithLabelValues(storeSQLite, "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	CacheHits.WithLabelValues(storeSQLite).Inc()
	return &artifact, nil
}

// Put stores an artifact until now + ttl.
func (s *SQLiteStore) Put(ctx context.Context, key string, artifact *Artifact, ttl time.Duration) error {
	if artifact == nil {
		return fmt.Errorf("cache artifact cannot be nil")
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		CacheErrors.WithLabelValues(storeSQLite, "put").Inc()
		return fmt.Errorf("marshal cache artifact: %w", err)
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO artifacts (key, expires, artifact) VALUES (?, ?, ?)",
		key, time.Now().Add(ttl).UnixNano(), data)
	if err != nil {
		CacheErrors.WithLabelValues(storeSQLite, "put").Inc()
		return fmt.Errorf("sqlite put: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(storeSQLite).Add(float64(len(data)))
	return nil
}

// Delete removes an artifact.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE key = ?", key); err != nil {
		CacheErrors.WithLabelValues(storeSQLite, "delete").Inc()
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired artifact and returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE expires < ?", time.Now().UnixNano())
	if err != nil {
		CacheErrors.WithLabelValues(storeSQLite, "delete").Inc()
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}
