package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteCache(connectionString string, ttl time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	cache := &SQLiteCache{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
	if err := cache.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return cache, nil
}

func (s *SQLiteCache) createTable() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS rendered_pages (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT content, expires_at FROM rendered_pages WHERE key = ?", key)

	var content []byte
	var expiresAt int64
	if err := row.Scan(&content, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if expiresAt > 0 && s.now().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM rendered_pages WHERE key = ?", key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return content, true, nil
}

func (s *SQLiteCache) Set(ctx context.Context, key string, value []byte) error {
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).UnixNano()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rendered_pages (key, content, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	return err
}

func (s *SQLiteCache) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
