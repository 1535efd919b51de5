package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BlobCache is the local cache for media blob bytes, keyed by their
// stable URL, so a blob already pulled from a shard Gist isn't
// refetched every round.
type BlobCache interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte, cachedAt int64) error
	HasBlob(ctx context.Context, key string) (bool, error)
	DeleteBlob(ctx context.Context, key string) error
}

func (s *SQLiteStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, `SELECT data FROM blob_cache WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting blob %q: %w", key, err)
	}

	return data, nil
}

func (s *SQLiteStore) PutBlob(ctx context.Context, key string, data []byte, cachedAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blob_cache (key, data, cached_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at`,
		key, data, cachedAt)
	if err != nil {
		return fmt.Errorf("store: putting blob %q: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) HasBlob(ctx context.Context, key string) (bool, error) {
	var exists int

	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blob_cache WHERE key = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: checking blob %q: %w", key, err)
	}

	return true, nil
}

func (s *SQLiteStore) DeleteBlob(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blob_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: deleting blob %q: %w", key, err)
	}

	return nil
}
