package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DeletionPendingStore is the persistent (boardId -> deletedAt) map a
// two-way sync or one-way push round consults before re-uploading or
// skipping a locally deleted board (spec.md §4.1.6). An explicit pull
// ignores this store entirely — a user-initiated pull always restores
// whatever the remote has.
type DeletionPendingStore interface {
	MarkPending(ctx context.Context, boardID string, deletedAt int64) error
	GetPending(ctx context.Context, boardID string) (int64, bool, error)
	ClearPending(ctx context.Context, boardID string) error
	ListPending(ctx context.Context) (map[string]int64, error)
}

func (s *SQLiteStore) MarkPending(ctx context.Context, boardID string, deletedAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deletion_pending (board_id, deleted_at) VALUES (?, ?)
		ON CONFLICT (board_id) DO UPDATE SET deleted_at = excluded.deleted_at`,
		boardID, deletedAt)
	if err != nil {
		return fmt.Errorf("store: marking deletion-pending for %q: %w", boardID, err)
	}

	return nil
}

func (s *SQLiteStore) GetPending(ctx context.Context, boardID string) (int64, bool, error) {
	var deletedAt int64

	err := s.db.QueryRowContext(ctx, `SELECT deleted_at FROM deletion_pending WHERE board_id = ?`, boardID).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: getting deletion-pending for %q: %w", boardID, err)
	}

	return deletedAt, true, nil
}

func (s *SQLiteStore) ClearPending(ctx context.Context, boardID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deletion_pending WHERE board_id = ?`, boardID); err != nil {
		return fmt.Errorf("store: clearing deletion-pending for %q: %w", boardID, err)
	}

	return nil
}

func (s *SQLiteStore) ListPending(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT board_id, deleted_at FROM deletion_pending`)
	if err != nil {
		return nil, fmt.Errorf("store: listing deletion-pending: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)

	for rows.Next() {
		var (
			id string
			ts int64
		)

		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("store: scanning deletion-pending row: %w", err)
		}

		out[id] = ts
	}

	return out, rows.Err()
}
