package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BoardRecord is one drawing board's local row: name plus its opaque
// serialized element data (already crypto-decrypted; the store holds
// plaintext on disk, as the teacher's local state does).
type BoardRecord struct {
	ID        string
	Name      string
	Data      []byte
	UpdatedAt int64
	DeletedAt int64 // 0 if not tombstoned
}

// BoardStore is the local persistence contract for drawing boards.
type BoardStore interface {
	GetBoard(ctx context.Context, id string) (BoardRecord, error)
	PutBoard(ctx context.Context, rec BoardRecord) error
	SoftDeleteBoard(ctx context.Context, id string, deletedAt int64) error
	HardDeleteBoard(ctx context.Context, id string) error
	ListBoards(ctx context.Context) ([]BoardRecord, error)
	ListTombstonedBoards(ctx context.Context) ([]BoardRecord, error)
}

func (s *SQLiteStore) GetBoard(ctx context.Context, id string) (BoardRecord, error) {
	var rec BoardRecord

	var deletedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, updated_at, deleted_at FROM boards WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Data, &rec.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return BoardRecord{}, ErrNotFound
	}
	if err != nil {
		return BoardRecord{}, fmt.Errorf("store: getting board %q: %w", id, err)
	}

	rec.DeletedAt = deletedAt.Int64

	return rec, nil
}

func (s *SQLiteStore) PutBoard(ctx context.Context, rec BoardRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boards (id, name, data, updated_at, deleted_at) VALUES (?, ?, ?, ?, NULLIF(?, 0))
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		rec.ID, rec.Name, rec.Data, rec.UpdatedAt, rec.DeletedAt)
	if err != nil {
		return fmt.Errorf("store: putting board %q: %w", rec.ID, err)
	}

	return nil
}

func (s *SQLiteStore) SoftDeleteBoard(ctx context.Context, id string, deletedAt int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE boards SET deleted_at = ? WHERE id = ?`, deletedAt, id)
	if err != nil {
		return fmt.Errorf("store: soft-deleting board %q: %w", id, err)
	}

	return checkAffected(res, id)
}

func (s *SQLiteStore) HardDeleteBoard(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: hard-deleting board %q: %w", id, err)
	}

	return nil
}

func (s *SQLiteStore) ListBoards(ctx context.Context) ([]BoardRecord, error) {
	return s.queryBoards(ctx, `SELECT id, name, data, updated_at, deleted_at FROM boards WHERE deleted_at IS NULL`)
}

func (s *SQLiteStore) ListTombstonedBoards(ctx context.Context) ([]BoardRecord, error) {
	return s.queryBoards(ctx, `SELECT id, name, data, updated_at, deleted_at FROM boards WHERE deleted_at IS NOT NULL`)
}

func (s *SQLiteStore) queryBoards(ctx context.Context, query string) ([]BoardRecord, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: listing boards: %w", err)
	}
	defer rows.Close()

	var out []BoardRecord

	for rows.Next() {
		var (
			rec       BoardRecord
			deletedAt sql.NullInt64
		)

		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Data, &rec.UpdatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("store: scanning board row: %w", err)
		}

		rec.DeletedAt = deletedAt.Int64
		out = append(out, rec)
	}

	return out, rows.Err()
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: checking affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("store: %q: %w", id, ErrNotFound)
	}

	return nil
}
