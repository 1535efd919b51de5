package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nullboard/gistsync/internal/paged"
)

// PagedItemStore persists one item kind's (tasks, workflows) paged
// records in the shared paged_items table, keyed by itemType so both
// kinds coexist in one schema (spec.md §4.4's "identical shape" for
// tasks and workflows). Satisfies paged.Store[T] for use with
// paged.Execute.
type PagedItemStore[T any] struct {
	db       *sql.DB
	itemType string
}

// NewPagedItemStore returns a store scoped to one item type ("task" or
// "workflow").
func NewPagedItemStore[T any](s *SQLiteStore, itemType string) *PagedItemStore[T] {
	return &PagedItemStore[T]{db: s.db, itemType: itemType}
}

// WritePage replaces every row for page.PageID with page.Items —
// whole-page replacement, matching the remote page-file semantics
// (spec.md §4.4 "whole-page replacement, not item-level PATCH").
func (p *PagedItemStore[T]) WritePage(ctx context.Context, page paged.Page[T]) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning page write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM paged_items WHERE item_type = ? AND page_id = ?`, p.itemType, page.PageID,
	); err != nil {
		return fmt.Errorf("store: clearing page %q: %w", page.PageID, err)
	}

	for _, item := range page.Items {
		content, err := json.Marshal(item.Content)
		if err != nil {
			return fmt.Errorf("store: encoding item %q: %w", item.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO paged_items (id, item_type, status, created_at, updated_at, sync_version, page_id, content)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, p.itemType, string(item.Status), item.CreatedAt, item.UpdatedAt, item.SyncVersion, page.PageID, content,
		); err != nil {
			return fmt.Errorf("store: inserting item %q: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// ReadPage reconstructs a page from its stored items.
func (p *PagedItemStore[T]) ReadPage(ctx context.Context, pageID string) (paged.Page[T], error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, status, created_at, updated_at, sync_version, content
		FROM paged_items WHERE item_type = ? AND page_id = ?`, p.itemType, pageID)
	if err != nil {
		return paged.Page[T]{}, fmt.Errorf("store: reading page %q: %w", pageID, err)
	}
	defer rows.Close()

	var items []paged.Item[T]

	var updatedAt int64

	for rows.Next() {
		var (
			item    paged.Item[T]
			status  string
			content []byte
		)

		if err := rows.Scan(&item.ID, &status, &item.CreatedAt, &item.UpdatedAt, &item.SyncVersion, &content); err != nil {
			return paged.Page[T]{}, fmt.Errorf("store: scanning item row: %w", err)
		}

		item.Status = paged.Status(status)
		item.PageID = pageID
		item.Type = p.itemType

		if err := json.Unmarshal(content, &item.Content); err != nil {
			return paged.Page[T]{}, fmt.Errorf("store: decoding item %q: %w", item.ID, err)
		}

		if item.UpdatedAt > updatedAt {
			updatedAt = item.UpdatedAt
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return paged.Page[T]{}, err
	}

	if len(items) == 0 {
		return paged.Page[T]{}, ErrNotFound
	}

	return paged.Page[T]{PageID: pageID, UpdatedAt: updatedAt, Items: items}, nil
}

// ListItems returns every locally known item of this type, ordered by
// CreatedAt, for rebuilding the local index before a sync round.
func (p *PagedItemStore[T]) ListItems(ctx context.Context) ([]paged.Item[T], error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, status, created_at, updated_at, sync_version, page_id, content
		FROM paged_items WHERE item_type = ? ORDER BY created_at ASC`, p.itemType)
	if err != nil {
		return nil, fmt.Errorf("store: listing items: %w", err)
	}
	defer rows.Close()

	var items []paged.Item[T]

	for rows.Next() {
		var (
			item    paged.Item[T]
			status  string
			content []byte
		)

		if err := rows.Scan(&item.ID, &status, &item.CreatedAt, &item.UpdatedAt, &item.SyncVersion, &item.PageID, &content); err != nil {
			return nil, fmt.Errorf("store: scanning item row: %w", err)
		}

		item.Status = paged.Status(status)
		item.Type = p.itemType

		if err := json.Unmarshal(content, &item.Content); err != nil {
			return nil, fmt.Errorf("store: decoding item %q: %w", item.ID, err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}
