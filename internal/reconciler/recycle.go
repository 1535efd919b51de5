package reconciler

import (
	"context"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/manifest"
	"github.com/nullboard/gistsync/internal/store"
)

// DeletedItem describes one tombstoned board surfaced by the recycle bin
// (spec.md §4.1 "Recycle bin surface").
type DeletedItem struct {
	Kind      string // "board"
	ID        string
	Name      string
	DeletedAt int64
	DeletedBy string
}

// GetDeletedItems lists every tombstoned board in the remote manifest.
func (r *Reconciler) GetDeletedItems(ctx context.Context) ([]DeletedItem, error) {
	gistID := r.cfg.GistID
	if gistID == "" {
		return nil, ErrNoTarget
	}

	m, err := r.currentManifest(ctx, gistID)
	if err != nil {
		return nil, err
	}

	items := make([]DeletedItem, 0, len(m.Boards))

	for id, info := range m.Boards {
		if !info.IsTombstone() {
			continue
		}

		items = append(items, DeletedItem{
			Kind: "board", ID: id, Name: info.Name, DeletedAt: info.DeletedAt, DeletedBy: info.DeletedBy,
		})
	}

	return items, nil
}

// RestoreItem clears a board's tombstone in the manifest and re-downloads
// its retained content into local storage (spec.md §4.1
// "restoreItem(type,id)").
func (r *Reconciler) RestoreItem(ctx context.Context, itemType, id string) error {
	if itemType != "board" {
		return fmt.Errorf("reconciler: unsupported recycle item type %q", itemType)
	}

	gistID := r.cfg.GistID
	if gistID == "" {
		return ErrNoTarget
	}

	m, err := r.currentManifest(ctx, gistID)
	if err != nil {
		return err
	}

	info, ok := m.Boards[id]
	if !ok || !info.IsTombstone() {
		return fmt.Errorf("reconciler: board %s is not in the recycle bin", id)
	}

	doc, err := r.fetchBoard(ctx, gistID, id)
	if err != nil {
		return err
	}

	if doc == nil {
		return fmt.Errorf("reconciler: board %s content no longer retained", id)
	}

	data, err := encodeBoard(doc)
	if err != nil {
		return err
	}

	if err := r.local.PutBoard(ctx, store.BoardRecord{ID: id, Name: info.Name, Data: data, UpdatedAt: doc.UpdatedAt}); err != nil {
		return fmt.Errorf("reconciler: restoring board %s: %w", id, err)
	}

	m.RestoreBoard(id)

	return r.uploadManifest(ctx, gistID, m)
}

// PermanentlyDelete removes a tombstoned board's file and manifest entry
// entirely (spec.md §4.1 "permanentlyDelete(type,id)").
func (r *Reconciler) PermanentlyDelete(ctx context.Context, itemType, id string) error {
	if itemType != "board" {
		return fmt.Errorf("reconciler: unsupported recycle item type %q", itemType)
	}

	gistID := r.cfg.GistID
	if gistID == "" {
		return ErrNoTarget
	}

	m, err := r.currentManifest(ctx, gistID)
	if err != nil {
		return err
	}

	if _, ok := m.Boards[id]; !ok {
		return nil
	}

	if err := r.gateway.DeleteGistFiles(ctx, gistID, []string{boardFilename(id)}); err != nil {
		return fmt.Errorf("reconciler: deleting board file %s: %w", id, err)
	}

	delete(m.Boards, id)

	return r.uploadManifest(ctx, gistID, m)
}

// EmptyRecycleBin permanently deletes every currently tombstoned board.
func (r *Reconciler) EmptyRecycleBin(ctx context.Context) (int, error) {
	items, err := r.GetDeletedItems(ctx)
	if err != nil {
		return 0, err
	}

	gistID := r.cfg.GistID

	m, err := r.currentManifest(ctx, gistID)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(items))

	for _, item := range items {
		names = append(names, boardFilename(item.ID))
		delete(m.Boards, item.ID)
	}

	if len(names) == 0 {
		return 0, nil
	}

	if err := r.gateway.DeleteGistFiles(ctx, gistID, names); err != nil {
		return 0, fmt.Errorf("reconciler: emptying recycle bin: %w", err)
	}

	if err := r.uploadManifest(ctx, gistID, m); err != nil {
		return 0, err
	}

	return len(items), nil
}

func (r *Reconciler) currentManifest(ctx context.Context, gistID string) (*manifest.Manifest, error) {
	data, err := r.gateway.GetGistFileContent(ctx, gistID, manifestFilename)
	if err != nil {
		return nil, fmt.Errorf("reconciler: fetching manifest: %w", err)
	}

	plain, err := r.decryptContent(data, gistID)
	if err != nil {
		return nil, err
	}

	return manifest.Parse(plain)
}

func (r *Reconciler) uploadManifest(ctx context.Context, gistID string, m *manifest.Manifest) error {
	m.UpdatedAt = r.now()

	data, err := manifest.Serialize(m)
	if err != nil {
		return fmt.Errorf("reconciler: serializing manifest: %w", err)
	}

	content, err := r.sealContent(data, gistID)
	if err != nil {
		return err
	}

	if err := r.gateway.UpdateGistFiles(ctx, gistID, []gistapi.FileUpdate{{Name: manifestFilename, Content: &content}}); err != nil {
		return fmt.Errorf("reconciler: uploading manifest: %w", err)
	}

	return nil
}
