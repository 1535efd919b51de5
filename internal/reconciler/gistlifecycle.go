package reconciler

import (
	"context"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/manifest"
)

// CreateNewGist creates a fresh, empty sync Gist and switches to it,
// without touching local data — the next Sync uploads the full local
// snapshot as a bootstrap round (spec.md §4.1 "createNewGist()"). The
// manifest secret is keyed off the Gist's own ID, so the Gist is created
// with a placeholder file first and the real sealed manifest uploaded
// once the ID is known, the same two-step dance resolveTarget's
// bootstrap path uses.
func (r *Reconciler) CreateNewGist(ctx context.Context) (string, error) {
	gistID, err := r.gateway.CreateGist(ctx, "nullboard sync", map[string]string{manifestFilename: "{}"})
	if err != nil {
		return "", fmt.Errorf("reconciler: creating gist: %w", err)
	}

	m := manifest.New(r.deviceID, r.now())

	data, err := manifest.Serialize(m)
	if err != nil {
		return "", fmt.Errorf("reconciler: serializing new manifest: %w", err)
	}

	sealed, err := r.sealContent(data, gistID)
	if err != nil {
		return "", err
	}

	if err := r.gateway.UpdateGistFiles(ctx, gistID, []gistapi.FileUpdate{{Name: manifestFilename, Content: &sealed}}); err != nil {
		return "", fmt.Errorf("reconciler: sealing new manifest: %w", err)
	}

	r.mu.Lock()
	r.cfg.GistID = gistID
	r.cfg.LastSyncTime = 0
	r.hasSyncedOnce = false
	r.mu.Unlock()

	return gistID, nil
}

// SwitchToGist points the reconciler at an already-existing Gist without
// uploading or downloading anything; the next round reconciles normally
// (spec.md §4.1 "switchToGist(id)").
func (r *Reconciler) SwitchToGist(id string) {
	r.mu.Lock()
	r.cfg.GistID = id
	r.cfg.LastSyncTime = 0
	r.hasSyncedOnce = false
	r.mu.Unlock()
}

// DeleteGist permanently deletes a remote Gist. If it is the currently
// configured target, the reconciler also disconnects.
func (r *Reconciler) DeleteGist(ctx context.Context, id string) error {
	if err := r.gateway.DeleteGist(ctx, id); err != nil {
		return fmt.Errorf("reconciler: deleting gist %s: %w", id, err)
	}

	r.mu.Lock()
	if r.cfg.GistID == id {
		r.cfg.GistID = ""
	}
	r.mu.Unlock()

	return nil
}

// Disconnect clears the configured Gist without deleting it or touching
// local data — a later Sync/SwitchToGist can reconnect.
func (r *Reconciler) Disconnect() {
	r.mu.Lock()
	r.cfg.GistID = ""
	r.cfg.LastSyncTime = 0
	r.hasSyncedOnce = false
	r.mu.Unlock()
}

// Reset wipes all local documents and pending-deletion records and
// disconnects from any configured Gist, returning the device to its
// pre-first-sync state.
func (r *Reconciler) Reset(ctx context.Context) error {
	boards, err := r.local.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("reconciler: listing boards for reset: %w", err)
	}

	for _, b := range boards {
		if err := r.local.HardDeleteBoard(ctx, b.ID); err != nil {
			return fmt.Errorf("reconciler: deleting board %s during reset: %w", b.ID, err)
		}

		if err := r.local.ClearPending(ctx, b.ID); err != nil {
			return fmt.Errorf("reconciler: clearing deletion-pending for %s during reset: %w", b.ID, err)
		}
	}

	r.Disconnect()

	return nil
}
