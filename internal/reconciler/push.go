package reconciler

import (
	"context"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/manifest"
)

// PushToRemote performs a one-way, local-authoritative round: every board
// whose checksum differs from the remote is uploaded, every remote board
// absent locally is tombstoned, and the deletion-pending store is honored
// and cleared (spec.md §4.1 "pushToRemote()"). Never downloads content.
func (r *Reconciler) PushToRemote(ctx context.Context) SyncResult {
	if !r.tryEnterSync() {
		return SyncResult{Kind: OutcomeFailed, FailureKind: "BUSY", FailureMessage: ErrBusy.Error(), Err: ErrBusy}
	}
	defer r.exitSync()

	result, err := r.pushLocked(ctx)
	if err != nil {
		return failedResult("PUSH_FAILED", err)
	}

	return result
}

func (r *Reconciler) pushLocked(ctx context.Context) (SyncResult, error) {
	gistID := r.cfg.GistID
	if gistID == "" {
		return SyncResult{}, ErrNoTarget
	}

	localBoards, err := r.local.ListBoards(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconciler: listing local boards: %w", err)
	}

	checksums, docs, err := checksumLocalBoards(localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	remoteManifest, needsPassword, err := r.fetchManifest(ctx, gistID, localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	if needsPassword {
		return needsPasswordResult(), nil
	}

	localByID := make(map[string]bool, len(localBoards))
	for _, rec := range localBoards {
		localByID[rec.ID] = true
	}

	updates := make([]gistapi.FileUpdate, 0, len(localBoards)+1)

	result := SyncResult{Kind: OutcomeSuccess}

	for _, rec := range localBoards {
		info, ok := remoteManifest.Boards[rec.ID]
		if ok && !info.IsTombstone() && info.Checksum == checksums[rec.ID] {
			continue
		}

		doc := docs[rec.ID]

		content, err := r.sealContent(rec.Data, gistID)
		if err != nil {
			return SyncResult{}, err
		}

		updates = append(updates, gistapi.FileUpdate{Name: boardFilename(rec.ID), Content: &content})

		remoteManifest.Boards[rec.ID] = manifest.BoardSyncInfo{Name: rec.Name, UpdatedAt: doc.UpdatedAt, Checksum: checksums[rec.ID]}

		result.Uploaded.Boards++
	}

	for id, info := range remoteManifest.Boards {
		if info.IsTombstone() || localByID[id] {
			continue
		}

		remoteManifest.MarkBoardTombstone(id, r.now(), r.deviceID)

		if err := r.local.ClearPending(ctx, id); err != nil {
			return SyncResult{}, fmt.Errorf("reconciler: clearing deletion-pending for %s: %w", id, err)
		}

		result.Deleted.Boards++
	}

	if err := r.updateManifestDeletions(ctx, remoteManifest); err != nil {
		return SyncResult{}, err
	}

	remoteManifest.UpdatedAt = r.now()
	remoteManifest.Devices[r.deviceID] = manifest.Device{Name: r.deviceID, LastSyncAt: r.now()}

	manifestData, err := manifest.Serialize(remoteManifest)
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconciler: serializing manifest: %w", err)
	}

	sealedManifest, err := r.sealContent(manifestData, gistID)
	if err != nil {
		return SyncResult{}, err
	}

	updates = append(updates, gistapi.FileUpdate{Name: manifestFilename, Content: &sealedManifest})

	docUpdates, err := r.uploadDocumentUpdates(ctx, gistID)
	if err != nil {
		return SyncResult{}, err
	}

	updates = append(updates, docUpdates...)

	if err := r.gateway.UpdateGistFiles(ctx, gistID, updates); err != nil {
		return SyncResult{}, fmt.Errorf("reconciler: uploading push changes: %w", err)
	}

	r.finishRound()

	return result, nil
}
