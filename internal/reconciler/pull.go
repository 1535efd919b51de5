package reconciler

import (
	"context"
	"fmt"

	"github.com/nullboard/gistsync/internal/store"
)

// PullFromRemote performs a one-way, remote-authoritative round: it never
// uploads, and it ignores the deletion-pending store entirely — an
// explicit pull is the user saying "I want whatever remote has," so a
// board locally deleted and pending a tombstone push is restored anyway
// (spec.md §4.1.6, documented Open Question resolution: pull does not
// honor deletion-pending, sync/push do).
func (r *Reconciler) PullFromRemote(ctx context.Context) SyncResult {
	if !r.tryEnterSync() {
		return SyncResult{Kind: OutcomeFailed, FailureKind: "BUSY", FailureMessage: ErrBusy.Error(), Err: ErrBusy}
	}
	defer r.exitSync()

	result, err := r.pullLocked(ctx)
	if err != nil {
		return failedResult("PULL_FAILED", err)
	}

	return result
}

func (r *Reconciler) pullLocked(ctx context.Context) (SyncResult, error) {
	gistID := r.cfg.GistID
	if gistID == "" {
		return SyncResult{}, ErrNoTarget
	}

	localBoards, err := r.local.ListBoards(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconciler: listing local boards: %w", err)
	}

	localChecksums, _, err := checksumLocalBoards(localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	localByID := make(map[string]store.BoardRecord, len(localBoards))
	for _, rec := range localBoards {
		localByID[rec.ID] = rec
	}

	remoteManifest, needsPassword, err := r.fetchManifest(ctx, gistID, localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	if needsPassword {
		return needsPasswordResult(), nil
	}

	result := SyncResult{Kind: OutcomeSuccess}

	for id, info := range remoteManifest.Boards {
		if info.IsTombstone() {
			if _, exists := localByID[id]; exists {
				if err := r.local.HardDeleteBoard(ctx, id); err != nil {
					return SyncResult{}, fmt.Errorf("reconciler: removing locally tombstoned board %s: %w", id, err)
				}

				result.Deleted.Boards++
			}

			continue
		}

		local, exists := localByID[id]

		if exists && localChecksums[id] == info.Checksum {
			continue
		}

		if exists && local.UpdatedAt > info.UpdatedAt {
			result.SkippedItems = append(result.SkippedItems, SkippedItem{Kind: "board", ID: id, Reason: "local_newer"})
			continue
		}

		doc, err := r.fetchBoard(ctx, gistID, id)
		if err != nil {
			return SyncResult{}, err
		}

		if doc == nil {
			continue
		}

		data, err := encodeBoard(doc)
		if err != nil {
			return SyncResult{}, err
		}

		if err := r.local.PutBoard(ctx, store.BoardRecord{ID: id, Name: info.Name, Data: data, UpdatedAt: doc.UpdatedAt}); err != nil {
			return SyncResult{}, fmt.Errorf("reconciler: saving pulled board %s: %w", id, err)
		}

		// Pull ignores deletion-pending by construction: it never consults
		// GetPending before restoring, but it does clear any stale entry
		// now that remote has been taken as authoritative.
		if err := r.local.ClearPending(ctx, id); err != nil {
			return SyncResult{}, fmt.Errorf("reconciler: clearing deletion-pending for %s: %w", id, err)
		}

		result.Downloaded.Boards++
	}

	if err := r.downloadDocuments(ctx, gistID); err != nil {
		return SyncResult{}, err
	}

	return result, nil
}
