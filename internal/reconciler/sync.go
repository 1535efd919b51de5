package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/nullboard/gistsync/internal/crypto"
	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/manifest"
	"github.com/nullboard/gistsync/internal/store"
)

const manifestFilename = "manifest.json"

func boardFilename(id string) string { return fmt.Sprintf("board_%s.json", id) }

// Sync runs a full two-way reconciliation round against the configured or
// discovered Gist (spec.md §4.1 "sync()").
func (r *Reconciler) Sync(ctx context.Context) SyncResult {
	if !r.tryEnterSync() {
		return SyncResult{Kind: OutcomeFailed, FailureKind: "BUSY", FailureMessage: ErrBusy.Error(), Err: ErrBusy}
	}
	defer r.exitSync()

	result, err := r.syncLocked(ctx)
	if err != nil {
		return failedResult("SYNC_FAILED", err)
	}

	return result
}

func (r *Reconciler) syncLocked(ctx context.Context) (SyncResult, error) {
	localBoards, err := r.local.ListBoards(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconciler: listing local boards: %w", err)
	}

	localChecksums, localDocs, err := checksumLocalBoards(localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	gistID, bootstrapped, err := r.resolveTarget(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Kind: OutcomeSuccess}

	if bootstrapped {
		if err := r.bootstrapUpload(ctx, gistID, localBoards, localChecksums); err != nil {
			return SyncResult{}, err
		}

		r.commitGistID(gistID)

		pagedResult := r.syncPagedLocked(ctx)
		result.Uploaded.Tasks = pagedResult.Uploaded.Tasks
		result.Uploaded.Workflows = pagedResult.Uploaded.Workflows

		r.finishRound()

		result.Uploaded.Boards = len(localBoards)

		return result, nil
	}

	remoteManifest, needsPassword, err := r.fetchManifest(ctx, gistID, localBoards)
	if err != nil {
		return SyncResult{}, err
	}

	if needsPassword {
		return needsPasswordResult(), nil
	}

	views := buildLocalViews(localBoards, localChecksums)
	plan := compareBoardChanges(views, remoteManifest, r.cfg.LastSyncTime)

	tombstonePushes, err := r.reconcileDeletionPending(ctx, &plan, remoteManifest)
	if err != nil {
		return SyncResult{}, err
	}

	gate := applySafetyGate(safetyGateInput{
		ToDeleteLocally: plan.ToDeleteLocally,
		TotalLocal:      len(localBoards),
		CurrentBoardID:  r.currentBoardID,
		FirstSyncEver:   !r.hasSyncedOnce,
		RemoteBoards:    len(remoteManifest.Boards),
		BulkPercent:     r.cfg.BulkDeletePercent,
	})

	result.SafetyWarnings = gate.Warnings
	result.SkippedItems = gate.SkippedItems

	conflictRecords, mergedDocs, err := r.resolveConflicts(ctx, plan.Conflicts, localDocs, gistID)
	if err != nil {
		return SyncResult{}, err
	}

	result.Conflicts = conflictRecords

	allDeletes := append(append([]string{}, gate.Allowed...), tombstonePushes...)

	downloaded, err := r.applyRemoteToLocal(ctx, gistID, plan.ToDownload, allDeletes, remoteManifest)
	if err != nil {
		return SyncResult{}, err
	}

	if err := r.downloadDocuments(ctx, gistID); err != nil {
		return SyncResult{}, err
	}

	result.Downloaded.Boards = downloaded
	result.Deleted.Boards = len(allDeletes)

	if err := r.updateManifestDeletions(ctx, remoteManifest); err != nil {
		return SyncResult{}, err
	}

	uploaded, err := r.applyLocalToRemote(ctx, gistID, plan.ToUpload, mergedDocs, localDocs, remoteManifest, allDeletes)
	if err != nil {
		return SyncResult{}, err
	}

	result.Uploaded.Boards = uploaded

	r.commitGistID(gistID)

	pagedResult := r.syncPagedLocked(ctx)

	result.Uploaded.Tasks = pagedResult.Uploaded.Tasks
	result.Downloaded.Tasks = pagedResult.Downloaded.Tasks
	result.Uploaded.Workflows = pagedResult.Uploaded.Workflows
	result.Downloaded.Workflows = pagedResult.Downloaded.Workflows

	r.finishRound()

	r.scheduleMediaSync(ctx)

	return result, nil
}

// resolveTarget implements spec.md §4.1 step 3-4: use the configured Gist,
// else search for one, else signal that a bootstrap upload is needed.
func (r *Reconciler) resolveTarget(ctx context.Context) (gistID string, bootstrapped bool, err error) {
	if r.cfg.GistID != "" {
		return r.cfg.GistID, false, nil
	}

	found, err := r.gateway.FindSyncGist(ctx)
	if err != nil {
		return "", false, fmt.Errorf("reconciler: searching for sync gist: %w", err)
	}

	if found != "" {
		return found, false, nil
	}

	created, err := r.gateway.CreateGist(ctx, "nullboard sync", map[string]string{manifestFilename: "{}"})
	if err != nil {
		return "", false, fmt.Errorf("reconciler: creating gist: %w", err)
	}

	return created, true, nil
}

func (r *Reconciler) bootstrapUpload(ctx context.Context, gistID string, boards []store.BoardRecord, checksums map[string]uint32) error {
	m := manifest.New(r.deviceID, r.now())

	updates := make([]gistapi.FileUpdate, 0, len(boards)+3)

	for _, rec := range boards {
		content, err := r.sealContent(rec.Data, gistID)
		if err != nil {
			return err
		}

		updates = append(updates, gistapi.FileUpdate{Name: boardFilename(rec.ID), Content: &content})

		m.Boards[rec.ID] = manifest.BoardSyncInfo{Name: rec.Name, UpdatedAt: rec.UpdatedAt, Checksum: checksums[rec.ID]}
	}

	if err := r.updateManifestDeletions(ctx, m); err != nil {
		return err
	}

	manifestData, err := manifest.Serialize(m)
	if err != nil {
		return fmt.Errorf("reconciler: serializing manifest: %w", err)
	}

	sealedManifest, err := r.sealContent(manifestData, gistID)
	if err != nil {
		return err
	}

	updates = append(updates, gistapi.FileUpdate{Name: manifestFilename, Content: &sealedManifest})

	docUpdates, err := r.uploadDocumentUpdates(ctx, gistID)
	if err != nil {
		return err
	}

	updates = append(updates, docUpdates...)

	if err := r.gateway.UpdateGistFiles(ctx, gistID, updates); err != nil {
		return fmt.Errorf("reconciler: uploading bootstrap snapshot: %w", err)
	}

	return nil
}

// fetchManifest fetches and decrypts the remote manifest, applying the
// decryption-failure override (spec.md §4.1.1).
func (r *Reconciler) fetchManifest(ctx context.Context, gistID string, localBoards []store.BoardRecord) (*manifest.Manifest, bool, error) {
	data, err := r.gateway.GetGistFileContent(ctx, gistID, manifestFilename)
	if errors.Is(err, gistapi.ErrNotFound) {
		return manifest.New(r.deviceID, r.now()), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reconciler: fetching manifest: %w", err)
	}

	passphrase, custom := r.passphrase()

	plain, err := r.sealer.Decrypt(data, gistID, passphraseArg(passphrase, custom))
	if errors.Is(err, crypto.ErrNeedsPassword) {
		return nil, true, nil
	}
	if err != nil {
		if len(localBoards) == 0 {
			return nil, false, ErrDecryptRefuseEmptyLocal
		}
		// Decryption-failure override: local has data, so we trust it and
		// let the round proceed as if remote had no boards at all — the
		// upload step below will overwrite remote with the local snapshot.
		return manifest.New(r.deviceID, r.now()), false, nil
	}

	m, err := manifest.Parse(plain)
	if err != nil {
		return nil, false, err
	}

	return m, false, nil
}

func (r *Reconciler) resolveConflicts(ctx context.Context, ids []string, localDocs map[string]*boardDoc, gistID string) ([]ConflictRecord, map[string]*boardDoc, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	merged := make(map[string]*boardDoc, len(ids))
	records := make([]ConflictRecord, 0, len(ids))

	for _, id := range ids {
		remoteDoc, err := r.fetchBoard(ctx, gistID, id)
		if err != nil {
			return nil, nil, err
		}

		localDoc := localDocs[id]
		if localDoc == nil || remoteDoc == nil {
			continue
		}

		mergedDoc, conflicting, err := mergeBoards(localDoc, remoteDoc)
		if err != nil {
			return nil, nil, err
		}

		merged[id] = mergedDoc

		records = append(records, ConflictRecord{
			BoardID:             id,
			Merged:              true,
			ConflictingElements: conflicting,
		})
	}

	return records, merged, nil
}

func (r *Reconciler) fetchBoard(ctx context.Context, gistID, id string) (*boardDoc, error) {
	data, err := r.gateway.GetGistFileContent(ctx, gistID, boardFilename(id))
	if errors.Is(err, gistapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconciler: fetching board %s: %w", id, err)
	}

	plain, err := r.decryptContent(data, gistID)
	if err != nil {
		return nil, err
	}

	return decodeBoard(plain)
}

// applyRemoteToLocal downloads every board slated for download and
// hard-deletes every board the safety gate allowed through, implementing
// spec.md §4.1 step 9.
func (r *Reconciler) applyRemoteToLocal(ctx context.Context, gistID string, toDownload, toDelete []string, remoteManifest *manifest.Manifest) (int, error) {
	downloaded := 0

	for _, id := range toDownload {
		doc, err := r.fetchBoard(ctx, gistID, id)
		if err != nil {
			return downloaded, err
		}

		if doc == nil {
			continue
		}

		data, err := encodeBoard(doc)
		if err != nil {
			return downloaded, err
		}

		info := remoteManifest.Boards[id]

		if err := r.local.PutBoard(ctx, store.BoardRecord{ID: id, Name: info.Name, Data: data, UpdatedAt: doc.UpdatedAt}); err != nil {
			return downloaded, fmt.Errorf("reconciler: saving downloaded board %s: %w", id, err)
		}

		downloaded++
	}

	for _, id := range toDelete {
		if err := r.local.HardDeleteBoard(ctx, id); err != nil {
			return downloaded, fmt.Errorf("reconciler: deleting local board %s: %w", id, err)
		}

		if err := r.local.ClearPending(ctx, id); err != nil {
			return downloaded, fmt.Errorf("reconciler: clearing deletion-pending for %s: %w", id, err)
		}
	}

	return downloaded, nil
}

// applyLocalToRemote uploads every board slated for upload (including
// merge results), marks tombstones for boards the safety gate let through,
// and republishes the manifest, implementing spec.md §4.1 step 10.
func (r *Reconciler) applyLocalToRemote(ctx context.Context, gistID string, toUpload []string, merged, localDocs map[string]*boardDoc, remoteManifest *manifest.Manifest, toDelete []string) (int, error) {
	updates := make([]gistapi.FileUpdate, 0, len(toUpload)+len(merged)+1)

	upload := func(id string, doc *boardDoc) error {
		data, err := encodeBoard(doc)
		if err != nil {
			return err
		}

		content, err := r.sealContent(data, gistID)
		if err != nil {
			return err
		}

		updates = append(updates, gistapi.FileUpdate{Name: boardFilename(id), Content: &content})

		checksum, err := checksumBoard(doc)
		if err != nil {
			return err
		}

		remoteManifest.Boards[id] = manifest.BoardSyncInfo{Name: doc.Name, UpdatedAt: doc.UpdatedAt, Checksum: checksum}

		return nil
	}

	uploaded := 0

	for id, doc := range merged {
		if err := upload(id, doc); err != nil {
			return uploaded, err
		}

		uploaded++
	}

	for _, id := range toUpload {
		doc := localDocs[id]
		if doc == nil {
			continue
		}

		if err := upload(id, doc); err != nil {
			return uploaded, err
		}

		uploaded++
	}

	for _, id := range toDelete {
		remoteManifest.MarkBoardTombstone(id, r.now(), r.deviceID)
	}

	remoteManifest.UpdatedAt = r.now()
	remoteManifest.Devices[r.deviceID] = manifest.Device{Name: r.deviceID, LastSyncAt: r.now()}

	manifestData, err := manifest.Serialize(remoteManifest)
	if err != nil {
		return uploaded, fmt.Errorf("reconciler: serializing manifest: %w", err)
	}

	sealedManifest, err := r.sealContent(manifestData, gistID)
	if err != nil {
		return uploaded, err
	}

	updates = append(updates, gistapi.FileUpdate{Name: manifestFilename, Content: &sealedManifest})

	docUpdates, err := r.uploadDocumentUpdates(ctx, gistID)
	if err != nil {
		return uploaded, err
	}

	updates = append(updates, docUpdates...)

	if err := r.gateway.UpdateGistFiles(ctx, gistID, updates); err != nil {
		return uploaded, fmt.Errorf("reconciler: uploading changes: %w", err)
	}

	return uploaded, nil
}

// reconcileDeletionPending pulls entries out of plan.ToDownload whose
// board the user already deleted locally (recorded in the
// deletion-pending store) and whose remote copy hasn't changed since,
// returning their IDs so the caller pushes a tombstone instead of
// resurrecting the board locally (spec.md §4.1.6, honored by sync/push
// but not by an explicit pull).
func (r *Reconciler) reconcileDeletionPending(ctx context.Context, plan *boardPlan, remoteManifest *manifest.Manifest) ([]string, error) {
	kept := make([]string, 0, len(plan.ToDownload))

	var tombstones []string

	for _, id := range plan.ToDownload {
		deletedAt, pending, err := r.local.GetPending(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reconciler: reading deletion-pending for %s: %w", id, err)
		}

		if !pending {
			kept = append(kept, id)
			continue
		}

		info := remoteManifest.Boards[id]
		if info.UpdatedAt < deletedAt {
			tombstones = append(tombstones, id)
			continue
		}

		// Remote changed after the local delete: the remote edit wins,
		// so download normally and drop the now-stale pending record.
		if err := r.local.ClearPending(ctx, id); err != nil {
			return nil, fmt.Errorf("reconciler: clearing stale deletion-pending for %s: %w", id, err)
		}

		kept = append(kept, id)
	}

	plan.ToDownload = kept

	return tombstones, nil
}

func (r *Reconciler) commitGistID(gistID string) {
	r.mu.Lock()
	r.cfg.GistID = gistID
	r.cfg.LastSyncTime = r.now()
	r.mu.Unlock()
}

func (r *Reconciler) finishRound() {
	r.mu.Lock()
	r.hasSyncedOnce = true
	r.mu.Unlock()

	r.autosyncMu.Lock()
	r.pendingChange = false
	r.autosyncMu.Unlock()
}

func (r *Reconciler) sealContent(plain []byte, gistID string) (string, error) {
	passphrase, custom := r.passphrase()

	sealed, err := r.sealer.Encrypt(plain, sealSecret(gistID, passphrase, custom), custom)
	if err != nil {
		return "", fmt.Errorf("reconciler: encrypting content: %w", err)
	}

	return string(sealed), nil
}

func (r *Reconciler) decryptContent(data []byte, gistID string) ([]byte, error) {
	passphrase, custom := r.passphrase()

	plain, err := r.sealer.DecryptOrPassthrough(data, gistID, passphraseArg(passphrase, custom))
	if err != nil {
		return nil, fmt.Errorf("reconciler: decrypting content: %w", err)
	}

	return plain, nil
}

func passphraseArg(passphrase string, custom bool) string {
	if !custom {
		return ""
	}

	return passphrase
}

func checksumLocalBoards(boards []store.BoardRecord) (map[string]uint32, map[string]*boardDoc, error) {
	checksums := make(map[string]uint32, len(boards))
	docs := make(map[string]*boardDoc, len(boards))

	for _, rec := range boards {
		doc, err := decodeBoard(rec.Data)
		if err != nil {
			if len(rec.Data) == 0 {
				doc = &boardDoc{ID: rec.ID, Name: rec.Name, UpdatedAt: rec.UpdatedAt}
			} else {
				return nil, nil, fmt.Errorf("reconciler: decoding local board %s: %w", rec.ID, err)
			}
		}

		sum, err := checksumBoard(doc)
		if err != nil {
			return nil, nil, err
		}

		checksums[rec.ID] = sum
		docs[rec.ID] = doc
	}

	return checksums, docs, nil
}
