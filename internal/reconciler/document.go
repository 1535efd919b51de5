package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/manifest"
	"github.com/nullboard/gistsync/internal/store"
)

const (
	workspaceFilename = "workspace.json"
	promptsFilename   = "prompts.json"
)

// Baseline KV keys used to detect local-only deletions of paged tasks and
// prompt-history entries between rounds, since neither carries a per-item
// tombstone of its own the way boards do (spec.md §3.2 manifest
// deletedTasks/deletedPrompts).
const (
	taskBaselineKey   = "baseline:task-ids"
	promptBaselineKey = "baseline:prompt-ids"
)

// promptEntry is the minimal shape shared by every prompt history record
// (spec.md §3.1 "Prompt history entry ... opaque record with id"), enough
// to diff IDs across rounds without depending on the rest of the payload.
type promptEntry struct {
	ID string `json:"id"`
}

// promptsDocument mirrors the prompts file's three ordered arrays (spec.md
// §3.2 "Prompts file: three ordered arrays (general/video/image prompt
// history)").
type promptsDocument struct {
	General []promptEntry `json:"general"`
	Video   []promptEntry `json:"video"`
	Image   []promptEntry `json:"image"`
}

// uploadDocumentUpdates prepares the workspace and prompts file uploads for
// whatever local content currently exists, skipping whichever one hasn't
// been written locally yet (spec.md §4.1 step 10 "upload workspace and
// prompts").
func (r *Reconciler) uploadDocumentUpdates(ctx context.Context, gistID string) ([]gistapi.FileUpdate, error) {
	var updates []gistapi.FileUpdate

	raw, err := r.local.GetWorkspace(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reconciler: reading local workspace: %w", err)
	}
	if err == nil {
		content, err := r.sealContent(raw, gistID)
		if err != nil {
			return nil, err
		}

		updates = append(updates, gistapi.FileUpdate{Name: workspaceFilename, Content: &content})
	}

	raw, err = r.local.GetPrompts(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reconciler: reading local prompts: %w", err)
	}
	if err == nil {
		content, err := r.sealContent(raw, gistID)
		if err != nil {
			return nil, err
		}

		updates = append(updates, gistapi.FileUpdate{Name: promptsFilename, Content: &content})
	}

	return updates, nil
}

// downloadDocuments fetches the remote workspace and prompts files, if
// present, and replaces local's copy wholesale — these are opaque
// last-writer-wins blobs with no per-field merge, unlike boards (spec.md
// §4.1 step 9 "remote prompts ... update workspace state").
func (r *Reconciler) downloadDocuments(ctx context.Context, gistID string) error {
	if err := r.downloadDocument(ctx, gistID, workspaceFilename, r.local.PutWorkspace); err != nil {
		return err
	}

	return r.downloadDocument(ctx, gistID, promptsFilename, r.local.PutPrompts)
}

func (r *Reconciler) downloadDocument(ctx context.Context, gistID, filename string, put func(context.Context, []byte) error) error {
	data, err := r.gateway.GetGistFileContent(ctx, gistID, filename)
	if errors.Is(err, gistapi.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconciler: fetching %s: %w", filename, err)
	}

	plain, err := r.decryptContent(data, gistID)
	if err != nil {
		return err
	}

	if err := put(ctx, plain); err != nil {
		return fmt.Errorf("reconciler: saving %s: %w", filename, err)
	}

	return nil
}

// updateManifestDeletions detects tasks and prompt entries that existed
// locally as of the previous round but are gone now, and folds their IDs
// into the manifest's deletedTasks/deletedPrompts arrays so a later round
// doesn't resurrect them from a remote page that hasn't caught up yet
// (spec.md §3.2, manifest.Manifest.DeletedTasks/DeletedPrompts).
func (r *Reconciler) updateManifestDeletions(ctx context.Context, m *manifest.Manifest) error {
	deletedTasks, err := r.detectLocalTaskDeletions(ctx)
	if err != nil {
		return err
	}

	m.DeletedTasks = mergeDeletedIDs(m.DeletedTasks, deletedTasks)

	deletedPrompts, err := r.detectLocalPromptDeletions(ctx)
	if err != nil {
		return err
	}

	m.DeletedPrompts = mergeDeletedIDs(m.DeletedPrompts, deletedPrompts)

	return nil
}

func mergeDeletedIDs(existing, fresh []string) []string {
	if len(fresh) == 0 {
		return existing
	}

	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}

	merged := existing
	for _, id := range fresh {
		if seen[id] {
			continue
		}

		seen[id] = true
		merged = append(merged, id)
	}

	return merged
}

func (r *Reconciler) detectLocalTaskDeletions(ctx context.Context) ([]string, error) {
	items, err := r.tasks.local.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciler: listing local tasks: %w", err)
	}

	current := make([]string, 0, len(items))
	for _, item := range items {
		current = append(current, item.ID)
	}

	return r.diffAgainstBaseline(ctx, taskBaselineKey, current)
}

func (r *Reconciler) detectLocalPromptDeletions(ctx context.Context) ([]string, error) {
	raw, err := r.local.GetPrompts(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return r.diffAgainstBaseline(ctx, promptBaselineKey, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reconciler: reading local prompts: %w", err)
	}

	var doc promptsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Malformed or host-shaped differently than expected: skip deletion
		// tracking rather than fail the round over a file this reconciler
		// only passes through opaquely.
		return nil, nil
	}

	var current []string
	for _, list := range [][]promptEntry{doc.General, doc.Video, doc.Image} {
		for _, entry := range list {
			current = append(current, entry.ID)
		}
	}

	return r.diffAgainstBaseline(ctx, promptBaselineKey, current)
}

// diffAgainstBaseline compares current against the ID set recorded under
// key on the previous call, returns the IDs that dropped out, and advances
// the baseline to current.
func (r *Reconciler) diffAgainstBaseline(ctx context.Context, key string, current []string) ([]string, error) {
	raw, err := r.local.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reconciler: reading baseline %s: %w", key, err)
	}

	var baseline []string
	if err == nil {
		if err := json.Unmarshal(raw, &baseline); err != nil {
			baseline = nil
		}
	}

	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}

	var deleted []string
	for _, id := range baseline {
		if !currentSet[id] {
			deleted = append(deleted, id)
		}
	}

	next, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("reconciler: encoding baseline %s: %w", key, err)
	}

	if err := r.local.Set(ctx, key, next); err != nil {
		return nil, fmt.Errorf("reconciler: persisting baseline %s: %w", key, err)
	}

	return deleted, nil
}

// fetchDeletedTaskIDs fetches the remote manifest directly and returns its
// deletedTasks set, best-effort: a missing or undecryptable manifest
// yields an empty set rather than failing the paged round, since the
// manifest is optional context here, not authoritative input.
func (r *Reconciler) fetchDeletedTaskIDs(ctx context.Context) map[string]bool {
	empty := map[string]bool{}

	if r.cfg.GistID == "" {
		return empty
	}

	data, err := r.gateway.GetGistFileContent(ctx, r.cfg.GistID, manifestFilename)
	if err != nil {
		return empty
	}

	plain, err := r.decryptContent(data, r.cfg.GistID)
	if err != nil {
		return empty
	}

	m, err := manifest.Parse(plain)
	if err != nil {
		return empty
	}

	set := make(map[string]bool, len(m.DeletedTasks))
	for _, id := range m.DeletedTasks {
		set[id] = true
	}

	return set
}
