package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/paged"
	"github.com/nullboard/gistsync/internal/store"
)

// legacyTaskFilename is the single-file format tasks synced under before
// the paged layout (spec.md §4.4, Open Question 2: both read paths are
// supported until a format version bump).
const legacyTaskFilename = "tasks.json"

// TaskContent and WorkflowContent are the opaque per-item payloads
// spec.md §3.1 describes ("opaque records with id, createdAt, updatedAt,
// status") beyond what paged.Item[T] already tracks structurally. Payload
// carries whatever the host's task/workflow record holds; PromptPreview
// and ThumbnailURL are promoted into the index (spec.md §3.2
// TaskIndexItem) without pulling the rest of the record across the wire.
type TaskContent struct {
	PromptPreview string          `json:"promptPreview,omitempty"`
	ThumbnailURL  string          `json:"thumbnailUrl,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// WorkflowContent parallels TaskContent for the workflow file namespace
// (spec.md §3.2 "Workflow index / workflow page: same shape, parallel
// file namespace").
type WorkflowContent struct {
	Payload json.RawMessage `json:"payload"`
}

// pagedRemote adapts the reconciler's Gateway+Sealer to paged.Remote[T],
// naming files per the index/page filename convention for one item kind.
// legacyFilename is non-empty only for the task collection, since the
// workflow file namespace has no pre-paged predecessor to migrate from.
type pagedRemote[T any] struct {
	r              *Reconciler
	indexFilename  string
	pageFilename   string // fmt verb, e.g. "tasks_p%s.json"
	legacyFilename string
}

func (p *pagedRemote[T]) gistID() string { return p.r.cfg.GistID }

func (p *pagedRemote[T]) filename(pageID string) string {
	return fmt.Sprintf(p.pageFilename, pageID)
}

func (p *pagedRemote[T]) FetchIndex(ctx context.Context) (paged.Index, error) {
	data, err := p.r.gateway.GetGistFileContent(ctx, p.gistID(), p.indexFilename)
	if errors.Is(err, gistapi.ErrNotFound) {
		return paged.Index{}, nil
	}
	if err != nil {
		return paged.Index{}, fmt.Errorf("reconciler: fetching %s: %w", p.indexFilename, err)
	}

	passphrase, custom := p.r.passphrase()

	plain, err := p.r.sealer.DecryptOrPassthrough(data, p.gistID(), passphraseArg(passphrase, custom))
	if err != nil {
		return paged.Index{}, err
	}

	var idx paged.Index
	if err := json.Unmarshal(plain, &idx); err != nil {
		return paged.Index{}, fmt.Errorf("reconciler: decoding %s: %w", p.indexFilename, err)
	}

	return idx, nil
}

// FetchLegacy fetches and migrates the pre-paged single-file document, if
// this collection has a legacy filename and the remote gist still has
// one (spec.md Open Question 2: both read paths are supported).
func (p *pagedRemote[T]) FetchLegacy(ctx context.Context) ([]paged.Item[T], bool, error) {
	if p.legacyFilename == "" {
		return nil, false, nil
	}

	data, err := p.r.gateway.GetGistFileContent(ctx, p.gistID(), p.legacyFilename)
	if errors.Is(err, gistapi.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reconciler: fetching legacy %s: %w", p.legacyFilename, err)
	}

	passphrase, custom := p.r.passphrase()

	plain, err := p.r.sealer.DecryptOrPassthrough(data, p.gistID(), passphraseArg(passphrase, custom))
	if err != nil {
		return nil, false, err
	}

	var legacy paged.LegacyDocument[T]
	if err := json.Unmarshal(plain, &legacy); err != nil {
		return nil, false, fmt.Errorf("reconciler: decoding legacy %s: %w", p.legacyFilename, err)
	}

	return paged.MigrateFromLegacyFormat(legacy), true, nil
}

func (p *pagedRemote[T]) FetchPage(ctx context.Context, pageID string) (paged.Page[T], error) {
	data, err := p.r.gateway.GetGistFileContent(ctx, p.gistID(), p.filename(pageID))
	if err != nil {
		return paged.Page[T]{}, fmt.Errorf("reconciler: fetching page %s: %w", pageID, err)
	}

	passphrase, custom := p.r.passphrase()

	plain, err := p.r.sealer.DecryptOrPassthrough(data, p.gistID(), passphraseArg(passphrase, custom))
	if err != nil {
		return paged.Page[T]{}, err
	}

	var page paged.Page[T]
	if err := json.Unmarshal(plain, &page); err != nil {
		return paged.Page[T]{}, fmt.Errorf("reconciler: decoding page %s: %w", pageID, err)
	}

	return page, nil
}

func (p *pagedRemote[T]) UploadPage(ctx context.Context, page paged.Page[T]) error {
	plain, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("reconciler: encoding page %s: %w", page.PageID, err)
	}

	passphrase, custom := p.r.passphrase()

	sealed, err := p.r.sealer.Encrypt(plain, sealSecret(p.gistID(), passphrase, custom), custom)
	if err != nil {
		return err
	}

	content := string(sealed)

	return p.r.gateway.UpdateGistFiles(ctx, p.gistID(), []gistapi.FileUpdate{{Name: p.filename(page.PageID), Content: &content}})
}

func (p *pagedRemote[T]) UploadIndex(ctx context.Context, index paged.Index) error {
	plain, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("reconciler: encoding %s: %w", p.indexFilename, err)
	}

	passphrase, custom := p.r.passphrase()

	sealed, err := p.r.sealer.Encrypt(plain, sealSecret(p.gistID(), passphrase, custom), custom)
	if err != nil {
		return err
	}

	content := string(sealed)

	return p.r.gateway.UpdateGistFiles(ctx, p.gistID(), []gistapi.FileUpdate{{Name: p.indexFilename, Content: &content}})
}

// pagedCollection pairs a local PagedItemStore with its remote adapter,
// giving SyncPaged one value per item kind to drive (spec.md §4.4
// "identical shape for tasks and workflows").
type pagedCollection[T any] struct {
	local  *store.PagedItemStore[T]
	remote *pagedRemote[T]
}

func newPagedCollection[T any](localStore *store.PagedItemStore[T], r *Reconciler, indexFilename, pageFilenameFmt, legacyFilename string) *pagedCollection[T] {
	return &pagedCollection[T]{
		local:  localStore,
		remote: &pagedRemote[T]{r: r, indexFilename: indexFilename, pageFilename: pageFilenameFmt, legacyFilename: legacyFilename},
	}
}

// mergeLegacyItems folds migrated legacy items into the local item set,
// skipping any ID the local store already has — local content always
// wins once an item has been touched under the paged format.
func mergeLegacyItems[T any](local, legacy []paged.Item[T]) []paged.Item[T] {
	seen := make(map[string]bool, len(local))
	for _, item := range local {
		seen[item.ID] = true
	}

	merged := local
	for _, item := range legacy {
		if seen[item.ID] {
			continue
		}

		merged = append(merged, item)
	}

	return merged
}

// syncOne runs one full paged round for this collection: rebuild the
// local layout (migrating in a legacy single-file document on first
// contact with one), diff against the remote index, execute the delta.
func (c *pagedCollection[T]) syncOne(ctx context.Context, r *Reconciler) (uploaded, downloaded int, err error) {
	items, err := c.local.ListItems(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reconciler: listing local items: %w", err)
	}

	if c.remote.legacyFilename != "" {
		format, err := r.DetectRemoteTaskFormat(ctx)
		if err != nil {
			return 0, 0, err
		}

		if format == "legacy" {
			legacyItems, found, err := c.remote.FetchLegacy(ctx)
			if err != nil {
				return 0, 0, err
			}

			if found {
				items = mergeLegacyItems(items, legacyItems)
			}
		}
	}

	pages, localIndex, err := paged.BuildLayout(items, r.cfg.PageMaxItems, r.cfg.PageMaxBytes, r.now())
	if err != nil {
		return 0, 0, fmt.Errorf("reconciler: building page layout: %w", err)
	}

	for _, page := range pages {
		if err := c.local.WritePage(ctx, page); err != nil {
			return 0, 0, fmt.Errorf("reconciler: persisting local page %s: %w", page.PageID, err)
		}
	}

	remoteIndex, err := c.remote.FetchIndex(ctx)
	if err != nil {
		return 0, 0, err
	}

	if c.remote.legacyFilename != "" {
		remoteIndex.Items = dropDeletedEntries(remoteIndex.Items, r.fetchDeletedTaskIDs(ctx))
	}

	delta := paged.CompareIndexes(localIndex, remoteIndex)

	if err := paged.Execute(ctx, c.local, c.remote, delta, localIndex, remoteIndex); err != nil {
		return len(delta.PagesToUpload), len(delta.PagesToDownload), err
	}

	return len(delta.PagesToUpload), len(delta.PagesToDownload), nil
}

// dropDeletedEntries filters out any remote index entry whose ID the
// manifest already records as locally deleted, so a remote page that
// hasn't caught up to the deletion yet doesn't resurrect it (spec.md §3.2
// manifest.DeletedTasks).
func dropDeletedEntries(entries []paged.IndexEntry, deleted map[string]bool) []paged.IndexEntry {
	if len(deleted) == 0 {
		return entries
	}

	kept := entries[:0]
	for _, entry := range entries {
		if deleted[entry.ID] {
			continue
		}

		kept = append(kept, entry)
	}

	return kept
}

// SyncPaged invokes paged task sync and paged workflow sync without
// touching boards (spec.md §4.1 "syncPaged()").
func (r *Reconciler) SyncPaged(ctx context.Context) (SyncResult, error) {
	if !r.tryEnterSync() {
		return SyncResult{}, ErrBusy
	}
	defer r.exitSync()

	return r.syncPagedLocked(ctx), nil
}

// syncPagedLocked is the guard-free body SyncPaged wraps, and what a full
// Sync round calls directly since it already holds the in-flight guard.
func (r *Reconciler) syncPagedLocked(ctx context.Context) SyncResult {
	result := SyncResult{Kind: OutcomeSuccess}

	taskUp, taskDown, err := r.tasks.syncOne(ctx, r)
	result.Uploaded.Tasks = taskUp
	result.Downloaded.Tasks = taskDown

	if err != nil {
		r.logger.Warn("task paged sync failed", "error", err)
	}

	wfUp, wfDown, wfErr := r.workflows.syncOne(ctx, r)
	result.Uploaded.Workflows = wfUp
	result.Downloaded.Workflows = wfDown

	if wfErr != nil {
		r.logger.Warn("workflow paged sync failed", "error", wfErr)
	}

	return result
}

// DetectRemoteTaskFormat returns "paged", "legacy", or "none" by probing
// well-known filenames in the current gist (spec.md §4.1
// "detectRemoteTaskFormat()").
func (r *Reconciler) DetectRemoteTaskFormat(ctx context.Context) (string, error) {
	if r.cfg.GistID == "" {
		return "none", nil
	}

	names, err := r.gateway.ListGistFilenames(ctx, r.cfg.GistID)
	if errors.Is(err, gistapi.ErrNotFound) {
		return "none", nil
	}
	if err != nil {
		return "", err
	}

	hasFile := func(name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}

		return false
	}

	if hasFile("task-index.json") {
		return "paged", nil
	}

	if hasFile(legacyTaskFilename) {
		return "legacy", nil
	}

	return "none", nil
}

func sealSecret(gistID, passphrase string, custom bool) string {
	if custom {
		return passphrase
	}

	return gistID
}
