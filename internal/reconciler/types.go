// Package reconciler implements the reconciliation engine (spec.md §4.1):
// two-way sync, one-way pull/push, Gist lifecycle, the recycle bin
// surface, and the safety gate protecting local data from bad deletes.
// It is the composition root for every other package — remote gateway,
// crypto envelope, manifest store, paged syncer, shard router, and local
// persistence are all taken as constructor inputs, per spec §9's
// "implicit singletons -> explicit collaborator objects" guidance.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/shard"
	"github.com/nullboard/gistsync/internal/store"
	"github.com/nullboard/gistsync/internal/workqueue"
)

// Sentinel errors, surfaced via typed results rather than thrown across
// component boundaries (spec.md §7).
var (
	ErrBusy                  = errors.New("reconciler: sync already in progress")
	ErrDecryptRefuseEmptyLocal = errors.New("reconciler: remote manifest undecryptable and local store is empty")
	ErrNoTarget              = errors.New("reconciler: no gist configured and none found")
)

// Gateway is the remote surface the reconciler needs. Satisfied directly
// by *gistapi.Gateway.
type Gateway interface {
	FindSyncGist(ctx context.Context) (string, error)
	GetGistFileContent(ctx context.Context, id, filename string) ([]byte, error)
	ListGistFilenames(ctx context.Context, id string) ([]string, error)
	UpdateGistFiles(ctx context.Context, id string, updates []gistapi.FileUpdate) error
	DeleteGistFiles(ctx context.Context, id string, names []string) error
	DeleteGist(ctx context.Context, id string) error
	CreateGist(ctx context.Context, description string, files map[string]string) (string, error)
}

// Sealer is the envelope encryption surface. Satisfied by *crypto.Envelope.
type Sealer interface {
	Encrypt(plaintext []byte, secret string, customPassword bool) ([]byte, error)
	Decrypt(data []byte, gistID, passphrase string) ([]byte, error)
	DecryptOrPassthrough(data []byte, gistID, passphrase string) ([]byte, error)
}

// LocalStore is every local persistence surface the reconciler touches,
// composed from internal/store's per-concern interfaces (spec.md §6.2).
type LocalStore interface {
	store.KVStore
	store.BoardStore
	store.DocumentStore
	store.DeletionPendingStore
	store.BlobCache
}

// PassphraseSource supplies the current custom passphrase, if any.
// Satisfied by (*passstore.Store).Load adapted to a bool-ok shape by the
// caller, since passstore.Load returns ErrNotSet rather than an ok bool.
type PassphraseSource func() (passphrase string, customPassword bool)

// OutcomeKind tags which variant of the Success | NeedsPassword |
// SafetyBlocked | Failed sum type a SyncResult holds (spec.md §9: "replace
// duck-typed result bags with sum types"). Go has no native sum type, so
// this is the idiomatic tagged-struct substitute: exactly one branch's
// fields are meaningful per Kind.
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeNeedsPassword OutcomeKind = "needs_password"
	OutcomeSafetyBlocked OutcomeKind = "safety_blocked"
	OutcomeFailed       OutcomeKind = "failed"
)

// CategoryCounts tallies one direction's transfers across the document
// kinds a sync round touches.
type CategoryCounts struct {
	Boards    int
	Tasks     int
	Workflows int
	Media     int
}

// SkippedItem records one item the safety gate withheld from deletion, or
// one board a classification step declined to touch.
type SkippedItem struct {
	Kind   string // "board"
	ID     string
	Reason string // "new_device", "current_board_protect", "block_all_delete", "bulk_delete", "local_newer"
}

// ConflictRecord records one board that went through element-level merge
// (spec.md §4.1.4).
type ConflictRecord struct {
	BoardID             string
	Merged              bool
	ConflictingElements []string
}

// SyncResult is the outcome of sync/pull/push, modeled as a tagged union
// over OutcomeKind.
type SyncResult struct {
	Kind OutcomeKind

	Uploaded   CategoryCounts
	Downloaded CategoryCounts
	Deleted    CategoryCounts

	Conflicts      []ConflictRecord
	SafetyWarnings []string
	SkippedItems   []SkippedItem

	NeedsPassword bool

	FailureKind    string
	FailureMessage string
	Err            error
}

// Success reports whether this result represents a committed round.
func (r SyncResult) Success() bool {
	return r.Kind == OutcomeSuccess
}

func failedResult(kind string, err error) SyncResult {
	return SyncResult{Kind: OutcomeFailed, FailureKind: kind, FailureMessage: err.Error(), Err: err}
}

func needsPasswordResult() SyncResult {
	return SyncResult{Kind: OutcomeNeedsPassword, NeedsPassword: true}
}

// Reconciler orchestrates sync/pull/push rounds over its collaborators.
// No field is a process-wide singleton; everything mutable (the in-flight
// guard, the autosync debounce timer) is owned by this instance (spec.md
// §9).
type Reconciler struct {
	gateway  Gateway
	sealer   Sealer
	local    LocalStore
	shard    *shard.Router
	media    *shard.Syncer
	work     *workqueue.Queue
	tasks    *pagedCollection[TaskContent]
	workflows *pagedCollection[WorkflowContent]

	deviceID   string
	passphrase PassphraseSource
	now        func() int64
	logger     *slog.Logger

	cfg Config

	mu             sync.Mutex
	syncInProgress bool
	hasSyncedOnce  bool

	autosyncMu    sync.Mutex
	autosyncTimer *time.Timer
	pendingChange bool

	currentBoardID string
}

// Config is the subset of internal/config's Config the reconciler needs,
// copied rather than depending on the config package's TOML/CLI concerns
// directly.
type Config struct {
	GistID             string
	LastSyncTime       int64
	AutoSyncDebounceMs int
	BulkDeletePercent  float64
	PageMaxItems       int
	PageMaxBytes       int64
	TombstoneRetention int64 // seconds
	ShardConcurrency   int
}

// Deps bundles every collaborator NewReconciler needs, so the composition
// root has one struct literal to fill in rather than a long positional
// argument list.
type Deps struct {
	Gateway    Gateway
	Sealer     Sealer
	Local      LocalStore
	ShardRouter *shard.Router
	MediaSyncer *shard.Syncer
	WorkQueue  *workqueue.Queue
	TaskStore  *store.PagedItemStore[TaskContent]
	WorkflowStore *store.PagedItemStore[WorkflowContent]
	DeviceID   string
	Passphrase PassphraseSource
	Now        func() int64
	Logger     *slog.Logger
	Config     Config
}

// NewReconciler wires a Reconciler from its collaborators.
func NewReconciler(d Deps) *Reconciler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := d.Now
	if now == nil {
		now = defaultNow
	}

	r := &Reconciler{
		gateway:    d.Gateway,
		sealer:     d.Sealer,
		local:      d.Local,
		shard:      d.ShardRouter,
		media:      d.MediaSyncer,
		work:       d.WorkQueue,
		deviceID:   d.DeviceID,
		passphrase: d.Passphrase,
		now:        now,
		logger:     logger,
		cfg:        d.Config,
		hasSyncedOnce: d.Config.LastSyncTime != 0,
	}

	r.tasks = newPagedCollection(d.TaskStore, r, "task-index.json", "tasks_p%s.json", legacyTaskFilename)
	r.workflows = newPagedCollection(d.WorkflowStore, r, "workflow-index.json", "workflows_p%s.json", "")

	return r
}

func defaultNow() int64 { return time.Now().Unix() }

// tryEnterSync claims the in-flight guard, returning false if a round is
// already running (spec.md §4.1 "BUSY" / §5 concurrency model: at most one
// sync round at a time).
func (r *Reconciler) tryEnterSync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.syncInProgress {
		return false
	}

	r.syncInProgress = true

	return true
}

func (r *Reconciler) exitSync() {
	r.mu.Lock()
	r.syncInProgress = false
	r.mu.Unlock()
}

// ShardRouter exposes the underlying shard allocation table for the CLI's
// `shard validate/repair/merge/archive/rename` command group (spec.md §4.5),
// which operates on shards directly rather than through a sync round.
func (r *Reconciler) ShardRouter() *shard.Router {
	return r.shard
}

// MediaSyncer exposes the media upload/soft-delete/restore/sweep surface
// for the same CLI command group.
func (r *Reconciler) MediaSyncer() *shard.Syncer {
	return r.media
}

// CurrentConfig snapshots the reconciler's internal config, including any
// GistID/LastSyncTime changes committed by a round since construction.
// The CLI composition root persists this back to config.toml after every
// command that may have mutated it.
func (r *Reconciler) CurrentConfig() Config {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cfg
}
